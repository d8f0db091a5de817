package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

func tavern() *store.Store {
	return store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Enter", ConnectedID: "bar"},
		}},
		store.Node{ID: "bar", Data: store.Dialogue("What'll it be?"), OutputPorts: []store.OutputPort{
			{Name: "Ale", ConnectedID: "ale"},
			{Name: "Leave", ConnectedID: store.EmptyPortID},
		}},
		store.Node{ID: "ale", Data: store.Dialogue("Here."), OutputPorts: []store.OutputPort{}},
	)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	repo := assets.NewMemoryRepository()
	if err := repo.Put(context.Background(), "tavern", tavern()); err != nil {
		t.Fatal(err)
	}
	srv := New(repo, log.New(io.Discard), opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url string, body []byte, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/version", nil, nil)
	if v := decode[map[string]string](t, resp); v["version"] == "" {
		t.Errorf("version = %v", v)
	}
}

func TestGraphCRUD(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/graphs", nil, nil)
	if names := decode[[]string](t, resp); !slices.Equal(names, []string{"tavern"}) {
		t.Errorf("list = %v", names)
	}

	resp = do(t, http.MethodGet, ts.URL+"/graphs/tavern", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	got, err := store.Read(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if store.Hash(got) != store.Hash(tavern()) {
		t.Error("served graph differs from stored graph")
	}

	resp = do(t, http.MethodGet, ts.URL+"/graphs/tavern", nil, map[string]string{"If-None-Match": etag})
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("conditional get status = %d, want 304", resp.StatusCode)
	}

	body, _ := store.Marshal(tavern())
	resp = do(t, http.MethodPut, ts.URL+"/graphs/copy", body, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	if pr := decode[PutResponse](t, resp); pr.Name != "copy" || pr.Hash != store.Hash(tavern()) {
		t.Errorf("put response = %+v", pr)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/graphs/copy", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/graphs/copy", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestPutIfMatch(t *testing.T) {
	_, ts := newTestServer(t)
	body, _ := store.Marshal(tavern())

	resp := do(t, http.MethodPut, ts.URL+"/graphs/tavern", body, map[string]string{"If-Match": `"stale"`})
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("stale If-Match status = %d, want 412", resp.StatusCode)
	}

	etag := `"` + store.Hash(tavern()) + `"`
	resp = do(t, http.MethodPut, ts.URL+"/graphs/tavern", body, map[string]string{"If-Match": etag})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("matching If-Match status = %d, want 200", resp.StatusCode)
	}
}

// slowGetRepo widens the gap between reading a graph and writing it back.
type slowGetRepo struct {
	assets.Repository
	delay time.Duration
}

func (r slowGetRepo) Get(ctx context.Context, name string) (*store.Store, error) {
	st, err := r.Repository.Get(ctx, name)
	time.Sleep(r.delay)
	return st, err
}

func TestPutIfMatchConcurrent(t *testing.T) {
	repo := assets.NewMemoryRepository()
	if err := repo.Put(context.Background(), "tavern", tavern()); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(slowGetRepo{repo, 50 * time.Millisecond}, log.New(io.Discard)))
	defer ts.Close()

	etag := `"` + store.Hash(tavern()) + `"`
	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i := range statuses {
		edited := tavern()
		edited.Nodes[2].Data = store.Dialogue(fmt.Sprintf("Edit %d", i))
		body, _ := store.Marshal(edited)

		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPut, ts.URL+"/graphs/tavern", bytes.NewReader(body))
			req.Header.Set("If-Match", etag)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}()
	}
	wg.Wait()

	slices.Sort(statuses)
	if want := []int{http.StatusOK, http.StatusPreconditionFailed}; !slices.Equal(statuses, want) {
		t.Errorf("statuses with the same If-Match = %v, want %v", statuses, want)
	}
}

func TestErrors(t *testing.T) {
	_, ts := newTestServer(t)
	dangling, _ := store.Marshal(store.New(store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
		{Name: "Out", ConnectedID: "ghost"},
	}}))

	tests := []struct {
		name       string
		method     string
		path       string
		body       []byte
		wantStatus int
		wantCode   apperr.Code
	}{
		{"missing graph", http.MethodGet, "/graphs/nope", nil, http.StatusNotFound, apperr.ErrCodeNotFound},
		{"bad name", http.MethodPut, "/graphs/..bad", dangling, http.StatusBadRequest, apperr.ErrCodeInvalidAssetName},
		{"bad json", http.MethodPut, "/graphs/x", []byte("{"), http.StatusBadRequest, apperr.ErrCodeInvalidFormat},
		{"dangling", http.MethodPut, "/graphs/x", dangling, http.StatusUnprocessableEntity, apperr.ErrCodeDanglingReference},
		{"missing session", http.MethodGet, "/sessions/nope", nil, http.StatusNotFound, apperr.ErrCodeSessionNotFound},
		{"bad format", http.MethodGet, "/graphs/tavern/dot?format=gif", nil, http.StatusBadRequest, apperr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, ts.URL+tt.path, tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if e := decode[ErrorResponse](t, resp); e.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%s)", e.Code, tt.wantCode, e.Message)
			}
		})
	}
}

func TestDiagram(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/graphs/tavern/dot?open=true", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"bar" -> "ale"`) || !strings.Contains(string(body), "Leave") {
		t.Errorf("unexpected DOT:\n%s", body)
	}
}

func TestSessionFlow(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/graphs/tavern/sessions", nil, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	st := decode[StateResponse](t, resp)
	if st.Node != store.StartNodeID || !slices.Equal(st.Options, []string{"Enter"}) {
		t.Fatalf("initial state = %+v", st)
	}
	sessURL := ts.URL + "/sessions/" + st.Session

	steps := []struct {
		index      string
		wantStatus int
		wantNode   string
		wantEnded  bool
	}{
		{`{"index": 0}`, http.StatusOK, "bar", false},
		{`{"index": 7}`, http.StatusBadRequest, "", false},
		{`{}`, http.StatusBadRequest, "", false},
		{`{"index": 1}`, http.StatusOK, "", true},
		{`{"index": 0}`, http.StatusConflict, "", false},
	}
	for _, step := range steps {
		resp := do(t, http.MethodPost, sessURL+"/select", []byte(step.index), nil)
		if resp.StatusCode != step.wantStatus {
			t.Fatalf("select %s status = %d, want %d", step.index, resp.StatusCode, step.wantStatus)
		}
		if resp.StatusCode != http.StatusOK {
			continue
		}
		st := decode[StateResponse](t, resp)
		if st.Node != step.wantNode || st.Ended != step.wantEnded {
			t.Fatalf("select %s state = %+v", step.index, st)
		}
	}

	resp = do(t, http.MethodGet, sessURL, nil, nil)
	st = decode[StateResponse](t, resp)
	if !st.Ended || !slices.Equal(st.History, []string{store.StartNodeID, "bar"}) {
		t.Errorf("final state = %+v", st)
	}

	if srv.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d", srv.SessionCount())
	}
	resp = do(t, http.MethodDelete, sessURL, nil, nil)
	if resp.StatusCode != http.StatusNoContent || srv.SessionCount() != 0 {
		t.Errorf("delete status = %d, sessions = %d", resp.StatusCode, srv.SessionCount())
	}
}

func TestSessionExpiry(t *testing.T) {
	var now atomic.Int64
	now.Store(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	_, ts := newTestServer(t, WithSessionTTL(time.Minute), WithClock(clock))

	resp := do(t, http.MethodPost, ts.URL+"/graphs/tavern/sessions", nil, nil)
	st := decode[StateResponse](t, resp)

	now.Add(int64(2 * time.Minute))
	resp = do(t, http.MethodGet, ts.URL+"/sessions/"+st.Session, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expired session status = %d, want 404", resp.StatusCode)
	}
}

func TestSessionUnknownGraph(t *testing.T) {
	srv, ts := newTestServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/graphs/missing/sessions", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if srv.SessionCount() != 0 {
		t.Error("failed start should not create a session")
	}
}

func TestDiagramSVGCached(t *testing.T) {
	_, ts := newTestServer(t)
	url := ts.URL + "/graphs/tavern/dot?format=svg"

	resp := do(t, http.MethodGet, url, nil, nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("status = %d, content type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if got := resp.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}

	resp = do(t, http.MethodGet, url, nil, nil)
	if got := resp.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<svg")) {
		t.Error("cached body is not SVG")
	}
}

package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperr "github.com/matzehuels/dialoguegraph/pkg/errors"
)

func sampleStore() *Store {
	return New(
		Node{ID: StartNodeID, OutputPorts: []OutputPort{{Name: "Out", ConnectedID: "b"}}},
		Node{
			ID:          "b",
			OutputPorts: []OutputPort{{Name: "Bye", ConnectedID: EmptyPortID}},
			Position:    &Position{X: 320, Y: 40},
			Data:        Dialogue("Hello"),
		},
	)
}

func TestLookup(t *testing.T) {
	s := sampleStore()

	tests := []struct {
		name   string
		id     string
		wantOK bool
	}{
		{"start", StartNodeID, true},
		{"regular", "b", true},
		{"unknown", "nope", false},
		{"empty sentinel", EmptyPortID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := s.Lookup(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && n.ID != tt.id {
				t.Errorf("Lookup(%q).ID = %q", tt.id, n.ID)
			}
		})
	}
}

func TestLookupNilStore(t *testing.T) {
	var s *Store
	if _, ok := s.Lookup("a"); ok {
		t.Error("Lookup on nil store should report false")
	}
}

func TestLookupZeroValue(t *testing.T) {
	var s Store
	s.Nodes = append(s.Nodes, Node{ID: "x"})
	if _, ok := s.Lookup("x"); !ok {
		t.Error("zero-value store should index appended nodes")
	}
}

func TestLookupAfterInPlaceEdit(t *testing.T) {
	s := sampleStore()
	s.Nodes[1].ID = "c"

	if _, ok := s.Lookup("b"); ok {
		t.Error("stale id b should not resolve after rename")
	}
	s.Reindex()
	if _, ok := s.Lookup("c"); !ok {
		t.Error("renamed id c should resolve after Reindex")
	}
}

func TestLookupDuplicateFirstWins(t *testing.T) {
	s := New(
		Node{ID: "a", OutputPorts: []OutputPort{{Name: "first"}}},
		Node{ID: "a", OutputPorts: []OutputPort{{Name: "second"}}},
	)
	n, ok := s.Lookup("a")
	if !ok {
		t.Fatal("Lookup(a) not found")
	}
	if n.OutputPorts[0].Name != "first" {
		t.Errorf("Lookup(a) returned %q, want first record", n.OutputPorts[0].Name)
	}
}

func TestStartNode(t *testing.T) {
	s := sampleStore()
	n, ok := s.StartNode()
	if !ok || !n.IsStart() {
		t.Fatalf("StartNode() = %v, %v", n, ok)
	}

	empty := New()
	if _, ok := empty.StartNode(); ok {
		t.Error("StartNode() on empty store should report false")
	}
}

func TestEdges(t *testing.T) {
	s := sampleStore()
	edges := s.Edges()
	if len(edges) != 1 {
		t.Fatalf("Edges() = %d, want 1", len(edges))
	}
	want := Edge{From: StartNodeID, Port: 0, Name: "Out", To: "b"}
	if edges[0] != want {
		t.Errorf("Edges()[0] = %+v, want %+v", edges[0], want)
	}
}

func TestNodeText(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"dialogue", Node{Data: Dialogue("hi")}, "hi"},
		{"no data", Node{}, ""},
		{"other kind", Node{Data: &NodeData{Kind: "choice"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleStore()
	c := s.Clone()

	c.Nodes[0].OutputPorts[0].ConnectedID = "changed"
	c.Nodes[1].Position.X = 0
	c.Nodes[1].Data.Dialogue.Text = "changed"

	if s.Nodes[0].OutputPorts[0].ConnectedID != "b" {
		t.Error("Clone shares port slices")
	}
	if s.Nodes[1].Position.X != 320 {
		t.Error("Clone shares positions")
	}
	if s.Nodes[1].Text() != "Hello" {
		t.Error("Clone shares node data")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		store     *Store
		wantCodes []apperr.Code
	}{
		{
			name:  "valid",
			store: sampleStore(),
		},
		{
			name:      "missing start",
			store:     New(Node{ID: "a"}),
			wantCodes: []apperr.Code{apperr.ErrCodeMissingStartNode},
		},
		{
			name:      "duplicate start",
			store:     New(Node{ID: StartNodeID}, Node{ID: StartNodeID}),
			wantCodes: []apperr.Code{apperr.ErrCodeDuplicateStartNode},
		},
		{
			name:      "duplicate id",
			store:     New(Node{ID: StartNodeID}, Node{ID: "a"}, Node{ID: "a"}),
			wantCodes: []apperr.Code{apperr.ErrCodeDuplicateNodeID},
		},
		{
			name: "dangling",
			store: New(Node{ID: StartNodeID, OutputPorts: []OutputPort{
				{Name: "Out", ConnectedID: "ghost"},
			}}),
			wantCodes: []apperr.Code{apperr.ErrCodeDanglingReference},
		},
		{
			name: "into start",
			store: New(
				Node{ID: StartNodeID, OutputPorts: []OutputPort{{Name: "Out", ConnectedID: "a"}}},
				Node{ID: "a", OutputPorts: []OutputPort{{Name: "Loop", ConnectedID: StartNodeID}}},
			),
			wantCodes: []apperr.Code{apperr.ErrCodeInvalidConnection},
		},
		{
			name: "several findings",
			store: New(
				Node{ID: "a", OutputPorts: []OutputPort{{Name: "Out", ConnectedID: "ghost"}}},
			),
			wantCodes: []apperr.Code{apperr.ErrCodeMissingStartNode, apperr.ErrCodeDanglingReference},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.store.Validate()
			if len(tt.wantCodes) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			for _, code := range tt.wantCodes {
				if !apperr.Is(err, code) {
					t.Errorf("Validate() = %v, missing code %s", err, code)
				}
			}
		})
	}
}

func TestMarshalPreservesOrderAndSentinels(t *testing.T) {
	s := New(
		Node{ID: "z", OutputPorts: []OutputPort{}},
		Node{ID: StartNodeID, OutputPorts: []OutputPort{
			{Name: "B", ConnectedID: EmptyPortID},
			{Name: "A", ConnectedID: "z"},
		}},
	)

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw struct {
		Nodes []struct {
			ID          string `json:"id"`
			OutputPorts []struct {
				Name        string `json:"name"`
				ConnectedID string `json:"connectedId"`
			} `json:"outputPorts"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw.Nodes[0].ID != "z" || raw.Nodes[1].ID != StartNodeID {
		t.Errorf("node order changed: %s, %s", raw.Nodes[0].ID, raw.Nodes[1].ID)
	}
	ports := raw.Nodes[1].OutputPorts
	if ports[0].Name != "B" || ports[0].ConnectedID != "" || ports[1].ConnectedID != "z" {
		t.Errorf("ports = %+v", ports)
	}
	if strings.Contains(string(data), `"position"`) {
		t.Error("nil position should be omitted")
	}
}

func TestReadDefaultsPorts(t *testing.T) {
	s, err := Read(strings.NewReader(`{"nodes":[{"id":"startnode"}]}`))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if s.Nodes[0].OutputPorts == nil {
		t.Error("missing outputPorts should decode as empty slice")
	}
	if _, ok := s.StartNode(); !ok {
		t.Error("decoded store should be indexed")
	}
}

func TestReadInvalidJSON(t *testing.T) {
	if _, err := Unmarshal([]byte("{not json")); err == nil {
		t.Error("Unmarshal should fail on invalid JSON")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.json")
	want := sampleStore()

	if err := WriteFile(want, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if Hash(got) != Hash(want) {
		t.Error("file round trip changed the store")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile should fail for a missing file")
	}
}

func TestHash(t *testing.T) {
	a := sampleStore()
	b := sampleStore()
	if Hash(a) != Hash(b) {
		t.Error("Hash should be deterministic")
	}
	if len(Hash(a)) != 64 {
		t.Errorf("Hash length = %d, want 64", len(Hash(a)))
	}
	b.Nodes[0].OutputPorts[0].Name = "Renamed"
	if Hash(a) == Hash(b) {
		t.Error("different stores should hash differently")
	}
	if Hash(&Store{}) != Hash(New()) {
		t.Error("nil and empty node lists should hash equally")
	}
}

func TestWriteEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&Store{}, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"nodes": []`) {
		t.Errorf("empty store encoded as %s", buf.String())
	}
}

package render

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

func sample() *store.Store {
	return store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Enter", ConnectedID: "bar"},
		}},
		store.Node{ID: "bar", Data: store.Dialogue("What can I get you?"), OutputPorts: []store.OutputPort{
			{Name: "Ale", ConnectedID: "ale"},
			{Name: "Nothing", ConnectedID: store.EmptyPortID},
			{Name: "Rumours", ConnectedID: "ghost"},
		}},
		store.Node{ID: "ale", OutputPorts: []store.OutputPort{}},
	)
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR",
		`"startnode" [label="startnode", peripheries=2`,
		`"bar" [label="What can I get you?"]`,
		`"ale" [label="ale"]`,
		`"startnode" -> "bar" [label="Enter"]`,
		`"bar" -> "ale" [label="Ale"]`,
		`"ghost" [label="missing: ghost"`,
		`"bar" -> "ghost" [label="Rumours", color=red, style=dashed]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "Nothing") {
		t.Error("open ports should be hidden by default")
	}
}

func TestToDOTOpenPorts(t *testing.T) {
	dot := ToDOT(sample(), Options{ShowOpenPorts: true})
	if !strings.Contains(dot, `"__open_0" [shape=point`) {
		t.Errorf("missing stub node\n%s", dot)
	}
	if !strings.Contains(dot, `"bar" -> "__open_0" [label="Nothing", style=dashed`) {
		t.Errorf("missing stub edge\n%s", dot)
	}
}

func TestToDOTStubsAvoidNodeIDs(t *testing.T) {
	st := store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Open", ConnectedID: store.EmptyPortID},
			{Name: "Next", ConnectedID: "__open_0"},
		}},
		store.Node{ID: "__open_0", OutputPorts: []store.OutputPort{
			{Name: "Also open", ConnectedID: store.EmptyPortID},
		}},
		store.Node{ID: "__open_1", OutputPorts: []store.OutputPort{}},
	)
	dot := ToDOT(st, Options{ShowOpenPorts: true})

	for _, id := range []string{"__open_0", "__open_1", "__open_2", "__open_3"} {
		decl := "\n  " + strconv.Quote(id) + " ["
		if got := strings.Count(dot, decl); got != 1 {
			t.Errorf("%s declared %d times, want 1\n%s", id, got, dot)
		}
	}
	for _, want := range []string{
		`"startnode" -> "__open_2" [label="Open", style=dashed`,
		`"__open_0" -> "__open_3" [label="Also open", style=dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a long line of dialogue", 6, "a lon…"},
		{"héllo wörld", 5, "héll…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	out, err := Render(dot, FormatDOT)
	if err != nil || string(out) != dot {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render(dot, "gif"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(sample(), Options{ShowOpenPorts: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0`)) {
		t.Error("viewBox was not normalized")
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG("digraph {"); err == nil {
		t.Error("RenderSVG should fail on malformed DOT")
	}
}

func TestDiagramCaches(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(4)
	st := sample()

	first, hit, err := Diagram(ctx, c, st, Options{}, FormatSVG)
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := Diagram(ctx, c, st, Options{}, FormatSVG)
	if err != nil || !hit || !bytes.Equal(first, second) {
		t.Errorf("second render: hit=%v err=%v", hit, err)
	}

	st.Nodes[1].Data = store.Dialogue("Changed")
	if _, hit, _ := Diagram(ctx, c, st, Options{}, FormatSVG); hit {
		t.Error("an edited store must not hit the old entry")
	}

	if _, hit, _ := Diagram(ctx, c, st, Options{}, FormatDOT); hit || c.Len() != 2 {
		t.Errorf("DOT should bypass the cache (hit=%v, len=%d)", hit, c.Len())
	}
	if _, _, err := Diagram(ctx, nil, st, Options{}, FormatDOT); err != nil {
		t.Errorf("nil cache: %v", err)
	}
}

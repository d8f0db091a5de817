package editor_test

import (
	"fmt"

	"github.com/matzehuels/dialoguegraph/pkg/editor"
	"github.com/matzehuels/dialoguegraph/pkg/store"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("line%d", n)
	}
}

func ExampleGraph_Connect() {
	// start -> "Hello there." with two answers
	g := editor.New(editor.WithIDGenerator(counter()))
	hello := g.CreateDialogueNode(store.Position{X: 300, Y: 40}, "Hello there.")
	bye := g.CreateDialogueNode(store.Position{X: 600, Y: 40}, "Goodbye.")

	_, _ = g.AddOutputPort(store.StartNodeID, "")
	_ = g.Connect(store.StartNodeID, 0, hello)
	_ = g.RenameOutputPort(hello, 0, "Wave")
	_ = g.Connect(hello, 0, bye)

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Targets of line1:", g.CompatibleTargets(hello))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Targets of line1: [line2]
}

func ExampleLoad() {
	s := store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Out", ConnectedID: "guard"},
		}},
		store.Node{ID: "guard", Data: store.Dialogue("Halt!"), OutputPorts: []store.OutputPort{
			{Name: "Flee", ConnectedID: store.EmptyPortID},
		}},
	)

	g, err := editor.Load(s)
	if err != nil {
		fmt.Println(err)
		return
	}
	guard, _ := g.Node("guard")
	fmt.Println(guard.Title, len(guard.Outputs), guard.Outputs[0].Edge == nil)
	// Stored records without a position land at the origin.
	fmt.Println(guard.Position)
	// Output:
	// Halt! 1 true
	// {0 0}
}

func ExampleLoad_dangling() {
	s := store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Out", ConnectedID: "missing"},
		}},
	)
	_, err := editor.Load(s)
	fmt.Println(err)
	// Output:
	// DANGLING_REFERENCE: node "startnode" port 0 references unknown node "missing"
}

package store_test

import (
	"fmt"

	"github.com/matzehuels/dialoguegraph/pkg/store"
)

func ExampleStore_Lookup() {
	s := store.New(
		store.Node{ID: store.StartNodeID, OutputPorts: []store.OutputPort{
			{Name: "Greet", ConnectedID: "innkeeper"},
		}},
		store.Node{ID: "innkeeper", Data: store.Dialogue("Welcome to the Prancing Pony.")},
	)

	start, _ := s.StartNode()
	next, ok := s.Lookup(start.OutputPorts[0].ConnectedID)
	fmt.Println(ok, next.Text())

	_, ok = s.Lookup("cellar")
	fmt.Println(ok)
	// Output:
	// true Welcome to the Prancing Pony.
	// false
}

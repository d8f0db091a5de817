// Package dialogue walks a Graph Store at runtime.
//
// A [Walker] holds the player's position in a dialogue. It reads only the
// flat [store.Store]; the editable graph in package editor is never
// involved at runtime.
//
// # Lifecycle
//
//	w := dialogue.NewWalker(s)
//	st, err := w.Begin()          // current node = start node
//	st, err = w.SelectOption(0)   // follow output port 0
//	if st.Ended { ... }           // port was unconnected or led nowhere
//
// The walker has an explicit ended state. Once ended, SelectOption fails
// with DIALOGUE_ENDED until Begin is called again. An out-of-range option
// index fails with INVALID_PORT_INDEX and leaves the state unchanged, so a
// running session can log it and carry on.
package dialogue

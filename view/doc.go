// Package view defines the view-model lifecycle capability and the Stack,
// an ordered collection of (view, view-model) entries with single-active-top
// semantics.
//
// The entry at index 0 is the top and is the only active entry; activation
// and deactivation strictly alternate over an entry's life. The stack is
// generalized beyond strict LIFO: entries can be inserted and removed at
// arbitrary positions, with lifecycle transitions applied only when the top
// identity changes.
//
// The Stack is not safe for concurrent use; mutate it only from the
// goroutine that owns the presentation context.
package view

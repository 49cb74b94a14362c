// Package observe implements composable observer chains over event sources.
//
// A chain is built by calling combinators on a root created from an event
// token. Each combinator returns a new node wrapping the previous one; the
// previous node is never mutated. Disposing any node unsubscribes the whole
// chain back to the source.
//
//	sub := observe.FromToken(saved.Token()).
//		Where(func(n int) bool { return n > 0 }).
//		Once().
//		OnEach(func(n int) error { ... })
//	defer sub.Dispose()
//
// Synchronous chains run depth-first in the raiser's goroutine and never
// suspend. Async chains (AsyncChain) run each stage to completion before
// the next; concurrency across distinct events exists only downstream of a
// Limit node.
package observe

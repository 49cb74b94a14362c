// Package event provides the publish primitive the rest of the framework is
// built on: a Source that privately owns raising an event, and a Token that
// exposes only registration to consumers.
//
// A Source invokes callbacks in registration order. Registering the same
// function twice registers it twice; each registration has its own
// subscription handle and must be disposed separately. Raising with no
// subscribers is a no-op.
//
// Sources are not internally synchronized. Raising concurrently with
// registration from multiple goroutines is undefined; callers needing
// cross-goroutine safety must serialize through a dispatcher.
package event

// Package dispatch provides the execution-context capability consumed by the
// observer and debounce layers. A Dispatcher runs tasks on some execution
// context: inline in the caller's goroutine (Synchronous) or on a worker
// pool with a bounded queue (Background).
//
// The framework treats dispatchers as opaque. Hosts with thread-affinity
// requirements (a UI loop, for example) supply their own implementation.
package dispatch

// Package present provides the presentation services: thin orchestration
// over a view.Stack plus a Builder collaborator.
//
// Three flavors share the stack mechanics. Item holds a single slot and
// replaces it on every Set. Stack is arbitrary-depth navigation with
// push/pop/insert and predicate-resolved PopTo. Dialog adds modal
// semantics: each shown entry has a handle that resolves when its
// view-model is disposed.
//
// Builders are looked up from a static descriptor registry; there is no
// runtime type scanning.
package present

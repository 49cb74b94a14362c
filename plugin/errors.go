package plugin

import "errors"

// Plugin host errors.
var (
	// ErrNilPlugin is returned when a nil plugin is attached.
	ErrNilPlugin = errors.New("plugin: plugin cannot be nil")

	// ErrDuplicatePlugin is returned when a plugin name is attached twice.
	ErrDuplicatePlugin = errors.New("plugin: plugin already attached")

	// ErrNotAttached is returned when detaching an unknown plugin.
	ErrNotAttached = errors.New("plugin: plugin not attached")

	// ErrHostDisposed is returned by operations on a disposed host.
	ErrHostDisposed = errors.New("plugin: host is disposed")
)

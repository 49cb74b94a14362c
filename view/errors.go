package view

import "errors"

// Sentinel errors for view-model lifecycle and stack operations.
var (
	// ErrDisposed is returned when a disposed stack or view-model is
	// operated on.
	ErrDisposed = errors.New("view: disposed")

	// ErrAlreadyActive is returned when Activate is called on an active
	// view-model; activation must strictly alternate with deactivation.
	ErrAlreadyActive = errors.New("view: view-model is already active")

	// ErrNotActive is returned when Deactivate is called on an inactive
	// view-model.
	ErrNotActive = errors.New("view: view-model is not active")
)

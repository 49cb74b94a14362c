package debounce

import "errors"

// ErrDisposed is returned when a disposed debouncer or throttler is asked
// to schedule work.
var ErrDisposed = errors.New("debounce: disposed")

package config

import (
	"errors"
	"fmt"
)

// Config errors.
var (
	// ErrUnknownFormat is returned for file extensions without a loader.
	ErrUnknownFormat = errors.New("config: unknown file format")

	// ErrWatcherClosed is returned by operations on a closed watcher.
	ErrWatcherClosed = errors.New("config: watcher is closed")
)

// ParseError reports a malformed configuration file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string

	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parsing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

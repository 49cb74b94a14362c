package luaplugin

import "errors"

// ErrClosed is returned when a plugin's Lua state has been closed.
var ErrClosed = errors.New("luaplugin: state is closed")

// Package config loads and watches framework tuning settings.
//
// Settings are read from TOML, YAML or JSON files, selected by file
// extension. A missing file is not an error: Load returns the defaults
// so hosts can ship without a config file.
//
// The Watcher reloads the file when it changes and raises a typed
// Change event through the same event machinery the rest of the
// framework uses. Change notifications are marshalled onto a
// dispatcher, so subscribers observe them with ordinary single-threaded
// event semantics.
package config

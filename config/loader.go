package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Load reads settings from path, choosing the decoder by extension
// (.toml, .yaml, .yml, .json). Fields absent from the file keep their
// defaults. A missing file returns the defaults with no error.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data using the format implied by path's extension.
func Parse(path string, data []byte) (Settings, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return parseTOML(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	case ".json":
		return parseJSON(path, data)
	default:
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func parseTOML(path string, data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, &ParseError{Path: path, Err: err}
	}
	return s.Normalize(), nil
}

func parseYAML(path string, data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, &ParseError{Path: path, Err: err}
	}
	return s.Normalize(), nil
}

// parseJSON extracts known fields by path instead of schema decoding, so
// partial files and extra keys cost nothing.
func parseJSON(path string, data []byte) (Settings, error) {
	if !gjson.ValidBytes(data) {
		return Settings{}, &ParseError{Path: path, Err: errors.New("invalid JSON")}
	}
	root := gjson.ParseBytes(data)
	s := DefaultSettings()

	if v := root.Get("dispatcher.workers"); v.Exists() {
		s.Dispatcher.Workers = int(v.Int())
	}
	if v := root.Get("dispatcher.queue_size"); v.Exists() {
		s.Dispatcher.QueueSize = int(v.Int())
	}

	var err error
	if s.Debounce.Delay, err = jsonDuration(root, "debounce.delay", s.Debounce.Delay); err != nil {
		return Settings{}, &ParseError{Path: path, Err: err}
	}
	if s.Watcher.Interval, err = jsonDuration(root, "watcher.interval", s.Watcher.Interval); err != nil {
		return Settings{}, &ParseError{Path: path, Err: err}
	}
	if s.Watcher.Debounce, err = jsonDuration(root, "watcher.debounce", s.Watcher.Debounce); err != nil {
		return Settings{}, &ParseError{Path: path, Err: err}
	}
	if v := root.Get("watcher.polling"); v.Exists() {
		s.Watcher.Polling = v.Bool()
	}
	return s.Normalize(), nil
}

func jsonDuration(root gjson.Result, key string, fallback Duration) (Duration, error) {
	v := root.Get(key)
	if !v.Exists() {
		return fallback, nil
	}
	d, err := time.ParseDuration(v.String())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return Duration(d), nil
}

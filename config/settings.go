package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keel/dispatch"
)

// Duration is a time.Duration that unmarshals from strings like "250ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. yaml.v3 does not consult
// encoding.TextUnmarshaler, so the string form is decoded here.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Settings is the framework tuning surface.
type Settings struct {
	Dispatcher DispatcherSettings `toml:"dispatcher" yaml:"dispatcher" json:"dispatcher"`
	Debounce   DebounceSettings   `toml:"debounce" yaml:"debounce" json:"debounce"`
	Watcher    WatcherSettings    `toml:"watcher" yaml:"watcher" json:"watcher"`
}

// DispatcherSettings tunes the background dispatcher.
type DispatcherSettings struct {
	// Workers is the worker goroutine count.
	Workers int `toml:"workers" yaml:"workers" json:"workers"`

	// QueueSize is the bounded task queue capacity.
	QueueSize int `toml:"queue_size" yaml:"queue_size" json:"queue_size"`
}

// DebounceSettings tunes debouncing defaults.
type DebounceSettings struct {
	// Delay is the default quiet period before a debounced action fires.
	Delay Duration `toml:"delay" yaml:"delay" json:"delay"`
}

// WatcherSettings tunes the config file watcher.
type WatcherSettings struct {
	// Interval is the polling interval used when fsnotify is
	// unavailable or polling is forced.
	Interval Duration `toml:"interval" yaml:"interval" json:"interval"`

	// Debounce coalesces rapid successive file events.
	Debounce Duration `toml:"debounce" yaml:"debounce" json:"debounce"`

	// Polling forces the polling backend.
	Polling bool `toml:"polling" yaml:"polling" json:"polling"`
}

// DefaultSettings returns the built-in defaults. They match the
// dispatch package's own constructor defaults.
func DefaultSettings() Settings {
	return Settings{
		Dispatcher: DispatcherSettings{
			Workers:   4,
			QueueSize: 1024,
		},
		Debounce: DebounceSettings{
			Delay: Duration(250 * time.Millisecond),
		},
		Watcher: WatcherSettings{
			Interval: Duration(500 * time.Millisecond),
			Debounce: Duration(100 * time.Millisecond),
		},
	}
}

// Normalize replaces non-positive values with their defaults.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if s.Dispatcher.Workers <= 0 {
		s.Dispatcher.Workers = def.Dispatcher.Workers
	}
	if s.Dispatcher.QueueSize <= 0 {
		s.Dispatcher.QueueSize = def.Dispatcher.QueueSize
	}
	if s.Debounce.Delay <= 0 {
		s.Debounce.Delay = def.Debounce.Delay
	}
	if s.Watcher.Interval <= 0 {
		s.Watcher.Interval = def.Watcher.Interval
	}
	if s.Watcher.Debounce < 0 {
		s.Watcher.Debounce = def.Watcher.Debounce
	}
	return s
}

// DispatcherOptions converts the dispatcher settings into constructor
// options for dispatch.NewBackground.
func (s Settings) DispatcherOptions() []dispatch.BackgroundOption {
	return []dispatch.BackgroundOption{
		dispatch.WithWorkerCount(s.Dispatcher.Workers),
		dispatch.WithQueueSize(s.Dispatcher.QueueSize),
	}
}

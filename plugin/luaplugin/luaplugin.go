// Package luaplugin implements plugin.Plugin on top of a Lua script.
//
// A script declares optional global hook functions that are called as the
// owner view-model moves through its lifecycle:
//
//	function on_init()       end
//	function on_activate()   end
//	function on_deactivate() end
//	function on_dispose()    end
//
// Missing hooks are skipped. When the owner supports close requests, the
// script can call the global request_close() to ask for its own removal.
package luaplugin

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keel/view"
)

// Hook function names looked up in the script's globals.
const (
	HookInit       = "on_init"
	HookActivate   = "on_activate"
	HookDeactivate = "on_deactivate"
	HookDispose    = "on_dispose"
)

// Plugin runs one Lua script in its own state.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes Go-side
// access, but hook execution itself is single-threaded.
type Plugin struct {
	mu     sync.Mutex
	name   string
	L      *lua.LState
	closed bool
}

// Option configures a Plugin before its script runs.
type Option func(*Plugin)

// WithFunction exposes a Go function as a global in the script's state.
func WithFunction(name string, fn lua.LGFunction) Option {
	return func(p *Plugin) {
		p.L.SetGlobal(name, p.L.NewFunction(fn))
	}
}

// WithModule exposes a table of Go functions under one global name.
func WithModule(name string, funcs map[string]lua.LGFunction) Option {
	return func(p *Plugin) {
		mod := p.L.SetFuncs(p.L.NewTable(), funcs)
		p.L.SetGlobal(name, mod)
	}
}

// FromString creates a plugin from Lua source text. The script runs
// immediately; its top level defines the hook functions.
func FromString(name, script string, opts ...Option) (*Plugin, error) {
	p := newPlugin(name, opts...)
	if err := p.run(func() error { return p.L.DoString(script) }); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("luaplugin %s: %w", name, err)
	}
	return p, nil
}

// FromFile creates a plugin from a Lua script file.
func FromFile(name, path string, opts ...Option) (*Plugin, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("luaplugin %s: %w", name, err)
	}
	return FromString(name, string(script), opts...)
}

func newPlugin(name string, opts ...Option) *Plugin {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	p := &Plugin{name: name, L: L}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Intentionally not opened:
	// - io (file system access)
	// - os (system calls, execute)
	// - debug (can bypass the state's isolation)
	// - package (can load arbitrary modules)
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.name }

// Initialize binds request_close to the owner when it supports close
// requests, then calls on_init.
func (p *Plugin) Initialize(owner view.Model) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if closer, ok := owner.(interface{ RequestClose() error }); ok {
		p.L.SetGlobal("request_close", p.L.NewFunction(func(L *lua.LState) int {
			if err := closer.RequestClose(); err != nil {
				L.RaiseError("request_close: %v", err)
			}
			return 0
		}))
	}
	p.mu.Unlock()
	return p.callHook(HookInit)
}

// Activate implements plugin.Plugin.
func (p *Plugin) Activate() error { return p.callHook(HookActivate) }

// Deactivate implements plugin.Plugin.
func (p *Plugin) Deactivate() error { return p.callHook(HookDeactivate) }

// Dispose calls on_dispose and closes the Lua state. Further calls
// return ErrClosed.
func (p *Plugin) Dispose() error {
	err := p.callHook(HookDispose)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.L.Close()
	}
	return err
}

// IsClosed reports whether the plugin's Lua state has been closed.
func (p *Plugin) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Call invokes a global Lua function by name with no arguments, for host
// integrations beyond the lifecycle hooks.
func (p *Plugin) Call(fn string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	v := p.L.GetGlobal(fn)
	if v.Type() != lua.LTFunction {
		return fmt.Errorf("luaplugin %s: %q is not a function (got %s)", p.name, fn, v.Type())
	}
	return p.pcall(v)
}

// GetGlobal returns a script global as a Go value. Tables come back as
// the lua.LValue; scalars convert to string, float64 or bool.
func (p *Plugin) GetGlobal(name string) any {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	switch v := p.L.GetGlobal(name).(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
		return nil
	default:
		return v
	}
}

// callHook runs the named hook when the script defines it.
func (p *Plugin) callHook(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	v := p.L.GetGlobal(name)
	if v.Type() != lua.LTFunction {
		// Hooks are optional.
		return nil
	}
	if err := p.pcall(v); err != nil {
		return fmt.Errorf("luaplugin %s: %s: %w", p.name, name, err)
	}
	return nil
}

// pcall calls fn with panic recovery. Caller holds p.mu.
func (p *Plugin) pcall(fn lua.LValue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	p.L.Push(fn)
	return p.L.PCall(0, 0, nil)
}

// run executes fn with panic recovery, outside the lifecycle path.
func (p *Plugin) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

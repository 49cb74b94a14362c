package plugin

import (
	"errors"
	"testing"

	"github.com/dshills/keel/view"
)

// recordingPlugin logs its lifecycle calls into a shared slice.
type recordingPlugin struct {
	name    string
	log     *[]string
	initErr error
	actErr  error
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) Initialize(view.Model) error {
	*p.log = append(*p.log, p.name+":init")
	return p.initErr
}

func (p *recordingPlugin) Activate() error {
	*p.log = append(*p.log, p.name+":activate")
	return p.actErr
}

func (p *recordingPlugin) Deactivate() error {
	*p.log = append(*p.log, p.name+":deactivate")
	return nil
}

func (p *recordingPlugin) Dispose() error {
	*p.log = append(*p.log, p.name+":dispose")
	return nil
}

func TestHost_MirrorsOwnerLifecycle(t *testing.T) {
	var log []string
	owner := view.NewCore()
	h := NewHost(owner)

	a := &recordingPlugin{name: "a", log: &log}
	b := &recordingPlugin{name: "b", log: &log}
	if err := h.Attach(a); err != nil {
		t.Fatalf("Attach(a) error = %v", err)
	}
	if err := h.Attach(b); err != nil {
		t.Fatalf("Attach(b) error = %v", err)
	}

	if err := owner.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := owner.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := owner.Deactivate(); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	owner.Dispose()

	want := []string{
		"a:init", "b:init",
		"a:activate", "b:activate",
		"b:deactivate", "a:deactivate",
		"b:dispose", "a:dispose",
	}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q (full: %v)", i, log[i], want[i], log)
		}
	}
	if !h.IsDisposed() {
		t.Error("host not disposed with its owner")
	}
}

func TestHost_LateAttachCatchesUp(t *testing.T) {
	var log []string
	owner := view.NewCore()
	if err := owner.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := owner.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	h := NewHost(owner)
	p := &recordingPlugin{name: "late", log: &log}
	if err := h.Attach(p); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	want := []string{"late:init", "late:activate"}
	if len(log) != 2 || log[0] != want[0] || log[1] != want[1] {
		t.Fatalf("log = %v, want %v", log, want)
	}
	if st, ok := h.StateOf("late"); !ok || st != StateActive {
		t.Errorf("StateOf(late) = %v, %v; want StateActive, true", st, ok)
	}
}

func TestHost_FailingPluginIsQuarantined(t *testing.T) {
	var log []string
	var reported []error
	boom := errors.New("boom")

	owner := view.NewCore()
	h := NewHost(owner, WithErrorHandler(func(name string, err error) {
		reported = append(reported, err)
	}))

	bad := &recordingPlugin{name: "bad", log: &log, initErr: boom}
	good := &recordingPlugin{name: "good", log: &log}
	if err := h.Attach(bad); err != nil {
		t.Fatalf("Attach(bad) error = %v", err)
	}
	if err := h.Attach(good); err != nil {
		t.Fatalf("Attach(good) error = %v", err)
	}

	// Plugin failures never abort the owner's own transition.
	if err := owner.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := owner.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if st, _ := h.StateOf("bad"); st != StateError {
		t.Errorf("StateOf(bad) = %v, want StateError", st)
	}
	if !errors.Is(h.ErrorOf("bad"), boom) {
		t.Errorf("ErrorOf(bad) = %v, want boom", h.ErrorOf("bad"))
	}
	if st, _ := h.StateOf("good"); st != StateActive {
		t.Errorf("StateOf(good) = %v, want StateActive", st)
	}
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Errorf("reported errors = %v, want exactly the init failure", reported)
	}
	// The quarantined plugin saw init but never activate.
	for _, entry := range log {
		if entry == "bad:activate" {
			t.Error("quarantined plugin was activated")
		}
	}
}

func TestHost_AttachValidation(t *testing.T) {
	owner := view.NewCore()
	h := NewHost(owner)

	if err := h.Attach(nil); !errors.Is(err, ErrNilPlugin) {
		t.Errorf("Attach(nil) error = %v, want ErrNilPlugin", err)
	}

	var log []string
	p := &recordingPlugin{name: "p", log: &log}
	if err := h.Attach(p); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	dup := &recordingPlugin{name: "p", log: &log}
	if err := h.Attach(dup); !errors.Is(err, ErrDuplicatePlugin) {
		t.Errorf("duplicate Attach error = %v, want ErrDuplicatePlugin", err)
	}
}

func TestHost_Detach(t *testing.T) {
	var log []string
	owner := view.NewCore()
	h := NewHost(owner)
	p := &recordingPlugin{name: "p", log: &log}
	if err := h.Attach(p); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := owner.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := owner.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if err := h.Detach("p"); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	want := []string{"p:init", "p:activate", "p:deactivate", "p:dispose"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	if err := h.Detach("p"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("second Detach error = %v, want ErrNotAttached", err)
	}
	if len(h.Plugins()) != 0 {
		t.Errorf("Plugins() = %v, want empty", h.Plugins())
	}
}

func TestHost_DisposeIdempotent(t *testing.T) {
	var log []string
	owner := view.NewCore()
	h := NewHost(owner)
	p := &recordingPlugin{name: "p", log: &log}
	if err := h.Attach(p); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	h.Dispose()
	h.Dispose()
	if n := len(log); n != 1 || log[0] != "p:dispose" {
		t.Errorf("log = %v, want a single dispose", log)
	}
	if err := h.Attach(&recordingPlugin{name: "q", log: &log}); !errors.Is(err, ErrHostDisposed) {
		t.Errorf("Attach() after Dispose error = %v, want ErrHostDisposed", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateAttached, "attached"},
		{StateInitialized, "initialized"},
		{StateActive, "active"},
		{StateError, "error"},
		{StateDisposed, "disposed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

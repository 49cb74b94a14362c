// Package main is stackpad, a small terminal host demonstrating the keel
// presentation stack: pages are view-models on a stack presenter, the top
// page renders, and lifecycle events drive the status line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keel/config"
	"github.com/dshills/keel/debounce"
	"github.com/dshills/keel/dispatch"
	"github.com/dshills/keel/event"
	"github.com/dshills/keel/observe"
	"github.com/dshills/keel/present"
	"github.com/dshills/keel/view"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a settings file (toml, yaml or json)")
	flag.Parse()

	settings := config.DefaultSettings()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		settings = loaded
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing screen: %v\n", err)
		return 1
	}
	defer screen.Fini()

	bg := dispatch.NewBackground(settings.DispatcherOptions()...)
	if err := bg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: starting dispatcher: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = bg.Stop(ctx)
	}()

	app := newApp(screen, settings, bg)
	defer app.dispose()
	app.loop()
	return 0
}

// page is the demo view-model. It counts its own lifecycle transitions.
type page struct {
	*view.Core
	title       string
	activations int
}

func newPage(title string) *page {
	p := &page{Core: view.NewCore(), title: title}
	p.Activated().Register(func(event.Void) error {
		p.activations++
		return nil
	})
	return p
}

// app owns the screen, the presenter and the redraw plumbing.
type app struct {
	screen    tcell.Screen
	presenter *present.Stack
	resizeDeb *debounce.Debouncer
	status    string
	pageSeq   int
}

func newApp(screen tcell.Screen, settings config.Settings, bg *dispatch.Background) *app {
	a := &app{screen: screen}

	reg := present.NewRegistry()
	if err := reg.Register("page", func(param any) (view.Pair, error) {
		title, _ := param.(string)
		if title == "" {
			title = "page"
		}
		return view.Pair{View: nil, Model: newPage(title)}, nil
	}); err != nil {
		panic(err)
	}
	a.presenter = present.NewStack(reg)

	// The status line follows the stack through the same observable
	// surface any host would use.
	observe.FromToken(a.presenter.CurrentChanged()).OnEach(func(c view.Current) error {
		switch {
		case c.Model == nil:
			a.status = "stack empty"
		case c.IsNew:
			a.status = fmt.Sprintf("pushed %s", c.Model.(*page).title)
		default:
			a.status = fmt.Sprintf("back to %s", c.Model.(*page).title)
		}
		return nil
	})

	// Resize storms coalesce into one redraw request. The debounced
	// action runs on the worker pool, so it only posts back to the
	// event loop; PostEvent is safe from any goroutine.
	a.resizeDeb = debounce.New(settings.Debounce.Delay.Std(), bg)

	a.push()
	return a
}

func (a *app) push() {
	a.pageSeq++
	title := fmt.Sprintf("page %d", a.pageSeq)
	if err := a.presenter.Push(present.Descriptor{Name: "page", Param: title}); err != nil {
		a.status = fmt.Sprintf("push failed: %v", err)
	}
}

func (a *app) loop() {
	for {
		a.draw()
		ev := a.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			a.screen.Sync()
			_ = a.resizeDeb.Call(func(context.Context) error {
				a.screen.PostEvent(tcell.NewEventInterrupt(nil))
				return nil
			})
		case *tcell.EventInterrupt:
			// Debounced redraw request; the top of the loop draws.
		case *tcell.EventKey:
			if !a.handleKey(ev) {
				return
			}
		}
	}
}

// handleKey returns false when the app should exit.
func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
		return false
	case ev.Rune() == 'n':
		a.push()
	case ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2 || ev.Rune() == 'p':
		if _, err := a.presenter.Pop(1); err != nil {
			a.status = fmt.Sprintf("pop failed: %v", err)
		}
	case ev.Rune() == 'c':
		// Close via the view-model's own request, exercising the
		// stack's auto-close path.
		if cur := a.presenter.Current(); cur != nil {
			if err := cur.Model().(*page).RequestClose(); err != nil {
				a.status = fmt.Sprintf("close failed: %v", err)
			}
		}
	case ev.Rune() == 'a':
		if err := a.presenter.ActivateCurrent(); err != nil {
			a.status = fmt.Sprintf("activate failed: %v", err)
		}
	case ev.Rune() == 'x':
		if err := a.presenter.Clear(); err != nil {
			a.status = fmt.Sprintf("clear failed: %v", err)
		}
	}
	return true
}

func (a *app) dispose() {
	a.resizeDeb.Dispose()
	a.presenter.Dispose()
}

func (a *app) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()

	bar := tcell.StyleDefault.Reverse(true)
	drawText(a.screen, 0, 0, width, bar, " stackpad ")
	drawText(a.screen, 0, height-1, width, bar,
		" n:push  p:pop  c:close  a:reactivate  x:clear  q:quit ")

	y := 2
	models := a.presenter.Models()
	for i, m := range models {
		pg := m.(*page)
		marker := "  "
		if i == 0 {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-12s active=%-5v activations=%d", marker, pg.title, pg.IsActive(), pg.activations)
		drawText(a.screen, 2, y, width-2, tcell.StyleDefault, line)
		y++
	}
	if len(models) == 0 {
		drawText(a.screen, 2, y, width-2, tcell.StyleDefault, "(empty; press n)")
		y++
	}

	drawText(a.screen, 2, y+1, width-2, tcell.StyleDefault.Dim(true), a.status)
	a.screen.Show()
}

func drawText(s tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
}

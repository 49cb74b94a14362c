package view

// PopOptions selects how many entries to remove from the top of a stack
// before a navigation operation. Resolution is pure: it inspects a
// snapshot of view-models and returns a count, mutating nothing, so it
// must be re-evaluated fresh against current stack state on every use.
type PopOptions struct {
	kind      popKind
	count     int
	pred      func(Model) bool
	fromTop   bool
	inclusive bool
}

type popKind int

const (
	popCountKind popKind = iota
	popAllKind
	popQueryKind
)

// PopNone pops nothing.
func PopNone() PopOptions {
	return PopCount(0)
}

// PopCount pops exactly n entries (clamped to the stack depth).
func PopCount(n int) PopOptions {
	return PopOptions{kind: popCountKind, count: n}
}

// PopAll removes every entry.
func PopAll() PopOptions {
	return PopOptions{kind: popAllKind}
}

// PopQuery pops entries above a target view-model. Models are scanned
// top-to-bottom when fromTop is true, bottom-to-top otherwise, for the
// first match of pred; with inclusive the match itself is popped too.
// No match resolves to zero.
func PopQuery(pred func(Model) bool, fromTop, inclusive bool) PopOptions {
	return PopOptions{kind: popQueryKind, pred: pred, fromTop: fromTop, inclusive: inclusive}
}

// Resolve computes the concrete pop count against models, given in
// top-to-bottom order.
func (o PopOptions) Resolve(models []Model) int {
	switch o.kind {
	case popAllKind:
		return len(models)
	case popQueryKind:
		return o.resolveQuery(models)
	default:
		if o.count < 0 {
			return 0
		}
		if o.count > len(models) {
			return len(models)
		}
		return o.count
	}
}

func (o PopOptions) resolveQuery(models []Model) int {
	if o.pred == nil {
		return 0
	}
	if o.fromTop {
		for i, m := range models {
			if o.pred(m) {
				return i + boolToInt(o.inclusive)
			}
		}
		return 0
	}
	for i := len(models) - 1; i >= 0; i-- {
		if o.pred(models[i]) {
			return i + boolToInt(o.inclusive)
		}
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package find

import (
	"context"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/shared/id"
)

// Kind is a class of fetch. At most one fetch of each kind is live.
type Kind int

const (
	KindCategory Kind = iota
	KindIcons
	// KindGrace is the all-icons self-correction timer
	KindGrace
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindIcons:
		return "icons"
	case KindGrace:
		return "all_icons_grace"
	default:
		return "unknown"
	}
}

// token is the handle of one live fetch or timer
type token struct {
	id     id.TokenID
	kind   Kind
	op     string
	trace  context.Context // carries the trace; never cancelled by the arena
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer
	clock  *monitoring.Timer
}

func (t *token) stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.cancel != nil {
		t.cancel()
	}
}

// arena maps each fetch kind to its single live token. Every method must be
// called with the coordinator lock held; that lock is also held when a fetch
// checks it is still current, so a replaced token can never deliver.
type arena struct {
	live    map[Kind]*token
	metrics *monitoring.Metrics
}

func newArena(metrics *monitoring.Metrics) *arena {
	return &arena{
		live:    make(map[Kind]*token),
		metrics: metrics,
	}
}

// replace cancels the live token of kind and installs a new one whose context
// derives from trace.
func (a *arena) replace(kind Kind, op string, trace context.Context) *token {
	a.cancel(kind)

	ctx, cancel := context.WithCancel(trace)
	tok := &token{
		id:     id.NewTokenID(),
		kind:   kind,
		op:     op,
		trace:  trace,
		ctx:    ctx,
		cancel: cancel,
		clock:  monitoring.NewTimer(a.metrics, op),
	}
	a.live[kind] = tok
	return tok
}

// arm installs a timer token running fn after d. fn must re-check current.
func (a *arena) arm(kind Kind, op string, d time.Duration, fn func(*token)) *token {
	a.cancel(kind)

	tok := &token{id: id.NewTokenID(), kind: kind, op: op}
	tok.timer = time.AfterFunc(d, func() { fn(tok) })
	a.live[kind] = tok
	return tok
}

// cancel stops the live token of kind. It reports whether one was live.
func (a *arena) cancel(kind Kind) bool {
	tok, ok := a.live[kind]
	if !ok {
		return false
	}
	delete(a.live, kind)
	tok.stop()
	a.metrics.RecordSuperseded(kind.String())
	if tok.clock != nil {
		tok.clock.Stop("superseded")
	}
	return true
}

func (a *arena) cancelAll() {
	for _, kind := range []Kind{KindCategory, KindIcons, KindGrace} {
		a.cancel(kind)
	}
}

// current reports whether tok is still the live token of its kind
func (a *arena) current(tok *token) bool {
	return a.live[tok.kind] == tok
}

// release retires a token that finished with the given status
func (a *arena) release(tok *token, status string) {
	if a.live[tok.kind] == tok {
		delete(a.live, tok.kind)
	}
	tok.stop()
	if tok.clock != nil {
		tok.clock.Stop(status)
	}
}

// inFlight reports whether a token of kind is live
func (a *arena) inFlight(kind Kind) bool {
	_, ok := a.live[kind]
	return ok
}

package detail

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/iconfind/internal/broadcast"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/shared/id"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"go.uber.org/zap"
)

// Lookuper resolves a word to dictionary entries or suggestions
type Lookuper interface {
	Lookup(ctx context.Context, word string) (*Lookup, error)
}

// pending is the one live lookup of a panel
type pending struct {
	id     id.TokenID
	cancel context.CancelFunc
	clock  *monitoring.Timer
}

// Panel holds the icon detail view: the selected icon and the dictionary
// lookup of its word. Only the latest lookup ever publishes.
type Panel struct {
	dict    Lookuper
	logger  *zap.Logger
	metrics *monitoring.Metrics

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	live   *pending
	closed bool

	icon        *broadcast.Subject[*types.Icon]
	entries     *broadcast.Subject[[]types.WordEntry]
	suggestions *broadcast.Subject[[]string]
	loading     *broadcast.Subject[bool]
	failures    *broadcast.Subject[error]
}

// NewPanel creates an empty panel
func NewPanel(dict Lookuper, logger *zap.Logger, metrics *monitoring.Metrics) *Panel {
	root, cancel := context.WithCancel(context.Background())
	return &Panel{
		dict:        dict,
		logger:      logging.OrNop(logger).Named("detail"),
		metrics:     metrics,
		root:        root,
		cancel:      cancel,
		icon:        broadcast.New[*types.Icon](nil),
		entries:     broadcast.New([]types.WordEntry{}),
		suggestions: broadcast.New([]string{}),
		loading:     broadcast.New(false),
		failures:    broadcast.New[error](nil),
	}
}

// Icon streams the selected icon; nil until the first Select
func (p *Panel) Icon() broadcast.Stream[*types.Icon] { return p.icon }

// Entries streams the dictionary entries of the latest lookup
func (p *Panel) Entries() broadcast.Stream[[]types.WordEntry] { return p.entries }

// Suggestions streams spelling suggestions for an unknown word. Suggest
// clears them and never repopulates them.
func (p *Panel) Suggestions() broadcast.Stream[[]string] { return p.suggestions }

// Loading streams whether a lookup is in flight
func (p *Panel) Loading() broadcast.Stream[bool] { return p.loading }

// Failures streams the error of the latest lookup; nil once a new one starts
func (p *Panel) Failures() broadcast.Stream[error] { return p.failures }

// Select shows icon and looks up its word, superseding any lookup in flight
func (p *Panel) Select(icon types.Icon) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.icon.Publish(&icon)
	p.metrics.RecordEmit("detail_icon")
	p.startLocked("select", icon.Word, true)
}

// Suggest looks up a suggested spelling. Suggestions are cleared.
func (p *Panel) Suggest(word string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.suggestions.Publish([]string{})
	p.startLocked("suggest", word, false)
}

// Close cancels the live lookup and closes the streams
func (p *Panel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.supersedeLocked()
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	p.icon.Close()
	p.entries.Close()
	p.suggestions.Close()
	p.loading.Close()
	p.failures.Close()
}

func (p *Panel) supersedeLocked() {
	if p.live == nil {
		return
	}
	p.live.cancel()
	p.live.clock.Stop("superseded")
	p.metrics.RecordSuperseded("lookup")
	p.live = nil
}

func (p *Panel) startLocked(op, word string, withSuggestions bool) {
	p.supersedeLocked()

	ctx, cancel := context.WithCancel(p.root)
	job := &pending{
		id:     id.NewTokenID(),
		cancel: cancel,
		clock:  monitoring.NewTimer(p.metrics, "lookup_"+op),
	}
	p.live = job
	p.loading.Publish(true)
	if p.failures.Value() != nil {
		p.failures.Publish(nil)
	}
	p.logger.Debug("looking up word",
		zap.String("word", word),
		zap.String("token", job.id.String()))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		result, err := p.dict.Lookup(ctx, word)
		p.deliver(job, result, err, withSuggestions)
	}()
}

func (p *Panel) deliver(job *pending, result *Lookup, err error, withSuggestions bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live != job {
		return
	}
	p.live = nil
	job.cancel()
	p.loading.Publish(false)

	if err != nil {
		job.clock.Stop("error")
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn("lookup failed", zap.Error(err))
		p.failures.Publish(err)
		return
	}
	job.clock.Stop("ok")

	p.entries.Publish(result.Entries)
	p.metrics.RecordEmit("detail_entries")
	if withSuggestions {
		p.suggestions.Publish(result.Suggestions)
		p.metrics.RecordEmit("detail_suggestions")
	}
}

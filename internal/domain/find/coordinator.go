package find

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/broadcast"
	"github.com/GriffinCanCode/iconfind/internal/domain/catalog"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"go.uber.org/zap"
)

// BreadcrumbSeparator joins the ancestor path of the selected category
const BreadcrumbSeparator = " » "

const opLoadMore = "load_more"

// DefaultAllIconsGrace is how long an "all icons off, no category" state is
// tolerated before all-icons mode is switched back on
const DefaultAllIconsGrace = 100 * time.Millisecond

// IconLister fetches a page of icons
type IconLister interface {
	List(ctx context.Context, q catalog.IconQuery) (*resource.ClientDataList[types.Icon], error)
}

// CategoryRetriever fetches one category with its path and children
type CategoryRetriever interface {
	Retrieve(ctx context.Context, id types.CategoryID) (*resource.ClientData[types.Category], error)
}

// FetchError is published when a fetch fails. Existing results stay in place.
type FetchError struct {
	Kind Kind
	Err  error
	At   time.Time
}

func (e *FetchError) Error() string {
	return e.Kind.String() + " fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Coordinator
type Options struct {
	Logger        *zap.Logger
	Metrics       *monitoring.Metrics
	Tracer        *tracing.Tracer
	AllIconsGrace time.Duration
}

// Coordinator is the navigation state machine. It owns the session state and
// the result streams; state changes only through its methods, which are safe
// to call from any goroutine.
type Coordinator struct {
	icons      IconLister
	categories CategoryRetriever
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
	grace      time.Duration

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	arena  *arena
	closed bool

	category     *broadcast.Subject[*resource.ClientData[types.Category]]
	categoryList *broadcast.Subject[*resource.ClientDataList[types.Category]]
	iconList     *broadcast.Subject[*resource.ClientDataList[types.Icon]]
	resets       *broadcast.Subject[uint64]
	failures     *broadcast.Subject[*FetchError]
}

// New creates a coordinator in its initial state: no query, no category,
// all-icons mode, page 1.
func New(icons IconLister, categories CategoryRetriever, opts Options) *Coordinator {
	grace := opts.AllIconsGrace
	if grace <= 0 {
		grace = DefaultAllIconsGrace
	}
	root, cancel := context.WithCancel(context.Background())
	now := time.Now()

	return &Coordinator{
		icons:      icons,
		categories: categories,
		logger:     logging.OrNop(opts.Logger).Named("find"),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		grace:      grace,
		root:       root,
		cancel:     cancel,
		state: State{
			Page:              1,
			AllIcons:          true,
			Breadcrumbs:       catalog.RootName,
			LoadingCategories: true,
			LoadingIcons:      true,
		},
		arena:        newArena(opts.Metrics),
		category:     broadcast.New[*resource.ClientData[types.Category]](nil),
		categoryList: broadcast.New(resource.EmptyList[types.Category](now)),
		iconList:     broadcast.New(resource.EmptyList[types.Icon](now)),
		resets:       broadcast.New[uint64](0),
		failures:     broadcast.New[*FetchError](nil),
	}
}

// Category streams the resolved selected category; nil before any selection
func (c *Coordinator) Category() broadcast.Stream[*resource.ClientData[types.Category]] {
	return c.category
}

// Categories streams the children of the resolved category
func (c *Coordinator) Categories() broadcast.Stream[*resource.ClientDataList[types.Category]] {
	return c.categoryList
}

// Icons streams the latest icon page. Pages are not merged; see AppendPage.
func (c *Coordinator) Icons() broadcast.Stream[*resource.ClientDataList[types.Icon]] {
	return c.iconList
}

// Resets streams a counter bumped on every Reset
func (c *Coordinator) Resets() broadcast.Stream[uint64] {
	return c.resets
}

// Failures streams the latest fetch failure
func (c *Coordinator) Failures() broadcast.Stream[*FetchError] {
	return c.failures
}

// State returns a snapshot of the session state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Flags returns the derived flags of the current state
func (c *Coordinator) Flags() Flags {
	return FlagsOf(c.State())
}

// SetAllIconsMode switches all-icons mode. Turning it off with no category
// selected is tolerated for the grace period, then reverted.
func (c *Coordinator) SetAllIconsMode(checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.resetCategoriesLocked()
	c.resetIconsLocked(true)
	c.state.AllIcons = checked

	if !checked && c.state.CategoryID == nil {
		c.arena.arm(KindGrace, "all_icons_grace", c.grace, c.restoreAllIcons)
	} else {
		c.arena.cancel(KindGrace)
	}

	c.fetchLocked("set_all_icons", false)
}

func (c *Coordinator) restoreAllIcons(tok *token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.arena.current(tok) {
		return
	}
	c.arena.release(tok, "ok")

	if !c.state.AllIcons && c.state.CategoryID == nil {
		c.state.AllIcons = true
		c.logger.Debug("all-icons mode restored")
	}
}

// SetQuery replaces the search text and starts over at page 1
func (c *Coordinator) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.resetCategoriesLocked()
	c.resetIconsLocked(true)
	c.state.Query = query

	c.fetchLocked("set_query", false)
}

// SelectCategory scopes the session to id and re-resolves it, recomputing
// the breadcrumbs. With a query set the old trail stays until the category
// resolves; otherwise, or when id is nil, it is blanked up front. A nil id
// clears the scope.
func (c *Coordinator) SelectCategory(id *types.CategoryID, allIcons bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if id != nil {
		v := *id
		id = &v
	}
	c.state.CategoryID = id
	c.resetCategoriesLocked()
	c.resetIconsLocked(true)
	c.state.AllIcons = allIcons
	if c.state.Query == "" || id == nil {
		c.state.Breadcrumbs = ""
	}
	if id == nil {
		now := time.Now()
		c.publishCategoryLocked(nil)
		c.publishCategoriesLocked(resource.EmptyList[types.Category](now))
	}
	if id != nil || allIcons {
		c.arena.cancel(KindGrace)
	}

	c.fetchLocked("select_category", true)
}

// ClearCategory drops the category scope and returns to all-icons mode
func (c *Coordinator) ClearCategory() {
	c.SelectCategory(nil, true)
}

// LoadMore advances to the next page without clearing the icon stream. It
// does nothing, and returns false, while icons are loading, when there is
// nothing to page through or when the last page is showing. A failed page
// rolls the cursor back.
func (c *Coordinator) LoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.LoadingIcons || c.state.EmptyQuery() {
		return false
	}
	if p := c.iconList.Value().Pagination; !p.IsEmpty() && !p.NextPageExists {
		return false
	}

	c.resetIconsLocked(false)
	c.fetchLocked(opLoadMore, false)
	return true
}

// ResetIcons applies the pagination reset law: empty starts over at page 1
// with the canonical empty list, otherwise the page advances and the list is
// left alone. It issues no fetch, so LoadingIcons stays set only while a
// fetch that will deliver icons is already in flight.
func (c *Coordinator) ResetIcons(empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetIconsLocked(empty)
	c.state.LoadingIcons = c.arena.inFlight(KindIcons) || c.arena.inFlight(KindCategory)
}

// Reset clears the category scope and breadcrumbs, turns all-icons mode on,
// cancels every live fetch and notifies Resets subscribers.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.arena.cancelAll()
	c.state.CategoryID = nil
	c.state.Breadcrumbs = ""
	c.state.AllIcons = true
	c.state.LoadingCategories = false
	c.state.LoadingIcons = false

	c.resets.Publish(c.resets.Value() + 1)
	c.metrics.RecordEmit("resets")
	c.metrics.RecordTransition("reset", "ok", 0)
	c.logger.Debug("navigation reset")
}

// Close cancels every fetch, waits for them to finish and closes the streams
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.arena.cancelAll()
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	c.category.Close()
	c.categoryList.Close()
	c.iconList.Close()
	c.resets.Close()
	c.failures.Close()
}

func (c *Coordinator) resetCategoriesLocked() {
	c.state.LoadingCategories = true
}

func (c *Coordinator) resetIconsLocked(empty bool) {
	c.state.LoadingIcons = true
	if empty {
		c.state.Page = 1
		c.publishIconsLocked(resource.EmptyList[types.Icon](time.Now()))
	} else {
		c.state.Page++
	}
}

// fetchLocked starts the fetch pipeline for the current state. With an
// empty query it cancels outstanding fetches instead. The category step runs
// first when a category is selected and not yet resolved (or force is set);
// the icon step is started from its success path.
func (c *Coordinator) fetchLocked(op string, force bool) {
	logger := c.logger.With(zap.String("op", op))

	if c.state.EmptyQuery() {
		c.arena.cancel(KindCategory)
		c.arena.cancel(KindIcons)
		c.state.LoadingCategories = false
		c.state.LoadingIcons = false
		c.metrics.RecordTransition(op, "skipped", 0)
		logger.Debug("empty query, nothing to fetch")
		return
	}

	span, trace := c.tracer.StartSpan(tracing.WithTrace(c.root), "find."+op)
	span.SetTag("query", c.state.Query)
	c.tracer.Finish(span)

	if id := c.state.CategoryID; id != nil && (force || c.arena.inFlight(KindCategory) || !c.categoryResolvedLocked(*id)) {
		c.arena.cancel(KindIcons)
		tok := c.arena.replace(KindCategory, op, trace)
		logger.Debug("fetching category",
			zap.Int64("category", *id),
			zap.String("token", tok.id.String()),
			zap.String("trace", string(tracing.GetTraceID(trace))))

		c.wg.Add(1)
		go c.runCategory(tok, *id)
		return
	}

	c.state.LoadingCategories = false
	c.startIconsLocked(op, trace)
}

func (c *Coordinator) categoryResolvedLocked(id types.CategoryID) bool {
	current := c.category.Value()
	return current != nil && current.Data.ID == id
}

func (c *Coordinator) runCategory(tok *token, id types.CategoryID) {
	defer c.wg.Done()

	data, err := c.categories.Retrieve(tok.ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.arena.current(tok) {
		return
	}

	c.state.LoadingCategories = false
	if err != nil {
		c.arena.release(tok, "error")
		c.state.LoadingIcons = false
		c.failLocked(KindCategory, err)
		return
	}
	c.arena.release(tok, "ok")

	c.state.Breadcrumbs = breadcrumbs(data.Data)
	c.publishCategoryLocked(data)
	c.publishCategoriesLocked(&resource.ClientDataList[types.Category]{
		Success:    data.Success,
		Errors:     data.Errors,
		Data:       data.Data.Children,
		Pagination: singlePage(len(data.Data.Children)),
		Retrieved:  data.Retrieved,
	})

	c.startIconsLocked(tok.op, tok.trace)
}

func (c *Coordinator) startIconsLocked(op string, trace context.Context) {
	q := catalog.IconQuery{Query: c.state.Query, Page: c.state.Page}
	if !c.state.AllIcons && c.state.CategoryID != nil {
		id := *c.state.CategoryID
		q.Category = &id
	}

	tok := c.arena.replace(KindIcons, op, trace)
	c.logger.Debug("fetching icons",
		zap.String("op", op),
		zap.String("query", q.Query),
		zap.Int("page", q.Page),
		zap.String("token", tok.id.String()))

	c.wg.Add(1)
	go c.runIcons(tok, q)
}

func (c *Coordinator) runIcons(tok *token, q catalog.IconQuery) {
	defer c.wg.Done()

	list, err := c.icons.List(tok.ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.arena.current(tok) {
		return
	}

	c.state.LoadingIcons = false
	if err != nil {
		c.arena.release(tok, "error")
		if tok.op == opLoadMore && c.state.Page == q.Page {
			c.state.Page--
		}
		c.failLocked(KindIcons, err)
		return
	}
	c.arena.release(tok, "ok")
	c.publishIconsLocked(list)
}

func (c *Coordinator) failLocked(kind Kind, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Warn("fetch failed", zap.String("kind", kind.String()), zap.Error(err))
	c.failures.Publish(&FetchError{Kind: kind, Err: err, At: time.Now()})
	c.metrics.RecordEmit("failures")
}

func (c *Coordinator) publishCategoryLocked(v *resource.ClientData[types.Category]) {
	c.category.Publish(v)
	c.metrics.RecordEmit("category")
}

func (c *Coordinator) publishCategoriesLocked(v *resource.ClientDataList[types.Category]) {
	c.categoryList.Publish(v)
	c.metrics.RecordEmit("categories")
}

func (c *Coordinator) publishIconsLocked(v *resource.ClientDataList[types.Icon]) {
	c.iconList.Publish(v)
	c.metrics.RecordEmit("icons")
}

// breadcrumbs joins the ancestor path and the name, skipping blanks
func breadcrumbs(cat types.Category) string {
	parts := make([]string, 0, len(cat.Path)+1)
	for _, p := range append(append([]string(nil), cat.Path...), cat.Name) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, BreadcrumbSeparator)
}

func singlePage(n int) resource.Pagination {
	return resource.Pagination{
		TotalResults:       n,
		MaxResultsPerPage:  max(n, resource.DefaultPageSize),
		NumResultsThisPage: n,
		ThisPageNumber:     1,
		TotalPages:         1,
	}
}

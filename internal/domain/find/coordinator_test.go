package find

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/domain/catalog"
	"github.com/GriffinCanCode/iconfind/internal/fakeapi"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	noDebounce = -1
	waitFor    = 2 * time.Second
	tick       = 5 * time.Millisecond
)

type harness struct {
	api     *fakeapi.Server
	coord   *Coordinator
	metrics *monitoring.Metrics
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	api := fakeapi.New(fakeapi.Config{})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	metrics := monitoring.NewMetrics(nil)
	transport := resource.NewTransport(resource.TransportConfig{Base: srv.URL + "/api"}, resource.Observers{Metrics: metrics})
	opts.Metrics = metrics

	coord := New(
		catalog.NewIconService(transport, noDebounce),
		catalog.NewCategoryService(transport, noDebounce),
		opts,
	)
	t.Cleanup(coord.Close)
	return &harness{api: api, coord: coord, metrics: metrics}
}

func (h *harness) settled(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := h.coord.State()
		return !s.LoadingCategories && !s.LoadingIcons
	}, waitFor, tick)
}

func words(list *resource.ClientDataList[types.Icon]) []string {
	out := make([]string, len(list.Data))
	for i, icon := range list.Data {
		out[i] = icon.Word
	}
	return out
}

func ptr(id types.CategoryID) *types.CategoryID { return &id }

func TestFlagsOf(t *testing.T) {
	cat := ptr(fakeapi.Animals)

	tests := []struct {
		name  string
		state State
		want  Flags
	}{
		{"nothing", State{AllIcons: true}, Flags{EmptyQuery: true}},
		{"no category no mode", State{}, Flags{EmptyQuery: true}},
		{"unscoped search", State{Query: "cat", AllIcons: true}, Flags{NotFound: true}},
		{"category browse", State{CategoryID: cat}, Flags{}},
		{"scoped search", State{Query: "cat", CategoryID: cat}, Flags{BroadenSearch: true}},
		{"all icons overrides category", State{CategoryID: cat, AllIcons: true}, Flags{EmptyQuery: true}},
		{"search in all icons with category", State{Query: "cat", CategoryID: cat, AllIcons: true}, Flags{NotFound: true, BroadenSearch: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlagsOf(tt.state))
			assert.Equal(t, tt.want.EmptyQuery, tt.state.EmptyQuery())
		})
	}
}

func TestInitialState(t *testing.T) {
	coord := New(nil, nil, Options{})
	defer coord.Close()

	s := coord.State()
	assert.Empty(t, s.Query)
	assert.Nil(t, s.CategoryID)
	assert.Equal(t, 1, s.Page)
	assert.True(t, s.AllIcons)
	assert.Equal(t, catalog.RootName, s.Breadcrumbs)

	assert.Nil(t, coord.Category().Value())
	assert.True(t, coord.Icons().Value().Pagination.IsEmpty())
	assert.Empty(t, coord.Categories().Value().Data)
	assert.Zero(t, coord.Resets().Value())
	assert.Nil(t, coord.Failures().Value())
}

func TestResetIconsLaw(t *testing.T) {
	coord := New(nil, nil, Options{})
	defer coord.Close()

	coord.ResetIcons(false)
	coord.ResetIcons(false)
	assert.Equal(t, 3, coord.State().Page)

	coord.mu.Lock()
	page := &resource.ClientDataList[types.Icon]{Data: []types.Icon{{ID: 1, Word: "cat"}}}
	coord.iconList.Publish(page)
	coord.mu.Unlock()

	coord.ResetIcons(false)
	assert.Equal(t, 4, coord.State().Page)
	assert.Same(t, page, coord.Icons().Value())

	coord.ResetIcons(true)
	assert.Equal(t, 1, coord.State().Page)
	assert.Empty(t, coord.Icons().Value().Data)
	assert.True(t, coord.Icons().Value().Pagination.IsEmpty())
}

func TestResetIconsKeepsLoadMoreAvailable(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SetQuery("dot")
	h.settled(t)

	h.coord.ResetIcons(false)
	assert.Equal(t, 2, h.coord.State().Page)
	h.coord.ResetIcons(true)

	s := h.coord.State()
	assert.Equal(t, 1, s.Page)
	assert.False(t, s.LoadingIcons)
	assert.True(t, h.coord.Icons().Value().Pagination.IsEmpty())

	require.True(t, h.coord.LoadMore())
	h.settled(t)
	page := h.coord.Icons().Value()
	assert.Equal(t, 2, page.Pagination.ThisPageNumber)
	assert.Len(t, page.Data, fakeapi.DotIcons-resource.DefaultPageSize)
}

func TestResetIconsWhileFetching(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.DelayIcons("sun", 50*time.Millisecond)

	h.coord.SetQuery("sun")
	h.coord.ResetIcons(true)
	assert.True(t, h.coord.State().LoadingIcons)

	h.settled(t)
	assert.Equal(t, []string{"sun"}, words(h.coord.Icons().Value()))
}

func TestSetQueryFetchesIcons(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SetQuery("ra")
	h.settled(t)

	assert.Equal(t, []string{"rain"}, words(h.coord.Icons().Value()))
	assert.Equal(t, Flags{NotFound: true}, h.coord.Flags())

	hits := h.api.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "/api/icons", hits[0].Path)
	assert.Equal(t, "ra", hits[0].Query.Get("q"))
	assert.Equal(t, "1", hits[0].Query.Get("page"))
	assert.Empty(t, hits[0].Query.Get("category"))
}

func TestSetQueryResetsPagination(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SetQuery("dot")
	h.settled(t)
	require.True(t, h.coord.LoadMore())
	h.settled(t)
	require.Equal(t, 2, h.coord.State().Page)

	h.coord.SetQuery("sun")
	assert.Equal(t, 1, h.coord.State().Page)
	h.settled(t)
	assert.Equal(t, []string{"sun"}, words(h.coord.Icons().Value()))
}

func TestSupersededFetchNeverDelivers(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.DelayIcons("kit", time.Minute)

	h.coord.SetQuery("kit")
	require.Eventually(t, func() bool { return h.api.HitCount("/api/icons") == 1 }, waitFor, tick)

	h.coord.SetQuery("lion")
	h.settled(t)
	assert.Equal(t, []string{"lion"}, words(h.coord.Icons().Value()))

	require.Eventually(t, func() bool {
		hits := h.api.Hits()
		return len(hits) == 2 && hits[0].Canceled
	}, waitFor, tick)
	assert.False(t, h.api.Hits()[1].Canceled)

	assert.Equal(t, []string{"lion"}, words(h.coord.Icons().Value()))
	assert.GreaterOrEqual(t, h.metrics.Snapshot().Superseded, int64(1))
}

func TestCategoryResolvesBeforeIcons(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.DelayCategory(fakeapi.Mammals, 50*time.Millisecond)

	h.coord.SelectCategory(ptr(fakeapi.Mammals), false)
	assert.Empty(t, h.coord.State().Breadcrumbs)
	h.settled(t)

	hits := h.api.Hits()
	require.Len(t, hits, 2)
	assert.Equal(t, "/api/categories/4", hits[0].Path)
	assert.Equal(t, "/api/icons", hits[1].Path)
	assert.Equal(t, "4", hits[1].Query.Get("category"))
	assert.False(t, hits[1].At.Before(hits[0].At.Add(50*time.Millisecond)))

	s := h.coord.State()
	assert.Equal(t, "Animals » Mammals", s.Breadcrumbs)
	assert.Equal(t, Flags{}, FlagsOf(s))

	require.NotNil(t, h.coord.Category().Value())
	assert.Equal(t, "Mammals", h.coord.Category().Value().Data.Name)

	children := h.coord.Categories().Value()
	require.Len(t, children.Data, 1)
	assert.Equal(t, "Cats", children.Data[0].Name)
	assert.NoError(t, children.Pagination.Validate())

	assert.ElementsMatch(t, []string{"cat", "kitten", "lion", "dog", "horse"}, words(h.coord.Icons().Value()))
}

func TestBreadcrumbsKeptWhileSearching(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SelectCategory(ptr(fakeapi.Mammals), false)
	h.settled(t)
	h.coord.SetQuery("o")
	h.settled(t)
	require.Equal(t, "Animals » Mammals", h.coord.State().Breadcrumbs)

	h.api.DelayCategory(fakeapi.Cats, 50*time.Millisecond)
	h.coord.SelectCategory(ptr(fakeapi.Cats), false)
	assert.Equal(t, "Animals » Mammals", h.coord.State().Breadcrumbs)

	h.settled(t)
	assert.Equal(t, "Animals » Mammals » Cats", h.coord.State().Breadcrumbs)

	h.coord.ClearCategory()
	assert.Empty(t, h.coord.State().Breadcrumbs)
}

func TestQueryChangeReusesResolvedCategory(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SelectCategory(ptr(fakeapi.Cats), false)
	h.settled(t)
	h.api.ResetHits()

	h.coord.SetQuery("kit")
	h.settled(t)

	hits := h.api.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "/api/icons", hits[0].Path)
	assert.Equal(t, []string{"kitten"}, words(h.coord.Icons().Value()))
	assert.Equal(t, Flags{BroadenSearch: true}, h.coord.Flags())
}

func TestCategorySupersededBeforeIcons(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.DelayCategory(fakeapi.Birds, time.Minute)

	h.coord.SelectCategory(ptr(fakeapi.Birds), false)
	require.Eventually(t, func() bool { return h.api.HitCount("/api/categories/5") == 1 }, waitFor, tick)

	h.coord.SelectCategory(ptr(fakeapi.Fruit), false)
	h.settled(t)

	assert.Equal(t, "Food » Fruit", h.coord.State().Breadcrumbs)
	assert.ElementsMatch(t, []string{"apple", "banana"}, words(h.coord.Icons().Value()))
	for _, hit := range h.api.Hits() {
		if hit.Path == "/api/icons" {
			assert.Equal(t, "6", hit.Query.Get("category"))
		}
	}
}

func TestEmptyQueryShortCircuits(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SelectCategory(ptr(fakeapi.Food), true)
	s := h.coord.State()
	assert.True(t, FlagsOf(s).EmptyQuery)
	assert.False(t, s.LoadingCategories)
	assert.False(t, s.LoadingIcons)

	h.coord.ClearCategory()
	assert.Nil(t, h.coord.Category().Value())
	assert.Empty(t, h.coord.Categories().Value().Data)

	assert.Empty(t, h.api.Hits())
}

func TestAllIconsGraceRestoresMode(t *testing.T) {
	h := newHarness(t, Options{AllIconsGrace: 20 * time.Millisecond})

	h.coord.SetAllIconsMode(false)
	assert.False(t, h.coord.State().AllIcons)

	require.Eventually(t, func() bool { return h.coord.State().AllIcons }, waitFor, tick)
}

func TestAllIconsGraceCancelledBySelection(t *testing.T) {
	h := newHarness(t, Options{AllIconsGrace: 20 * time.Millisecond})

	h.coord.SetAllIconsMode(false)
	h.coord.SelectCategory(ptr(fakeapi.Weather), false)
	h.settled(t)

	time.Sleep(60 * time.Millisecond)
	s := h.coord.State()
	assert.False(t, s.AllIcons)
	assert.Equal(t, ptr(fakeapi.Weather), s.CategoryID)
}

func TestResetClearsScoping(t *testing.T) {
	h := newHarness(t, Options{})
	resets, unsubscribe := h.coord.Resets().Subscribe()
	defer unsubscribe()
	assert.Zero(t, <-resets)

	h.api.DelayIcons("sun", time.Minute)
	h.coord.SelectCategory(ptr(fakeapi.Weather), false)
	h.coord.SetQuery("sun")
	require.Eventually(t, func() bool { return h.api.HitCount("/api/icons") == 1 }, waitFor, tick)

	h.coord.Reset()

	s := h.coord.State()
	assert.Nil(t, s.CategoryID)
	assert.Empty(t, s.Breadcrumbs)
	assert.True(t, s.AllIcons)
	assert.Equal(t, "sun", s.Query)

	select {
	case n := <-resets:
		assert.Equal(t, uint64(1), n)
	case <-time.After(waitFor):
		t.Fatal("no reset signal")
	}

	require.Eventually(t, func() bool { return h.api.Hits()[len(h.api.Hits())-1].Canceled }, waitFor, tick)

	h.coord.Reset()
	assert.Equal(t, uint64(2), h.coord.Resets().Value())
}

func TestLoadMoreAdvancesWithoutClearing(t *testing.T) {
	h := newHarness(t, Options{})

	assert.False(t, h.coord.LoadMore(), "nothing loaded yet")

	h.coord.SetQuery("dot")
	h.settled(t)
	first := h.coord.Icons().Value()
	require.Len(t, first.Data, resource.DefaultPageSize)
	require.True(t, first.Pagination.NextPageExists)

	h.api.DelayIcons("dot", 50*time.Millisecond)
	require.True(t, h.coord.LoadMore())
	assert.Same(t, first, h.coord.Icons().Value())
	assert.False(t, h.coord.LoadMore(), "already loading")

	h.settled(t)
	second := h.coord.Icons().Value()
	assert.Equal(t, 2, second.Pagination.ThisPageNumber)
	assert.Len(t, second.Data, fakeapi.DotIcons-resource.DefaultPageSize)

	merged := AppendPage(first, second)
	assert.Len(t, merged.Data, fakeapi.DotIcons)

	assert.False(t, h.coord.LoadMore(), "last page")
	assert.Equal(t, 2, h.coord.State().Page)
}

func TestFetchFailureKeepsResults(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SetQuery("dot")
	h.settled(t)
	first := h.coord.Icons().Value()

	h.api.FailNext("/api/icons", 1)
	require.True(t, h.coord.LoadMore())
	h.settled(t)

	failure := h.coord.Failures().Value()
	require.NotNil(t, failure)
	assert.Equal(t, KindIcons, failure.Kind)
	assert.True(t, resource.IsStatus(failure, 500))
	assert.Same(t, first, h.coord.Icons().Value())

	assert.Equal(t, 1, h.coord.State().Page)

	require.True(t, h.coord.LoadMore())
	h.settled(t)
	assert.Equal(t, 2, h.coord.Icons().Value().Pagination.ThisPageNumber)
}

func TestCategoryFailureSkipsIcons(t *testing.T) {
	h := newHarness(t, Options{})

	h.coord.SelectCategory(ptr(404), false)
	h.settled(t)

	failure := h.coord.Failures().Value()
	require.NotNil(t, failure)
	assert.Equal(t, KindCategory, failure.Kind)
	assert.Zero(t, h.api.HitCount("/api/icons"))
}

func TestCloseIsFinal(t *testing.T) {
	h := newHarness(t, Options{})
	h.api.DelayIcons("rain", time.Minute)

	h.coord.SetQuery("rain")
	require.Eventually(t, func() bool { return h.api.HitCount("/api/icons") == 1 }, waitFor, tick)

	h.coord.Close()
	h.coord.Close()
	h.coord.SetQuery("sun")

	assert.Equal(t, "rain", h.coord.State().Query)
	assert.Equal(t, 1, h.api.HitCount("/api/icons"))
}

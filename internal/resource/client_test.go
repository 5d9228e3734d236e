package resource

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/auth"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/resilience"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type widget struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

func (w widget) ResourceID() ID { return w.ID }

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type apiStub struct {
	mu      sync.Mutex
	hits    []recorded
	handler http.HandlerFunc
}

func (s *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.hits = append(s.hits, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	s.mu.Unlock()
	s.handler(w, r)
}

func (s *apiStub) Hits() []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recorded(nil), s.hits...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newStub(t *testing.T, handler http.HandlerFunc) (*apiStub, *Transport) {
	t.Helper()
	stub := &apiStub{handler: handler}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	transport := NewTransport(TransportConfig{Base: srv.URL + "/api", Breaker: true}, Observers{})
	return stub, transport
}

func newWidgets(transport *Transport, gate auth.Gate, dismisser auth.Dismisser) *Client[widget, widget] {
	return New[widget, widget](transport, Settings[widget]{
		Path:      "widgets",
		Gate:      gate,
		Dismisser: dismisser,
		Debounce:  -1,
	})
}

type mockDismisser struct {
	mock.Mock
}

func (m *mockDismisser) Dismiss() {
	m.Called()
}

func TestRetrieveStampsClientTime(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":4,"name":"gear"},"retrieved":"2001-01-01T00:00:00Z"}`)
	})
	fixed := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	transport.now = func() time.Time { return fixed }

	data, err := newWidgets(transport, nil, nil).Retrieve(context.Background(), 4)
	require.NoError(t, err)

	assert.True(t, data.Success)
	assert.Equal(t, widget{ID: 4, Name: "gear"}, data.Data)
	assert.Equal(t, fixed, data.Retrieved)

	hits := stub.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "/api/widgets/4", hits[0].Path)
	assert.Equal(t, http.MethodGet, hits[0].Method)
}

func TestListOmitsNilParams(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":1,"name":"a"},{"id":2,"name":"b"}],
			"pagination":{"totalResults":2,"maxResultsPerPage":100,"numResultsThisPage":2,"thisPageNumber":1,"totalPages":1,"prevPageExists":false,"nextPageExists":false}}`)
	})

	var category *int64
	list, err := newWidgets(transport, nil, nil).List(context.Background(), Params{
		"q":        "cat",
		"category": category,
		"page":     2,
		"skip":     nil,
	})
	require.NoError(t, err)

	assert.Len(t, list.Data, 2)
	assert.Equal(t, 1, list.Pagination.ThisPageNumber)
	assert.NoError(t, list.Pagination.Validate())

	hits := stub.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, "page=2&q=cat", hits[0].Query)
}

func TestListWithoutPagination(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":1,"name":"a"}]}`)
	})

	list, err := newWidgets(transport, nil, nil).List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Pagination.TotalPages)
	assert.NoError(t, list.Pagination.Validate())
}

func TestWriteWithoutAuthIsDropped(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})
	reg := prometheus.NewRegistry()
	transport.metrics = monitoring.NewMetrics(reg)

	dismisser := &mockDismisser{}
	dismisser.On("Dismiss").Return().Times(4)

	client := newWidgets(transport, auth.NewTokenGate(""), dismisser)
	ctx := context.Background()

	created, err := client.Create(ctx, widget{Name: "new"})
	assert.NoError(t, err)
	assert.Nil(t, created)

	updated, err := client.Update(ctx, widget{ID: 3, Name: "x"})
	assert.NoError(t, err)
	assert.Nil(t, updated)

	patched, err := client.PartialUpdate(ctx, widget{ID: 3, Name: "x"})
	assert.NoError(t, err)
	assert.Nil(t, patched)

	receipt, err := client.Delete(ctx, 3)
	assert.NoError(t, err)
	assert.Nil(t, receipt)

	assert.Empty(t, stub.Hits())
	dismisser.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(transport.metrics.AuthAborts.WithLabelValues("widgets", http.MethodPost)))
}

func TestAuthenticatedCreate(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":10,"name":"new"}}`)
	})

	client := newWidgets(transport, auth.NewTokenGate("tok"), nil)
	created, err := client.Create(context.Background(), widget{Name: "new"})
	require.NoError(t, err)
	assert.Equal(t, ID(10), created.Data.ID)

	hits := stub.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, http.MethodPost, hits[0].Method)
	assert.Equal(t, "/api/widgets", hits[0].Path)
	assert.Equal(t, "Bearer tok", hits[0].Header.Get("Authorization"))
	assert.NotEmpty(t, hits[0].Header.Get("Idempotency-Key"))
	assert.JSONEq(t, `{"id":0,"name":"new"}`, hits[0].Body)
}

func TestWithoutAuthSkipsGate(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":3,"name":"y"}}`)
	})

	client := newWidgets(transport, auth.NewTokenGate(""), nil)
	data, err := client.PartialUpdate(context.Background(), widget{ID: 3, Name: "y"}, WithoutAuth())
	require.NoError(t, err)
	assert.Equal(t, "y", data.Data.Name)

	hits := stub.Hits()
	require.Len(t, hits, 1)
	assert.Equal(t, http.MethodPatch, hits[0].Method)
	assert.Equal(t, "/api/widgets/3", hits[0].Path)
	assert.Empty(t, hits[0].Header.Get("Authorization"))
}

func TestUpdateRequiresID(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {})
	client := newWidgets(transport, auth.NewTokenGate("tok"), nil)

	_, err := client.Update(context.Background(), widget{Name: "no id"})
	assert.ErrorIs(t, err, ErrMissingID)
	_, err = client.PartialUpdate(context.Background(), widget{Name: "no id"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestDeleteReturnsReceipt(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	receipt, err := newWidgets(transport, auth.NewTokenGate("tok"), nil).Delete(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, receipt.Status)
	assert.False(t, receipt.Retrieved.IsZero())
}

func TestStatusErrorCarriesDetails(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"success":false,"errors":["bad page",{"code":"invalid","field":"q","message":"too long"}]}`)
	})

	_, err := newWidgets(transport, nil, nil).List(context.Background(), Params{"page": 0})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	require.Len(t, se.Errors, 2)
	assert.Equal(t, "bad page", se.Errors[0].Message)
	assert.Equal(t, "q", se.Errors[1].Field)
	assert.Contains(t, err.Error(), "q: too long")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.False(t, se.Temporary())
}

func TestDebounceCancelledBeforeNetwork(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	client := New[widget, widget](transport, Settings[widget]{Path: "widgets"})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.List(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.Hits())
}

func TestDebounceDelaysCall(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	client := New[widget, widget](transport, Settings[widget]{Path: "widgets", Debounce: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.List(context.Background(), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDebounceAppliesToWrites(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":9,"name":"new"}}`)
	})
	client := New[widget, widget](transport, Settings[widget]{
		Path:     "widgets",
		Gate:     auth.NewTokenGate("t"),
		Debounce: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := client.Create(ctx, widget{Name: "new"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = client.Delete(ctx, 9)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.Hits())

	start := time.Now()
	data, err := client.Create(context.Background(), widget{Name: "new"})
	require.NoError(t, err)
	assert.Equal(t, ID(9), data.Data.ID)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Len(t, stub.Hits(), 1)
}

func TestListLogsInconsistentPagination(t *testing.T) {
	stub := &apiStub{handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":1,"name":"a"}],`+
			`"pagination":{"totalResults":1,"maxResultsPerPage":100,"numResultsThisPage":1,`+
			`"thisPageNumber":1,"totalPages":1,"nextPageExists":true}}`)
	}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.WarnLevel)
	transport := NewTransport(TransportConfig{Base: srv.URL + "/api"}, Observers{Logger: zap.New(core)})

	list, err := newWidgets(transport, nil, nil).List(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, list.Pagination.NextPageExists)

	entries := logs.FilterMessage("inconsistent pagination").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "widgets", entries[0].ContextMap()["resource"])
}

func TestListConsistentPaginationIsQuiet(t *testing.T) {
	stub := &apiStub{handler: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":1,"name":"a"}]}`)
	}}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zap.WarnLevel)
	transport := NewTransport(TransportConfig{Base: srv.URL + "/api"}, Observers{Logger: zap.New(core)})

	_, err := newWidgets(transport, nil, nil).List(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("inconsistent pagination").Len())
}

func TestCompressedResponses(t *testing.T) {
	payload := []byte(`{"success":true,"data":{"id":1,"name":"packed"}}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	zw, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := zw.EncodeAll(payload, nil)
	require.NoError(t, zw.Close())

	for name, encoded := range map[string][]byte{"gzip": gz.Bytes(), "zstd": zs} {
		t.Run(name, func(t *testing.T) {
			stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Content-Encoding", name)
				_, _ = w.Write(encoded)
			})

			data, err := newWidgets(transport, nil, nil).Retrieve(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, "packed", data.Data.Name)
			assert.Equal(t, acceptEncoding, stub.Hits()[0].Header.Get("Accept-Encoding"))
		})
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"success":false,"errors":["down"]}`)
	})
	client := newWidgets(transport, nil, nil)

	for i := 0; i < 5; i++ {
		_, err := client.Retrieve(context.Background(), 1)
		require.True(t, IsStatus(err, http.StatusInternalServerError))
	}

	_, err := client.Retrieve(context.Background(), 1)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, stub.Hits(), 5)
	assert.Equal(t, resilience.StateOpen, transport.Breaker().State())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	_, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"success":false,"errors":["missing"]}`)
	})
	client := newWidgets(transport, nil, nil)

	for i := 0; i < 10; i++ {
		_, err := client.Retrieve(context.Background(), 1)
		require.True(t, IsStatus(err, http.StatusNotFound))
	}
	assert.Equal(t, resilience.StateClosed, transport.Breaker().State())
}

func TestTraceHeadersSent(t *testing.T) {
	stub, transport := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":1}}`)
	})

	_, err := newWidgets(transport, nil, nil).Retrieve(context.Background(), 1)
	require.NoError(t, err)

	h := stub.Hits()[0].Header
	assert.NotEmpty(t, h.Get("X-Trace-ID"))
	assert.NotEmpty(t, h.Get("X-Span-ID"))
}

package resource

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/auth"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/resilience"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period every call waits before hitting the network
const DefaultDebounce = 250 * time.Millisecond

// API is the generic REST surface of one resource
type API[M Model, B Body] interface {
	Retrieve(ctx context.Context, id ID) (*ClientData[M], error)
	List(ctx context.Context, params Params) (*ClientDataList[M], error)
	Create(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error)
	Update(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error)
	PartialUpdate(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error)
	Delete(ctx context.Context, id ID, opts ...WriteOption) (*Receipt, error)
}

// Settings configures a Client
type Settings[M Model] struct {
	// Path is the resource collection path, e.g. "icons".
	Path string
	// Gate supplies auth headers for writes. Nil means never authenticated.
	Gate auth.Gate
	// Dismisser is told when a write is dropped for lack of auth.
	Dismisser auth.Dismisser
	// Debounce overrides DefaultDebounce. Negative disables the wait.
	Debounce time.Duration
	// Transform runs on every converted item.
	Transform Transform[M]
}

// Client is a generic REST resource client. It is safe for concurrent use.
type Client[M Model, B Body] struct {
	transport *Transport
	path      string
	gate      auth.Gate
	dismisser auth.Dismisser
	debounce  time.Duration
	transform Transform[M]
	logger    *zap.Logger
}

var _ API[Model, Body] = (*Client[Model, Body])(nil)

// New creates a client for one resource path on transport
func New[M Model, B Body](transport *Transport, settings Settings[M]) *Client[M, B] {
	gate := settings.Gate
	if gate == nil {
		gate = auth.Anonymous
	}
	debounce := settings.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	path := strings.Trim(settings.Path, "/")

	return &Client[M, B]{
		transport: transport,
		path:      path,
		gate:      gate,
		dismisser: settings.Dismisser,
		debounce:  debounce,
		transform: settings.Transform,
		logger:    transport.logger.With(zap.String("resource", path)),
	}
}

// Path returns the resource path
func (c *Client[M, B]) Path() string { return c.path }

// WriteOption modifies a write call
type WriteOption func(*writeOptions)

type writeOptions struct {
	requiresAuth bool
}

// WithoutAuth sends the write without consulting the auth gate
func WithoutAuth() WriteOption {
	return func(o *writeOptions) { o.requiresAuth = false }
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	o := writeOptions{requiresAuth: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Retrieve fetches one resource by id
func (c *Client[M, B]) Retrieve(ctx context.Context, id ID) (*ClientData[M], error) {
	return resilience.Debounced(c.debounce, func(ctx context.Context) (*ClientData[M], error) {
		var env Envelope[M]
		if _, err := c.transport.Do(ctx, Call{
			Resource: c.path,
			Method:   http.MethodGet,
			Path:     c.itemPath(id),
			Result:   &env,
		}); err != nil {
			return nil, err
		}
		return Convert(env, c.transport.now(), c.transform), nil
	})(ctx)
}

// List fetches a page of resources. Nil-valued params are omitted.
// Inconsistent server pagination is logged and passed through unchanged.
func (c *Client[M, B]) List(ctx context.Context, params Params) (*ClientDataList[M], error) {
	return resilience.Debounced(c.debounce, func(ctx context.Context) (*ClientDataList[M], error) {
		var env ListEnvelope[M]
		if _, err := c.transport.Do(ctx, Call{
			Resource: c.path,
			Method:   http.MethodGet,
			Path:     c.collectionPath(),
			Query:    params.Values(),
			Result:   &env,
		}); err != nil {
			return nil, err
		}

		list := ConvertList(env, c.transport.now(), c.transform)
		if err := list.Pagination.Validate(); err != nil {
			c.logger.Warn("inconsistent pagination", zap.Error(err))
		}
		return list, nil
	})(ctx)
}

// Create posts a new resource. With auth required and no credentials it
// returns (nil, nil) without sending anything.
func (c *Client[M, B]) Create(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error) {
	header := map[string]string{"Idempotency-Key": uuid.NewString()}
	return c.write(ctx, http.MethodPost, c.collectionPath(), body, header, opts)
}

// Update replaces the resource named by body's id
func (c *Client[M, B]) Update(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error) {
	if body.ResourceID() == 0 {
		return nil, ErrMissingID
	}
	return c.write(ctx, http.MethodPut, c.itemPath(body.ResourceID()), body, nil, opts)
}

// PartialUpdate merges body into the resource named by its id
func (c *Client[M, B]) PartialUpdate(ctx context.Context, body B, opts ...WriteOption) (*ClientData[M], error) {
	if body.ResourceID() == 0 {
		return nil, ErrMissingID
	}
	return c.write(ctx, http.MethodPatch, c.itemPath(body.ResourceID()), body, nil, opts)
}

// Delete removes a resource. The API answers without a body.
func (c *Client[M, B]) Delete(ctx context.Context, id ID, opts ...WriteOption) (*Receipt, error) {
	header, ok, err := c.authorize(ctx, http.MethodDelete, applyWriteOptions(opts))
	if err != nil || !ok {
		return nil, err
	}

	return resilience.Debounced(c.debounce, func(ctx context.Context) (*Receipt, error) {
		resp, err := c.transport.Do(ctx, Call{
			Resource: c.path,
			Method:   http.MethodDelete,
			Path:     c.itemPath(id),
			Header:   header,
		})
		if err != nil {
			return nil, err
		}
		return &Receipt{Status: resp.StatusCode(), Retrieved: c.transport.now()}, nil
	})(ctx)
}

func (c *Client[M, B]) write(ctx context.Context, method, path string, body B, header map[string]string, opts []WriteOption) (*ClientData[M], error) {
	authHeader, ok, err := c.authorize(ctx, method, applyWriteOptions(opts))
	if err != nil || !ok {
		return nil, err
	}

	if header == nil {
		header = make(map[string]string, len(authHeader))
	}
	for k, v := range authHeader {
		header[k] = v
	}

	return resilience.Debounced(c.debounce, func(ctx context.Context) (*ClientData[M], error) {
		var env Envelope[M]
		if _, err := c.transport.Do(ctx, Call{
			Resource: c.path,
			Method:   method,
			Path:     path,
			Header:   header,
			Body:     body,
			Result:   &env,
		}); err != nil {
			return nil, err
		}
		return Convert(env, c.transport.now(), c.transform), nil
	})(ctx)
}

// authorize resolves the auth header for a write. ok is false when the write
// must be dropped silently.
func (c *Client[M, B]) authorize(ctx context.Context, method string, o writeOptions) (map[string]string, bool, error) {
	if !o.requiresAuth {
		return nil, true, nil
	}

	value, err := c.gate.AuthHeader(ctx)
	if err != nil {
		return nil, false, err
	}
	if value == "" {
		c.logger.Debug("write dropped: not authenticated", zap.String("method", method))
		c.transport.metrics.RecordAuthAbort(c.path, method)
		if c.dismisser != nil {
			c.dismisser.Dismiss()
		}
		return nil, false, nil
	}
	return map[string]string{"Authorization": value}, true, nil
}

func (c *Client[M, B]) collectionPath() string {
	return "/" + c.path
}

func (c *Client[M, B]) itemPath(id ID) string {
	return "/" + c.path + "/" + strconv.FormatInt(id, 10)
}

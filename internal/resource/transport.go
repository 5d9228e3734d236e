package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/config"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TransportConfig configures the shared HTTP transport
type TransportConfig struct {
	Base      string
	Timeout   time.Duration // zero means no timeout
	UserAgent string
	Breaker   bool

	RateLimit float64 // requests per second, zero is unlimited
	Burst     int

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// TransportConfigFrom maps application config onto the transport
func TransportConfigFrom(cfg *config.Config) TransportConfig {
	return TransportConfig{
		Base:         cfg.API.Base,
		Timeout:      cfg.API.Timeout.Std(),
		UserAgent:    cfg.API.UserAgent,
		Breaker:      cfg.API.Breaker,
		RateLimit:    cfg.RateLimit.RequestsPerSecond,
		Burst:        cfg.RateLimit.Burst,
		RetryMax:     cfg.Retry.Max,
		RetryWaitMin: cfg.Retry.WaitMin.Std(),
		RetryWaitMax: cfg.Retry.WaitMax.Std(),
	}
}

// Observers are the optional instrumentation hooks of a Transport
type Observers struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer
}

// Transport wraps resty with rate limiting, circuit breaker and
// instrumentation. One Transport is shared by every resource client.
type Transport struct {
	base    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	now     func() time.Time
}

// NewTransport creates the HTTP stack: resty over a retryablehttp client over
// a decompressing pooled transport.
func NewTransport(cfg TransportConfig, obs Observers) *Transport {
	logger := logging.OrNop(obs.Logger)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = cfg.RetryWaitMax
	}
	// Hand the final response back so resty and the caller see the status.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = logging.NewLeveled(logger.Named("retry"))
	retryClient.HTTPClient.Transport = newDecompressTransport(retryClient.HTTPClient.Transport)

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.Base, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetLogger(logger.Named("resty").Sugar()).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		restyClient.SetTimeout(cfg.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit))
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	var breaker *resilience.Breaker
	if cfg.Breaker {
		breaker = resilience.New("api", resilience.Settings{
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
			},
			IsFailure:     isBreakerFailure,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return &Transport{
		base:    strings.TrimRight(cfg.Base, "/"),
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
		metrics: obs.Metrics,
		tracer:  obs.Tracer,
		now:     time.Now,
	}
}

// Base returns the API base URL
func (t *Transport) Base() string { return t.base }

// Resty exposes the underlying client for calls outside the resource
// envelope, such as login.
func (t *Transport) Resty() *resty.Client { return t.resty }

// Breaker returns the circuit breaker, nil when disabled
func (t *Transport) Breaker() *resilience.Breaker { return t.breaker }

// Call describes one HTTP exchange
type Call struct {
	Resource string // metrics label
	Method   string
	Path     string // relative to the base URL
	Query    url.Values
	Header   map[string]string
	Body     interface{}
	Result   interface{} // decoded on 2xx
}

type errorBody struct {
	Errors []ErrorDetail `json:"errors"`
}

// Do executes call. Non-2xx responses become *StatusError; 5xx and transport
// failures count against the circuit breaker.
func (t *Transport) Do(ctx context.Context, call Call) (*resty.Response, error) {
	span, ctx := t.tracer.StartSpan(ctx, call.Method+" "+call.Resource)
	span.SetTag("path", call.Path)
	defer t.tracer.Finish(span)

	if err := t.limiter.Wait(ctx); err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	headers := make(map[string]string, len(call.Header)+2)
	for k, v := range call.Header {
		headers[k] = v
	}
	tracing.InjectTraceContext(ctx, headers)

	start := t.now()
	resp, err := resilience.Execute(t.breaker, func() (*resty.Response, error) {
		var errOut errorBody
		req := t.resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetError(&errOut)
		if call.Query != nil {
			req.SetQueryParamsFromValues(call.Query)
		}
		if call.Body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(call.Body)
		}
		if call.Result != nil {
			req.SetResult(call.Result)
		}

		resp, err := req.Execute(call.Method, call.Path)
		if err != nil {
			return resp, err
		}
		if resp.IsError() || resp.StatusCode() >= 300 {
			return resp, &StatusError{
				Method:     call.Method,
				URL:        t.base + call.Path,
				StatusCode: resp.StatusCode(),
				Errors:     errOut.Errors,
			}
		}
		return resp, nil
	})
	elapsed := t.now().Sub(start)

	status := statusLabel(resp, err)
	span.SetStatus(statusCode(resp))
	var size int64 = -1
	if resp != nil {
		size = resp.Size()
	}
	t.metrics.RecordRequest(call.Resource, call.Method, status, elapsed, size)

	if err != nil {
		span.SetError(err)
		if errors.Is(err, context.Canceled) {
			t.logger.Debug("request cancelled",
				zap.String("method", call.Method),
				zap.String("path", call.Path))
		} else {
			t.logger.Warn("request failed",
				zap.String("method", call.Method),
				zap.String("path", call.Path),
				zap.String("status", status),
				zap.Error(err))
		}
		var se *StatusError
		if errors.As(err, &se) {
			return resp, se
		}
		return resp, fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}

	t.logger.Debug("request completed",
		zap.String("method", call.Method),
		zap.String("path", call.Path),
		zap.String("status", status),
		zap.Duration("duration", elapsed))
	return resp, nil
}

// isBreakerFailure counts server errors and transport failures. Client
// errors and cancellations leave the breaker alone.
func isBreakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func statusCode(resp *resty.Response) int {
	if resp == nil || resp.RawResponse == nil {
		return 0
	}
	return resp.StatusCode()
}

func statusLabel(resp *resty.Response, err error) string {
	if code := statusCode(resp); code != 0 {
		return strconv.Itoa(code)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if err != nil {
		return "error"
	}
	return strconv.Itoa(http.StatusOK)
}

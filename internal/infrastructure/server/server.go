package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/iconfind/internal/auth"
	"github.com/GriffinCanCode/iconfind/internal/domain/blog"
	"github.com/GriffinCanCode/iconfind/internal/domain/catalog"
	"github.com/GriffinCanCode/iconfind/internal/domain/detail"
	"github.com/GriffinCanCode/iconfind/internal/domain/find"
	"github.com/GriffinCanCode/iconfind/internal/fakeapi"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/config"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/iconfind/internal/resource"
)

// DemoUser and DemoPassword sign in to the in-process demo API
const (
	DemoUser     = "demo"
	DemoPassword = "demo"
)

// Options tunes how the components are assembled
type Options struct {
	// Demo serves the fixture API in-process and points the client at it
	Demo bool
	// Logger overrides the logger built from configuration
	Logger *zap.Logger
	// OnDismiss is called when a write is dropped because nobody is signed in
	OnDismiss func()
}

// Server owns every component of an iconfind session and the optional
// metrics endpoint.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer

	transport  *resource.Transport
	dictionary *resource.Transport
	gate       *auth.TokenGate

	Categories *catalog.CategoryService
	Icons      *catalog.IconService
	Tree       *catalog.Tree
	Find       *find.Coordinator
	Dictionary *detail.Dictionary
	Detail     *detail.Panel
	Posts      *blog.PostService
	Comments   *blog.CommentService

	demo    *http.Server
	monitor *http.Server
}

// NewServer assembles the components described by cfg
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
	}

	// Metrics first, the transports report into them
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitoring.NewMetrics(registry)

	tracer := tracing.New("iconfind", logger)

	s := &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		tracer:   tracer,
	}

	if opts.Demo {
		if err := s.startDemo(); err != nil {
			tracer.Close()
			return nil, err
		}
	}

	obs := resource.Observers{Logger: logger, Metrics: metrics, Tracer: tracer}
	s.transport = resource.NewTransport(resource.TransportConfigFrom(cfg), obs)

	dictCfg := resource.TransportConfigFrom(cfg)
	dictCfg.Base = cfg.Dictionary.Base
	s.dictionary = resource.NewTransport(dictCfg, obs)

	s.gate = auth.NewTokenGate(cfg.API.Token)
	debounce := cfg.API.Debounce.Std()
	access := blog.Access{
		Gate:      s.gate,
		Dismisser: auth.DismissFunc(opts.OnDismiss),
		Debounce:  debounce,
	}

	s.Categories = catalog.NewCategoryService(s.transport, debounce)
	s.Icons = catalog.NewIconService(s.transport, debounce)
	s.Tree = catalog.NewTree(s.Categories, logger)
	s.Find = find.New(s.Icons, s.Categories, find.Options{
		Logger:        logger,
		Metrics:       metrics,
		Tracer:        tracer,
		AllIconsGrace: cfg.Find.AllIconsGrace.Std(),
	})
	s.Dictionary = detail.NewDictionary(s.dictionary, cfg.Dictionary.Key)
	s.Detail = detail.NewPanel(s.Dictionary, logger, metrics)
	s.Posts = blog.NewPostService(s.transport, access)
	s.Comments = blog.NewCommentService(s.transport, access)

	logger.Info("iconfind initialized",
		zap.String("api", cfg.API.Base),
		zap.Bool("demo", opts.Demo),
		zap.Bool("breaker", cfg.API.Breaker),
		zap.Duration("debounce", debounce))

	return s, nil
}

// startDemo serves the fixture API on a loopback port and repoints the
// configuration at it
func (s *Server) startDemo() error {
	api := fakeapi.New(fakeapi.Config{Compress: true, Logger: s.logger, Metrics: s.metrics})
	if err := api.AddUser(DemoUser, DemoPassword); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for demo api: %w", err)
	}

	base := "http://" + ln.Addr().String() + "/api"
	s.config.API.Base = base
	s.config.Dictionary.Base = base + "/dictionary"

	s.demo = &http.Server{Handler: api.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.demo.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("demo api stopped", zap.Error(err))
		}
	}()

	s.logger.Info("demo api listening", zap.String("base", base))
	return nil
}

// Config returns the effective configuration
func (s *Server) Config() *config.Config { return s.config }

// Logger returns the session logger
func (s *Server) Logger() *zap.Logger { return s.logger }

// Gate returns the auth gate used for writes
func (s *Server) Gate() *auth.TokenGate { return s.gate }

// Metrics returns the metrics sink
func (s *Server) Metrics() *monitoring.Metrics { return s.metrics }

// Transport returns the REST transport
func (s *Server) Transport() *resource.Transport { return s.transport }

// Login exchanges credentials for a token and signs the gate in
func (s *Server) Login(ctx context.Context, username, password string) error {
	return s.gate.Login(ctx, s.transport.Resty(), s.transport.Base(), auth.Credentials{
		Username: username,
		Password: password,
	})
}

// Router returns the monitoring routes: /metrics and /health
func (s *Server) Router() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.metrics))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	router.GET("/health", s.health)
	return router
}

func (s *Server) health(c *gin.Context) {
	snap := s.metrics.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"api":            s.config.API.Base,
		"breaker":        s.transport.Breaker().State().String(),
		"requests":       snap.TotalRequests,
		"errors":         snap.TotalErrors,
		"auth_aborts":    snap.AuthAborts,
		"superseded":     snap.Superseded,
		"avg_request_ms": snap.AverageDuration() * 1000,
	})
}

// Run serves the monitoring routes when a metrics address is configured. It
// returns immediately; errors after startup are logged.
func (s *Server) Run() error {
	addr := s.config.Metrics.Addr
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.monitor = &http.Server{Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.monitor.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics endpoint stopped", zap.Error(err))
		}
	}()

	s.logger.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close stops the session components, then the HTTP servers
func (s *Server) Close() error {
	s.logger.Info("Shutting down...")

	s.Find.Close()
	s.Detail.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for _, srv := range []*http.Server{s.monitor, s.demo} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

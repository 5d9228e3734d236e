package fakeapi

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Hit records one request the API received
type Hit struct {
	Method   string
	Path     string
	Query    url.Values
	Header   http.Header
	At       time.Time
	Canceled bool // the client went away before the response
}

// Config configures the fixture API
type Config struct {
	// PageSize for icon and category listings
	PageSize int
	// Compress gzips responses for clients that accept it
	Compress bool
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
}

// Server is an in-memory icon API serving the same surface as the real one
type Server struct {
	cfg    Config
	logger *zap.Logger
	engine *gin.Engine

	mu         sync.Mutex
	categories map[types.CategoryID]types.Category
	icons      []types.Icon
	posts      map[resource.ID]types.Post
	comments   map[resource.ID]types.Comment
	dictionary map[string][]byte
	users      map[string][]byte
	tokens     map[string]string
	nextID     resource.ID
	iconDelay  map[string]time.Duration
	catDelay   map[types.CategoryID]time.Duration
	failures   map[string]int
	hits       []Hit
}

// New creates a server seeded with the default fixtures
func New(cfg Config) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = resource.DefaultPageSize
	}

	s := &Server{
		cfg:        cfg,
		logger:     logging.OrNop(cfg.Logger).Named("fakeapi"),
		categories: make(map[types.CategoryID]types.Category),
		posts:      make(map[resource.ID]types.Post),
		comments:   make(map[resource.ID]types.Comment),
		dictionary: make(map[string][]byte),
		users:      make(map[string][]byte),
		tokens:     make(map[string]string),
		nextID:     1000,
		iconDelay:  make(map[string]time.Duration),
		catDelay:   make(map[types.CategoryID]time.Duration),
		failures:   make(map[string]int),
	}
	s.seed()
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler; the API lives under /api
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(s.cfg.Metrics))
	router.Use(s.record())

	api := router.Group("/api")
	api.GET("/categories", s.listCategories)
	api.GET("/categories/:id", s.retrieveCategory)
	api.GET("/icons", s.listIcons)
	api.GET("/icons/:id", s.retrieveIcon)

	api.GET("/posts", s.listPosts)
	api.GET("/posts/:id", s.retrievePost)
	api.POST("/posts", s.requireAuth, s.createPost)
	api.PUT("/posts/:id", s.requireAuth, s.updatePost(false))
	api.PATCH("/posts/:id", s.requireAuth, s.updatePost(true))
	api.DELETE("/posts/:id", s.requireAuth, s.deletePost)

	api.GET("/comments", s.listComments)
	api.POST("/comments", s.requireAuth, s.createComment)

	api.POST("/auth/token", s.issueToken)
	api.GET("/dictionary/:word", s.lookupWord)

	return router
}

// record appends every request to the hit log and fails it when a failure
// was injected for its path.
func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		idx := len(s.hits)
		s.hits = append(s.hits, Hit{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			At:     time.Now(),
		})
		fail := s.failures[c.Request.URL.Path]
		if fail > 0 {
			s.failures[c.Request.URL.Path] = fail - 1
		}
		s.mu.Unlock()

		if fail > 0 {
			s.fail(c, http.StatusInternalServerError, "injected failure")
			c.Abort()
		} else {
			c.Next()
		}

		if c.Request.Context().Err() != nil {
			s.mu.Lock()
			s.hits[idx].Canceled = true
			s.mu.Unlock()
		}
		s.logger.Debug("served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

// Hits returns a copy of the hit log
func (s *Server) Hits() []Hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Hit(nil), s.hits...)
}

// HitCount counts hits whose path starts with prefix
func (s *Server) HitCount(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		if strings.HasPrefix(h.Path, prefix) {
			n++
		}
	}
	return n
}

// ResetHits clears the hit log
func (s *Server) ResetHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = nil
}

// DelayIcons holds icon listings for query until d has passed or the client
// cancels
func (s *Server) DelayIcons(query string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iconDelay[query] = d
}

// DelayCategory holds retrieves of id until d has passed or the client cancels
func (s *Server) DelayCategory(id types.CategoryID, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catDelay[id] = d
}

// FailNext makes the next n requests to path answer 500
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = n
}

// wait blocks for d or until the request is cancelled. It reports whether
// the handler should still answer.
func wait(c *gin.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.Request.Context().Done():
		return false
	}
}

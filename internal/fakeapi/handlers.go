package fakeapi

import (
	"bytes"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type envelope struct {
	Success    bool                 `json:"success"`
	Errors     []string             `json:"errors,omitempty"`
	Data       interface{}          `json:"data,omitempty"`
	Pagination *resource.Pagination `json:"pagination,omitempty"`
	Retrieved  time.Time            `json:"retrieved"`
}

// respond writes v as JSON, gzipped when enabled and accepted
func (s *Server) respond(c *gin.Context, status int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	if s.cfg.Compress && strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(body); err == nil && gw.Close() == nil {
			c.Header("Content-Encoding", "gzip")
			c.Header("Vary", "Accept-Encoding")
			body = buf.Bytes()
		}
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

func (s *Server) ok(c *gin.Context, status int, data interface{}, p *resource.Pagination) {
	s.respond(c, status, envelope{Success: true, Data: data, Pagination: p, Retrieved: time.Now().UTC()})
}

func (s *Server) fail(c *gin.Context, status int, msg string) {
	s.respond(c, status, envelope{Success: false, Errors: []string{msg}, Retrieved: time.Now().UTC()})
}

func paginate[T any](items []T, page, size int) ([]T, *resource.Pagination) {
	out, p := resource.Paginate(items, page, size)
	return out, &p
}

func pageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func idParam(c *gin.Context, name string) (resource.ID, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil
}

// children counts direct children per category; callers hold s.mu
func (s *Server) childCounts() map[types.CategoryID]int {
	counts := make(map[types.CategoryID]int)
	for _, c := range s.categories {
		if c.Parent != nil {
			counts[*c.Parent]++
		}
	}
	return counts
}

func (s *Server) sortedCategories(keep func(types.Category) bool) []types.Category {
	counts := s.childCounts()
	out := make([]types.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if keep(c) {
			c.ChildCount = counts[c.ID]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listCategories(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid page")
		return
	}

	var parent *types.CategoryID
	if raw := c.Query("parent"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(c, http.StatusBadRequest, "invalid parent")
			return
		}
		parent = &id
	}

	s.mu.Lock()
	// Without a parent the whole hierarchy is listed.
	list := s.sortedCategories(func(cat types.Category) bool {
		return parent == nil || (cat.Parent != nil && *cat.Parent == *parent)
	})
	s.mu.Unlock()

	data, p := paginate(list, page, s.cfg.PageSize)
	s.ok(c, http.StatusOK, data, p)
}

func (s *Server) retrieveCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	delay := s.catDelay[id]
	s.mu.Unlock()
	if !wait(c, delay) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, found := s.categories[id]
	if !found {
		s.fail(c, http.StatusNotFound, "category not found")
		return
	}
	cat.Children = s.sortedCategories(func(child types.Category) bool {
		return child.Parent != nil && *child.Parent == id
	})
	cat.ChildCount = len(cat.Children)
	cat.Path = s.ancestors(cat)
	s.ok(c, http.StatusOK, cat, nil)
}

// ancestors returns the names above cat, root first; callers hold s.mu
func (s *Server) ancestors(cat types.Category) []string {
	var path []string
	for p := cat.Parent; p != nil; {
		parent, ok := s.categories[*p]
		if !ok {
			break
		}
		path = append([]string{parent.Name}, path...)
		p = parent.Parent
	}
	return path
}

// within reports whether category sits in the subtree of root; callers hold s.mu
func (s *Server) within(category *types.CategoryID, root types.CategoryID) bool {
	for p := category; p != nil; {
		if *p == root {
			return true
		}
		next, ok := s.categories[*p]
		if !ok {
			return false
		}
		p = next.Parent
	}
	return false
}

func (s *Server) listIcons(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid page")
		return
	}
	query := c.Query("q")

	var category *types.CategoryID
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(c, http.StatusBadRequest, "invalid category")
			return
		}
		category = &id
	}

	s.mu.Lock()
	delay := s.iconDelay[query]
	s.mu.Unlock()
	if !wait(c, delay) {
		return
	}

	s.mu.Lock()
	needle := strings.ToLower(query)
	matches := make([]types.Icon, 0)
	for _, icon := range s.icons {
		if needle != "" && !strings.Contains(strings.ToLower(icon.Word), needle) {
			continue
		}
		if category != nil && !s.within(icon.Category, *category) {
			continue
		}
		matches = append(matches, icon)
	}
	s.mu.Unlock()

	data, p := paginate(matches, page, s.cfg.PageSize)
	s.ok(c, http.StatusOK, data, p)
}

func (s *Server) retrieveIcon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, icon := range s.icons {
		if icon.ID == id {
			s.ok(c, http.StatusOK, icon, nil)
			return
		}
	}
	s.fail(c, http.StatusNotFound, "icon not found")
}

func (s *Server) lookupWord(c *gin.Context) {
	word := strings.ToLower(c.Param("word"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.dictionary[word]; ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
		return
	}

	suggestions := make([]string, 0)
	for known := range s.dictionary {
		if fuzzy.LevenshteinDistance(word, known) <= 2 {
			suggestions = append(suggestions, known)
		}
	}
	sort.Strings(suggestions)
	s.respond(c, http.StatusOK, suggestions)
}

package fakeapi

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

func (s *Server) listPosts(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid page")
		return
	}

	s.mu.Lock()
	posts := make([]types.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	s.mu.Unlock()
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	data, p := paginate(posts, page, s.cfg.PageSize)
	s.ok(c, http.StatusOK, data, p)
}

func (s *Server) retrievePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	post, found := s.posts[id]
	s.mu.Unlock()
	if !found {
		s.fail(c, http.StatusNotFound, "post not found")
		return
	}
	s.ok(c, http.StatusOK, post, nil)
}

func (s *Server) createPost(c *gin.Context) {
	var body types.PostBody
	if err := decodeBody(c, &body); err != nil || body.Title == "" {
		s.fail(c, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.nextID++
	post := types.Post{ID: s.nextID, Title: body.Title, Content: body.Content, Created: now, Updated: now}
	s.posts[post.ID] = post
	s.mu.Unlock()

	s.ok(c, http.StatusCreated, post, nil)
}

// updatePost replaces a post, or with partial set only the fields present
func (s *Server) updatePost(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			s.fail(c, http.StatusBadRequest, "invalid id")
			return
		}

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.fail(c, http.StatusBadRequest, "unreadable body")
			return
		}
		var fields map[string]interface{}
		if err := sonic.Unmarshal(raw, &fields); err != nil {
			s.fail(c, http.StatusBadRequest, "invalid json")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		post, found := s.posts[id]
		if !found {
			s.fail(c, http.StatusNotFound, "post not found")
			return
		}

		title, hasTitle := fields["title"].(string)
		content, hasContent := fields["content"].(string)
		if !partial && (!hasTitle || title == "") {
			s.fail(c, http.StatusBadRequest, "title is required")
			return
		}
		if hasTitle {
			post.Title = title
		}
		if hasContent || !partial {
			post.Content = content
		}
		post.Updated = time.Now().UTC()
		s.posts[id] = post

		s.ok(c, http.StatusOK, post, nil)
	}
}

func (s *Server) deletePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	_, found := s.posts[id]
	delete(s.posts, id)
	s.mu.Unlock()

	if !found {
		s.fail(c, http.StatusNotFound, "post not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listComments(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		s.fail(c, http.StatusBadRequest, "invalid page")
		return
	}

	var post resource.ID
	if raw := c.Query("post"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.fail(c, http.StatusBadRequest, "invalid post")
			return
		}
		post = id
	}

	s.mu.Lock()
	comments := make([]types.Comment, 0, len(s.comments))
	for _, cm := range s.comments {
		if post == 0 || cm.Post == post {
			comments = append(comments, cm)
		}
	}
	s.mu.Unlock()
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })

	data, p := paginate(comments, page, s.cfg.PageSize)
	s.ok(c, http.StatusOK, data, p)
}

func (s *Server) createComment(c *gin.Context) {
	var body types.CommentBody
	if err := decodeBody(c, &body); err != nil || body.Content == "" {
		s.fail(c, http.StatusBadRequest, "content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[body.Post]; !ok {
		s.fail(c, http.StatusBadRequest, "unknown post")
		return
	}
	s.nextID++
	comment := types.Comment{ID: s.nextID, Post: body.Post, Content: body.Content, Parent: body.Parent}
	s.comments[comment.ID] = comment

	s.ok(c, http.StatusCreated, comment, nil)
}

func decodeBody(c *gin.Context, v interface{}) error {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, v)
}

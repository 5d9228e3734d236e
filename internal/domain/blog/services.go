package blog

import (
	"context"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/auth"
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

// Access configures who may write
type Access struct {
	Gate      auth.Gate
	Dismisser auth.Dismisser
	// Debounce overrides resource.DefaultDebounce; negative disables it
	Debounce time.Duration
}

// PostService reads and writes blog posts. Content is sanitised on the way in.
type PostService struct {
	client resource.API[types.Post, types.PostBody]
}

// NewPostService creates a post service over transport
func NewPostService(transport *resource.Transport, access Access) *PostService {
	settings := resource.Settings[types.Post]{
		Path:      "posts",
		Gate:      access.Gate,
		Dismisser: access.Dismisser,
		Debounce:  access.Debounce,
		Transform: sanitizePost,
	}
	return &PostService{client: resource.New[types.Post, types.PostBody](transport, settings)}
}

func sanitizePost(p types.Post) types.Post {
	p.Content = Sanitize(p.Content)
	return p
}

// List returns one page of posts
func (s *PostService) List(ctx context.Context, page int) (*resource.ClientDataList[types.Post], error) {
	params := resource.Params{}
	if page > 0 {
		params["page"] = page
	}
	return s.client.List(ctx, params)
}

// Retrieve fetches one post
func (s *PostService) Retrieve(ctx context.Context, id resource.ID) (*resource.ClientData[types.Post], error) {
	return s.client.Retrieve(ctx, id)
}

// Create publishes a new post. Returns nil, nil when not signed in.
func (s *PostService) Create(ctx context.Context, title, content string) (*resource.ClientData[types.Post], error) {
	return s.client.Create(ctx, types.PostBody{Title: title, Content: content})
}

// Update replaces a post
func (s *PostService) Update(ctx context.Context, body types.PostBody) (*resource.ClientData[types.Post], error) {
	return s.client.Update(ctx, body)
}

// Edit patches a post
func (s *PostService) Edit(ctx context.Context, body types.PostBody) (*resource.ClientData[types.Post], error) {
	return s.client.PartialUpdate(ctx, body)
}

// Delete removes a post
func (s *PostService) Delete(ctx context.Context, id resource.ID) (*resource.Receipt, error) {
	return s.client.Delete(ctx, id)
}

// CommentService reads and writes comments
type CommentService struct {
	client resource.API[types.Comment, types.CommentBody]
}

// NewCommentService creates a comment service over transport
func NewCommentService(transport *resource.Transport, access Access) *CommentService {
	settings := resource.Settings[types.Comment]{
		Path:      "comments",
		Gate:      access.Gate,
		Dismisser: access.Dismisser,
		Debounce:  access.Debounce,
		Transform: func(c types.Comment) types.Comment {
			c.Content = Sanitize(c.Content)
			return c
		},
	}
	return &CommentService{client: resource.New[types.Comment, types.CommentBody](transport, settings)}
}

// ForPost lists the comments on post
func (s *CommentService) ForPost(ctx context.Context, post resource.ID, page int) (*resource.ClientDataList[types.Comment], error) {
	params := resource.Params{"post": post}
	if page > 0 {
		params["page"] = page
	}
	return s.client.List(ctx, params)
}

// Add comments on post, replying to parent when it is set
func (s *CommentService) Add(ctx context.Context, post resource.ID, content string, parent *resource.ID) (*resource.ClientData[types.Comment], error) {
	return s.client.Create(ctx, types.CommentBody{Post: post, Content: content, Parent: parent})
}

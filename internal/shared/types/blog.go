package types

import (
	"time"

	"github.com/GriffinCanCode/iconfind/internal/resource"
)

// Post is a blog post
type Post struct {
	ID      resource.ID `json:"id"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
}

// ResourceID implements resource.Model
func (p Post) ResourceID() resource.ID { return p.ID }

// PostBody is the write body for posts. ID is ignored on create.
type PostBody struct {
	ID      resource.ID `json:"id,omitempty"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
}

// ResourceID implements resource.Body
func (b PostBody) ResourceID() resource.ID { return b.ID }

// Comment is a comment on a post, optionally replying to another comment
type Comment struct {
	ID      resource.ID  `json:"id"`
	Post    resource.ID  `json:"post"`
	Content string       `json:"content"`
	Parent  *resource.ID `json:"parent,omitempty"`
}

// ResourceID implements resource.Model
func (c Comment) ResourceID() resource.ID { return c.ID }

// CommentBody is the write body for comments
type CommentBody struct {
	ID      resource.ID  `json:"id,omitempty"`
	Post    resource.ID  `json:"post"`
	Content string       `json:"content"`
	Parent  *resource.ID `json:"parent,omitempty"`
}

// ResourceID implements resource.Body
func (b CommentBody) ResourceID() resource.ID { return b.ID }

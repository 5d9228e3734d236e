package types

import "github.com/GriffinCanCode/iconfind/internal/resource"

// CategoryID identifies a category. Zero is the synthetic "All Icons" root.
type CategoryID = resource.ID

// Icon is a single searchable item
type Icon struct {
	ID       resource.ID `json:"id"`
	Word     string      `json:"word"`
	Image    string      `json:"image"`
	Category *CategoryID `json:"category"`
}

// ResourceID implements resource.Model
func (i Icon) ResourceID() resource.ID { return i.ID }

// Category is a node of the category hierarchy as served by the API.
// Path is the ancestor name chain, root first, and is only populated on
// retrieve. Children holds direct children only.
type Category struct {
	ID         CategoryID  `json:"id"`
	Name       string      `json:"name"`
	Parent     *CategoryID `json:"parent"`
	Path       []string    `json:"path,omitempty"`
	Children   []Category  `json:"children,omitempty"`
	ChildCount int         `json:"childCount"`
}

// ResourceID implements resource.Model
func (c Category) ResourceID() resource.ID { return c.ID }

// IsRoot reports whether the category has no parent
func (c Category) IsRoot() bool { return c.Parent == nil }

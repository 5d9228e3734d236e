package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

// maxPages bounds ListAll against a server that never reports a last page
const maxPages = 1000

// ListCategories selects a page of categories. A nil Parent lists top-level
// categories.
type ListCategories struct {
	Parent *types.CategoryID
	Page   int
}

// CategoryService reads the category hierarchy
type CategoryService struct {
	client resource.API[types.Category, types.Category]
}

// NewCategoryService creates the service over the "categories" resource.
// Zero debounce uses the client default.
func NewCategoryService(transport *resource.Transport, debounce time.Duration) *CategoryService {
	settings := resource.Settings[types.Category]{Path: "categories", Debounce: debounce}
	return &CategoryService{client: resource.New[types.Category, types.Category](transport, settings)}
}

// NewCategoryServiceWith wraps an existing client
func NewCategoryServiceWith(client resource.API[types.Category, types.Category]) *CategoryService {
	return &CategoryService{client: client}
}

// List returns one page of the children of q.Parent, or of the top level.
func (s *CategoryService) List(ctx context.Context, q ListCategories) (*resource.ClientDataList[types.Category], error) {
	if q.Parent == nil {
		return s.listRoots(ctx, q.Page)
	}

	params := resource.Params{"parent": q.Parent}
	if q.Page > 0 {
		params["page"] = q.Page
	}

	list, err := s.client.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// listRoots reads every page of the unfiltered listing, keeps the
// parentless categories and pages them client-side at the server's page size,
// so the pagination describes the roots and not the whole hierarchy.
func (s *CategoryService) listRoots(ctx context.Context, page int) (*resource.ClientDataList[types.Category], error) {
	var (
		last  *resource.ClientDataList[types.Category]
		roots []types.Category
	)
	for p := 1; p <= maxPages; p++ {
		params := resource.Params{}
		if p > 1 {
			params["page"] = p
		}
		list, err := s.client.List(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		for _, c := range list.Data {
			if c.IsRoot() {
				roots = append(roots, c)
			}
		}
		last = list
		if !list.Pagination.NextPageExists {
			break
		}
	}

	if roots == nil {
		roots = []types.Category{}
	}
	last.Data, last.Pagination = resource.Paginate(roots, page, last.Pagination.MaxResultsPerPage)
	return last, nil
}

// ListAll walks every page of the children of parent
func (s *CategoryService) ListAll(ctx context.Context, parent *types.CategoryID) ([]types.Category, error) {
	var all []types.Category
	for page := 1; page <= maxPages; page++ {
		list, err := s.List(ctx, ListCategories{Parent: parent, Page: page})
		if err != nil {
			return nil, err
		}
		all = append(all, list.Data...)
		if !list.Pagination.NextPageExists {
			return all, nil
		}
	}
	return all, nil
}

// Retrieve returns a category with its ancestor path and direct children
func (s *CategoryService) Retrieve(ctx context.Context, id types.CategoryID) (*resource.ClientData[types.Category], error) {
	data, err := s.client.Retrieve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retrieve category %d: %w", id, err)
	}
	return data, nil
}

// IconQuery selects a page of icons. Empty Query and nil Category are
// omitted from the request.
type IconQuery struct {
	Query    string
	Category *types.CategoryID
	Page     int
}

// Params encodes the query for the icons resource
func (q IconQuery) Params() resource.Params {
	params := resource.Params{"category": q.Category}
	if q.Query != "" {
		params["q"] = q.Query
	}
	if q.Page > 0 {
		params["page"] = q.Page
	}
	return params
}

// IconService searches icons
type IconService struct {
	client resource.API[types.Icon, types.Icon]
}

// NewIconService creates the service over the "icons" resource.
// Zero debounce uses the client default.
func NewIconService(transport *resource.Transport, debounce time.Duration) *IconService {
	settings := resource.Settings[types.Icon]{Path: "icons", Debounce: debounce}
	return &IconService{client: resource.New[types.Icon, types.Icon](transport, settings)}
}

// NewIconServiceWith wraps an existing client
func NewIconServiceWith(client resource.API[types.Icon, types.Icon]) *IconService {
	return &IconService{client: client}
}

// List returns one page of icons matching q
func (s *IconService) List(ctx context.Context, q IconQuery) (*resource.ClientDataList[types.Icon], error) {
	list, err := s.client.List(ctx, q.Params())
	if err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}
	return list, nil
}

// Retrieve returns one icon
func (s *IconService) Retrieve(ctx context.Context, id resource.ID) (*resource.ClientData[types.Icon], error) {
	data, err := s.client.Retrieve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retrieve icon %d: %w", id, err)
	}
	return data, nil
}

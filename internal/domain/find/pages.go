package find

import (
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

// AppendPage merges a newly loaded page into the accumulated list. A first
// page, or a page that does not follow acc, replaces acc. Icons already
// present are skipped.
func AppendPage(acc, page *resource.ClientDataList[types.Icon]) *resource.ClientDataList[types.Icon] {
	if page == nil {
		return acc
	}
	if acc == nil || page.Pagination.ThisPageNumber <= 1 ||
		page.Pagination.ThisPageNumber != acc.Pagination.ThisPageNumber+1 {
		return page
	}

	seen := make(map[resource.ID]struct{}, len(acc.Data))
	data := make([]types.Icon, 0, len(acc.Data)+len(page.Data))
	for _, icon := range acc.Data {
		seen[icon.ID] = struct{}{}
		data = append(data, icon)
	}
	for _, icon := range page.Data {
		if _, dup := seen[icon.ID]; !dup {
			data = append(data, icon)
		}
	}

	return &resource.ClientDataList[types.Icon]{
		Success:    page.Success,
		Errors:     page.Errors,
		Data:       data,
		Pagination: page.Pagination,
		Retrieved:  page.Retrieved,
	}
}

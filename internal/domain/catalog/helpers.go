package catalog

import (
	"strconv"

	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

func copyID(id *types.CategoryID) *types.CategoryID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func formatID(id types.CategoryID) string {
	return strconv.FormatInt(id, 10)
}

package find

import "github.com/GriffinCanCode/iconfind/internal/shared/types"

// State is a snapshot of the navigation session
type State struct {
	Query       string
	CategoryID  *types.CategoryID
	Page        int
	AllIcons    bool
	Breadcrumbs string

	LoadingCategories bool
	LoadingIcons      bool
}

// Flags are the booleans the UI derives from State
type Flags struct {
	// EmptyQuery: nothing to search for and nothing to browse
	EmptyQuery bool
	// NotFound: an unscoped search
	NotFound bool
	// BroadenSearch: a search scoped to a category, which could be widened
	BroadenSearch bool
}

// FlagsOf computes the derived flags of s
func FlagsOf(s State) Flags {
	unscoped := s.AllIcons || s.CategoryID == nil
	return Flags{
		EmptyQuery:    s.Query == "" && unscoped,
		NotFound:      unscoped && s.Query != "",
		BroadenSearch: s.CategoryID != nil && s.Query != "",
	}
}

// EmptyQuery reports FlagsOf(s).EmptyQuery
func (s State) EmptyQuery() bool { return FlagsOf(s).EmptyQuery }

func (s State) clone() State {
	if s.CategoryID != nil {
		id := *s.CategoryID
		s.CategoryID = &id
	}
	return s
}

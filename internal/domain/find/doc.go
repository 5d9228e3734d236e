// Package find implements the navigation coordinator behind icon search.
//
// A Coordinator owns the session State (query, category scope, page and
// all-icons mode) and publishes results on latest-value streams. Every
// transition resets the streams it invalidates, supersedes the fetches of
// the same kind still in flight and starts new ones. A superseded fetch is
// cancelled and can never deliver.
//
// The category step always completes before the icon step of the same
// transition starts, so icon results are scoped to a resolved category.
//
// LoadMore only advances the page; callers merge pages with AppendPage.
package find

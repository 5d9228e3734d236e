/*
Package catalog provides the category and icon services and the lazily
expanded browse tree.

CategoryService lists categories one page at a time, scoped to a parent or
to the top level, and retrieves a single category with its ancestor path
and direct children. IconService lists icons by query, category and page.

# Tree

The browse tree starts as a synthetic "All Icons" root. Load fetches the
top level. Every other node starts with no children and a ChildCount taken
from the listing; the first Expand fetches its direct children, never
deeper. Click mirrors the browse pane:

	selected node      -> collapse and deselect
	open node          -> select
	closed with kids   -> expand
	leaf               -> select

Search ranks every loaded node by fuzzy name match.
*/
package catalog

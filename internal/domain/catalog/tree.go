package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

// RootID is the id of the synthetic root node
const RootID types.CategoryID = 0

// RootName is the label of the synthetic root node
const RootName = "All Icons"

// Lister lists every child of a category, or the top level for nil
type Lister interface {
	ListAll(ctx context.Context, parent *types.CategoryID) ([]types.Category, error)
}

// Node is one category in the browse tree. Children stays empty until the
// node is expanded; ChildCount is known up front so an unexpanded parent can
// be told apart from a leaf.
type Node struct {
	ID         types.CategoryID
	Name       string
	Parent     *types.CategoryID
	Children   []*Node
	ChildCount int
	Loaded     bool // children fetched
	Open       bool // shown expanded
}

// HasChildren reports whether the node has children, loaded or not
func (n *Node) HasChildren() bool {
	return n.ChildCount > 0 || len(n.Children) > 0
}

// clone copies n and its loaded subtree; callers hold the tree lock
func (n *Node) clone() *Node {
	c := *n
	c.Parent = copyID(n.Parent)
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return &c
}

// Action is what a click did
type Action int

const (
	// ActionNone means the click changed nothing
	ActionNone Action = iota
	// ActionExpanded means the node opened to show its children
	ActionExpanded
	// ActionSelected means the node became the selected category
	ActionSelected
	// ActionDeselected means the selected node was clicked again
	ActionDeselected
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionExpanded:
		return "expanded"
	case ActionSelected:
		return "selected"
	case ActionDeselected:
		return "deselected"
	default:
		return "none"
	}
}

// Click is the outcome of Tree.Click
type Click struct {
	Action   Action
	Category *types.CategoryID // selection after the click
}

// Tree is the lazily expanded category tree. It is cached for the session
// and never invalidated on its own. Nodes handed out are snapshots: later
// expansions and clicks do not change them, so they may be read from any
// goroutine.
type Tree struct {
	lister Lister
	logger *zap.Logger

	mu       sync.Mutex
	root     *Node
	index    map[types.CategoryID]*Node
	selected *types.CategoryID
}

// NewTree creates an empty tree; call Load to fetch the top level
func NewTree(lister Lister, logger *zap.Logger) *Tree {
	root := &Node{ID: RootID, Name: RootName}
	return &Tree{
		lister: lister,
		logger: logging.OrNop(logger),
		root:   root,
		index:  map[types.CategoryID]*Node{RootID: root},
	}
}

// Load fetches the top-level categories under the root
func (t *Tree) Load(ctx context.Context) (*Node, error) {
	if _, err := t.Expand(ctx, RootID); err != nil {
		return nil, err
	}
	return t.Root(), nil
}

// Root returns a snapshot of the root and everything loaded below it
func (t *Tree) Root() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root.clone()
}

// Node returns a snapshot of a loaded node by id
func (t *Tree) Node(id types.CategoryID) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return n.clone(), true
}

// Selected returns the selected category
func (t *Tree) Selected() *types.CategoryID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyID(t.selected)
}

// Expand loads the children of id once and opens the node. Later calls only
// reopen it.
func (t *Tree) Expand(ctx context.Context, id types.CategoryID) (*Node, error) {
	t.mu.Lock()
	node, ok := t.index[id]
	if !ok {
		t.mu.Unlock()
		return nil, &UnknownNodeError{ID: id}
	}
	if node.Loaded {
		node.Open = true
		snap := node.clone()
		t.mu.Unlock()
		return snap, nil
	}
	t.mu.Unlock()

	var parent *types.CategoryID
	if id != RootID {
		parent = copyID(&id)
	}
	children, err := t.lister.ListAll(ctx, parent)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if node.Loaded {
		// another expansion won the race
		node.Open = true
		return node.clone(), nil
	}

	node.Children = make([]*Node, 0, len(children))
	for _, c := range children {
		child := &Node{
			ID:         c.ID,
			Name:       c.Name,
			Parent:     copyID(c.Parent),
			ChildCount: c.ChildCount,
		}
		if existing, ok := t.index[c.ID]; ok {
			child = existing
		} else {
			t.index[c.ID] = child
		}
		node.Children = append(node.Children, child)
	}
	node.ChildCount = len(node.Children)
	node.Loaded = true
	node.Open = true

	t.logger.Debug("category expanded",
		zap.Int64("category", id),
		zap.Int("children", len(node.Children)))
	return node.clone(), nil
}

// Click applies a node click:
//   - the selected node collapses and is deselected
//   - an open node becomes selected
//   - a closed node with children expands
//   - a leaf becomes selected
func (t *Tree) Click(ctx context.Context, id types.CategoryID) (Click, error) {
	t.mu.Lock()
	node, ok := t.index[id]
	if !ok {
		t.mu.Unlock()
		return Click{}, &UnknownNodeError{ID: id}
	}

	switch {
	case t.selected != nil && *t.selected == id:
		node.Open = false
		t.selected = nil
		t.mu.Unlock()
		return Click{Action: ActionDeselected}, nil
	case node.Open || !node.HasChildren():
		t.selected = copyID(&id)
		t.mu.Unlock()
		return Click{Action: ActionSelected, Category: copyID(&id)}, nil
	}
	t.mu.Unlock()

	if _, err := t.Expand(ctx, id); err != nil {
		return Click{}, err
	}
	return Click{Action: ActionExpanded, Category: t.Selected()}, nil
}

// Deselect clears the selection, e.g. after a navigation reset
func (t *Tree) Deselect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = nil
}

// Search ranks loaded nodes by fuzzy match of query against their names.
// The root is never returned.
func (t *Tree) Search(query string) []*Node {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	t.mu.Lock()
	nodes := make([]*Node, 0, len(t.index))
	for id, n := range t.index {
		if id != RootID {
			nodes = append(nodes, n.clone())
		}
	}
	t.mu.Unlock()

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(trimmed, names)
	sort.Stable(ranks)

	out := make([]*Node, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, nodes[rank.OriginalIndex])
	}
	return out
}

// UnknownNodeError is returned for ids the tree has not loaded
type UnknownNodeError struct {
	ID types.CategoryID
}

func (e *UnknownNodeError) Error() string {
	return "category " + formatID(e.ID) + " is not in the tree"
}

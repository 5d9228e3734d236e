package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/GriffinCanCode/iconfind/internal/domain/blog"
	"github.com/GriffinCanCode/iconfind/internal/domain/catalog"
	"github.com/GriffinCanCode/iconfind/internal/domain/find"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/server"
	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
)

const helpText = `commands:
  q <text>             search icons
  cat <id>             browse a category
  all on|off           toggle all-icons mode
  clear                drop the category scope
  more                 load the next page
  reset                reset navigation
  state                show the navigation state
  tree                 show the loaded category tree
  click <id>           click a tree node
  find <text>          fuzzy-find loaded categories
  icon <id>            show an icon and look up its word
  suggest <word>       look up a suggested spelling
  login <user> <pass>  sign in for writes
  logout               sign out
  posts                list blog posts
  post <title> | <html>  publish a post
  stats                request statistics
  help                 this text
  quit                 leave`

var errUsage = errors.New("usage")

// console interprets one command line at a time against a session
type console struct {
	srv     *server.Server
	out     io.Writer
	timeout time.Duration
	shown   *resource.ClientDataList[types.Icon]
	seen    *find.FetchError
}

func newConsole(srv *server.Server, out io.Writer) *console {
	return &console{srv: srv, out: out, timeout: 30 * time.Second}
}

// exec runs line. It reports whether the session should end.
func (c *console) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(c.out, helpText)
	case "q", "search":
		c.srv.Find.SetQuery(arg)
		return false, c.showIcons(ctx, false)
	case "cat":
		id, err := parseID(arg)
		if err != nil {
			return false, err
		}
		c.srv.Find.SelectCategory(&id, false)
		return false, c.showIcons(ctx, false)
	case "all":
		if arg != "on" && arg != "off" {
			return false, fmt.Errorf("%w: all on|off", errUsage)
		}
		c.srv.Find.SetAllIconsMode(arg == "on")
		return false, c.showIcons(ctx, false)
	case "clear":
		c.srv.Tree.Deselect()
		c.srv.Find.ClearCategory()
		return false, c.showIcons(ctx, false)
	case "more":
		if !c.srv.Find.LoadMore() {
			fmt.Fprintln(c.out, "no more results")
			return false, nil
		}
		return false, c.showIcons(ctx, true)
	case "reset":
		c.srv.Tree.Deselect()
		c.srv.Find.Reset()
		c.shown = nil
		fmt.Fprintln(c.out, "navigation reset")
	case "state":
		c.showState()
	case "tree":
		return false, c.showTree(ctx)
	case "click":
		return false, c.click(ctx, arg)
	case "find":
		for _, n := range c.srv.Tree.Search(arg) {
			fmt.Fprintf(c.out, "%d\t%s\n", n.ID, n.Name)
		}
	case "icon":
		return false, c.showIcon(ctx, arg)
	case "suggest":
		c.srv.Detail.Suggest(arg)
		return false, c.showEntries(ctx)
	case "login":
		user, pass, ok := strings.Cut(arg, " ")
		if !ok {
			return false, fmt.Errorf("%w: login <user> <pass>", errUsage)
		}
		if err := c.srv.Login(ctx, user, strings.TrimSpace(pass)); err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, "signed in as", user)
	case "logout":
		c.srv.Gate().SignOut()
		fmt.Fprintln(c.out, "signed out")
	case "posts":
		return false, c.showPosts(ctx)
	case "post":
		return false, c.publish(ctx, arg)
	case "stats":
		c.showStats()
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

// settle waits for the coordinator to finish the current transition
func (c *console) settle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		s := c.srv.Find.State()
		if !s.LoadingCategories && !s.LoadingIcons {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for results: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *console) showIcons(ctx context.Context, appending bool) error {
	if err := c.settle(ctx); err != nil {
		return err
	}

	if failure := c.srv.Find.Failures().Value(); failure != nil && failure != c.seen {
		c.seen = failure
		fmt.Fprintln(c.out, "warning:", failure)
	}

	page := c.srv.Find.Icons().Value()
	if appending {
		c.shown = find.AppendPage(c.shown, page)
	} else {
		c.shown = page
	}

	state := c.srv.Find.State()
	flags := find.FlagsOf(state)
	if state.Breadcrumbs != "" {
		fmt.Fprintln(c.out, state.Breadcrumbs)
	}
	switch {
	case flags.EmptyQuery:
		fmt.Fprintln(c.out, "type a search or pick a category")
		return nil
	case len(c.shown.Data) == 0 && flags.BroadenSearch:
		fmt.Fprintf(c.out, "no icons for %q here; try all on\n", state.Query)
		return nil
	case len(c.shown.Data) == 0 && flags.NotFound:
		fmt.Fprintf(c.out, "no icons for %q\n", state.Query)
		return nil
	}

	if children := c.srv.Find.Categories().Value(); len(children.Data) > 0 && state.CategoryID != nil {
		names := make([]string, len(children.Data))
		for i, ch := range children.Data {
			names[i] = fmt.Sprintf("%s (%d)", ch.Name, ch.ID)
		}
		fmt.Fprintln(c.out, "subcategories:", strings.Join(names, ", "))
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, icon := range c.shown.Data {
		fmt.Fprintf(w, "%d\t%s\t%s\n", icon.ID, icon.Word, icon.Image)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	p := c.shown.Pagination
	fmt.Fprintf(c.out, "%d of %d", len(c.shown.Data), p.TotalResults)
	if p.NextPageExists {
		fmt.Fprint(c.out, " (more)")
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *console) showState() {
	s := c.srv.Find.State()
	category := "-"
	if s.CategoryID != nil {
		category = strconv.FormatInt(*s.CategoryID, 10)
	}
	fmt.Fprintf(c.out, "query=%q category=%s page=%d all=%t breadcrumbs=%q flags=%+v\n",
		s.Query, category, s.Page, s.AllIcons, s.Breadcrumbs, find.FlagsOf(s))
}

func (c *console) showTree(ctx context.Context) error {
	root := c.srv.Tree.Root()
	if !root.Loaded {
		var err error
		if root, err = c.srv.Tree.Load(ctx); err != nil {
			return err
		}
	}

	selected := c.srv.Tree.Selected()
	var walk func(n *catalog.Node, depth int)
	walk = func(n *catalog.Node, depth int) {
		marker := " "
		switch {
		case n.Open:
			marker = "-"
		case n.HasChildren():
			marker = "+"
		}
		if selected != nil && *selected == n.ID {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s%s %s (%d)\n", strings.Repeat("  ", depth), marker, n.Name, n.ID)
		if !n.Open {
			return
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, n := range root.Children {
		walk(n, 0)
	}
	return nil
}

func (c *console) click(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if !c.srv.Tree.Root().Loaded {
		if _, err := c.srv.Tree.Load(ctx); err != nil {
			return err
		}
	}

	result, err := c.srv.Tree.Click(ctx, id)
	if err != nil {
		return err
	}

	switch result.Action {
	case catalog.ActionSelected:
		c.srv.Find.SelectCategory(result.Category, false)
		return c.showIcons(ctx, false)
	case catalog.ActionDeselected:
		c.srv.Find.ClearCategory()
		return c.showIcons(ctx, false)
	case catalog.ActionExpanded:
		return c.showTree(ctx)
	}
	return nil
}

func (c *console) showIcon(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	icon, err := c.srv.Icons.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s  %s\n", icon.Data.Word, icon.Data.Image)
	c.srv.Detail.Select(icon.Data)
	return c.showEntries(ctx)
}

func (c *console) showEntries(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	loading, unsubscribe := c.srv.Detail.Loading().Subscribe()
	defer unsubscribe()
wait:
	for {
		select {
		case busy, ok := <-loading:
			if !ok || !busy {
				break wait
			}
		case <-ctx.Done():
			return fmt.Errorf("waiting for lookup: %w", ctx.Err())
		}
	}

	if err := c.srv.Detail.Failures().Value(); err != nil {
		fmt.Fprintln(c.out, "lookup failed:", err)
	}
	entries := c.srv.Detail.Entries().Value()
	for _, e := range entries {
		line := e.Headword.Text
		if e.Functional != "" {
			line += " (" + e.Functional + ")"
		}
		if audio, ok := e.Audio(); ok {
			line += " [" + audio + "]"
		}
		fmt.Fprintln(c.out, line)
		for _, def := range e.ShortDefs {
			fmt.Fprintln(c.out, "  -", def)
		}
	}
	if suggestions := c.srv.Detail.Suggestions().Value(); len(suggestions) > 0 {
		fmt.Fprintln(c.out, "did you mean:", strings.Join(suggestions, ", "))
	} else if len(entries) == 0 {
		fmt.Fprintln(c.out, "no dictionary entry")
	}
	return nil
}

func (c *console) showPosts(ctx context.Context) error {
	list, err := c.srv.Posts.List(ctx, 1)
	if err != nil {
		return err
	}
	for _, p := range list.Data {
		fmt.Fprintf(c.out, "%d  %s  %s\n", p.ID, p.Title, blog.Excerpt(p.Content, 60))
	}
	return nil
}

func (c *console) publish(ctx context.Context, arg string) error {
	title, content, ok := strings.Cut(arg, "|")
	if !ok || strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: post <title> | <html>", errUsage)
	}

	post, err := c.srv.Posts.Create(ctx, strings.TrimSpace(title), strings.TrimSpace(content))
	if err != nil {
		return err
	}
	if post == nil {
		// dropped; the dismiss hook already told the user
		return nil
	}
	fmt.Fprintf(c.out, "published %d\n", post.Data.ID)
	return nil
}

func (c *console) showStats() {
	snap := c.srv.Metrics().Snapshot()
	fmt.Fprintf(c.out, "requests=%d errors=%d auth_aborts=%d superseded=%d avg=%.1fms breaker=%s\n",
		snap.TotalRequests, snap.TotalErrors, snap.AuthAborts, snap.Superseded,
		snap.AverageDuration()*1000, c.srv.Transport().Breaker().State())
}

func parseID(arg string) (resource.ID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected a numeric id, got %q", errUsage, arg)
	}
	return id, nil
}

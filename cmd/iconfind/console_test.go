package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/iconfind/internal/infrastructure/config"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/logging"
	"github.com/GriffinCanCode/iconfind/internal/infrastructure/server"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.API.Debounce = config.Duration(-1)

	var out bytes.Buffer
	srv, err := server.NewServer(cfg, server.Options{
		Demo:      true,
		Logger:    logging.NewNop(),
		OnDismiss: func() { out.WriteString("sign in first\n") },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return newConsole(srv, &out), &out
}

func run(t *testing.T, c *console, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	quit, err := c.exec(context.Background(), line)
	require.NoError(t, err)
	require.False(t, quit)
	return out.String()
}

func TestConsoleSearchAndPaging(t *testing.T) {
	c, out := newTestConsole(t)

	text := run(t, c, out, "q dot")
	assert.Contains(t, text, "dot 001")
	assert.Contains(t, text, "100 of 150 (more)")

	text = run(t, c, out, "more")
	assert.Contains(t, text, "dot 150")
	assert.Contains(t, text, "150 of 150")

	assert.Contains(t, run(t, c, out, "more"), "no more results")

	assert.Contains(t, run(t, c, out, "q zebra"), `no icons for "zebra"`)
	assert.Contains(t, run(t, c, out, "q "), "type a search or pick a category")
}

func TestConsoleBrowse(t *testing.T) {
	c, out := newTestConsole(t)

	text := run(t, c, out, "tree")
	assert.Contains(t, text, "+ Animals (1)")
	assert.Contains(t, text, "  Weather (3)")

	text = run(t, c, out, "click 1")
	assert.Contains(t, text, "- Animals (1)")
	assert.Contains(t, text, "  + Mammals (4)")

	text = run(t, c, out, "click 5")
	assert.Contains(t, text, "Animals » Birds")
	assert.Contains(t, text, "eagle")
	assert.NotContains(t, text, "lion")

	text = run(t, c, out, "q rain")
	assert.Contains(t, text, `no icons for "rain" here; try all on`)

	assert.Contains(t, run(t, c, out, "all on"), "rain")

	run(t, c, out, "reset")
	assert.Contains(t, run(t, c, out, "state"), `category=- page=1 all=true breadcrumbs=""`)
}

func TestConsoleIconDetail(t *testing.T) {
	c, out := newTestConsole(t)

	text := run(t, c, out, "icon 1")
	assert.Contains(t, text, "cat")
	assert.Contains(t, text, "(noun) [cat00001]")
	assert.Contains(t, text, "- a carnivorous mammal")

	assert.Contains(t, run(t, c, out, "suggest kitten"), "- a young cat")
}

func TestConsoleBlog(t *testing.T) {
	c, out := newTestConsole(t)

	assert.Contains(t, run(t, c, out, "posts"), "1  Welcome  Icons for every word.")
	assert.Contains(t, run(t, c, out, "post Hello | <p>hi</p>"), "sign in first")

	assert.Contains(t, run(t, c, out, "login demo demo"), "signed in as demo")
	assert.Contains(t, run(t, c, out, "post Hello | <p>hi</p>"), "published")
	assert.Contains(t, run(t, c, out, "posts"), "Hello  hi")
}

func TestConsoleErrors(t *testing.T) {
	c, _ := newTestConsole(t)
	ctx := context.Background()

	_, err := c.exec(ctx, "cat x")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.exec(ctx, "all maybe")
	assert.ErrorIs(t, err, errUsage)

	_, err = c.exec(ctx, "teleport")
	assert.ErrorContains(t, err, "unknown command")

	quit, err := c.exec(ctx, "quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestRepl(t *testing.T) {
	c, out := newTestConsole(t)

	repl(context.Background(), c, strings.NewReader("help\nstats\nquit\nq cat\n"))

	text := out.String()
	assert.Contains(t, text, "commands:")
	assert.Contains(t, text, "requests=")
	assert.NotContains(t, text, "kitten")
}

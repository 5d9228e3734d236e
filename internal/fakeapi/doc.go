// Package fakeapi is an in-memory icon API for tests and the CLI demo mode.
//
// It serves the same REST surface as the production API under /api:
// categories, icons, posts, comments, a token endpoint and a dictionary
// lookup. Every request lands in a hit log so tests can assert what went over
// the wire, and listings can be delayed per query or per category to
// exercise cancellation of superseded fetches:
//
//	api := fakeapi.New(fakeapi.Config{})
//	api.DelayIcons("slow", time.Second)
//	srv := httptest.NewServer(api.Handler())
//
// A delayed handler gives up as soon as the client cancels and marks the
// hit Canceled.
package fakeapi

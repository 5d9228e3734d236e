// Package blog exposes the posts and comments resources. Both are plain
// instantiations of the generic resource client; writes need a signed-in
// auth.Gate and are dropped, with the login prompt dismissed, otherwise.
//
// Content coming back from the API is sanitised with a user-generated-content
// policy before it reaches callers. Excerpt turns post HTML into a short
// plain-text preview.
package blog

// Package types provides the resource models shared across the icon finder.
//
// Every model satisfies resource.Model: identity is the numeric id, and two
// values with the same id are the same resource for caching purposes no
// matter what their other fields hold.
//
// Core Types:
//   - Icon: a searchable word with its image
//   - Category: a node of the category hierarchy, with its ancestor path
//   - Post, Comment: authenticated blog resources
//   - WordEntry: a dictionary entry for an icon's word
//
// Request Types:
//   - PostBody, CommentBody: write bodies for the blog resources
package types

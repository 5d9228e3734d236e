// Package detail backs the icon detail view: the selected icon and a
// dictionary lookup of its word.
//
// The dictionary service answers a known word with an array of entries and an
// unknown one with an array of spelling suggestions. Panel keeps at most one
// lookup live; selecting another icon or a suggestion cancels the previous
// lookup before it can publish.
package detail

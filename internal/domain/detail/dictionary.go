package detail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/iconfind/internal/resource"
	"github.com/GriffinCanCode/iconfind/internal/shared/types"
	"github.com/bytedance/sonic"
)

// Lookup is the answer to a word lookup. A known word yields entries; an
// unknown one yields spelling suggestions. Both are empty when the service
// has nothing to offer.
type Lookup struct {
	Word        string
	Entries     []types.WordEntry
	Suggestions []string
}

// Found reports whether the word had entries
func (l *Lookup) Found() bool {
	return l != nil && len(l.Entries) > 0
}

// Dictionary looks words up in a collegiate dictionary service
type Dictionary struct {
	transport *resource.Transport
	key       string
}

// NewDictionary creates a dictionary client. transport must be based at the
// service's json endpoint.
func NewDictionary(transport *resource.Transport, key string) *Dictionary {
	return &Dictionary{transport: transport, key: key}
}

// Lookup fetches the entries for word, or suggestions when it is unknown
func (d *Dictionary) Lookup(ctx context.Context, word string) (*Lookup, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return &Lookup{Entries: []types.WordEntry{}, Suggestions: []string{}}, nil
	}

	query := url.Values{}
	if d.key != "" {
		query.Set("key", d.key)
	}

	resp, err := d.transport.Do(ctx, resource.Call{
		Resource: "dictionary",
		Method:   http.MethodGet,
		Path:     "/" + url.PathEscape(word),
		Query:    query,
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeLookup(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decode lookup of %q: %w", word, err)
	}
	result.Word = word
	return result, nil
}

// decodeLookup tells the two response shapes apart: an array of strings is a
// list of suggestions, anything else must be an array of entries.
func decodeLookup(body []byte) (*Lookup, error) {
	result := &Lookup{Entries: []types.WordEntry{}, Suggestions: []string{}}

	var suggestions []string
	if err := sonic.Unmarshal(body, &suggestions); err == nil {
		if suggestions != nil {
			result.Suggestions = suggestions
		}
		return result, nil
	}

	var entries []types.WordEntry
	if err := sonic.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	if entries != nil {
		result.Entries = entries
	}
	return result, nil
}

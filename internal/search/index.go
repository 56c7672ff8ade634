// Package search mirrors primary-store mutations into an external full-text
// index and answers ranked-id queries. Indexing is best-effort: the primary
// store must never fail or block because the index is down.
package search

import (
	"context"
	"strings"
	"unicode"
)

// Index is the external full-text engine contract. Implementations rank and
// page on their side; callers hydrate the returned ids from the primary store.
type Index interface {
	// IndexDocument upserts the fields of a document under its id.
	IndexDocument(ctx context.Context, index string, id int64, fields map[string]string) error
	// DeleteDocument removes a document by id. Missing documents are not an error.
	DeleteDocument(ctx context.Context, index string, id int64) error
	// Query returns ranked document ids for a text query plus the total match count.
	Query(ctx context.Context, index, text string, offset, limit int) ([]int64, int64, error)
	// CreateIndex prepares an index. Idempotent.
	CreateIndex(ctx context.Context, index string) error
}

// NoopIndex is used when no index is configured: every operation is a silent
// no-op and queries match nothing.
type NoopIndex struct{}

func (NoopIndex) IndexDocument(context.Context, string, int64, map[string]string) error { return nil }
func (NoopIndex) DeleteDocument(context.Context, string, int64) error                   { return nil }
func (NoopIndex) Query(context.Context, string, string, int, int) ([]int64, int64, error) {
	return nil, 0, nil
}
func (NoopIndex) CreateIndex(context.Context, string) error { return nil }

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

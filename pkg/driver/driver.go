// Package driver defines the boundary between the expression builder and a
// document store: the capability surface that executes compiled filter,
// update, and projection documents. The builder core never performs I/O
// itself; connection management and environmental failure handling belong
// entirely to implementations.
package driver

import (
	"context"

	"github.com/kartikbazzad/docquery/pkg/query"
)

// Document is a decoded document payload.
type Document map[string]any

// SortSpec orders results by one field.
type SortSpec struct {
	Field string
	Asc   bool
}

// Options tune a read operation.
type Options struct {
	Projection query.Projection // Optional output reshaping (nil = full documents)
	Limit      int              // Max documents (0 = no limit)
	Sort       *SortSpec        // Optional ordering (nil = by document ID)
}

// Driver executes compiled documents against one collection. Implementations
// accept the documents verbatim as produced by the compilers.
type Driver interface {
	// Find returns every document matching the filter, shaped by opts.
	Find(ctx context.Context, filter query.Filter, opts Options) ([]Document, error)

	// FindOne returns the first matching document, or ErrDocNotFound.
	FindOne(ctx context.Context, filter query.Filter, opts Options) (Document, error)

	// Update applies the update document to every match and returns the
	// number of documents modified.
	Update(ctx context.Context, filter query.Filter, update query.Update) (int, error)

	// Insert stores a new document and returns its generated identifier.
	Insert(ctx context.Context, doc Document) (string, error)
}

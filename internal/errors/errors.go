package errors

import (
	"errors"
)

// Contract errors - raised when a compiler or the store is handed input
// outside its closed contract. These are programmer errors, never retried.
var (
	// ErrUnknownExpr is returned when the match compiler sees an Expr
	// implementation outside the closed node set
	ErrUnknownExpr = errors.New("unknown expression node")

	// ErrUnknownUpdate is returned when the update compiler sees an UpdateOp
	// implementation outside the closed node set
	ErrUnknownUpdate = errors.New("unknown update node")

	// ErrNilColumn is returned when a projection shape entry has no column
	// reference
	ErrNilColumn = errors.New("nil column reference")

	// ErrInvalidFilter is returned when the evaluator sees a filter document
	// not shaped like match-compiler output
	ErrInvalidFilter = errors.New("invalid filter document")

	// ErrInvalidUpdate is returned when the store sees an update document
	// with operator keys outside $set/$inc
	ErrInvalidUpdate = errors.New("invalid update document")

	// ErrInvalidProjection is returned when the store sees a projection
	// document whose entries are not "$"-prefixed path strings
	ErrInvalidProjection = errors.New("invalid projection document")

	// ErrInvalidPath is returned when a dotted field path cannot be applied
	// to a document
	ErrInvalidPath = errors.New("invalid field path")
)

// Store errors
var (
	// ErrDocNotFound is returned when FindOne matches no document
	ErrDocNotFound = errors.New("document not found")

	// ErrInvalidJSON is returned when a document cannot be encoded as JSON
	ErrInvalidJSON = errors.New("document is not valid JSON")

	// ErrStoreClosed is returned when operating on a closed store
	ErrStoreClosed = errors.New("store is closed")

	// ErrNotNumeric is returned when $inc targets a non-numeric value
	ErrNotNumeric = errors.New("field is not numeric")
)

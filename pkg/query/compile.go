package query

import (
	"fmt"

	"github.com/kartikbazzad/docquery/internal/errors"
)

// Filter is a compiled match document: field paths (or $and/$or) mapped to
// literal values, operator objects, or lists of nested filters.
type Filter map[string]any

// Update is a compiled update document holding optional $set and $inc
// groups, each a mapping from field path to value.
type Update map[string]any

// Projection is a compiled projection document: output field name mapped to
// "$" followed by the source path.
type Projection map[string]any

// CompileMatch lowers an expression tree into a filter document. The output
// is freshly allocated on every call; the caller owns it. Compilation is
// purely structural: nested compounds stay nested, nothing is flattened or
// deduplicated. An Expr implementation outside this package's node set is a
// contract violation and fails with ErrUnknownExpr before any partial
// document is produced.
func CompileMatch(e Expr) (Filter, error) {
	switch n := e.(type) {
	case eqExpr:
		return Filter{n.path: n.val}, nil
	case cmpExpr:
		return Filter{n.path: map[string]any{n.op: n.val}}, nil
	case inExpr:
		vals := make([]any, len(n.vals))
		copy(vals, n.vals)
		return Filter{n.path: map[string]any{"$in": vals}}, nil
	case andExpr:
		children, err := compileChildren(n.exprs)
		if err != nil {
			return nil, err
		}
		return Filter{"$and": children}, nil
	case orExpr:
		children, err := compileChildren(n.exprs)
		if err != nil {
			return nil, err
		}
		return Filter{"$or": children}, nil
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownExpr, e)
	}
}

func compileChildren(exprs []Expr) ([]Filter, error) {
	out := make([]Filter, 0, len(exprs))
	for _, child := range exprs {
		doc, err := CompileMatch(child)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// CompileUpdate reduces a sequence of mutations into one update document.
// Mutations are applied in order; when two target the same path within the
// same group the later one wins. The $set and $inc groups are independent,
// so a Set and an Inc on the same path coexist. A group key appears in the
// output only when at least one mutation targeted it; an empty input
// compiles to an empty document.
func CompileUpdate(ops []UpdateOp) (Update, error) {
	var setGroup, incGroup map[string]any
	for _, op := range ops {
		switch n := op.(type) {
		case setOp:
			if setGroup == nil {
				setGroup = make(map[string]any)
			}
			setGroup[n.path] = n.val
		case incOp:
			if incGroup == nil {
				incGroup = make(map[string]any)
			}
			incGroup[n.path] = n.by
		default:
			return nil, fmt.Errorf("%w: %T", errors.ErrUnknownUpdate, op)
		}
	}
	doc := Update{}
	if setGroup != nil {
		doc["$set"] = setGroup
	}
	if incGroup != nil {
		doc["$inc"] = incGroup
	}
	return doc, nil
}

// Select compiles an output-shape mapping into a projection document. Every
// key must map to a non-nil column reference; a nil entry is a contract
// violation and fails with ErrNilColumn rather than emitting a placeholder
// path.
func Select(shape map[string]Ref) (Projection, error) {
	doc := make(Projection, len(shape))
	for name, col := range shape {
		if col == nil {
			return nil, fmt.Errorf("%w: projection field %q", errors.ErrNilColumn, name)
		}
		doc[name] = "$" + col.Path()
	}
	return doc, nil
}

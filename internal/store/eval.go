package store

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/kartikbazzad/docquery/internal/errors"
	"github.com/kartikbazzad/docquery/pkg/query"
)

// matchFilter reports whether a parsed document satisfies a compiled filter
// document. The evaluator is total over match-compiler output only; any
// other shape fails with ErrInvalidFilter.
//
// Compound semantics: every top-level key must hold. An empty $and list
// matches (vacuous truth), an empty $or list does not. An empty filter
// matches every document.
func matchFilter(doc *fastjson.Value, filter map[string]any) (bool, error) {
	for key, cond := range filter {
		switch key {
		case "$and":
			children, err := filterList(cond)
			if err != nil {
				return false, err
			}
			for _, child := range children {
				ok, err := matchFilter(doc, child)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}

		case "$or":
			children, err := filterList(cond)
			if err != nil {
				return false, err
			}
			matched := false
			for _, child := range children {
				ok, err := matchFilter(doc, child)
				if err != nil {
					return false, err
				}
				if ok {
					matched = true
					break
				}
			}
			if !matched {
				return false, nil
			}

		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("%w: unsupported operator %q", errors.ErrInvalidFilter, key)
			}
			ok, err := matchField(doc.Get(splitPath(key)...), cond)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	return true, nil
}

// filterList normalizes the children of a $and/$or condition.
func filterList(cond any) ([]map[string]any, error) {
	switch l := cond.(type) {
	case []query.Filter:
		out := make([]map[string]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, nil
	case []map[string]any:
		return l, nil
	case []any:
		out := make([]map[string]any, len(l))
		for i, el := range l {
			switch m := el.(type) {
			case map[string]any:
				out[i] = m
			case query.Filter:
				out[i] = m
			default:
				return nil, fmt.Errorf("%w: compound child is %T", errors.ErrInvalidFilter, el)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compound value is %T", errors.ErrInvalidFilter, cond)
	}
}

// matchField evaluates one field condition: either an operator object
// ($gt/$gte/$lt/$lte/$in) or a literal equality. A missing field (v == nil)
// only equals a nil literal.
func matchField(v *fastjson.Value, cond any) (bool, error) {
	if opDoc, ok := cond.(map[string]any); ok && isOperatorDoc(opDoc) {
		for op, operand := range opDoc {
			switch op {
			case "$gt":
				if !numericCompare(v, operand, func(got, want float64) bool { return got > want }) {
					return false, nil
				}
			case "$gte":
				if !numericCompare(v, operand, func(got, want float64) bool { return got >= want }) {
					return false, nil
				}
			case "$lt":
				if !numericCompare(v, operand, func(got, want float64) bool { return got < want }) {
					return false, nil
				}
			case "$lte":
				if !numericCompare(v, operand, func(got, want float64) bool { return got <= want }) {
					return false, nil
				}
			case "$in":
				vals, ok := operand.([]any)
				if !ok {
					return false, fmt.Errorf("%w: $in value is %T", errors.ErrInvalidFilter, operand)
				}
				matched := false
				for _, want := range vals {
					if equalsValue(v, want) {
						matched = true
						break
					}
				}
				if !matched {
					return false, nil
				}
			default:
				return false, fmt.Errorf("%w: unsupported operator %q", errors.ErrInvalidFilter, op)
			}
		}
		return true, nil
	}

	return equalsValue(v, cond), nil
}

func isOperatorDoc(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// numericCompare applies cmp to the stored value and the operand. A missing
// or non-numeric stored value never satisfies an ordering comparison.
func numericCompare(v *fastjson.Value, operand any, cmp func(got, want float64) bool) bool {
	want, ok := toFloat(operand)
	if !ok {
		return false
	}
	if v == nil || v.Type() != fastjson.TypeNumber {
		return false
	}
	got, err := v.Float64()
	if err != nil {
		return false
	}
	return cmp(got, want)
}

// equalsValue compares a stored scalar against a supplied literal. Arrays
// and objects never compare equal (no structural equality, matching the
// fixed operator set).
func equalsValue(v *fastjson.Value, want any) bool {
	if want == nil {
		return v == nil || v.Type() == fastjson.TypeNull
	}
	if v == nil {
		return false
	}

	if f, ok := toFloat(want); ok {
		if v.Type() != fastjson.TypeNumber {
			return false
		}
		got, err := v.Float64()
		return err == nil && got == f
	}

	switch w := want.(type) {
	case string:
		return v.Type() == fastjson.TypeString && string(v.GetStringBytes()) == w
	case bool:
		if w {
			return v.Type() == fastjson.TypeTrue
		}
		return v.Type() == fastjson.TypeFalse
	default:
		return false
	}
}

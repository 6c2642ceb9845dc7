package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartikbazzad/docquery/internal/errors"
)

// splitPath splits a dot-separated field path into segments. Paths produced
// by the builder never carry escaping, so a "." inside a field name is
// indistinguishable from nesting.
func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// getValue retrieves the value at the segment path. Returns
// (nil, false) when any segment is absent or untraversable.
func getValue(doc any, segments []string) (any, bool) {
	current := doc

	for _, segment := range segments {
		switch v := current.(type) {
		case map[string]any:
			val, exists := v[segment]
			if !exists {
				return nil, false
			}
			current = val

		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(v) {
				return nil, false
			}
			current = v[index]

		default:
			return nil, false
		}
	}

	return current, true
}

// setValue sets the value at the segment path, creating intermediate objects
// as needed. A primitive in the middle of the path is replaced by an object;
// arrays cannot be traversed on the write path.
func setValue(doc map[string]any, segments []string, value any) error {
	if len(segments) == 0 {
		return errors.ErrInvalidPath
	}

	current := doc

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]
		val, exists := current[segment]

		if !exists {
			next := make(map[string]any)
			current[segment] = next
			current = next
			continue
		}

		switch v := val.(type) {
		case map[string]any:
			current = v
		case []any:
			return fmt.Errorf("cannot set key %q through array at segment %d: %w", segment, i, errors.ErrInvalidPath)
		default:
			next := make(map[string]any)
			current[segment] = next
			current = next
		}
	}

	current[segments[len(segments)-1]] = value
	return nil
}

// incValue adds by to the numeric value at the segment path. An absent field
// is treated as zero and created; a present non-numeric value is an error.
func incValue(doc map[string]any, segments []string, by float64) error {
	if len(segments) == 0 {
		return errors.ErrInvalidPath
	}

	prior := 0.0
	if val, ok := getValue(doc, segments); ok {
		f, numeric := toFloat(val)
		if !numeric {
			return fmt.Errorf("$inc %q: %w", strings.Join(segments, "."), errors.ErrNotNumeric)
		}
		prior = f
	}

	return setValue(doc, segments, prior+by)
}

// toFloat normalizes the numeric types that appear in decoded JSON and in
// caller-supplied values.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

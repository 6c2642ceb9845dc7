package store

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/kartikbazzad/docquery/internal/errors"
)

func TestGetValue(t *testing.T) {
	doc := map[string]any{
		"name": "ada",
		"address": map[string]any{
			"city": "Oslo",
		},
		"tags": []any{"a", "b"},
	}

	v, ok := getValue(doc, splitPath("address.city"))
	if !ok || v != "Oslo" {
		t.Fatalf("getValue(address.city): got %v, %v", v, ok)
	}

	v, ok = getValue(doc, splitPath("tags.1"))
	if !ok || v != "b" {
		t.Fatalf("getValue(tags.1): got %v, %v", v, ok)
	}

	if _, ok := getValue(doc, splitPath("address.zip")); ok {
		t.Fatal("getValue(address.zip): want absent")
	}
	if _, ok := getValue(doc, splitPath("tags.9")); ok {
		t.Fatal("getValue(tags.9): want absent")
	}
	if _, ok := getValue(doc, splitPath("name.x")); ok {
		t.Fatal("getValue through primitive: want absent")
	}
}

func TestSetValue(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}

	if err := setValue(doc, splitPath("a.b"), 2); err != nil {
		t.Fatalf("setValue: %v", err)
	}
	if err := setValue(doc, splitPath("a.c.d"), "x"); err != nil {
		t.Fatalf("setValue creating intermediates: %v", err)
	}

	want := map[string]any{"a": map[string]any{
		"b": 2,
		"c": map[string]any{"d": "x"},
	}}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("setValue: got %v, want %v", doc, want)
	}
}

func TestSetValue_ReplacesPrimitive(t *testing.T) {
	doc := map[string]any{"a": 1}
	if err := setValue(doc, splitPath("a.b"), 2); err != nil {
		t.Fatalf("setValue: %v", err)
	}
	want := map[string]any{"a": map[string]any{"b": 2}}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("setValue: got %v, want %v", doc, want)
	}
}

func TestSetValue_ArrayInPath(t *testing.T) {
	doc := map[string]any{"a": []any{1}}
	err := setValue(doc, splitPath("a.0.b"), 2)
	if !stderrors.Is(err, errors.ErrInvalidPath) {
		t.Fatalf("setValue through array: got %v, want ErrInvalidPath", err)
	}
}

func TestIncValue(t *testing.T) {
	doc := map[string]any{"count": float64(3)}

	if err := incValue(doc, splitPath("count"), 2); err != nil {
		t.Fatalf("incValue: %v", err)
	}
	if got := doc["count"]; got != float64(5) {
		t.Fatalf("incValue: got %v, want 5", got)
	}

	// Absent field starts at zero.
	if err := incValue(doc, splitPath("views"), 1); err != nil {
		t.Fatalf("incValue absent: %v", err)
	}
	if got := doc["views"]; got != float64(1) {
		t.Fatalf("incValue absent: got %v, want 1", got)
	}
}

func TestIncValue_NonNumeric(t *testing.T) {
	doc := map[string]any{"name": "ada"}
	err := incValue(doc, splitPath("name"), 1)
	if !stderrors.Is(err, errors.ErrNotNumeric) {
		t.Fatalf("incValue non-numeric: got %v, want ErrNotNumeric", err)
	}
}

// Package integration exercises the full pipeline: path accessor -> typed
// builder -> compilers -> embedded store.
package integration

import (
	"context"
	"io"
	"testing"

	"github.com/kartikbazzad/docquery/internal/config"
	"github.com/kartikbazzad/docquery/internal/logger"
	"github.com/kartikbazzad/docquery/internal/store"
	"github.com/kartikbazzad/docquery/pkg/driver"
	"github.com/kartikbazzad/docquery/pkg/query"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.DefaultConfig()
	s, err := store.Open(cfg, logger.New(io.Discard, logger.LevelError, "[test]"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTrip_AgeBand(t *testing.T) {
	s := openStore(t)
	users, err := s.Collection("users")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	ctx := context.Background()

	for _, doc := range []driver.Document{
		{"name": "ada", "age": 36},
		{"name": "bo", "age": 17},
		{"name": "cy", "age": 70},
	} {
		if _, err := users.Insert(ctx, doc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	age := query.Col[int]("age")
	filter, err := query.CompileMatch(query.And(query.Gte(age, 18), query.Lt(age, 65)))
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}

	docs, err := users.Find(ctx, filter, driver.Options{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0]["name"] != "ada" {
		t.Fatalf("Find: got %v", docs)
	}
}

func TestRoundTrip_PathAccessorNestedFilter(t *testing.T) {
	s := openStore(t)
	users, _ := s.Collection("users")
	ctx := context.Background()

	if _, err := users.Insert(ctx, driver.Document{
		"name":    "ada",
		"address": map[string]any{"city": "Oslo", "zip": "0150"},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := users.Insert(ctx, driver.Document{
		"name":    "cy",
		"address": map[string]any{"city": "Lima"},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	city := query.At[string](query.Root().Field("address").Field("city"))
	filter, err := query.CompileMatch(query.Eq(city, "Oslo"))
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}

	doc, err := users.FindOne(ctx, filter, driver.Options{})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["name"] != "ada" {
		t.Fatalf("FindOne: got %v", doc)
	}
}

func TestRoundTrip_UpdateThenProject(t *testing.T) {
	s := openStore(t)
	orders, _ := s.Collection("orders")
	ctx := context.Background()

	if _, err := orders.Insert(ctx, driver.Document{
		"sku":    "widget",
		"status": "open",
		"qty":    3,
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	status := query.Col[string]("status")
	filter, err := query.CompileMatch(query.Eq(status, "open"))
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}

	update, err := query.CompileUpdate([]query.UpdateOp{
		query.Set(status, "shipped"),
		query.Inc(query.Col[int]("qty"), 2),
	})
	if err != nil {
		t.Fatalf("CompileUpdate: %v", err)
	}

	n, err := orders.Update(ctx, filter, update)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 1 {
		t.Fatalf("Update: modified %d, want 1", n)
	}

	proj, err := query.Select(map[string]query.Ref{
		"item":  query.Col[string]("sku"),
		"state": query.Col[string]("status"),
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	shipped, _ := query.CompileMatch(query.Eq(status, "shipped"))
	doc, err := orders.FindOne(ctx, shipped, driver.Options{Projection: proj})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["item"] != "widget" || doc["state"] != "shipped" {
		t.Fatalf("projection: got %v", doc)
	}
	if _, present := doc["qty"]; present {
		t.Fatal("projection: qty must be dropped")
	}
}

func TestRoundTrip_OrMembership(t *testing.T) {
	s := openStore(t)
	users, _ := s.Collection("users")
	ctx := context.Background()

	for _, doc := range []driver.Document{
		{"name": "ada", "status": "active", "score": 50},
		{"name": "bo", "status": "paused", "score": 80},
		{"name": "cy", "status": "paused", "score": 10},
	} {
		if _, err := users.Insert(ctx, doc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	filter, err := query.CompileMatch(query.Or(
		query.Eq(query.Col[string]("status"), "active"),
		query.Gt(query.Col[int]("score"), 75),
	))
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}

	docs, err := users.Find(ctx, filter, driver.Options{Sort: &driver.SortSpec{Field: "name", Asc: true}})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 || docs[0]["name"] != "ada" || docs[1]["name"] != "bo" {
		t.Fatalf("Find: got %v", docs)
	}

	tier, err := query.CompileMatch(query.In(query.Col[string]("name"), "bo", "cy"))
	if err != nil {
		t.Fatalf("CompileMatch: %v", err)
	}
	docs, err = users.Find(ctx, tier, driver.Options{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Find in: got %d docs, want 2", len(docs))
	}
}

// Compilers are pure; the same AST can be compiled and executed from many
// goroutines at once.
func TestRoundTrip_ConcurrentCompile(t *testing.T) {
	s := openStore(t)
	users, _ := s.Collection("users")
	ctx := context.Background()

	if _, err := users.Insert(ctx, driver.Document{"name": "ada", "age": 36}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	expr := query.And(
		query.Gte(query.Col[int]("age"), 18),
		query.Lt(query.Col[int]("age"), 65),
	)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				filter, err := query.CompileMatch(expr)
				if err != nil {
					done <- err
					return
				}
				if _, err := users.Find(ctx, filter, driver.Options{}); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent compile/find: %v", err)
		}
	}
}

package store

import (
	"context"
	"io"
	"testing"

	"github.com/kartikbazzad/docquery/internal/config"
	"github.com/kartikbazzad/docquery/internal/logger"
	"github.com/kartikbazzad/docquery/pkg/driver"
	"github.com/kartikbazzad/docquery/pkg/query"
)

func persistConfig(t *testing.T, compress bool) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Store.Persist = true
	cfg.Store.Compress = compress
	cfg.Store.PartitionCount = 4
	cfg.Store.WorkerCount = 2
	return cfg
}

func TestPersist_Reload(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "raw"
		if compress {
			name = "s2"
		}
		t.Run(name, func(t *testing.T) {
			cfg := persistConfig(t, compress)
			log := logger.New(io.Discard, logger.LevelError, "[test]")
			ctx := context.Background()

			s, err := Open(cfg, log)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			c, err := s.Collection("users")
			if err != nil {
				t.Fatalf("Collection: %v", err)
			}
			id, err := c.Insert(ctx, driver.Document{"name": "ada", "age": 36})
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			// Reopen from the same data dir and read the document back.
			reopened, err := Open(cfg, log)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()

			c, err = reopened.Collection("users")
			if err != nil {
				t.Fatalf("Collection: %v", err)
			}
			filter, _ := query.CompileMatch(query.Eq(query.Col[string]("_id"), id))
			doc, err := c.FindOne(ctx, filter, driver.Options{})
			if err != nil {
				t.Fatalf("FindOne after reload: %v", err)
			}
			if doc["name"] != "ada" || doc["age"] != float64(36) {
				t.Fatalf("reloaded doc: got %v", doc)
			}
		})
	}
}

func TestPersist_UpdateSurvivesReload(t *testing.T) {
	cfg := persistConfig(t, true)
	log := logger.New(io.Discard, logger.LevelError, "[test]")
	ctx := context.Background()

	s, err := Open(cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c, _ := s.Collection("counters")
	if _, err := c.Insert(ctx, driver.Document{"key": "visits", "count": 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	filter, _ := query.CompileMatch(query.Eq(query.Col[string]("key"), "visits"))
	update, _ := query.CompileUpdate([]query.UpdateOp{query.Inc(query.Col[int]("count"), 5)})
	if _, err := c.Update(ctx, filter, update); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	c, _ = reopened.Collection("counters")
	doc, err := c.FindOne(ctx, filter, driver.Options{})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc["count"] != float64(5) {
		t.Fatalf("count after reload: got %v, want 5", doc["count"])
	}
}

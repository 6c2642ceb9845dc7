package store

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valyala/fastjson"

	"github.com/kartikbazzad/docquery/internal/errors"
	"github.com/kartikbazzad/docquery/pkg/driver"
	"github.com/kartikbazzad/docquery/pkg/query"
)

// Collection stores documents as raw JSON payloads sharded into partitions.
// Reads fan out across partitions on the store's worker pool; writes are
// serialized per collection.
type Collection struct {
	name    string
	store   *Store
	parts   []*partition
	cache   *lru.Cache[string, *fastjson.Value]
	writeMu sync.Mutex
}

type partition struct {
	mu sync.RWMutex
	// evalMu serializes snapshot+evaluation against updates. fastjson
	// values lazily unescape object keys on first access, so a cached
	// value must not be read from two scans at once; and a scan must not
	// parse-and-cache a payload an update has already replaced, or the
	// cache would disagree with docs until the next write to that id.
	evalMu sync.Mutex
	docs   map[string][]byte
}

// entry is one candidate or matched document during a scan.
type entry struct {
	id      string
	payload []byte
}

var _ driver.Driver = (*Collection)(nil)

func newCollection(s *Store, name string) *Collection {
	parts := make([]*partition, s.cfg.Store.PartitionCount)
	for i := range parts {
		parts[i] = &partition{docs: make(map[string][]byte)}
	}

	// Size must be positive; lru.New only errors on size <= 0.
	size := s.cfg.Store.CacheSize
	if size <= 0 {
		size = 1024
	}
	cache, _ := lru.New[string, *fastjson.Value](size)

	return &Collection{
		name:  name,
		store: s,
		parts: parts,
		cache: cache,
	}
}

func (c *Collection) partitionFor(id string) *partition {
	h := fnv.New32a()
	h.Write([]byte(id))
	return c.parts[int(h.Sum32())%len(c.parts)]
}

// putRaw installs a payload without persistence write-back. Used when
// loading persisted documents at startup.
func (c *Collection) putRaw(id string, payload []byte) {
	p := c.partitionFor(id)
	p.mu.Lock()
	p.docs[id] = payload
	p.mu.Unlock()
}

// parsed returns the cached parse of a payload. Payload slices are replaced
// wholesale on update and never mutated in place, so cached values stay
// valid until the id is invalidated.
func (c *Collection) parsed(id string, payload []byte) (*fastjson.Value, error) {
	if v, ok := c.cache.Get(id); ok {
		c.store.metrics.RecordCacheHit(true)
		return v, nil
	}
	c.store.metrics.RecordCacheHit(false)

	v, err := fastjson.ParseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, errors.ErrInvalidJSON)
	}
	c.cache.Add(id, v)
	return v, nil
}

// Insert stores a new document under a generated UUID. The id is also
// injected into the payload as _id so it is addressable by filters.
func (c *Collection) Insert(ctx context.Context, doc driver.Document) (string, error) {
	start := time.Now()

	id, err := c.insert(ctx, doc)
	c.record("insert", err, start)
	return id, err
}

func (c *Collection) insert(ctx context.Context, doc driver.Document) (string, error) {
	if err := c.store.checkOpen(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("nil document: %w", errors.ErrInvalidJSON)
	}

	id := uuid.NewString()

	full := make(driver.Document, len(doc)+1)
	for k, v := range doc {
		full[k] = v
	}
	full["_id"] = id

	payload, err := json.Marshal(full)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	p := c.partitionFor(id)
	p.mu.Lock()
	p.docs[id] = payload
	p.mu.Unlock()

	if c.store.persist != nil {
		if err := c.store.persist.put(c.name, id, payload); err != nil {
			return "", err
		}
	}

	return id, nil
}

// Find returns every document matching the filter. Without a sort option,
// results come back ordered by document id; Limit truncates after ordering.
func (c *Collection) Find(ctx context.Context, filter query.Filter, opts driver.Options) ([]driver.Document, error) {
	start := time.Now()

	docs, err := c.find(ctx, filter, opts)
	c.record("find", err, start)
	return docs, err
}

func (c *Collection) find(ctx context.Context, filter query.Filter, opts driver.Options) ([]driver.Document, error) {
	if err := c.store.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type partResult struct {
		matches []entry
		err     error
	}

	results := make([]partResult, len(c.parts))
	var wg sync.WaitGroup

	for i := range c.parts {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			matches, err := c.scanPartition(c.parts[i], filter)
			results[i] = partResult{matches: matches, err: err}
		}
		// A released pool means the store raced with Close; run inline and
		// let checkOpen surface the error on the next call.
		if err := c.store.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	var all []entry
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		all = append(all, r.matches...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	// Without a sort the limit can be applied before decoding.
	if opts.Sort == nil && opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}

	docs := make([]driver.Document, 0, len(all))
	for _, m := range all {
		var doc driver.Document
		if err := json.Unmarshal(m.payload, &doc); err != nil {
			return nil, fmt.Errorf("document %s: %w", m.id, errors.ErrInvalidJSON)
		}
		docs = append(docs, doc)
	}

	if opts.Sort != nil {
		sortDocs(docs, opts.Sort)
		if opts.Limit > 0 && len(docs) > opts.Limit {
			docs = docs[:opts.Limit]
		}
	}

	if opts.Projection != nil {
		projected := make([]driver.Document, 0, len(docs))
		for _, doc := range docs {
			out, err := applyProjection(doc, opts.Projection)
			if err != nil {
				return nil, err
			}
			projected = append(projected, out)
		}
		docs = projected
	}

	return docs, nil
}

func (c *Collection) scanPartition(p *partition, filter map[string]any) ([]entry, error) {
	// evalMu is held across both the snapshot and the evaluation: updates
	// also hold it, so every snapshotted payload stays the live one until
	// the scan is done and parsed() never caches a stale parse.
	p.evalMu.Lock()
	defer p.evalMu.Unlock()

	p.mu.RLock()
	snap := make([]entry, 0, len(p.docs))
	for id, payload := range p.docs {
		snap = append(snap, entry{id: id, payload: payload})
	}
	p.mu.RUnlock()

	matches := snap[:0]
	for _, e := range snap {
		v, err := c.parsed(e.id, e.payload)
		if err != nil {
			return nil, err
		}
		ok, err := matchFilter(v, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// FindOne returns the first match in Find order, or ErrDocNotFound.
func (c *Collection) FindOne(ctx context.Context, filter query.Filter, opts driver.Options) (driver.Document, error) {
	start := time.Now()

	opts.Limit = 1
	docs, err := c.find(ctx, filter, opts)
	if err == nil && len(docs) == 0 {
		err = errors.ErrDocNotFound
	}
	c.record("find_one", err, start)

	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// Update applies a compiled update document to every match and returns the
// number of documents modified.
func (c *Collection) Update(ctx context.Context, filter query.Filter, update query.Update) (int, error) {
	start := time.Now()

	n, err := c.update(ctx, filter, update)
	c.record("update", err, start)
	return n, err
}

func (c *Collection) update(ctx context.Context, filter query.Filter, update query.Update) (int, error) {
	if err := c.store.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateUpdate(update); err != nil {
		return 0, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	modified := 0
	for _, p := range c.parts {
		changed, err := c.updatePartition(p, filter, update)
		if err != nil {
			return modified, err
		}
		modified += changed
	}

	return modified, nil
}

func (c *Collection) updatePartition(p *partition, filter map[string]any, update map[string]any) (int, error) {
	var persistQueue []entry

	p.evalMu.Lock()
	defer p.evalMu.Unlock()

	p.mu.Lock()
	changed := 0
	for id, payload := range p.docs {
		v, err := c.parsed(id, payload)
		if err != nil {
			p.mu.Unlock()
			return changed, err
		}
		ok, err := matchFilter(v, filter)
		if err != nil {
			p.mu.Unlock()
			return changed, err
		}
		if !ok {
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(payload, &doc); err != nil {
			p.mu.Unlock()
			return changed, fmt.Errorf("document %s: %w", id, errors.ErrInvalidJSON)
		}
		if err := applyUpdate(doc, update); err != nil {
			p.mu.Unlock()
			return changed, err
		}

		newPayload, err := json.Marshal(doc)
		if err != nil {
			p.mu.Unlock()
			return changed, fmt.Errorf("document %s: %w", id, errors.ErrInvalidJSON)
		}

		p.docs[id] = newPayload
		c.cache.Remove(id)
		changed++

		if c.store.persist != nil {
			persistQueue = append(persistQueue, entry{id: id, payload: newPayload})
		}
	}
	p.mu.Unlock()

	for _, e := range persistQueue {
		if err := c.store.persist.put(c.name, e.id, e.payload); err != nil {
			return changed, err
		}
	}

	return changed, nil
}

func validateUpdate(update map[string]any) error {
	for op, group := range update {
		if op != "$set" && op != "$inc" {
			return fmt.Errorf("%w: unsupported operator %q", errors.ErrInvalidUpdate, op)
		}
		if _, ok := group.(map[string]any); !ok {
			return fmt.Errorf("%w: %s group is %T", errors.ErrInvalidUpdate, op, group)
		}
	}
	return nil
}

func applyUpdate(doc map[string]any, update map[string]any) error {
	for op, group := range update {
		fields := group.(map[string]any) // checked by validateUpdate
		switch op {
		case "$set":
			for path, v := range fields {
				if err := setValue(doc, splitPath(path), v); err != nil {
					return err
				}
			}
		case "$inc":
			for path, v := range fields {
				by, ok := toFloat(v)
				if !ok {
					return fmt.Errorf("$inc %q: %w", path, errors.ErrNotNumeric)
				}
				if err := incValue(doc, splitPath(path), by); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyProjection reshapes a document per a compiled projection: every
// output field takes the value at its "$"-prefixed source path. Fields whose
// source path is absent are omitted.
func applyProjection(doc driver.Document, proj map[string]any) (driver.Document, error) {
	out := make(driver.Document, len(proj))
	for name, ref := range proj {
		path, ok := ref.(string)
		if !ok || !strings.HasPrefix(path, "$") {
			return nil, fmt.Errorf("%w: field %q maps to %v", errors.ErrInvalidProjection, name, ref)
		}
		if v, found := getValue(map[string]any(doc), splitPath(path[1:])); found {
			out[name] = v
		}
	}
	return out, nil
}

func sortDocs(docs []driver.Document, spec *driver.SortSpec) {
	segments := splitPath(spec.Field)
	sort.SliceStable(docs, func(i, j int) bool {
		vi, _ := getValue(map[string]any(docs[i]), segments)
		vj, _ := getValue(map[string]any(docs[j]), segments)
		cmp := compareOrder(vi, vj)
		if !spec.Asc {
			cmp = -cmp
		}
		return cmp < 0
	})
}

// compareOrder compares two field values for sorting: numbers first, then
// strings; incomparable pairs keep their relative order.
func compareOrder(a, b any) int {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}

	sa, oka := a.(string)
	sb, okb := b.(string)
	if oka && okb {
		return strings.Compare(sa, sb)
	}

	return 0
}

func (c *Collection) record(op string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.store.metrics.RecordOperation(op, status, time.Since(start))
}

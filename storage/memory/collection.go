// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory is a non-persistent, in-process sdb.StorageProvider,
// the reference engine a solisdbd node runs with when no durable
// storage backend is configured. It mirrors the teacher's own
// `memory` package: everything lives in Go maps guarded by a mutex,
// nothing survives a restart.
package memory

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
)

// Collection is an in-memory sdb.Collection: a document map plus
// whatever secondary indexes CreateIndex has built over it.
type Collection struct {
	mu   sync.RWMutex
	name string
	cfg  storage.Config

	docs  map[string]sdb.Document
	order []string // insertion order, for Scan/All/IndexSorted fallback

	indexes  map[string]*fieldIndex
	fultexts map[string]*fulltextIndex

	shardConfig *sdb.ShardConfig

	dirty     bool
	lastFlush time.Time
}

// NewCollection builds an empty collection. shardConfig is nil for a
// collection that isn't sharded.
func NewCollection(name string, cfg storage.Config, shardConfig *sdb.ShardConfig) *Collection {
	return &Collection{
		name:        name,
		cfg:         cfg.withDefaults(),
		docs:        map[string]sdb.Document{},
		indexes:     map[string]*fieldIndex{},
		fultexts:    map[string]*fulltextIndex{},
		shardConfig: shardConfig,
		lastFlush:   time.Now(),
	}
}

// CreateIndex builds a secondary index over field. kind is "hash",
// "sorted" or "fulltext"; there is no DDL parser in this exercise, so
// indexes are declared by calling this directly at setup time.
func (c *Collection) CreateIndex(field, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == "fulltext" {
		fx := newFulltextIndex(field)
		for _, key := range c.order {
			d := c.docs[key]
			if v, ok := d.Val.AsObject().Get(field); ok {
				fx.index(key, v.AsString())
			}
		}
		c.fultexts[field] = fx
		return nil
	}

	ix := newFieldIndex(field, kind)
	for _, key := range c.order {
		d := c.docs[key]
		if v, ok := d.Val.AsObject().Get(field); ok {
			ix.insert(v, key)
		}
	}
	c.indexes[field] = ix
	return nil
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Get(ctx *sdb.Context, key string) (sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[key]
	return d, ok, nil
}

func (c *Collection) Scan(ctx *sdb.Context, limit int) ([]sdb.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]sdb.Document, 0, n)
	for _, key := range c.order[:n] {
		out = append(out, c.docs[key])
	}
	return out, nil
}

func (c *Collection) Count(ctx *sdb.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.order)), nil
}

func (c *Collection) All(ctx *sdb.Context) ([]sdb.Document, error) {
	return c.Scan(ctx, 0)
}

func (c *Collection) Insert(ctx *sdb.Context, v sdb.Value) (sdb.Document, error) {
	docs, err := c.InsertBatch(ctx, []sdb.Value{v})
	if err != nil {
		return sdb.Document{}, err
	}
	return docs[0], nil
}

func (c *Collection) InsertBatch(ctx *sdb.Context, vs []sdb.Value) ([]sdb.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]sdb.Document, 0, len(vs))
	for _, v := range vs {
		obj := v.AsObject().Clone()
		if _, ok := obj.Get("_key"); !ok {
			obj.Set("_key", sdb.StringValue(uuid.NewV4().String()))
		}
		key := func() string { kv, _ := obj.Get("_key"); return kv.AsString() }()

		d := sdb.NewDocument(c.name, sdb.ObjectValue(obj))
		c.docs[key] = d
		c.order = append(c.order, key)
		c.indexDoc(d, key)
		out = append(out, d)
	}
	c.dirty = true
	return out, nil
}

func (c *Collection) Update(ctx *sdb.Context, key string, patch sdb.Value) (sdb.Document, error) {
	docs, err := c.UpdateBatch(ctx, []sdb.KeyPatch{{Key: key, Patch: patch}})
	if err != nil {
		return sdb.Document{}, err
	}
	if len(docs) == 0 {
		return sdb.Document{}, sdb.ErrDocumentNotFound.New(key)
	}
	return docs[0], nil
}

func (c *Collection) UpdateBatch(ctx *sdb.Context, patches []sdb.KeyPatch) ([]sdb.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]sdb.Document, 0, len(patches))
	for _, p := range patches {
		old, ok := c.docs[p.Key]
		if !ok {
			continue
		}
		c.unindexDoc(old, p.Key)
		merged := old.Val.AsObject().Merge(p.Patch.AsObject())
		merged.Set("_key", sdb.StringValue(p.Key))
		d := sdb.NewDocument(c.name, sdb.ObjectValue(merged))
		c.docs[p.Key] = d
		c.indexDoc(d, p.Key)
		out = append(out, d)
	}
	c.dirty = true
	return out, nil
}

func (c *Collection) Delete(ctx *sdb.Context, key string) error {
	n, err := c.DeleteBatch(ctx, []string{key})
	if err != nil {
		return err
	}
	if n == 0 {
		return sdb.ErrDocumentNotFound.New(key)
	}
	return nil
}

func (c *Collection) DeleteBatch(ctx *sdb.Context, keys []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range keys {
		d, ok := c.docs[key]
		if !ok {
			continue
		}
		c.unindexDoc(d, key)
		delete(c.docs, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		removed++
	}
	c.dirty = true
	return removed, nil
}

func (c *Collection) indexDoc(d sdb.Document, key string) {
	obj := d.Val.AsObject()
	for field, ix := range c.indexes {
		if v, ok := obj.Get(field); ok {
			ix.insert(v, key)
		}
	}
	for field, fx := range c.fultexts {
		if v, ok := obj.Get(field); ok {
			fx.index(key, v.AsString())
		}
	}
}

func (c *Collection) unindexDoc(d sdb.Document, key string) {
	obj := d.Val.AsObject()
	for field, ix := range c.indexes {
		if v, ok := obj.Get(field); ok {
			ix.remove(v, key)
		}
	}
	for _, fx := range c.fultexts {
		fx.remove(key)
	}
}

func (c *Collection) ListIndexes(ctx *sdb.Context) ([]sdb.IndexInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]sdb.IndexInfo, 0, len(c.indexes)+len(c.fultexts))
	for field, ix := range c.indexes {
		out = append(out, sdb.IndexInfo{Field: field, Kind: ix.kind})
	}
	for field := range c.fultexts {
		out = append(out, sdb.IndexInfo{Field: field, Kind: "fulltext"})
	}
	return out, nil
}

func (c *Collection) docsForKeys(keys []string) []sdb.Document {
	out := make([]sdb.Document, 0, len(keys))
	for _, k := range keys {
		if d, ok := c.docs[k]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (c *Collection) IndexLookupEq(ctx *sdb.Context, field string, v sdb.Value) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.lookupEq(v)), true, nil
}

func (c *Collection) IndexLookupGt(ctx *sdb.Context, field string, v sdb.Value) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.lookupGt(v)), true, nil
}

func (c *Collection) IndexLookupGte(ctx *sdb.Context, field string, v sdb.Value) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.lookupGte(v)), true, nil
}

func (c *Collection) IndexLookupLt(ctx *sdb.Context, field string, v sdb.Value) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.lookupLt(v)), true, nil
}

func (c *Collection) IndexLookupLte(ctx *sdb.Context, field string, v sdb.Value) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.lookupLte(v)), true, nil
}

func (c *Collection) IndexSorted(ctx *sdb.Context, field string, ascending bool, limit int) ([]sdb.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ix, ok := c.indexes[field]
	if !ok {
		return nil, false, nil
	}
	return c.docsForKeys(ix.sortedKeys(ascending, limit)), true, nil
}

// IndexDocuments re-indexes an already-inserted batch. It is a no-op
// correctness-wise here since InsertBatch/UpdateBatch index eagerly,
// but planner rule 1 calls it explicitly after a streamed bulk insert
// so storage engines that defer indexing have a place to catch up.
func (c *Collection) IndexDocuments(ctx *sdb.Context, docs []sdb.Document) (int, error) {
	return len(docs), nil
}

func (c *Collection) FulltextSearch(ctx *sdb.Context, field, query string, maxEditDistance int) ([]sdb.FulltextMatch, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fx, ok := c.fultexts[field]
	if !ok {
		return nil, false, nil
	}
	return fx.search(query, maxEditDistance), true, nil
}

func (c *Collection) GetShardConfig() (sdb.ShardConfig, bool) {
	if c.shardConfig == nil {
		return sdb.ShardConfig{}, false
	}
	return *c.shardConfig, true
}

// FlushStats is a no-op for the in-memory engine: fieldIndex and
// fulltextIndex statistics are always current since they're maintained
// on every Insert/Update/Delete, not recomputed in bulk.
func (c *Collection) FlushStats(ctx *sdb.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
	c.lastFlush = time.Now()
	return nil
}

// FlushStatsThrottled calls FlushStats at most once per
// cfg.StatsFlushInterval, so a hot mutation path doesn't pay a flush
// on every single call.
func (c *Collection) FlushStatsThrottled(ctx *sdb.Context) {
	c.mu.RLock()
	due := c.dirty && time.Since(c.lastFlush) >= c.cfg.StatsFlushInterval
	c.mu.RUnlock()
	if due {
		_ = c.FlushStats(ctx)
	}
}

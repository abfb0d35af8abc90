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

package sdb

// IndexInfo describes a secondary index exposed by a Collection, per
// the storage engine contract in spec §6.
type IndexInfo struct {
	Field string
	Kind  string // "hash", "sorted", "fulltext"
}

// FulltextMatch is one hit returned by Collection.FulltextSearch.
type FulltextMatch struct {
	DocKey       string
	Score        float64
	MatchedTerms []string
}

// ShardConfig is what a Collection reports about its own sharding, per
// spec §6 (Collection.get_shard_config).
type ShardConfig struct {
	NumShards int
}

// KeyPatch pairs a document key with a shallow-merge patch, used by
// Collection.UpdateBatch.
type KeyPatch struct {
	Key   string
	Patch Value
}

// Collection is the storage engine contract consumed by the engine
// (spec §6). Implementations must be internally synchronized; the
// engine holds no locks of its own around storage calls.
type Collection interface {
	Name() string

	Get(ctx *Context, key string) (Document, bool, error)
	Scan(ctx *Context, limit int) ([]Document, error)
	Count(ctx *Context) (int64, error)
	All(ctx *Context) ([]Document, error)

	Insert(ctx *Context, v Value) (Document, error)
	InsertBatch(ctx *Context, vs []Value) ([]Document, error)
	Update(ctx *Context, key string, patch Value) (Document, error)
	UpdateBatch(ctx *Context, patches []KeyPatch) ([]Document, error)
	Delete(ctx *Context, key string) error
	DeleteBatch(ctx *Context, keys []string) (int, error)

	ListIndexes(ctx *Context) ([]IndexInfo, error)
	IndexLookupEq(ctx *Context, field string, v Value) ([]Document, bool, error)
	IndexLookupGt(ctx *Context, field string, v Value) ([]Document, bool, error)
	IndexLookupGte(ctx *Context, field string, v Value) ([]Document, bool, error)
	IndexLookupLt(ctx *Context, field string, v Value) ([]Document, bool, error)
	IndexLookupLte(ctx *Context, field string, v Value) ([]Document, bool, error)
	IndexSorted(ctx *Context, field string, ascending bool, limit int) ([]Document, bool, error)
	IndexDocuments(ctx *Context, docs []Document) (int, error)

	FulltextSearch(ctx *Context, field, query string, maxEditDistance int) ([]FulltextMatch, bool, error)

	GetShardConfig() (ShardConfig, bool)

	FlushStats(ctx *Context) error
	FlushStatsThrottled(ctx *Context)
}

// Database exposes named collections within it.
type Database interface {
	Name() string
	GetCollection(name string) (Collection, bool)
}

// StorageProvider is the top-level storage engine handle, consumed via
// GetDatabase(name).
type StorageProvider interface {
	GetDatabase(name string) (Database, bool)
}

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

package memory

import (
	"sync"

	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
)

// Database is an in-memory sdb.Database: a named set of collections.
type Database struct {
	mu   sync.RWMutex
	name string
	cfg  storage.Config

	collections map[string]*Collection
}

func NewDatabase(name string, cfg storage.Config) *Database {
	return &Database{
		name:        name,
		cfg:         cfg,
		collections: map[string]*Collection{},
	}
}

func (d *Database) Name() string { return d.name }

// CreateCollection registers a new, empty collection. shardConfig is
// nil for a collection that is not sharded.
func (d *Database) CreateCollection(name string, shardConfig *sdb.ShardConfig) *Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := NewCollection(name, d.cfg, shardConfig)
	d.collections[name] = c
	return c
}

func (d *Database) GetCollection(name string) (sdb.Collection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.collections[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Collection returns the concrete *Collection, for callers (setup code,
// tests) that need CreateIndex rather than the narrower sdb.Collection
// interface.
func (d *Database) Collection(name string) (*Collection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.collections[name]
	return c, ok
}

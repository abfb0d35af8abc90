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

// Provider is the in-memory sdb.StorageProvider: the engine's default
// storage backend when no durable one is configured, holding every
// database in process memory.
type Provider struct {
	mu  sync.RWMutex
	cfg storage.Config

	databases map[string]*Database
}

func NewProvider(cfg storage.Config) *Provider {
	return &Provider{cfg: cfg, databases: map[string]*Database{}}
}

// CreateDatabase registers a new, empty database.
func (p *Provider) CreateDatabase(name string) *Database {
	p.mu.Lock()
	defer p.mu.Unlock()
	db := NewDatabase(name, p.cfg)
	p.databases[name] = db
	return db
}

func (p *Provider) GetDatabase(name string) (sdb.Database, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, ok := p.databases[name]
	if !ok {
		return nil, false
	}
	return db, true
}

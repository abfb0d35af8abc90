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

package shard

import (
	"sync"

	"github.com/solisdb/solisdb/sdb"
)

// tableStore holds each sharded collection's ShardTable. Shard-table
// gossip is out of scope (spec §1); this is just the lookup the
// coordinator consults, populated by whatever external mechanism owns
// shard assignment via Coordinator.SetShardTable.
type tableStore struct {
	mu     sync.RWMutex
	tables map[string]*sdb.ShardTable
}

func newTableStore() *tableStore {
	return &tableStore{tables: map[string]*sdb.ShardTable{}}
}

func tableKey(db, collection string) string { return db + "/" + collection }

func (s *tableStore) set(db, collection string, table *sdb.ShardTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[tableKey(db, collection)] = table
}

func (s *tableStore) get(db, collection string) *sdb.ShardTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[tableKey(db, collection)]
}

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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solisdb/solisdb/sdb"
)

func TestTableStoreSetAndGet(t *testing.T) {
	s := newTableStore()
	table := &sdb.ShardTable{NumShards: 2, Assignments: map[int]sdb.ShardAssignment{
		0: {PrimaryNode: "node-1"},
		1: {PrimaryNode: "node-2"},
	}}
	s.set("db", "orders", table)

	got := s.get("db", "orders")
	assert.Same(t, table, got)
}

func TestTableStoreGetMissingReturnsNil(t *testing.T) {
	s := newTableStore()
	assert.Nil(t, s.get("db", "missing"))
}

func TestTableStoreKeysAreDatabaseScoped(t *testing.T) {
	s := newTableStore()
	tableA := &sdb.ShardTable{NumShards: 1}
	tableB := &sdb.ShardTable{NumShards: 2}
	s.set("db1", "orders", tableA)
	s.set("db2", "orders", tableB)

	assert.Same(t, tableA, s.get("db1", "orders"))
	assert.Same(t, tableB, s.get("db2", "orders"))
}

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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
	"github.com/solisdb/solisdb/storage/memory"
)

// fakeLocal resolves every physical shard name against collections
// created ahead of time on a single in-memory database, simulating a
// node that owns every shard of the table under test.
type fakeLocal struct {
	db *memory.Database
}

func (f fakeLocal) GetLocalCollection(db, physicalName string) (sdb.Collection, bool) {
	return f.db.GetCollection(physicalName)
}

func newTestCoordinator(t *testing.T, numShards int) (*Coordinator, *memory.Database) {
	t.Helper()
	db := memory.NewDatabase("testdb", storage.Config{})
	for i := 0; i < numShards; i++ {
		db.CreateCollection(sdb.PhysicalShardName("orders", i), nil)
	}
	dir := NewDirectory("node-1", 8529)
	c := NewCoordinator(dir, fakeLocal{db: db}, "secret", "http")
	table := &sdb.ShardTable{NumShards: numShards, Assignments: map[int]sdb.ShardAssignment{}}
	for i := 0; i < numShards; i++ {
		table.Assignments[i] = sdb.ShardAssignment{PrimaryNode: "node-1"}
	}
	c.SetShardTable("testdb", "orders", table)
	return c, db
}

func testCtx() *sdb.Context {
	return sdb.NewContext(context.Background())
}

func objWithKey(key string) sdb.Value {
	obj := sdb.NewObject()
	obj.Set("_key", sdb.StringValue(key))
	return sdb.ObjectValue(obj)
}

func TestCoordinatorInsertBatchRoutesLocally(t *testing.T) {
	c, _ := newTestCoordinator(t, 4)
	ctx := testCtx()

	docs := []sdb.Value{objWithKey("a"), objWithKey("b"), objWithKey("c")}
	ok, fail, err := c.InsertBatch(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 4}, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, ok)
	assert.Equal(t, 0, fail)
}

func TestCoordinatorInsertBatchMissingTableErrors(t *testing.T) {
	db := memory.NewDatabase("testdb", storage.Config{})
	dir := NewDirectory("node-1", 8529)
	c := NewCoordinator(dir, fakeLocal{db: db}, "secret", "http")

	_, _, err := c.InsertBatch(testCtx(), "testdb", "orders", sdb.ShardConfig{NumShards: 2}, []sdb.Value{objWithKey("a")})
	require.Error(t, err)
	assert.True(t, sdb.ErrShardRouting.Is(err))
}

func TestCoordinatorUpdateRoutesLocallyAndMerges(t *testing.T) {
	c, db := newTestCoordinator(t, 2)
	ctx := testCtx()

	_, _, err := c.InsertBatch(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, []sdb.Value{objWithKey("a")})
	require.NoError(t, err)

	patch := sdb.NewObject()
	patch.Set("amount", sdb.IntValue(42))
	updated, err := c.Update(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, "a", sdb.ObjectValue(patch))
	require.NoError(t, err)
	amountV, _ := updated.Val.AsObject().Get("amount")
	assert.Equal(t, sdb.IntValue(42), amountV)

	_ = db
}

func TestCoordinatorDeleteRoutesLocally(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)
	ctx := testCtx()

	_, _, err := c.InsertBatch(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, []sdb.Value{objWithKey("a")})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, "a"))
}

func TestCoordinatorScatterGatherScanDedupsByKey(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)
	ctx := testCtx()

	_, _, err := c.InsertBatch(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, []sdb.Value{
		objWithKey("a"), objWithKey("b"), objWithKey("c"), objWithKey("d"),
	})
	require.NoError(t, err)

	table, err := c.GetShardTable(ctx, "testdb", "orders")
	require.NoError(t, err)

	docs, err := c.ScatterGatherScan(ctx, "testdb", "orders", table, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 4)

	keys := map[string]bool{}
	for _, d := range docs {
		assert.False(t, keys[d.Key()], "duplicate key in scatter-gather result")
		keys[d.Key()] = true
	}
}

func TestCoordinatorScatterGatherScanRespectsLimit(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)
	ctx := testCtx()

	_, _, err := c.InsertBatch(ctx, "testdb", "orders", sdb.ShardConfig{NumShards: 2}, []sdb.Value{
		objWithKey("a"), objWithKey("b"), objWithKey("c"),
	})
	require.NoError(t, err)

	table, err := c.GetShardTable(ctx, "testdb", "orders")
	require.NoError(t, err)

	docs, err := c.ScatterGatherScan(ctx, "testdb", "orders", table, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestCheckClusterSecret(t *testing.T) {
	assert.True(t, CheckClusterSecret("shared", "shared"))
	assert.False(t, CheckClusterSecret("shared", "wrong"))
	assert.False(t, CheckClusterSecret("", "anything"))
	assert.False(t, CheckClusterSecret("", ""))
}

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

package solisdb_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	solisdb "github.com/solisdb/solisdb"
	"github.com/solisdb/solisdb/expression/function"
	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
	"github.com/solisdb/solisdb/storage/memory"
	"github.com/solisdb/solisdb/synclog"
)

func newTestEngine(t *testing.T) (*solisdb.Engine, *memory.Database) {
	t.Helper()
	provider := memory.NewProvider(storage.Config{})
	db := provider.CreateDatabase("testdb")
	db.CreateCollection("users", nil)

	rt := &sdb.Runtime{
		Storage:   provider,
		Functions: function.NewRegistry(),
	}
	return solisdb.NewDefault(rt), db
}

func newCtx(db string) *sdb.Context {
	return sdb.NewContext(context.Background(), sdb.WithDatabase(db))
}

func TestEngineInsertAndReturn(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")

	_, err := e.Query(ctx, `INSERT { name: "alice", age: 30 } INTO users`)
	require.NoError(t, err)

	res, err := e.Query(ctx, `FOR doc IN users RETURN doc.name`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, sdb.StringValue("alice"), res.Rows[0])
}

func TestEngineFilterAndSort(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")

	for _, doc := range []string{
		`{ name: "alice", age: 30 }`,
		`{ name: "bob", age: 25 }`,
		`{ name: "carol", age: 35 }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO users`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `FOR doc IN users FILTER doc.age >= 30 SORT doc.age ASC RETURN doc.name`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, sdb.StringValue("alice"), res.Rows[0])
	assert.Equal(t, sdb.StringValue("carol"), res.Rows[1])
}

func TestEngineBindParameters(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")
	_, err := e.Query(ctx, `INSERT { name: "alice", age: 30 } INTO users`)
	require.NoError(t, err)

	res, err := e.QueryWithBindings(ctx, `FOR doc IN users FILTER doc.name == @name RETURN doc.age`,
		map[string]sdb.Value{"name": sdb.StringValue("alice")})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, sdb.IntValue(30), res.Rows[0])
}

func TestEngineMissingBindParameter(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")
	_, err := e.Query(ctx, `FOR doc IN users FILTER doc.name == @name RETURN doc`)
	assert.Error(t, err)
}

func TestEngineUpdateAndRemove(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")
	_, err := e.Query(ctx, `INSERT { name: "alice", age: 30 } INTO users`)
	require.NoError(t, err)

	_, err = e.Query(ctx, `FOR doc IN users FILTER doc.name == "alice" UPDATE doc WITH { age: 31 } IN users`)
	require.NoError(t, err)

	res, err := e.Query(ctx, `FOR doc IN users RETURN doc.age`)
	require.NoError(t, err)
	assert.Equal(t, sdb.IntValue(31), res.Rows[0])

	_, err = e.Query(ctx, `FOR doc IN users FILTER doc.name == "alice" REMOVE doc IN users`)
	require.NoError(t, err)

	res, err = e.Query(ctx, `FOR doc IN users RETURN doc`)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestEngineReadOnlyRejectsMutation(t *testing.T) {
	provider := memory.NewProvider(storage.Config{})
	provider.CreateDatabase("testdb").CreateCollection("users", nil)
	rt := &sdb.Runtime{Storage: provider, Functions: function.NewRegistry()}
	e := solisdb.New(rt, solisdb.Config{IsReadOnly: true})
	ctx := newCtx("testdb")

	_, err := e.Query(ctx, `INSERT { name: "alice" } INTO users`)
	require.Error(t, err)
	assert.True(t, sdb.ErrReadOnly.Is(err))
}

func TestEngineParseErrorWrapped(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")
	_, err := e.Query(ctx, `FOR doc IN`)
	require.Error(t, err)
	assert.True(t, sdb.ErrQueryParse.Is(err))
}

// TestEngineFilterProjectionTwoConditions reproduces spec §8 scenario 1:
// a filter on two ANDed conditions over a small seeded collection.
func TestEngineFilterProjectionTwoConditions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")

	for _, doc := range []string{
		`{ _key: "alice", name: "Alice", age: 30, city: "Paris", active: true }`,
		`{ _key: "bob", name: "Bob", age: 25, city: "London", active: true }`,
		`{ _key: "charlie", name: "Charlie", age: 35, city: "Paris", active: false }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO users`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `FOR d IN users FILTER d.city == "Paris" AND d.active == true RETURN d.name`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, sdb.StringValue("Alice"), res.Rows[0])
}

// TestEngineSortLimitDescending reproduces spec §8 scenario 2.
func TestEngineSortLimitDescending(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")

	for _, doc := range []string{
		`{ _key: "alice", age: 30 }`,
		`{ _key: "bob", age: 25 }`,
		`{ _key: "charlie", age: 35 }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO users`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `FOR d IN users SORT d.age DESC LIMIT 1 RETURN d._key`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, sdb.StringValue("charlie"), res.Rows[0])
}

// TestEngineCorrelatedSubqueryAggregation reproduces spec §8 scenario 3:
// a per-row correlated subquery summing a related collection, filtered
// on the aggregate.
func TestEngineCorrelatedSubqueryAggregation(t *testing.T) {
	e, db := newTestEngine(t)
	db.CreateCollection("orders", nil)
	ctx := newCtx("testdb")

	for _, doc := range []string{
		`{ name: "Alice" }`,
		`{ name: "Bob" }`,
		`{ name: "Charlie" }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO users`)
		require.NoError(t, err)
	}
	for _, doc := range []string{
		`{ user: "Alice", amount: 1200 }`,
		`{ user: "Alice", amount: 50 }`,
		`{ user: "Bob", amount: 100 }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO orders`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `FOR u IN users LET s = SUM((FOR o IN orders FILTER o.user == u.name RETURN o.amount)) FILTER s > 500 RETURN u.name`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, sdb.StringValue("Alice"), res.Rows[0])
}

// TestEngineStreamingBulkInsert reproduces spec §8 scenario 4: a
// range-driven INSERT large enough to trigger the streaming bulk-insert
// planner rule, with the sync log recording one contiguously
// sequenced entry per document.
func TestEngineStreamingBulkInsert(t *testing.T) {
	provider := memory.NewProvider(storage.Config{})
	provider.CreateDatabase("testdb").CreateCollection("items", nil)

	logPath := filepath.Join(t.TempDir(), "bulk.synclog")
	log, err := synclog.Open(logPath, "node-1")
	require.NoError(t, err)
	defer log.Close()

	rt := &sdb.Runtime{Storage: provider, SyncLog: log, Functions: function.NewRegistry()}
	e := solisdb.NewDefault(rt)
	ctx := newCtx("testdb")

	res, err := e.Query(ctx, `FOR i IN 1..10000 INSERT { index: i } INTO items RETURN i`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 10000)
	assert.Equal(t, sdb.IntValue(1), res.Rows[0])
	assert.Equal(t, sdb.IntValue(10000), res.Rows[len(res.Rows)-1])

	count, err := e.Query(ctx, `RETURN COLLECTION_COUNT("items")`)
	require.NoError(t, err)
	assert.Equal(t, sdb.IntValue(10000), count.Rows[0])

	// the sync log append runs asynchronously per batch; poll for it to
	// drain rather than assume it has completed the instant Query returns.
	var entries []sdb.LogEntry
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, err = log.GetEntriesAfter(0, 0)
		require.NoError(t, err)
		if len(entries) >= 10000 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Len(t, entries, 10000)
	for i, entry := range entries {
		assert.Equal(t, sdb.OpInsert, entry.Operation)
		assert.Equal(t, uint64(i+1), entry.Sequence)
	}
}

// TestEngineGraphTraversalDepthBounds reproduces spec §8 scenario 5.
func TestEngineGraphTraversalDepthBounds(t *testing.T) {
	provider := memory.NewProvider(storage.Config{})
	db := provider.CreateDatabase("testdb")
	db.CreateCollection("people", nil)
	db.CreateCollection("knows", nil)
	rt := &sdb.Runtime{Storage: provider, Functions: function.NewRegistry()}
	e := solisdb.NewDefault(rt)
	ctx := newCtx("testdb")

	for _, doc := range []string{`{ _key: "a" }`, `{ _key: "b" }`, `{ _key: "c" }`, `{ _key: "d" }`} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO people`)
		require.NoError(t, err)
	}
	for _, doc := range []string{
		`{ _from: "people/a", _to: "people/b" }`,
		`{ _from: "people/b", _to: "people/c" }`,
		`{ _from: "people/c", _to: "people/d" }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO knows`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `TRAVERSE v FROM "people/a" IN knows MINDEPTH 1 MAXDEPTH 2 DIRECTION OUTBOUND RETURN v._key`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, sdb.StringValue("b"), res.Rows[0])
	assert.Equal(t, sdb.StringValue("c"), res.Rows[1])
}

// TestEngineLeftJoinPreservesLeftSide reproduces spec §8 scenario 6.
func TestEngineLeftJoinPreservesLeftSide(t *testing.T) {
	e, db := newTestEngine(t)
	db.CreateCollection("profiles", nil)
	ctx := newCtx("testdb")

	for _, doc := range []string{
		`{ _key: "u1", name: "Alice" }`,
		`{ _key: "u2", name: "Bob" }`,
		`{ _key: "u3", name: "Charlie" }`,
	} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO users`)
		require.NoError(t, err)
	}
	for _, doc := range []string{`{ user_key: "u1" }`, `{ user_key: "u2" }`} {
		_, err := e.Query(ctx, `INSERT `+doc+` INTO profiles`)
		require.NoError(t, err)
	}

	res, err := e.Query(ctx, `FOR u IN users LEFT JOIN profiles ON u._key == profiles.user_key RETURN {n: u.name, p: LENGTH(profiles)}`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	counts := map[string]int64{}
	for _, row := range res.Rows {
		obj := row.AsObject()
		nameV, _ := obj.Get("n")
		pV, _ := obj.Get("p")
		counts[nameV.AsString()] = pV.Int64()
	}
	assert.Equal(t, int64(1), counts["Alice"])
	assert.Equal(t, int64(1), counts["Bob"])
	assert.Equal(t, int64(0), counts["Charlie"])
}

func TestEngineRunQueryForShardDispatch(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := newCtx("testdb")
	_, err := e.Query(ctx, `INSERT { name: "alice" } INTO users`)
	require.NoError(t, err)

	rows, err := e.RunQuery(ctx, "testdb", `FOR doc IN users RETURN doc.name`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sdb.StringValue("alice"), rows[0])
}

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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
)

func testCtx() *sdb.Context {
	return sdb.NewContext(context.Background())
}

func objValue(fields map[string]sdb.Value) sdb.Value {
	obj := sdb.NewObject()
	for k, v := range fields {
		obj.Set(k, v)
	}
	return sdb.ObjectValue(obj)
}

func TestCollectionInsertAssignsKeyWhenAbsent(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	doc, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"name": sdb.StringValue("alice")}))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Key())

	got, found, err := c.Get(testCtx(), doc.Key())
	require.NoError(t, err)
	assert.True(t, found)
	nameV, _ := got.Val.AsObject().Get("name")
	assert.Equal(t, sdb.StringValue("alice"), nameV)
}

func TestCollectionInsertPreservesGivenKey(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	doc, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("alice")}))
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.Key())
}

func TestCollectionUpdateMergesFields(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	doc, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("alice"), "age": sdb.IntValue(30)}))
	require.NoError(t, err)

	updated, err := c.Update(testCtx(), doc.Key(), objValue(map[string]sdb.Value{"age": sdb.IntValue(31)}))
	require.NoError(t, err)
	ageV, _ := updated.Val.AsObject().Get("age")
	assert.Equal(t, sdb.IntValue(31), ageV)

	// the pre-existing field not named in the patch must survive the merge
	keyV, _ := updated.Val.AsObject().Get("_key")
	assert.Equal(t, sdb.StringValue("alice"), keyV)
}

func TestCollectionUpdateMissingKeyErrors(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	_, err := c.Update(testCtx(), "missing", objValue(nil))
	assert.Error(t, err)
	assert.True(t, sdb.ErrDocumentNotFound.Is(err))
}

func TestCollectionDeleteRemovesFromScanOrder(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	d1, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("a")}))
	require.NoError(t, err)
	_, err = c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("b")}))
	require.NoError(t, err)

	require.NoError(t, c.Delete(testCtx(), d1.Key()))

	all, err := c.All(testCtx())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Key())

	count, err := c.Count(testCtx())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCollectionScanRespectsLimit(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	for i := 0; i < 5; i++ {
		_, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{}))
		require.NoError(t, err)
	}
	docs, err := c.Scan(testCtx(), 3)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCollectionHashIndexLookupEq(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	_, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("a"), "city": sdb.StringValue("Paris")}))
	require.NoError(t, err)
	_, err = c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("b"), "city": sdb.StringValue("London")}))
	require.NoError(t, err)
	require.NoError(t, c.CreateIndex("city", "hash"))

	docs, ok, err := c.IndexLookupEq(testCtx(), "city", sdb.StringValue("Paris"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].Key())
}

func TestCollectionSortedIndexRange(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	for i, age := range []int64{30, 25, 35} {
		key := []string{"alice", "bob", "charlie"}[i]
		_, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue(key), "age": sdb.IntValue(age)}))
		require.NoError(t, err)
	}
	require.NoError(t, c.CreateIndex("age", "sorted"))

	docs, ok, err := c.IndexLookupGte(testCtx(), "age", sdb.IntValue(30))
	require.NoError(t, err)
	require.True(t, ok)
	keys := map[string]bool{}
	for _, d := range docs {
		keys[d.Key()] = true
	}
	assert.True(t, keys["alice"])
	assert.True(t, keys["charlie"])
	assert.False(t, keys["bob"])

	sorted, ok, err := c.IndexSorted(testCtx(), "age", true, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, sorted, 3)
	assert.Equal(t, "bob", sorted[0].Key())
	assert.Equal(t, "charlie", sorted[2].Key())
}

func TestCollectionFulltextSearchFindsMatchingDocument(t *testing.T) {
	c := NewCollection("articles", storage.Config{}, nil)
	_, err := c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("1"), "body": sdb.StringValue("the quick brown fox")}))
	require.NoError(t, err)
	_, err = c.Insert(testCtx(), objValue(map[string]sdb.Value{"_key": sdb.StringValue("2"), "body": sdb.StringValue("lazy dog sleeps")}))
	require.NoError(t, err)
	require.NoError(t, c.CreateIndex("body", "fulltext"))

	matches, ok, err := c.FulltextSearch(testCtx(), "body", "fox", 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].DocKey)
}

func TestCollectionGetShardConfig(t *testing.T) {
	c := NewCollection("users", storage.Config{}, nil)
	_, ok := c.GetShardConfig()
	assert.False(t, ok)

	sharded := NewCollection("orders", storage.Config{}, &sdb.ShardConfig{NumShards: 4})
	cfg, ok := sharded.GetShardConfig()
	require.True(t, ok)
	assert.Equal(t, 4, cfg.NumShards)
}

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

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/storage"
	"github.com/solisdb/solisdb/storage/memory"
)

func TestIsShardedCollectionFalseForPlainCollection(t *testing.T) {
	db := memory.NewDatabase("testdb", storage.Config{})
	c := db.CreateCollection("orders", nil)
	assert.False(t, isShardedCollection(c))
}

func TestIsShardedCollectionTrueWhenMultipleShards(t *testing.T) {
	db := memory.NewDatabase("testdb", storage.Config{})
	c := db.CreateCollection("orders", &sdb.ShardConfig{NumShards: 4})
	assert.True(t, isShardedCollection(c))
}

func TestIsShardedCollectionFalseForSingleShard(t *testing.T) {
	db := memory.NewDatabase("testdb", storage.Config{})
	c := db.CreateCollection("orders", &sdb.ShardConfig{NumShards: 1})
	require.NotNil(t, c)
	assert.False(t, isShardedCollection(c))
}

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

// NodeID identifies a cluster node.
type NodeID string

// HostPort is a resolved network address for a node.
type HostPort struct {
	Host string
	Port int
}

// ShardAssignment is one shard's placement within a ShardTable.
type ShardAssignment struct {
	PrimaryNode  NodeID
	ReplicaNodes []NodeID
}

// ShardTable maps shard id to its node placement, per spec §4.7.
type ShardTable struct {
	NumShards   int
	Assignments map[int]ShardAssignment
}

// PhysicalShardName returns the physical collection name for a shard id, per
// the "<name>_s<shard_id>" convention in the glossary.
func PhysicalShardName(collection string, shardID int) string {
	return shardNameFmt(collection, shardID)
}

// ShardCoordinator is the shard coordinator client contract consumed by
// the engine, per spec §4.7.
type ShardCoordinator interface {
	InsertBatch(ctx *Context, db, collection string, cfg ShardConfig, docs []Value) (okCount, failCount int, err error)
	Update(ctx *Context, db, collection string, cfg ShardConfig, key string, patch Value) (Document, error)
	Delete(ctx *Context, db, collection string, cfg ShardConfig, key string) error

	GetShardTable(ctx *Context, db, collection string) (*ShardTable, error)

	MyNodeID() NodeID
	GetNodeAPIAddress(id NodeID) (HostPort, bool)

	// ScatterGatherScan is consulted by the engine's read path for a FOR
	// source over a sharded collection: it scans every shard (locally
	// when owned, remotely otherwise) and returns the deduplicated,
	// gathered documents.
	ScatterGatherScan(ctx *Context, db, collection string, table *ShardTable, limit int) ([]Document, error)
}

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

import "github.com/solisdb/solisdb/sdb"

// Rule 6 of spec §4.5 ("shard dispatch: for mutations against a
// sharded collection, all rows in that clause are grouped and
// dispatched through the shard coordinator") has no rewrite of its
// own in this package. rowexec's INSERT/UPDATE/REMOVE clauses
// (rowexec/mutation.go) already detect a sharded target collection via
// Collection.GetShardConfig and, when found, route the clause's rows
// through the ShardCoordinator: INSERT as a single InsertBatch call,
// UPDATE and REMOVE as one Update/Delete call per row. A planner
// rewrite would only duplicate that routing, so rule 6 is realized entirely by the general executor
// path and every mutation query reaches it regardless of which (if
// any) of rules 1-5 matched first.
//
// isShardedCollection is the one piece of rule 6 genuinely shared
// with the read-path rules in this package: rule 1 (streaming bulk
// insert) must decline a sharded target exactly the way the
// mutation clauses do, and rule 4 (limit push-down) must decline a
// sharded source since scatter-gather has no scan-hint equivalent.
func isShardedCollection(coll sdb.Collection) bool {
	cfg, sharded := coll.GetShardConfig()
	return sharded && cfg.NumShards > 1
}

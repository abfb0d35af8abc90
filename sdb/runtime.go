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

// CallEnv carries the ambient state a function implementation may need
// beyond its already-evaluated arguments: storage access (for
// COLLECTION_COUNT, BM25, FULLTEXT) and the query's current database.
type CallEnv struct {
	Storage  StorageProvider
	Database string
}

// FunctionRegistry dispatches a case-insensitive function name to its
// implementation, per spec §4.3. Defined here (rather than in
// expression/function) so the evaluator and the runtime can reference
// it without a package cycle.
type FunctionRegistry interface {
	Call(ctx *Context, env *CallEnv, name string, args []Value) (Value, error)
}

// MetricsRecorder is the minimal metrics surface the executor and
// planner report to; the concrete Prometheus-backed implementation
// lives in package metrics.
type MetricsRecorder interface {
	RowsScanned(collection string, n int)
	MutationApplied(kind string, n int)
	PlannerRuleHit(rule string)
	ShardRoundTrip(collection string, remote bool)
}

// NoopMetrics discards every observation; used when no recorder is
// configured.
type NoopMetrics struct{}

func (NoopMetrics) RowsScanned(string, int)       {}
func (NoopMetrics) MutationApplied(string, int)   {}
func (NoopMetrics) PlannerRuleHit(string)          {}
func (NoopMetrics) ShardRoundTrip(string, bool)    {}

// Runtime bundles the collaborators the pipeline executor, planner and
// mutation writer consult, per the component diagram in spec §2.
type Runtime struct {
	Storage   StorageProvider
	SyncLog   SyncLog
	Shard     ShardCoordinator
	Functions FunctionRegistry
	Metrics   MetricsRecorder

	// InsertBatchThreshold is the row-count threshold above which
	// INSERT/UPDATE/REMOVE switch to batch mode for non-sharded
	// collections (spec §4.8). Default 100.
	InsertBatchThreshold int
	// BulkInsertBatchSize is the streaming bulk-insert batch size
	// (spec §4.5 rule 1). Default 5000.
	BulkInsertBatchSize int
	// BulkInsertMinRange is the minimum range size that qualifies for
	// the streaming bulk-insert rewrite. Default 5000.
	BulkInsertMinRange int
	// BulkInsertTraceEvery controls the bulk-insert progress tracing
	// cadence (spec §4.5 rule 1: "every 100,000 documents"). Default
	// 100000.
	BulkInsertTraceEvery int
}

func (r *Runtime) metrics() MetricsRecorder {
	if r.Metrics == nil {
		return NoopMetrics{}
	}
	return r.Metrics
}

func (r *Runtime) Observe() MetricsRecorder { return r.metrics() }

// Defaults fills in zero-valued thresholds with spec-mandated defaults.
func (r *Runtime) Defaults() *Runtime {
	if r.InsertBatchThreshold == 0 {
		r.InsertBatchThreshold = 100
	}
	if r.BulkInsertBatchSize == 0 {
		r.BulkInsertBatchSize = 5000
	}
	if r.BulkInsertMinRange == 0 {
		r.BulkInsertMinRange = 5000
	}
	if r.BulkInsertTraceEvery == 0 {
		r.BulkInsertTraceEvery = 100000
	}
	return r
}

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
	"encoding/json"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/rowexec"
	"github.com/solisdb/solisdb/sdb"
)

func encodeBulkJSON(d sdb.Document) ([]byte, error) {
	return json.Marshal(d.ToValue().ToJSON())
}

// tryBulkInsert implements spec §4.5 rule 1: a query that is exactly
// "FOR v IN <start>..<end> INSERT <doc-expr> INTO <coll>" with no
// SORT/LIMIT/FILTER, where <coll> isn't sharded and the range is wide
// enough to be worth batching, is processed in fixed-size batches
// instead of materializing every iteration value up front.
func (p *Planner) tryBulkInsert(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, bool, error) {
	forC, insertC, ok := matchBulkInsertShape(q)
	if !ok {
		return nil, false, nil
	}
	rng, ok := forC.Source.(ast.RangeExpr)
	if !ok {
		return nil, false, nil
	}

	coll, err := p.collection(ctx, insertC.Into)
	if err != nil {
		return nil, false, err
	}
	if isShardedCollection(coll) {
		return nil, false, nil
	}

	fromV, err := p.evalStatic(ctx, rng.From)
	if err != nil {
		return nil, false, err
	}
	toV, err := p.evalStatic(ctx, rng.To)
	if err != nil {
		return nil, false, err
	}
	from, to := fromV.Int64(), toV.Int64()
	if to < from {
		return nil, false, nil
	}
	total := to - from + 1
	if total < int64(p.rt.BulkInsertMinRange) {
		return nil, false, nil
	}

	ctx.Logger.WithFields(logrus.Fields{
		"collection": insertC.Into,
		"total":      total,
	}).Info("planner: streaming bulk insert rewrite")

	span, spanCtx := opentracing.StartSpanFromContextWithTracer(ctx.Context, ctx.Tracer, "bulk_insert")
	span.SetTag("collection", insertC.Into)
	span.SetTag("total", total)
	defer span.Finish()
	ctx = ctx.WithGoContext(spanCtx)

	env := p.env(ctx)
	batchSize := int64(p.rt.BulkInsertBatchSize)
	traceEvery := int64(p.rt.BulkInsertTraceEvery)

	var counters sdb.Counters
	var returned []sdb.Value
	var sinceTrace int64

	for batchStart := from; batchStart <= to; batchStart += batchSize {
		batchEnd := batchStart + batchSize - 1
		if batchEnd > to {
			batchEnd = to
		}
		n := int(batchEnd-batchStart) + 1

		batchSpan, _ := opentracing.StartSpanFromContextWithTracer(ctx.Context, ctx.Tracer, "bulk_insert_batch")
		batchSpan.SetTag("batch_size", n)

		docs := make([]sdb.Value, n)
		rows := make([]sdb.Row, n)
		for i := 0; i < n; i++ {
			v := batchStart + int64(i)
			row := sdb.NewRow().With(forC.Var, sdb.IntValue(v))
			doc, err := expression.Eval(ctx, env, row, insertC.Doc)
			if err != nil {
				batchSpan.Finish()
				return nil, true, err
			}
			docs[i] = doc
			rows[i] = row
		}

		inserted, err := coll.InsertBatch(ctx, docs)
		if err != nil {
			batchSpan.Finish()
			return nil, true, err
		}
		counters.Inserted += uint64(len(inserted))
		p.rt.Observe().MutationApplied("insert", len(inserted))

		if q.Return != nil {
			for i, row := range rows {
				rv := row.With("NEW", inserted[i].ToValue())
				out, err := expression.Eval(ctx, env, rv, q.Return)
				if err != nil {
					batchSpan.Finish()
					return nil, true, err
				}
				returned = append(returned, out)
			}
		}

		go appendBulkSyncLog(p.rt, ctx.Database, insertC.Into, inserted)
		go kickIndexMaintenance(ctx, coll, inserted)

		sinceTrace += int64(n)
		if sinceTrace >= traceEvery {
			ctx.Logger.WithFields(logrus.Fields{
				"collection": insertC.Into,
				"inserted":   counters.Inserted,
				"total":      total,
			}).Info("planner: bulk insert progress")
			sinceTrace = 0
		}
		batchSpan.Finish()
	}

	return &rowexec.Result{Rows: returned, Counters: counters}, true, nil
}

// matchBulkInsertShape reports whether q's body is exactly a single
// ForClause followed by a single InsertClause, with no SORT/LIMIT.
func matchBulkInsertShape(q *ast.Query) (ast.ForClause, ast.InsertClause, bool) {
	if len(q.Sort) != 0 || q.Offset != nil || q.Limit != nil {
		return ast.ForClause{}, ast.InsertClause{}, false
	}
	if len(q.Body) != 2 {
		return ast.ForClause{}, ast.InsertClause{}, false
	}
	forC, ok := q.Body[0].(ast.ForClause)
	if !ok {
		return ast.ForClause{}, ast.InsertClause{}, false
	}
	insertC, ok := q.Body[1].(ast.InsertClause)
	if !ok {
		return ast.ForClause{}, ast.InsertClause{}, false
	}
	return forC, insertC, true
}

// appendBulkSyncLog is the asynchronous half of rule 1: the sync log
// append for one batch runs on its own goroutine so it never adds to
// the insert batch's own latency. A failure here is reported through
// the logger rather than the query result, since the batch has
// already committed to storage by the time this runs.
func appendBulkSyncLog(rt *sdb.Runtime, database, collection string, docs []sdb.Document) {
	if rt.SyncLog == nil {
		return
	}
	entries := make([]sdb.LogEntry, 0, len(docs))
	now := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	for _, d := range docs {
		data, err := encodeBulkJSON(d)
		if err != nil {
			continue
		}
		entries = append(entries, sdb.LogEntry{
			Database:    database,
			Collection:  collection,
			Operation:   sdb.OpInsert,
			Key:         d.Key(),
			Data:        data,
			TimestampMS: now,
		})
	}
	_, _ = rt.SyncLog.AppendBatch(entries)
}

// kickIndexMaintenance triggers secondary-index maintenance for a
// just-inserted batch in the background, per spec §4.5 rule 1.
func kickIndexMaintenance(ctx *sdb.Context, coll sdb.Collection, docs []sdb.Document) {
	_, _ = coll.IndexDocuments(ctx, docs)
}

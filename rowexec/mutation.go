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

package rowexec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

func encodeJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// applyMutation implements INSERT/UPDATE/REMOVE/UPSERT, per spec §4.8.
// Every affected document is appended to the sync log and, for a
// sharded collection, routed through the shard coordinator instead of
// the local collection. A single row's failure aborts the whole query
// rather than producing a partial result (spec §7).
func (ex *Executor) applyMutation(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, clause ast.Clause, counters *sdb.Counters) ([]sdb.Row, error) {
	switch c := clause.(type) {
	case ast.InsertClause:
		return ex.applyInsert(ctx, env, rows, c, counters)
	case ast.UpdateClause:
		return ex.applyUpdate(ctx, env, rows, c, counters)
	case ast.RemoveClause:
		return ex.applyRemove(ctx, env, rows, c, counters)
	case ast.UpsertClause:
		return ex.applyUpsert(ctx, env, rows, c, counters)
	default:
		return nil, sdb.ErrInternal.New("not a mutation clause")
	}
}

func (ex *Executor) isSharded(coll sdb.Collection) (sdb.ShardConfig, bool) {
	cfg, ok := coll.GetShardConfig()
	return cfg, ok && cfg.NumShards > 1
}

func (ex *Executor) applyInsert(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.InsertClause, counters *sdb.Counters) ([]sdb.Row, error) {
	coll, err := ex.collection(ctx, c.Into)
	if err != nil {
		return nil, err
	}

	docVals := make([]sdb.Value, len(rows))
	for i, row := range rows {
		v, err := expression.Eval(ctx, env, row, c.Doc)
		if err != nil {
			return nil, err
		}
		docVals[i] = v
	}

	if cfg, sharded := ex.isSharded(coll); sharded {
		ok, fail, err := ex.rt.Shard.InsertBatch(ctx, ctx.Database, c.Into, cfg, docVals)
		if err != nil {
			return nil, err
		}
		if fail > 0 {
			return nil, sdb.ErrInternal.New(fmt.Sprintf("insert failed for %d of %d documents", fail, fail+ok))
		}
		ex.rt.Observe().MutationApplied("insert", ok)
		counters.Inserted += uint64(ok)
		out := make([]sdb.Row, len(rows))
		for i, row := range rows {
			out[i] = row.With("NEW", docVals[i])
		}
		return out, nil
	}

	var inserted []sdb.Document
	if len(rows) > ex.rt.InsertBatchThreshold {
		inserted, err = coll.InsertBatch(ctx, docVals)
		if err != nil {
			return nil, err
		}
	} else {
		inserted = make([]sdb.Document, len(docVals))
		for i, v := range docVals {
			d, err := coll.Insert(ctx, v)
			if err != nil {
				return nil, err
			}
			inserted[i] = d
		}
	}

	if err := ex.appendSyncLog(ctx, c.Into, sdb.OpInsert, inserted); err != nil {
		return nil, err
	}
	ex.rt.Observe().MutationApplied("insert", len(inserted))
	counters.Inserted += uint64(len(inserted))

	out := make([]sdb.Row, len(rows))
	for i, row := range rows {
		out[i] = row.With("NEW", inserted[i].ToValue())
	}
	return out, nil
}

func (ex *Executor) applyUpdate(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.UpdateClause, counters *sdb.Counters) ([]sdb.Row, error) {
	coll, err := ex.collection(ctx, c.In)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(rows))
	patches := make([]sdb.Value, len(rows))
	for i, row := range rows {
		k, err := ex.resolveSelectorKey(ctx, env, row, c.Selector)
		if err != nil {
			return nil, err
		}
		p, err := expression.Eval(ctx, env, row, c.Changes)
		if err != nil {
			return nil, err
		}
		keys[i] = k
		patches[i] = p
	}

	out := make([]sdb.Row, len(rows))
	if cfg, sharded := ex.isSharded(coll); sharded {
		for i, row := range rows {
			updated, err := ex.rt.Shard.Update(ctx, ctx.Database, c.In, cfg, keys[i], patches[i])
			if err != nil {
				return nil, err
			}
			out[i] = row.With("NEW", updated.ToValue())
		}
		ex.rt.Observe().MutationApplied("update", len(rows))
		counters.Updated += uint64(len(rows))
		return out, nil
	}

	var updated []sdb.Document
	if len(rows) > ex.rt.InsertBatchThreshold {
		kp := make([]sdb.KeyPatch, len(rows))
		for i := range rows {
			kp[i] = sdb.KeyPatch{Key: keys[i], Patch: patches[i]}
		}
		updated, err = coll.UpdateBatch(ctx, kp)
		if err != nil {
			return nil, err
		}
	} else {
		updated = make([]sdb.Document, len(rows))
		for i := range rows {
			d, err := coll.Update(ctx, keys[i], patches[i])
			if err != nil {
				return nil, err
			}
			updated[i] = d
		}
	}

	if err := ex.appendSyncLog(ctx, c.In, sdb.OpUpdate, updated); err != nil {
		return nil, err
	}
	ex.rt.Observe().MutationApplied("update", len(updated))
	counters.Updated += uint64(len(updated))

	for i, row := range rows {
		out[i] = row.With("NEW", updated[i].ToValue())
	}
	return out, nil
}

func (ex *Executor) applyRemove(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.RemoveClause, counters *sdb.Counters) ([]sdb.Row, error) {
	coll, err := ex.collection(ctx, c.In)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(rows))
	for i, row := range rows {
		k, err := ex.resolveSelectorKey(ctx, env, row, c.Selector)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	out := make([]sdb.Row, len(rows))
	if cfg, sharded := ex.isSharded(coll); sharded {
		for i, row := range rows {
			if err := ex.rt.Shard.Delete(ctx, ctx.Database, c.In, cfg, keys[i]); err != nil {
				return nil, err
			}
			out[i] = row
		}
		ex.rt.Observe().MutationApplied("remove", len(rows))
		counters.Removed += uint64(len(rows))
		return out, nil
	}

	if len(rows) > ex.rt.InsertBatchThreshold {
		n, err := coll.DeleteBatch(ctx, keys)
		if err != nil {
			return nil, err
		}
		counters.Removed += uint64(n)
	} else {
		for _, k := range keys {
			if err := coll.Delete(ctx, k); err != nil {
				return nil, err
			}
		}
		counters.Removed += uint64(len(keys))
	}

	if err := ex.appendSyncLogKeys(ctx, c.In, sdb.OpDelete, keys); err != nil {
		return nil, err
	}
	ex.rt.Observe().MutationApplied("remove", len(keys))
	copy(out, rows)
	return out, nil
}

func (ex *Executor) applyUpsert(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.UpsertClause, counters *sdb.Counters) ([]sdb.Row, error) {
	coll, err := ex.collection(ctx, c.In)
	if err != nil {
		return nil, err
	}

	out := make([]sdb.Row, 0, len(rows))
	for _, row := range rows {
		key, err := ex.resolveSelectorKey(ctx, env, row, c.Search)
		if err != nil && !sdb.ErrSelectorKey.Is(err) {
			return nil, err
		}
		hasKey := err == nil

		var existing sdb.Document
		found := false
		if hasKey {
			existing, found, err = coll.Get(ctx, key)
			if err != nil {
				return nil, err
			}
		}

		if found {
			patch, err := expression.Eval(ctx, env, row, c.Update)
			if err != nil {
				return nil, err
			}
			if patch.Kind() != sdb.Obj {
				return nil, sdb.ErrUpsertUpdate.New()
			}
			updated, err := coll.Update(ctx, existing.Key(), patch)
			if err != nil {
				return nil, err
			}
			if err := ex.appendSyncLog(ctx, c.In, sdb.OpUpdate, []sdb.Document{updated}); err != nil {
				return nil, err
			}
			counters.Updated++
			out = append(out, row.With("NEW", updated.ToValue()))
			continue
		}

		doc, err := expression.Eval(ctx, env, row, c.Insert)
		if err != nil {
			return nil, err
		}
		inserted, err := coll.Insert(ctx, doc)
		if err != nil {
			return nil, err
		}
		if err := ex.appendSyncLog(ctx, c.In, sdb.OpInsert, []sdb.Document{inserted}); err != nil {
			return nil, err
		}
		counters.Inserted++
		out = append(out, row.With("NEW", inserted.ToValue()))
	}
	ex.rt.Observe().MutationApplied("upsert", len(out))
	return out, nil
}

// resolveSelectorKey accepts either a plain string key or an object
// carrying "_key" / "_id", per spec §4.8.
func (ex *Executor) resolveSelectorKey(ctx *sdb.Context, env *expression.Env, row sdb.Row, selector ast.Expr) (string, error) {
	v, err := expression.Eval(ctx, env, row, selector)
	if err != nil {
		return "", err
	}
	switch v.Kind() {
	case sdb.String:
		return v.AsString(), nil
	case sdb.Obj:
		if keyV, ok := v.AsObject().Get("_key"); ok {
			return keyV.AsString(), nil
		}
		if idV, ok := v.AsObject().Get("_id"); ok {
			_, key, ok := sdb.SplitID(idV.AsString())
			if ok {
				return key, nil
			}
		}
		return "", sdb.ErrSelectorKey.New("selector object has neither _key nor _id")
	default:
		return "", sdb.ErrSelectorKey.New("selector must be a string key or an object")
	}
}

func (ex *Executor) appendSyncLog(ctx *sdb.Context, collection string, op sdb.Operation, docs []sdb.Document) error {
	if ex.rt.SyncLog == nil {
		return nil
	}
	entries := make([]sdb.LogEntry, len(docs))
	now := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	for i, d := range docs {
		data, err := encodeJSON(d.ToValue().ToJSON())
		if err != nil {
			return err
		}
		entries[i] = sdb.LogEntry{
			Database:    ctx.Database,
			Collection:  collection,
			Operation:   op,
			Key:         d.Key(),
			Data:        data,
			TimestampMS: now,
		}
	}
	_, err := ex.rt.SyncLog.AppendBatch(entries)
	return err
}

func (ex *Executor) appendSyncLogKeys(ctx *sdb.Context, collection string, op sdb.Operation, keys []string) error {
	if ex.rt.SyncLog == nil {
		return nil
	}
	entries := make([]sdb.LogEntry, len(keys))
	now := uint64(time.Now().UnixNano() / int64(time.Millisecond))
	for i, k := range keys {
		entries[i] = sdb.LogEntry{
			Database:    ctx.Database,
			Collection:  collection,
			Operation:   op,
			Key:         k,
			TimestampMS: now,
		}
	}
	_, err := ex.rt.SyncLog.AppendBatch(entries)
	return err
}

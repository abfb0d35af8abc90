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

// Package rowexec implements the pipeline executor
// described in spec §4.4: FOR/LET/FILTER/JOIN/COLLECT/graph/mutation
// clauses are each a Row -> []Row transform threaded through a single
// materialized row stream, followed by SORT/OFFSET/LIMIT/RETURN.
package rowexec

import (
	"sort"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// Result is a query's full output: the projected RETURN values plus
// mutation counters, per the query result envelope in spec §6.
type Result struct {
	Rows     []sdb.Value
	Counters sdb.Counters
}

// Executor runs an ast.Query against a Runtime. It implements
// expression.SubqueryExecutor so that Subquery expressions evaluated
// anywhere in the tree can recurse back into the same pipeline.
type Executor struct {
	rt *sdb.Runtime
}

func New(rt *sdb.Runtime) *Executor {
	return &Executor{rt: rt.Defaults()}
}

func (ex *Executor) env(ctx *sdb.Context) *expression.Env {
	return &expression.Env{
		Functions: ex.rt.Functions,
		CallEnv:   &sdb.CallEnv{Storage: ex.rt.Storage, Database: ctx.Database},
		Subquery:  ex,
	}
}

// ExecuteSubquery implements expression.SubqueryExecutor: the nested
// query runs with parent as its single starting row, so every variable
// already bound in the outer scope is visible until shadowed.
func (ex *Executor) ExecuteSubquery(ctx *sdb.Context, q *ast.Query, parent sdb.Row) ([]sdb.Value, error) {
	res, err := ex.run(ctx, q, []sdb.Row{parent.Clone()})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Run executes a top-level query starting from a single empty row.
func (ex *Executor) Run(ctx *sdb.Context, q *ast.Query) (*Result, error) {
	return ex.run(ctx, q, []sdb.Row{sdb.NewRow()})
}

func (ex *Executor) run(ctx *sdb.Context, q *ast.Query, start []sdb.Row) (*Result, error) {
	env := ex.env(ctx)

	rows := start
	for _, let := range q.Lets {
		next := make([]sdb.Row, len(rows))
		for i, row := range rows {
			v, err := expression.Eval(ctx, env, row, let.Expr)
			if err != nil {
				return nil, err
			}
			next[i] = row.With(let.Var, v)
		}
		rows = next
	}

	var counters sdb.Counters
	for _, clause := range q.Body {
		var err error
		rows, err = ex.applyClause(ctx, env, rows, clause, &counters)
		if err != nil {
			return nil, err
		}
	}

	if len(q.Sort) > 0 {
		if err := ex.sortRows(ctx, env, rows, q.Sort); err != nil {
			return nil, err
		}
	}

	rows, err := ex.applyWindows(ctx, env, rows, q)
	if err != nil {
		return nil, err
	}

	rows, err = ex.applyOffsetLimit(ctx, env, rows, q)
	if err != nil {
		return nil, err
	}

	out := make([]sdb.Value, 0, len(rows))
	for _, row := range rows {
		if q.Return == nil {
			continue
		}
		v, err := expression.Eval(ctx, env, row, q.Return)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return &Result{Rows: out, Counters: counters}, nil
}

func (ex *Executor) applyClause(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, clause ast.Clause, counters *sdb.Counters) ([]sdb.Row, error) {
	switch c := clause.(type) {
	case ast.ForClause:
		return ex.applyFor(ctx, env, rows, c)
	case ast.LetClause:
		return ex.applyLet(ctx, env, rows, c)
	case ast.FilterClause:
		return ex.applyFilter(ctx, env, rows, c)
	case ast.JoinClause:
		return ex.applyJoin(ctx, env, rows, c)
	case ast.CollectClause:
		return ex.applyCollect(ctx, env, rows, c)
	case ast.InsertClause, ast.UpdateClause, ast.RemoveClause, ast.UpsertClause:
		return ex.applyMutation(ctx, env, rows, clause, counters)
	case ast.GraphTraversalClause:
		return ex.applyGraphTraversal(ctx, env, rows, c)
	case ast.ShortestPathClause:
		return ex.applyShortestPath(ctx, env, rows, c)
	case ast.WindowClause:
		// Named windows only apply to FunctionCall.Over references that
		// the parser resolves inline; a body-level declaration carries no
		// row effect of its own.
		return rows, nil
	default:
		return nil, sdb.ErrInternal.New("unknown clause type")
	}
}

func (ex *Executor) applyFor(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.ForClause) ([]sdb.Row, error) {
	var out []sdb.Row
	for _, row := range rows {
		items, err := ex.evalForSource(ctx, env, row, c.Source)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			out = append(out, row.With(c.Var, item))
		}
	}
	return out, nil
}

// evalForSource resolves a FOR clause's source to a slice of values to
// iterate. A CollectionSource scans the named collection (scatter-
// gather across shards when the collection is sharded); any other
// expression must evaluate to an array.
func (ex *Executor) evalForSource(ctx *sdb.Context, env *expression.Env, row sdb.Row, src ast.Expr) ([]sdb.Value, error) {
	if cs, ok := src.(ast.CollectionSource); ok {
		return ex.scanCollection(ctx, cs.Name)
	}
	v, err := expression.Eval(ctx, env, row, src)
	if err != nil {
		return nil, err
	}
	if v.Kind() != sdb.Array {
		return nil, sdb.ErrTypeMismatch.New("FOR source must be an array or a collection")
	}
	return v.AsArray(), nil
}

// scanCollection returns every document in collection as a Value,
// routing through the shard coordinator's scatter-gather scan when the
// collection reports a shard config with more than one shard.
func (ex *Executor) scanCollection(ctx *sdb.Context, name string) ([]sdb.Value, error) {
	coll, err := ex.collection(ctx, name)
	if err != nil {
		return nil, err
	}
	if cfg, sharded := coll.GetShardConfig(); sharded && cfg.NumShards > 1 && ex.rt.Shard != nil {
		table, err := ex.rt.Shard.GetShardTable(ctx, ctx.Database, name)
		if err != nil {
			return nil, err
		}
		docs, err := ex.rt.Shard.ScatterGatherScan(ctx, ctx.Database, name, table, 0)
		if err != nil {
			return nil, err
		}
		ex.rt.Observe().RowsScanned(name, len(docs))
		return docsToValues(docs), nil
	}
	docs, err := coll.All(ctx)
	if err != nil {
		return nil, err
	}
	ex.rt.Observe().RowsScanned(name, len(docs))
	return docsToValues(docs), nil
}

func docsToValues(docs []sdb.Document) []sdb.Value {
	out := make([]sdb.Value, len(docs))
	for i, d := range docs {
		out[i] = d.ToValue()
	}
	return out
}

func (ex *Executor) collection(ctx *sdb.Context, name string) (sdb.Collection, error) {
	db, ok := ex.rt.Storage.GetDatabase(ctx.Database)
	if !ok {
		return nil, sdb.ErrDatabaseNotFound.New(ctx.Database)
	}
	coll, ok := db.GetCollection(name)
	if !ok {
		return nil, sdb.ErrCollectionNotFound.New(name)
	}
	return coll, nil
}

func (ex *Executor) applyLet(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.LetClause) ([]sdb.Row, error) {
	out := make([]sdb.Row, len(rows))
	for i, row := range rows {
		v, err := expression.Eval(ctx, env, row, c.Expr)
		if err != nil {
			return nil, err
		}
		out[i] = row.With(c.Var, v)
	}
	return out, nil
}

// applyFilter retains rows where c.Expr evaluates truthy. A row whose
// expression fails to evaluate (a missing field, a type mismatch) is
// dropped rather than aborting the whole query, since FILTER is meant
// to sieve heterogeneous documents where not every row necessarily
// has the field being tested.
func (ex *Executor) applyFilter(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.FilterClause) ([]sdb.Row, error) {
	var out []sdb.Row
	for _, row := range rows {
		v, err := expression.Eval(ctx, env, row, c.Expr)
		if err != nil {
			continue
		}
		if v.Truthy() {
			out = append(out, row)
		}
	}
	return out, nil
}

func (ex *Executor) applyOffsetLimit(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, q *ast.Query) ([]sdb.Row, error) {
	offset := 0
	if q.Offset != nil {
		v, err := expression.Eval(ctx, env, sdb.NewRow(), q.Offset)
		if err != nil {
			return nil, err
		}
		offset = int(v.Int64())
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]

	if q.Limit == nil {
		return rows, nil
	}
	v, err := expression.Eval(ctx, env, sdb.NewRow(), q.Limit)
	if err != nil {
		return nil, err
	}
	limit := int(v.Int64())
	if limit < 0 {
		limit = 0
	}
	if limit > len(rows) {
		limit = len(rows)
	}
	return rows[:limit], nil
}

// sortRows applies a stable multi-key SORT in place, per spec §4.4
// ("SORT is stable: rows comparing equal on every key keep their
// relative input order").
func (ex *Executor) sortRows(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, keys []ast.SortKey) error {
	var evalErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if evalErr != nil {
			return false
		}
		for _, k := range keys {
			a, err := expression.Eval(ctx, env, rows[i], k.Expr)
			if err != nil {
				evalErr = err
				return false
			}
			b, err := expression.Eval(ctx, env, rows[j], k.Expr)
			if err != nil {
				evalErr = err
				return false
			}
			c := sdb.Compare(a, b)
			if c == 0 {
				continue
			}
			if k.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return evalErr
}

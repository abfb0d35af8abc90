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
	"math"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/rowexec"
	"github.com/solisdb/solisdb/sdb"
)

// matchSingleFor reports whether q's body is exactly one ForClause
// over a stored collection, the shape every rule in this file starts
// from.
func matchSingleFor(q *ast.Query) (ast.ForClause, ast.CollectionSource, bool) {
	if len(q.Body) != 1 {
		return ast.ForClause{}, ast.CollectionSource{}, false
	}
	forC, ok := q.Body[0].(ast.ForClause)
	if !ok {
		return ast.ForClause{}, ast.CollectionSource{}, false
	}
	cs, ok := forC.Source.(ast.CollectionSource)
	if !ok {
		return ast.ForClause{}, ast.CollectionSource{}, false
	}
	return forC, cs, true
}

// applyLets evaluates q's top-level LET bindings once against an
// empty row, mirroring rowexec's own LET-before-FOR semantics (spec
// §4.1: top-level LET runs before the pipeline, not per source row).
func (p *Planner) applyLets(ctx *sdb.Context, env *expression.Env, lets []ast.LetBinding) (sdb.Row, error) {
	row := sdb.NewRow()
	for _, let := range lets {
		v, err := expression.Eval(ctx, env, row, let.Expr)
		if err != nil {
			return nil, err
		}
		row = row.With(let.Var, v)
	}
	return row, nil
}

func (p *Planner) staticOffsetLimit(ctx *sdb.Context, q *ast.Query) (offset, count int, err error) {
	if q.Offset != nil {
		v, err := p.evalStatic(ctx, q.Offset)
		if err != nil {
			return 0, 0, err
		}
		offset = int(v.Int64())
	}
	v, err := p.evalStatic(ctx, q.Limit)
	if err != nil {
		return 0, 0, err
	}
	count = int(v.Int64())
	return offset, count, nil
}

// project evaluates q.Return (if any) over each of the given FOR
// bindings, mirroring the projection step of the general pipeline
// executor (spec §4.4 step 4).
func (p *Planner) project(ctx *sdb.Context, env *expression.Env, letRow sdb.Row, forVar string, items []sdb.Value, ret ast.Expr) ([]sdb.Value, error) {
	if ret == nil {
		return nil, nil
	}
	out := make([]sdb.Value, 0, len(items))
	for _, item := range items {
		row := letRow.With(forVar, item)
		v, err := expression.Eval(ctx, env, row, ret)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// tryIndexSortedTopN implements spec §4.5 rule 2: a single FOR over a
// collection, a single-field SORT on that variable's field, and a
// LIMIT is served directly from the collection's sorted index instead
// of scanning, sorting and slicing in the pipeline.
func (p *Planner) tryIndexSortedTopN(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, bool, error) {
	forC, cs, ok := matchSingleFor(q)
	if !ok || len(q.Sort) != 1 || q.Limit == nil || ast.HasWindowCall(q.Return) {
		return nil, false, nil
	}
	fa, ok := q.Sort[0].Expr.(ast.FieldAccess)
	if !ok {
		return nil, false, nil
	}
	base, ok := fa.Base.(ast.Var)
	if !ok || base.Name != forC.Var {
		return nil, false, nil
	}

	coll, err := p.collection(ctx, cs.Name)
	if err != nil {
		return nil, false, err
	}

	offset, count, err := p.staticOffsetLimit(ctx, q)
	if err != nil {
		return nil, false, err
	}

	docs, ok, err := coll.IndexSorted(ctx, fa.Field, q.Sort[0].Ascending, offset+count)
	if err != nil {
		return nil, true, err
	}
	if !ok {
		return nil, false, nil
	}
	p.rt.Observe().PlannerRuleHit("index_sorted_top_n")

	if offset >= len(docs) {
		docs = nil
	} else {
		docs = docs[offset:]
	}
	if len(docs) > count {
		docs = docs[:count]
	}

	env := p.env(ctx)
	letRow, err := p.applyLets(ctx, env, q.Lets)
	if err != nil {
		return nil, true, err
	}

	items := make([]sdb.Value, len(docs))
	for i, d := range docs {
		items[i] = d.ToValue()
	}
	out, err := p.project(ctx, env, letRow, forC.Var, items, q.Return)
	if err != nil {
		return nil, true, err
	}
	return &rowexec.Result{Rows: out}, true, nil
}

// indexableComparison is one FIELD OP LITERAL leaf extracted from a
// FILTER expression, normalized so literal OP var.field has already
// been flipped to var.field OP' literal.
type indexableComparison struct {
	field string
	op    ast.BinOp
	lit   sdb.Value
}

func isComparisonOp(op ast.BinOp) bool {
	switch op {
	case ast.OpEq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return true
	default:
		return false
	}
}

func reverseComparisonOp(op ast.BinOp) ast.BinOp {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpLte:
		return ast.OpGte
	case ast.OpGt:
		return ast.OpLt
	case ast.OpGte:
		return ast.OpLte
	default:
		return op
	}
}

// flattenAnd splits an AND-nested expression tree into its leaves,
// left to right, so rule 3 can pick the first indexable conjunct.
func flattenAnd(e ast.Expr) []ast.Expr {
	if b, ok := e.(ast.BinaryOp); ok && b.Op == ast.OpAnd {
		return append(flattenAnd(b.Left), flattenAnd(b.Right)...)
	}
	return []ast.Expr{e}
}

// matchIndexable recognizes "var.field OP literal" or "literal OP
// var.field" (reversed operator) against forVar.
func matchIndexable(e ast.Expr, forVar string) (indexableComparison, bool) {
	b, ok := e.(ast.BinaryOp)
	if !ok || !isComparisonOp(b.Op) {
		return indexableComparison{}, false
	}
	if fa, ok := b.Left.(ast.FieldAccess); ok {
		if v, ok := fa.Base.(ast.Var); ok && v.Name == forVar {
			if lit, ok := b.Right.(ast.Literal); ok {
				return indexableComparison{field: fa.Field, op: b.Op, lit: normalizeIndexLiteral(lit.Value)}, true
			}
		}
	}
	if fa, ok := b.Right.(ast.FieldAccess); ok {
		if v, ok := fa.Base.(ast.Var); ok && v.Name == forVar {
			if lit, ok := b.Left.(ast.Literal); ok {
				return indexableComparison{field: fa.Field, op: reverseComparisonOp(b.Op), lit: normalizeIndexLiteral(lit.Value)}, true
			}
		}
	}
	return indexableComparison{}, false
}

// normalizeIndexLiteral renormalizes an integer-valued float to an
// integer before it's used to probe an index, per spec §4.5 rule 3.
func normalizeIndexLiteral(v sdb.Value) sdb.Value {
	if v.Kind() == sdb.Number && !v.IsInt() {
		f := v.Float64()
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return sdb.IntValue(int64(f))
		}
	}
	return v
}

func probeIndex(ctx *sdb.Context, coll sdb.Collection, c indexableComparison) ([]sdb.Document, bool, error) {
	switch c.op {
	case ast.OpEq:
		return coll.IndexLookupEq(ctx, c.field, c.lit)
	case ast.OpLt:
		return coll.IndexLookupLt(ctx, c.field, c.lit)
	case ast.OpLte:
		return coll.IndexLookupLte(ctx, c.field, c.lit)
	case ast.OpGt:
		return coll.IndexLookupGt(ctx, c.field, c.lit)
	case ast.OpGte:
		return coll.IndexLookupGte(ctx, c.field, c.lit)
	default:
		return nil, false, nil
	}
}

// tryIndexFilter implements spec §4.5 rule 3: a FOR immediately
// followed by a FILTER that reduces to an indexable comparison (or,
// for an AND-nested condition, whose first indexable conjunct is used)
// is served by probing the matching index and replacing the FOR's
// source with the probed document set. The original FILTER clause is
// kept in the rewritten query so a compound condition is still fully
// re-evaluated; the probe only narrows what gets scanned.
func (p *Planner) tryIndexFilter(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, bool, error) {
	if len(q.Body) < 2 {
		return nil, false, nil
	}
	forC, ok := q.Body[0].(ast.ForClause)
	if !ok {
		return nil, false, nil
	}
	cs, ok := forC.Source.(ast.CollectionSource)
	if !ok {
		return nil, false, nil
	}
	filterC, ok := q.Body[1].(ast.FilterClause)
	if !ok {
		return nil, false, nil
	}

	var chosen indexableComparison
	found := false
	for _, leaf := range flattenAnd(filterC.Expr) {
		if c, ok := matchIndexable(leaf, forC.Var); ok {
			chosen = c
			found = true
			break
		}
	}
	if !found {
		return nil, false, nil
	}

	coll, err := p.collection(ctx, cs.Name)
	if err != nil {
		return nil, false, err
	}
	docs, ok, err := probeIndex(ctx, coll, chosen)
	if err != nil {
		return nil, true, err
	}
	if !ok {
		return nil, false, nil
	}
	p.rt.Observe().PlannerRuleHit("index_filter")

	docLits := make([]ast.Expr, len(docs))
	for i, d := range docs {
		docLits[i] = ast.Literal{Value: d.ToValue()}
	}

	rewritten := *q
	newBody := append([]ast.Clause{}, q.Body...)
	newBody[0] = ast.ForClause{Var: forC.Var, Source: ast.ArrayLiteral{Elements: docLits}}
	rewritten.Body = newBody

	res, err := p.ex.Run(ctx, &rewritten)
	return res, true, err
}

// tryLimitPushdown implements spec §4.5 rule 4: with exactly one FOR
// and no FILTER/SORT, the combined offset+count is pushed down to the
// storage scan itself via Collection.Scan rather than materializing
// every document and slicing afterward.
func (p *Planner) tryLimitPushdown(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, bool, error) {
	forC, cs, ok := matchSingleFor(q)
	if !ok || len(q.Sort) != 0 || q.Limit == nil {
		return nil, false, nil
	}

	coll, err := p.collection(ctx, cs.Name)
	if err != nil {
		return nil, false, err
	}
	if isShardedCollection(coll) {
		// Scatter-gather has no scan-hint equivalent; leave this to the
		// general executor's shard-aware scan path.
		return nil, false, nil
	}

	offset, count, err := p.staticOffsetLimit(ctx, q)
	if err != nil {
		return nil, false, err
	}

	docs, err := coll.Scan(ctx, offset+count)
	if err != nil {
		return nil, true, err
	}
	p.rt.Observe().PlannerRuleHit("limit_pushdown")
	p.rt.Observe().RowsScanned(cs.Name, len(docs))

	if offset >= len(docs) {
		docs = nil
	} else {
		docs = docs[offset:]
	}
	if len(docs) > count {
		docs = docs[:count]
	}

	env := p.env(ctx)
	letRow, err := p.applyLets(ctx, env, q.Lets)
	if err != nil {
		return nil, true, err
	}
	items := make([]sdb.Value, len(docs))
	for i, d := range docs {
		items[i] = d.ToValue()
	}
	out, err := p.project(ctx, env, letRow, forC.Var, items, q.Return)
	if err != nil {
		return nil, true, err
	}
	return &rowexec.Result{Rows: out}, true, nil
}

// tryColumnarAggregate is spec §4.5 rule 5's hook: when a collection
// exposes a columnar backing and the pipeline is exactly FOR+COLLECT
// with only aggregates (no group keys), the rewrite would delegate to
// that columnar engine instead of hashing rows in process. No
// collection implementation in this module exposes a columnar
// backing (see DESIGN.md on the undispatched columnar dependency), so
// this always falls through; it is kept as its own rule, rather than
// deleted, so a future Collection implementation that does expose one
// only needs to add the capability check here.
func (p *Planner) tryColumnarAggregate(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, bool, error) {
	return nil, false, nil
}

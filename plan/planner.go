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

// Package plan implements the rule-based query rewriter described in
// spec §4.5. Each rule recognizes one narrow query shape and replaces
// the general pipeline with a cheaper storage-level operation; any
// precondition mismatch falls through to the next rule, and a query
// matching none of them runs unmodified through rowexec.
package plan

import (
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/rowexec"
	"github.com/solisdb/solisdb/sdb"
)

// rule is one planner rewrite. It reports matched=false when q doesn't
// fit the rule's precondition shape, in which case res and err are
// both ignored by the caller.
type rule func(p *Planner, ctx *sdb.Context, q *ast.Query) (res *rowexec.Result, matched bool, err error)

// Planner holds the Runtime shared by every rule and the fallback
// executor rules delegate to once a rewrite has narrowed the input.
type Planner struct {
	rt *sdb.Runtime
	ex *rowexec.Executor
}

func New(rt *sdb.Runtime) *Planner {
	rt = rt.Defaults()
	return &Planner{rt: rt, ex: rowexec.New(rt)}
}

// rules runs in this fixed order; each is independently skippable per
// spec §4.5's closing sentence ("each rule is independently
// skippable; on any precondition mismatch the planner falls through
// to the general pipeline executor").
var rules = []rule{
	(*Planner).tryBulkInsert,        // rule 1
	(*Planner).tryIndexSortedTopN,   // rule 2
	(*Planner).tryIndexFilter,       // rule 3
	(*Planner).tryLimitPushdown,     // rule 4
	(*Planner).tryColumnarAggregate, // rule 5
}

// Run is the engine's entry point: try every rule in order, falling
// back to the unmodified pipeline executor when nothing matches.
// Rule 6 (shard dispatch for mutations) has no rewrite of its own here
// because rowexec's INSERT/UPDATE/REMOVE clauses already route the
// rows of a sharded collection through the shard coordinator (INSERT
// as one batch call, UPDATE and REMOVE one call per row; see
// rowexec/mutation.go and rules_shard.go).
func (p *Planner) Run(ctx *sdb.Context, q *ast.Query) (*rowexec.Result, error) {
	for _, r := range rules {
		res, matched, err := r(p, ctx, q)
		if err != nil {
			return nil, err
		}
		if matched {
			return res, nil
		}
	}
	return p.ex.Run(ctx, q)
}

func (p *Planner) collection(ctx *sdb.Context, name string) (sdb.Collection, error) {
	db, ok := p.rt.Storage.GetDatabase(ctx.Database)
	if !ok {
		return nil, sdb.ErrDatabaseNotFound.New(ctx.Database)
	}
	coll, ok := db.GetCollection(name)
	if !ok {
		return nil, sdb.ErrCollectionNotFound.New(name)
	}
	return coll, nil
}

// env builds the same expression.Env the pipeline executor uses, so a
// rule can evaluate RETURN/FILTER/LIMIT expressions identically to the
// fallback path.
func (p *Planner) env(ctx *sdb.Context) *expression.Env {
	return &expression.Env{
		Functions: p.rt.Functions,
		CallEnv:   &sdb.CallEnv{Storage: p.rt.Storage, Database: ctx.Database},
		Subquery:  p.ex,
	}
}

// evalStatic evaluates expr with no row bindings, for the
// top-of-query OFFSET/LIMIT/range-bound expressions that cannot
// reference a pipeline variable.
func (p *Planner) evalStatic(ctx *sdb.Context, expr ast.Expr) (sdb.Value, error) {
	return expression.Eval(ctx, p.env(ctx), sdb.NewRow(), expr)
}

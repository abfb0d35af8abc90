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
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// applyJoin evaluates a JOIN clause against every input row. The right
// side is re-scanned per left row (nested-loop join); the planner may
// later rewrite this into an index-backed lookup when the condition is
// a simple equality against an indexed field, but the semantics here
// are the ground truth every rewrite must preserve.
//
// Inner and Left are left-driven: var is bound to the array of every
// right document matching the condition, Inner dropping left rows with
// an empty array. Right is right-driven and flat rather than
// array-bound: for each right document it merges the fields of the
// first matching left row (if any), var bound to the single right
// document, or emits a var-only row if nothing on the left matches.
// FullOuter is the union of Left's array-bound pass and a second,
// right-only pass for whichever right documents matched zero left
// rows, so no right document is ever emitted twice.
func (ex *Executor) applyJoin(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.JoinClause) ([]sdb.Row, error) {
	rightDocs, err := ex.scanCollection(ctx, c.Collection)
	if err != nil {
		return nil, err
	}

	if c.Type == ast.JoinRight {
		var out []sdb.Row
		for _, right := range rightDocs {
			matched := false
			for _, left := range rows {
				candidate := left.With(c.Var, right)
				ok, err := ex.joinMatches(ctx, env, candidate, c.Condition)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, candidate)
					matched = true
					break
				}
			}
			if !matched {
				out = append(out, sdb.NewRow().With(c.Var, right))
			}
		}
		return out, nil
	}

	matchedRight := make([]bool, len(rightDocs))
	var out []sdb.Row

	for _, left := range rows {
		var matches []sdb.Value
		for ri, right := range rightDocs {
			candidate := left.With(c.Var, right)
			ok, err := ex.joinMatches(ctx, env, candidate, c.Condition)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			matches = append(matches, right)
			matchedRight[ri] = true
		}
		if len(matches) == 0 && c.Type == ast.JoinInner {
			continue
		}
		out = append(out, left.With(c.Var, sdb.ArrayValue(matches)))
	}

	if c.Type == ast.JoinFullOuter {
		for ri, right := range rightDocs {
			if matchedRight[ri] {
				continue
			}
			out = append(out, sdb.NewRow().With(c.Var, right))
		}
	}

	return out, nil
}

func (ex *Executor) joinMatches(ctx *sdb.Context, env *expression.Env, row sdb.Row, cond ast.Expr) (bool, error) {
	v, err := expression.Eval(ctx, env, row, cond)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

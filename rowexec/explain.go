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
	"fmt"
	"time"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// ClauseProfile is one body clause's timing and row-count contribution
// to a profiled run, per the SPEC_FULL EXPLAIN/profile supplement.
type ClauseProfile struct {
	Clause   string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Profile is the result of Executor.Profile: the query's normal
// Result plus a per-clause breakdown, mirroring the teacher's
// per-node query-plan tracing.
type Profile struct {
	Result   *Result
	Clauses  []ClauseProfile
	Duration time.Duration
}

// Profile runs q like Run, but wraps every body clause with timing and
// row-count instrumentation.
func (ex *Executor) Profile(ctx *sdb.Context, q *ast.Query) (*Profile, error) {
	started := time.Now()
	env := ex.env(ctx)

	rows := []sdb.Row{sdb.NewRow()}
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
	clauseProfiles := make([]ClauseProfile, 0, len(q.Body))
	for _, clause := range q.Body {
		rowsIn := len(rows)
		t0 := time.Now()
		next, err := ex.applyClause(ctx, env, rows, clause, &counters)
		if err != nil {
			return nil, err
		}
		clauseProfiles = append(clauseProfiles, ClauseProfile{
			Clause:   clauseName(clause),
			RowsIn:   rowsIn,
			RowsOut:  len(next),
			Duration: time.Since(t0),
		})
		rows = next
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

	return &Profile{
		Result:   &Result{Rows: out, Counters: counters},
		Clauses:  clauseProfiles,
		Duration: time.Since(started),
	}, nil
}

func clauseName(c ast.Clause) string {
	switch c.(type) {
	case ast.ForClause:
		return "FOR"
	case ast.LetClause:
		return "LET"
	case ast.FilterClause:
		return "FILTER"
	case ast.JoinClause:
		return "JOIN"
	case ast.CollectClause:
		return "COLLECT"
	case ast.InsertClause:
		return "INSERT"
	case ast.UpdateClause:
		return "UPDATE"
	case ast.RemoveClause:
		return "REMOVE"
	case ast.UpsertClause:
		return "UPSERT"
	case ast.GraphTraversalClause:
		return "GRAPH"
	case ast.ShortestPathClause:
		return "SHORTEST_PATH"
	case ast.WindowClause:
		return "WINDOW"
	default:
		return fmt.Sprintf("%T", c)
	}
}

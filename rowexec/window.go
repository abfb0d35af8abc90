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
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure"
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// applyWindows resolves ROW_NUMBER/RANK/DENSE_RANK/MOVING_AVG window
// calls before RETURN is projected. Scope is deliberately limited to
// the two shapes a hand-written query actually uses them in: the
// RETURN expression itself, or a direct field value of a top-level
// ObjectLiteral in RETURN. A window call nested any deeper (inside a
// FunctionCall argument, for instance) is left alone and will fail at
// Eval with "window function used outside RETURN" — a parser would
// normally reject that shape outright.
func (ex *Executor) applyWindows(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, q *ast.Query) ([]sdb.Row, error) {
	if q.Return == nil {
		return rows, nil
	}

	switch ret := q.Return.(type) {
	case ast.FunctionCall:
		if ret.Over == nil {
			return rows, nil
		}
		values, err := ex.computeWindow(ctx, env, rows, ret)
		if err != nil {
			return nil, err
		}
		out := make([]sdb.Row, len(rows))
		const synthVar = "__window__"
		for i, row := range rows {
			out[i] = row.With(synthVar, values[i])
		}
		q.Return = ast.Var{Name: synthVar}
		return out, nil

	case ast.ObjectLiteral:
		out := append([]sdb.Row{}, rows...)
		newFields := make([]ast.ObjectField, len(ret.Fields))
		for fi, f := range ret.Fields {
			fc, ok := f.Value.(ast.FunctionCall)
			if !ok || fc.Over == nil {
				newFields[fi] = f
				continue
			}
			values, err := ex.computeWindow(ctx, env, out, fc)
			if err != nil {
				return nil, err
			}
			synthVar := "__window_" + f.Key + "__"
			for i, row := range out {
				out[i] = row.With(synthVar, values[i])
			}
			newFields[fi] = ast.ObjectField{Key: f.Key, Value: ast.Var{Name: synthVar}}
		}
		q.Return = ast.ObjectLiteral{Fields: newFields}
		return out, nil

	default:
		return rows, nil
	}
}

// computeWindow partitions rows by the OVER(PARTITION BY ...) keys,
// orders each partition by OVER(ORDER BY ...), and computes one value
// per row for the named window function.
func (ex *Executor) computeWindow(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, fc ast.FunctionCall) ([]sdb.Value, error) {
	spec := fc.Over
	type indexed struct {
		idx int
		row sdb.Row
	}
	partitions := map[uint64][]indexed{}
	var order []uint64

	for i, row := range rows {
		keys := make([]interface{}, len(spec.PartitionBy))
		for pi, p := range spec.PartitionBy {
			v, err := expression.Eval(ctx, env, row, p)
			if err != nil {
				return nil, err
			}
			keys[pi] = v.ToJSON()
		}
		h, err := hashstructure.Hash(keys, nil)
		if err != nil {
			return nil, sdb.ErrInternal.New(err.Error())
		}
		if _, ok := partitions[h]; !ok {
			order = append(order, h)
		}
		partitions[h] = append(partitions[h], indexed{idx: i, row: row})
	}

	out := make([]sdb.Value, len(rows))
	funcName := strings.ToUpper(fc.Name)

	for _, h := range order {
		part := partitions[h]
		sort.SliceStable(part, func(i, j int) bool {
			for _, k := range spec.OrderBy {
				a, _ := expression.Eval(ctx, env, part[i].row, k.Expr)
				b, _ := expression.Eval(ctx, env, part[j].row, k.Expr)
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

		switch funcName {
		case "ROW_NUMBER":
			for pos, it := range part {
				out[it.idx] = sdb.IntValue(int64(pos + 1))
			}
		case "RANK", "DENSE_RANK":
			rank := 0
			dense := 0
			var prevKey []sdb.Value
			for pos, it := range part {
				key := make([]sdb.Value, len(spec.OrderBy))
				for ki, k := range spec.OrderBy {
					key[ki], _ = expression.Eval(ctx, env, it.row, k.Expr)
				}
				if !sameKeys(prevKey, key) {
					rank = pos + 1
					dense++
					prevKey = key
				}
				if funcName == "RANK" {
					out[it.idx] = sdb.IntValue(int64(rank))
				} else {
					out[it.idx] = sdb.IntValue(int64(dense))
				}
			}
		case "MOVING_AVG":
			windowSize := 1
			if len(fc.Args) > 0 {
				v, err := expression.Eval(ctx, env, part[0].row, fc.Args[0])
				if err == nil {
					windowSize = int(v.Int64())
				}
			}
			if windowSize < 1 {
				windowSize = 1
			}
			vals := make([]float64, len(part))
			for pos, it := range part {
				v, err := expression.Eval(ctx, env, it.row, fc.Args[len(fc.Args)-1])
				if err != nil {
					return nil, err
				}
				vals[pos] = v.Float64()
			}
			for pos, it := range part {
				lo := pos - windowSize + 1
				if lo < 0 {
					lo = 0
				}
				sum := 0.0
				count := 0
				for j := lo; j <= pos; j++ {
					sum += vals[j]
					count++
				}
				out[it.idx] = sdb.FloatValue(sum / float64(count))
			}
		default:
			return nil, sdb.ErrUnknownFunction.New(fc.Name)
		}
	}

	return out, nil
}

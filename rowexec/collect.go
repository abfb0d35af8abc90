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
	"github.com/mitchellh/hashstructure"
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// group is one COLLECT bucket: its key values (one per CollectGroup)
// and the full rows that fell into it, kept in input order for
// aggregates that care about row order (e.g. the first match).
type group struct {
	keys []sdb.Value
	rows []sdb.Row
}

// applyCollect implements COLLECT ... INTO ... AGGREGATE ... WITH COUNT
// INTO, per spec §4.4. Grouping keys are hashed with hashstructure for
// bucket placement; a bucket hit is confirmed with an exact sdb.Equal
// comparison against every key so a hash collision never merges two
// distinct groups.
func (ex *Executor) applyCollect(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.CollectClause) ([]sdb.Row, error) {
	buckets := map[uint64][]*group{}
	var order []*group

	for _, row := range rows {
		keys := make([]sdb.Value, len(c.Groups))
		for i, g := range c.Groups {
			v, err := expression.Eval(ctx, env, row, g.Expr)
			if err != nil {
				return nil, err
			}
			keys[i] = v
		}
		h, err := hashKey(keys)
		if err != nil {
			return nil, sdb.ErrInternal.New(err.Error())
		}
		var found *group
		for _, candidate := range buckets[h] {
			if sameKeys(candidate.keys, keys) {
				found = candidate
				break
			}
		}
		if found == nil {
			found = &group{keys: keys}
			buckets[h] = append(buckets[h], found)
			order = append(order, found)
		}
		found.rows = append(found.rows, row)
	}

	out := make([]sdb.Row, 0, len(order))
	for _, grp := range order {
		row := sdb.NewRow()
		for i, g := range c.Groups {
			row = row.With(g.Var, grp.keys[i])
		}

		if c.Into != nil {
			items := make([]sdb.Value, len(grp.rows))
			for i, r := range grp.rows {
				items[i] = rowToObjectValue(r)
			}
			row = row.With(*c.Into, sdb.ArrayValue(items))
		}

		if c.CountVar != nil {
			row = row.With(*c.CountVar, sdb.IntValue(int64(len(grp.rows))))
		}

		for _, agg := range c.Aggregates {
			args := make([]sdb.Value, len(grp.rows))
			for i, r := range grp.rows {
				v, err := expression.Eval(ctx, env, r, agg.Arg)
				if err != nil {
					return nil, err
				}
				args[i] = v
			}
			v, err := env.Functions.Call(ctx, env.CallEnv, agg.Func, []sdb.Value{sdb.ArrayValue(args)})
			if err != nil {
				return nil, err
			}
			row = row.With(agg.Var, v)
		}

		out = append(out, row)
	}

	return out, nil
}

func hashKey(keys []sdb.Value) (uint64, error) {
	plain := make([]interface{}, len(keys))
	for i, k := range keys {
		plain[i] = k.ToJSON()
	}
	return hashstructure.Hash(plain, nil)
}

func sameKeys(a, b []sdb.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sdb.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func rowToObjectValue(r sdb.Row) sdb.Value {
	o := sdb.NewObject()
	for k, v := range r {
		o.Set(k, v)
	}
	return sdb.ObjectValue(o)
}

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

package expression

import (
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
)

// Eval evaluates expr against row, per the contracts in spec §4.2.
func Eval(ctx *sdb.Context, env *Env, row sdb.Row, expr ast.Expr) (sdb.Value, error) {
	switch e := expr.(type) {
	case ast.Literal:
		return e.Value, nil

	case ast.Var:
		v, ok := row.Get(e.Name)
		if !ok {
			return sdb.NullValue(), sdb.ErrUnknownVariable.New(e.Name)
		}
		return v, nil

	case ast.BindVar:
		v, ok := ctx.BindValue(e.Name)
		if !ok {
			return sdb.NullValue(), sdb.ErrMissingBindParam.New(e.Name)
		}
		return v, nil

	case ast.FieldAccess:
		base, err := Eval(ctx, env, row, e.Base)
		if err != nil {
			return sdb.NullValue(), err
		}
		if base.Kind() != sdb.Obj {
			return sdb.NullValue(), nil
		}
		v, ok := base.AsObject().Get(e.Field)
		if !ok {
			return sdb.NullValue(), nil
		}
		return v, nil

	case ast.DynamicAccess:
		base, err := Eval(ctx, env, row, e.Base)
		if err != nil {
			return sdb.NullValue(), err
		}
		idx, err := Eval(ctx, env, row, e.Index)
		if err != nil {
			return sdb.NullValue(), err
		}
		return evalDynamicAccess(base, idx)

	case ast.BinaryOp:
		return evalBinary(ctx, env, row, e)

	case ast.UnaryOp:
		return evalUnary(ctx, env, row, e)

	case ast.ObjectLiteral:
		o := sdb.NewObject()
		for _, f := range e.Fields {
			key := f.Key
			if f.KeyExpr != nil {
				kv, err := Eval(ctx, env, row, f.KeyExpr)
				if err != nil {
					return sdb.NullValue(), err
				}
				key = kv.AsString()
			}
			v, err := Eval(ctx, env, row, f.Value)
			if err != nil {
				return sdb.NullValue(), err
			}
			o.Set(key, v)
		}
		return sdb.ObjectValue(o), nil

	case ast.ArrayLiteral:
		out := make([]sdb.Value, len(e.Elements))
		for i, el := range e.Elements {
			v, err := Eval(ctx, env, row, el)
			if err != nil {
				return sdb.NullValue(), err
			}
			out[i] = v
		}
		return sdb.ArrayValue(out), nil

	case ast.RangeExpr:
		from, err := Eval(ctx, env, row, e.From)
		if err != nil {
			return sdb.NullValue(), err
		}
		to, err := Eval(ctx, env, row, e.To)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.ArrayValue(MaterializeRange(from.Int64(), to.Int64())), nil

	case ast.FunctionCall:
		if e.Over != nil {
			// Window calls are resolved by the pipeline executor's
			// window step, which rewrites them into plain variable
			// references before this point. Reaching here means a
			// window call was used outside of a RETURN projection.
			return sdb.NullValue(), sdb.ErrInvalidArgument.New("window function used outside RETURN")
		}
		args := make([]sdb.Value, len(e.Args))
		for i, a := range e.Args {
			v, err := Eval(ctx, env, row, a)
			if err != nil {
				return sdb.NullValue(), err
			}
			args[i] = v
		}
		if env.Functions == nil {
			return sdb.NullValue(), sdb.ErrUnknownFunction.New(e.Name)
		}
		return env.Functions.Call(ctx, env.CallEnv, e.Name, args)

	case ast.Subquery:
		if env.Subquery == nil {
			return sdb.NullValue(), sdb.ErrInternal.New("no subquery executor configured")
		}
		results, err := env.Subquery.ExecuteSubquery(ctx, e.Query, row)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.ArrayValue(results), nil

	case ast.Ternary:
		cond, err := Eval(ctx, env, row, e.Cond)
		if err != nil {
			return sdb.NullValue(), err
		}
		if cond.Truthy() {
			return Eval(ctx, env, row, e.Then)
		}
		return Eval(ctx, env, row, e.Else)
	}

	return sdb.NullValue(), sdb.ErrInternal.New("unknown expression node")
}

// MaterializeRange builds the array [from..to] with the boundary
// behavior from spec §8: RANGE(a,a) == [a]; RANGE(a,b) == [] for a > b.
func MaterializeRange(from, to int64) []sdb.Value {
	if from > to {
		return []sdb.Value{}
	}
	out := make([]sdb.Value, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, sdb.IntValue(i))
	}
	return out
}

func evalDynamicAccess(base, idx sdb.Value) (sdb.Value, error) {
	if idx.Kind() == sdb.String {
		if base.Kind() != sdb.Obj {
			return sdb.NullValue(), nil
		}
		v, ok := base.AsObject().Get(idx.AsString())
		if !ok {
			return sdb.NullValue(), nil
		}
		return v, nil
	}
	if idx.Kind() == sdb.Number {
		if base.Kind() != sdb.Array {
			return sdb.NullValue(), nil
		}
		if !idx.IsInt() || idx.Int64() < 0 {
			return sdb.NullValue(), sdb.ErrInvalidArgument.New("array index must be a non-negative integer")
		}
		i := idx.Int64()
		arr := base.AsArray()
		if i >= int64(len(arr)) {
			return sdb.NullValue(), nil
		}
		return arr[i], nil
	}
	return sdb.NullValue(), sdb.ErrInvalidArgument.New("dynamic access index must be a string or integer")
}

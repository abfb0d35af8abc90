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
	"context"
	"testing"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalCtx() *sdb.Context { return sdb.NewContext(context.Background()) }

func TestEvalLiteral(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.Literal{Value: sdb.IntValue(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int64())
}

func TestEvalVarMissingErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.Var{Name: "missing"})
	require.Error(t, err)
	assert.True(t, sdb.ErrUnknownVariable.Is(err))
}

func TestEvalVarBound(t *testing.T) {
	row := sdb.NewRow().With("u", sdb.StringValue("alice"))
	v, err := Eval(evalCtx(), &Env{}, row, ast.Var{Name: "u"})
	require.NoError(t, err)
	assert.Equal(t, "alice", v.AsString())
}

func TestEvalBindVarMissingErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.BindVar{Name: "x"})
	require.Error(t, err)
	assert.True(t, sdb.ErrMissingBindParam.Is(err))
}

func TestEvalBindVarPresent(t *testing.T) {
	ctx := sdb.NewContext(context.Background(), sdb.WithBindParams(map[string]sdb.Value{"x": sdb.IntValue(5)}))
	v, err := Eval(ctx, &Env{}, sdb.NewRow(), ast.BindVar{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int64())
}

func TestEvalFieldAccessOnNonObjectReturnsNull(t *testing.T) {
	row := sdb.NewRow().With("u", sdb.IntValue(1))
	v, err := Eval(evalCtx(), &Env{}, row, ast.FieldAccess{Base: ast.Var{Name: "u"}, Field: "name"})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalFieldAccessMissingKeyReturnsNull(t *testing.T) {
	o := sdb.NewObject()
	o.Set("name", sdb.StringValue("alice"))
	row := sdb.NewRow().With("u", sdb.ObjectValue(o))

	v, err := Eval(evalCtx(), &Env{}, row, ast.FieldAccess{Base: ast.Var{Name: "u"}, Field: "age"})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalDynamicAccessObjectByStringIndex(t *testing.T) {
	o := sdb.NewObject()
	o.Set("name", sdb.StringValue("alice"))
	row := sdb.NewRow().With("u", sdb.ObjectValue(o))

	v, err := Eval(evalCtx(), &Env{}, row, ast.DynamicAccess{
		Base: ast.Var{Name: "u"}, Index: ast.Literal{Value: sdb.StringValue("name")},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", v.AsString())
}

func TestEvalDynamicAccessArrayByIntIndex(t *testing.T) {
	row := sdb.NewRow().With("arr", sdb.ArrayValue([]sdb.Value{sdb.IntValue(10), sdb.IntValue(20)}))

	v, err := Eval(evalCtx(), &Env{}, row, ast.DynamicAccess{
		Base: ast.Var{Name: "arr"}, Index: ast.Literal{Value: sdb.IntValue(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), v.Int64())
}

func TestEvalDynamicAccessNegativeIndexErrors(t *testing.T) {
	row := sdb.NewRow().With("arr", sdb.ArrayValue([]sdb.Value{sdb.IntValue(10)}))
	_, err := Eval(evalCtx(), &Env{}, row, ast.DynamicAccess{
		Base: ast.Var{Name: "arr"}, Index: ast.Literal{Value: sdb.IntValue(-1)},
	})
	require.Error(t, err)
	assert.True(t, sdb.ErrInvalidArgument.Is(err))
}

func TestEvalDynamicAccessOutOfRangeReturnsNull(t *testing.T) {
	row := sdb.NewRow().With("arr", sdb.ArrayValue([]sdb.Value{sdb.IntValue(10)}))
	v, err := Eval(evalCtx(), &Env{}, row, ast.DynamicAccess{
		Base: ast.Var{Name: "arr"}, Index: ast.Literal{Value: sdb.IntValue(5)},
	})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalObjectLiteralWithComputedKey(t *testing.T) {
	row := sdb.NewRow().With("k", sdb.StringValue("name"))
	expr := ast.ObjectLiteral{Fields: []ast.ObjectField{
		{KeyExpr: ast.Var{Name: "k"}, Value: ast.Literal{Value: sdb.StringValue("alice")}},
	}}
	v, err := Eval(evalCtx(), &Env{}, row, expr)
	require.NoError(t, err)
	nameV, ok := v.AsObject().Get("name")
	require.True(t, ok)
	assert.Equal(t, "alice", nameV.AsString())
}

func TestEvalArrayLiteral(t *testing.T) {
	expr := ast.ArrayLiteral{Elements: []ast.Expr{
		ast.Literal{Value: sdb.IntValue(1)},
		ast.Literal{Value: sdb.IntValue(2)},
	}}
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.NoError(t, err)
	assert.Len(t, v.AsArray(), 2)
}

func TestEvalRangeExpr(t *testing.T) {
	expr := ast.RangeExpr{From: ast.Literal{Value: sdb.IntValue(1)}, To: ast.Literal{Value: sdb.IntValue(3)}}
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.NoError(t, err)
	assert.Equal(t, []sdb.Value{sdb.IntValue(1), sdb.IntValue(2), sdb.IntValue(3)}, v.AsArray())
}

func TestMaterializeRangeEmptyWhenFromGreaterThanTo(t *testing.T) {
	assert.Empty(t, MaterializeRange(5, 1))
}

func TestMaterializeRangeSingleElementWhenEqual(t *testing.T) {
	assert.Equal(t, []sdb.Value{sdb.IntValue(3)}, MaterializeRange(3, 3))
}

func TestEvalFunctionCallWithNilRegistryErrors(t *testing.T) {
	expr := ast.FunctionCall{Name: "LENGTH", Args: []ast.Expr{ast.Literal{Value: sdb.StringValue("hi")}}}
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.Error(t, err)
	assert.True(t, sdb.ErrUnknownFunction.Is(err))
}

func TestEvalWindowCallOutsideReturnErrors(t *testing.T) {
	expr := ast.FunctionCall{Name: "RANK", Over: &ast.WindowSpec{}}
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.Error(t, err)
	assert.True(t, sdb.ErrInvalidArgument.Is(err))
}

func TestEvalSubqueryWithNilExecutorErrors(t *testing.T) {
	expr := ast.Subquery{Query: &ast.Query{}}
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.Error(t, err)
	assert.True(t, sdb.ErrInternal.Is(err))
}

type fakeSubqueryExecutor struct {
	results []sdb.Value
}

func (f fakeSubqueryExecutor) ExecuteSubquery(ctx *sdb.Context, q *ast.Query, parent sdb.Row) ([]sdb.Value, error) {
	return f.results, nil
}

func TestEvalSubqueryReturnsArrayOfResults(t *testing.T) {
	env := &Env{Subquery: fakeSubqueryExecutor{results: []sdb.Value{sdb.IntValue(1), sdb.IntValue(2)}}}
	v, err := Eval(evalCtx(), env, sdb.NewRow(), ast.Subquery{Query: &ast.Query{}})
	require.NoError(t, err)
	assert.Len(t, v.AsArray(), 2)
}

func TestEvalTernary(t *testing.T) {
	trueExpr := ast.Ternary{
		Cond: ast.Literal{Value: sdb.BoolValue(true)},
		Then: ast.Literal{Value: sdb.StringValue("yes")},
		Else: ast.Literal{Value: sdb.StringValue("no")},
	}
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), trueExpr)
	require.NoError(t, err)
	assert.Equal(t, "yes", v.AsString())

	falseExpr := trueExpr
	falseExpr.Cond = ast.Literal{Value: sdb.BoolValue(false)}
	v, err = Eval(evalCtx(), &Env{}, sdb.NewRow(), falseExpr)
	require.NoError(t, err)
	assert.Equal(t, "no", v.AsString())
}

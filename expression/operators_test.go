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
	"testing"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(v sdb.Value) ast.Expr { return ast.Literal{Value: v} }

func binOp(op ast.BinOp, l, r sdb.Value) ast.BinaryOp {
	return ast.BinaryOp{Op: op, Left: lit(l), Right: lit(r)}
}

func TestEvalUnaryNot(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.UnaryOp{Op: ast.OpNot, Operand: lit(sdb.BoolValue(false))})
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalUnaryNegInt(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.UnaryOp{Op: ast.OpNeg, Operand: lit(sdb.IntValue(5))})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v.Int64())
}

func TestEvalUnaryNegNonNumberErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.UnaryOp{Op: ast.OpNeg, Operand: lit(sdb.StringValue("x"))})
	require.Error(t, err)
	assert.True(t, sdb.ErrTypeMismatch.Is(err))
}

func TestEvalUnaryBitNot(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), ast.UnaryOp{Op: ast.OpBitNot, Operand: lit(sdb.IntValue(0))})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v.Int64())
}

func TestEvalBinaryAndShortCircuits(t *testing.T) {
	row := sdb.NewRow()
	expr := ast.BinaryOp{Op: ast.OpAnd, Left: lit(sdb.BoolValue(false)), Right: ast.Var{Name: "unbound"}}
	v, err := Eval(evalCtx(), &Env{}, row, expr)
	require.NoError(t, err)
	assert.False(t, v.AsBool())
}

func TestEvalBinaryOrShortCircuits(t *testing.T) {
	row := sdb.NewRow()
	expr := ast.BinaryOp{Op: ast.OpOr, Left: lit(sdb.BoolValue(true)), Right: ast.Var{Name: "unbound"}}
	v, err := Eval(evalCtx(), &Env{}, row, expr)
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalAddConcatenatesStrings(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpAdd, sdb.StringValue("a"), sdb.StringValue("b")))
	require.NoError(t, err)
	assert.Equal(t, "ab", v.AsString())
}

func TestEvalAddMixedStringAndNumberErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpAdd, sdb.StringValue("a"), sdb.IntValue(1)))
	require.Error(t, err)
	assert.True(t, sdb.ErrTypeMismatch.Is(err))
}

func TestEvalArithIntStaysInt(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpAdd, sdb.IntValue(2), sdb.IntValue(3)))
	require.NoError(t, err)
	assert.True(t, v.IsInt())
	assert.Equal(t, int64(5), v.Int64())
}

func TestEvalArithMixedPromotesToFloat(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpAdd, sdb.IntValue(2), sdb.FloatValue(0.5)))
	require.NoError(t, err)
	assert.False(t, v.IsInt())
	assert.Equal(t, 2.5, v.Float64())
}

func TestEvalDivByZeroErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpDiv, sdb.IntValue(1), sdb.IntValue(0)))
	require.Error(t, err)
	assert.True(t, sdb.ErrDivisionByZero.Is(err))
}

func TestEvalDivExactIntResultStaysInt(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpDiv, sdb.IntValue(10), sdb.IntValue(2)))
	require.NoError(t, err)
	assert.True(t, v.IsInt())
	assert.Equal(t, int64(5), v.Int64())
}

func TestEvalDivInexactIntResultBecomesFloat(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpDiv, sdb.IntValue(10), sdb.IntValue(3)))
	require.NoError(t, err)
	assert.False(t, v.IsInt())
}

func TestEvalModByZeroErrors(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpMod, sdb.IntValue(1), sdb.IntValue(0)))
	require.Error(t, err)
	assert.True(t, sdb.ErrDivisionByZero.Is(err))
}

func TestEvalPow(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpPow, sdb.IntValue(2), sdb.IntValue(10)))
	require.NoError(t, err)
	assert.Equal(t, int64(1024), v.Int64())
}

func TestEvalComparisonOperators(t *testing.T) {
	row := sdb.NewRow()
	cases := []struct {
		op       ast.BinOp
		l, r     int64
		expected bool
	}{
		{ast.OpLt, 1, 2, true},
		{ast.OpLte, 2, 2, true},
		{ast.OpGt, 3, 2, true},
		{ast.OpGte, 2, 2, true},
		{ast.OpEq, 2, 2, true},
		{ast.OpNeq, 2, 3, true},
	}
	for _, c := range cases {
		v, err := Eval(evalCtx(), &Env{}, row, binOp(c.op, sdb.IntValue(c.l), sdb.IntValue(c.r)))
		require.NoError(t, err)
		assert.Equal(t, c.expected, v.AsBool())
	}
}

func TestEvalInOperator(t *testing.T) {
	expr := ast.BinaryOp{
		Op:    ast.OpIn,
		Left:  lit(sdb.StringValue("b")),
		Right: ast.ArrayLiteral{Elements: []ast.Expr{lit(sdb.StringValue("a")), lit(sdb.StringValue("b"))}},
	}
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), expr)
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalInOperatorRequiresArrayOnRight(t *testing.T) {
	_, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpIn, sdb.StringValue("a"), sdb.StringValue("b")))
	require.Error(t, err)
	assert.True(t, sdb.ErrTypeMismatch.Is(err))
}

func TestCompileLikeEscapesMetacharsAndMapsWildcards(t *testing.T) {
	re, err := CompileLike("a%b_c")
	require.NoError(t, err)
	assert.True(t, re.MatchString("aXXbYc"))
	assert.False(t, re.MatchString("aXXbYYc"))
}

func TestEvalLikeOperator(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpLike, sdb.StringValue("hello"), sdb.StringValue("h%")))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalNotLikeOperator(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpNotLike, sdb.StringValue("hello"), sdb.StringValue("z%")))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalRegexOperator(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpRegex, sdb.StringValue("hello123"), sdb.StringValue(`\d+`)))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestEvalRegexInvalidPatternReturnsFalse(t *testing.T) {
	v, err := Eval(evalCtx(), &Env{}, sdb.NewRow(), binOp(ast.OpRegex, sdb.StringValue("hello"), sdb.StringValue(`[`)))
	require.NoError(t, err)
	assert.False(t, v.AsBool())
}

func TestEvalBitwiseOperators(t *testing.T) {
	row := sdb.NewRow()
	v, err := Eval(evalCtx(), &Env{}, row, binOp(ast.OpBitAnd, sdb.IntValue(6), sdb.IntValue(3)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Int64())

	v, err = Eval(evalCtx(), &Env{}, row, binOp(ast.OpBitOr, sdb.IntValue(4), sdb.IntValue(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int64())

	v, err = Eval(evalCtx(), &Env{}, row, binOp(ast.OpShl, sdb.IntValue(1), sdb.IntValue(3)))
	require.NoError(t, err)
	assert.Equal(t, int64(8), v.Int64())
}

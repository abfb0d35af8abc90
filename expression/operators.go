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
	"regexp"
	"strings"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
)

func evalUnary(ctx *sdb.Context, env *Env, row sdb.Row, e ast.UnaryOp) (sdb.Value, error) {
	v, err := Eval(ctx, env, row, e.Operand)
	if err != nil {
		return sdb.NullValue(), err
	}
	switch e.Op {
	case ast.OpNot:
		return sdb.BoolValue(!v.Truthy()), nil
	case ast.OpNeg:
		if v.Kind() != sdb.Number {
			return sdb.NullValue(), sdb.ErrTypeMismatch.New("unary - requires a number")
		}
		if v.IsInt() {
			return sdb.IntValue(-v.Int64()), nil
		}
		return sdb.FloatValue(-v.Float64()), nil
	case ast.OpBitNot:
		if v.Kind() != sdb.Number {
			return sdb.NullValue(), sdb.ErrTypeMismatch.New("bitwise NOT requires a number")
		}
		return sdb.IntValue(^v.Int64()), nil
	}
	return sdb.NullValue(), sdb.ErrInternal.New("unknown unary operator")
}

// evalBinary implements the arithmetic/comparison/logical/membership/
// pattern/regex/bitwise operators from spec §4.1/§4.2.
func evalBinary(ctx *sdb.Context, env *Env, row sdb.Row, e ast.BinaryOp) (sdb.Value, error) {
	// AND/OR short-circuit before the right operand is evaluated.
	if e.Op == ast.OpAnd || e.Op == ast.OpOr {
		l, err := Eval(ctx, env, row, e.Left)
		if err != nil {
			return sdb.NullValue(), err
		}
		if e.Op == ast.OpAnd && !l.Truthy() {
			return sdb.BoolValue(false), nil
		}
		if e.Op == ast.OpOr && l.Truthy() {
			return sdb.BoolValue(true), nil
		}
		r, err := Eval(ctx, env, row, e.Right)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.BoolValue(r.Truthy()), nil
	}

	l, err := Eval(ctx, env, row, e.Left)
	if err != nil {
		return sdb.NullValue(), err
	}
	r, err := Eval(ctx, env, row, e.Right)
	if err != nil {
		return sdb.NullValue(), err
	}

	switch e.Op {
	case ast.OpAdd:
		return evalAdd(l, r)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		return evalArith(e.Op, l, r)
	case ast.OpEq:
		return sdb.BoolValue(sdb.Equal(l, r)), nil
	case ast.OpNeq:
		return sdb.BoolValue(!sdb.Equal(l, r)), nil
	case ast.OpLt:
		return sdb.BoolValue(sdb.Compare(l, r) < 0), nil
	case ast.OpLte:
		return sdb.BoolValue(sdb.Compare(l, r) <= 0), nil
	case ast.OpGt:
		return sdb.BoolValue(sdb.Compare(l, r) > 0), nil
	case ast.OpGte:
		return sdb.BoolValue(sdb.Compare(l, r) >= 0), nil
	case ast.OpIn:
		return evalIn(l, r)
	case ast.OpLike, ast.OpNotLike:
		return evalLike(e.Op, l, r)
	case ast.OpRegex, ast.OpNotRegex:
		return evalRegex(e.Op, l, r)
	case ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor, ast.OpShl, ast.OpShr:
		return evalBitwise(e.Op, l, r)
	}
	return sdb.NullValue(), sdb.ErrInternal.New("unknown binary operator")
}

// evalAdd implements spec §4.2: "+ concatenates strings; others fail".
func evalAdd(l, r sdb.Value) (sdb.Value, error) {
	if l.Kind() == sdb.String || r.Kind() == sdb.String {
		if l.Kind() != sdb.String || r.Kind() != sdb.String {
			return sdb.NullValue(), sdb.ErrTypeMismatch.New("+ requires both operands to be strings when either is a string")
		}
		return sdb.StringValue(l.AsString() + r.AsString()), nil
	}
	return evalArith(ast.OpAdd, l, r)
}

func evalArith(op ast.BinOp, l, r sdb.Value) (sdb.Value, error) {
	if l.Kind() != sdb.Number || r.Kind() != sdb.Number {
		return sdb.NullValue(), sdb.ErrTypeMismatch.New("arithmetic requires numeric operands")
	}
	bothInt := l.IsInt() && r.IsInt()
	switch op {
	case ast.OpAdd:
		if bothInt {
			return sdb.IntValue(l.Int64() + r.Int64()), nil
		}
		return sdb.FloatValue(l.Float64() + r.Float64()), nil
	case ast.OpSub:
		if bothInt {
			return sdb.IntValue(l.Int64() - r.Int64()), nil
		}
		return sdb.FloatValue(l.Float64() - r.Float64()), nil
	case ast.OpMul:
		if bothInt {
			return sdb.IntValue(l.Int64() * r.Int64()), nil
		}
		return sdb.FloatValue(l.Float64() * r.Float64()), nil
	case ast.OpDiv:
		if r.Float64() == 0 {
			return sdb.NullValue(), sdb.ErrDivisionByZero.New()
		}
		if bothInt && l.Int64()%r.Int64() == 0 {
			return sdb.IntValue(l.Int64() / r.Int64()), nil
		}
		return sdb.FloatValue(l.Float64() / r.Float64()), nil
	case ast.OpMod:
		if r.Float64() == 0 {
			return sdb.NullValue(), sdb.ErrDivisionByZero.New()
		}
		if bothInt {
			return sdb.IntValue(l.Int64() % r.Int64()), nil
		}
		return sdb.FloatValue(modFloat(l.Float64(), r.Float64())), nil
	case ast.OpPow:
		return sdb.FloatValue(powFloat(l.Float64(), r.Float64())), nil
	}
	return sdb.NullValue(), sdb.ErrInternal.New("unknown arithmetic operator")
}

func evalIn(l, r sdb.Value) (sdb.Value, error) {
	if r.Kind() != sdb.Array {
		return sdb.NullValue(), sdb.ErrTypeMismatch.New("IN requires an array on the right")
	}
	for _, v := range r.AsArray() {
		if sdb.Equal(l, v) {
			return sdb.BoolValue(true), nil
		}
	}
	return sdb.BoolValue(false), nil
}

// CompileLike compiles a LIKE pattern by escaping regex metacharacters
// and mapping %->.*, _->., anchored at both ends, per spec §4.2.
func CompileLike(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func evalLike(op ast.BinOp, l, r sdb.Value) (sdb.Value, error) {
	if l.Kind() != sdb.String || r.Kind() != sdb.String {
		return sdb.NullValue(), sdb.ErrTypeMismatch.New("LIKE requires string operands")
	}
	re, err := CompileLike(r.AsString())
	if err != nil {
		return sdb.BoolValue(false), nil
	}
	match := re.MatchString(l.AsString())
	if op == ast.OpNotLike {
		match = !match
	}
	return sdb.BoolValue(match), nil
}

func evalRegex(op ast.BinOp, l, r sdb.Value) (sdb.Value, error) {
	if l.Kind() != sdb.String || r.Kind() != sdb.String {
		return sdb.NullValue(), sdb.ErrTypeMismatch.New("REGEX requires string operands")
	}
	re, err := regexp.Compile(r.AsString())
	if err != nil {
		// Invalid regex yields false, per spec §4.2.
		return sdb.BoolValue(op == ast.OpNotRegex), nil
	}
	match := re.MatchString(l.AsString())
	if op == ast.OpNotRegex {
		match = !match
	}
	return sdb.BoolValue(match), nil
}

func evalBitwise(op ast.BinOp, l, r sdb.Value) (sdb.Value, error) {
	if l.Kind() != sdb.Number || r.Kind() != sdb.Number {
		return sdb.NullValue(), sdb.ErrTypeMismatch.New("bitwise operators require numeric operands")
	}
	li, ri := l.Int64(), r.Int64()
	switch op {
	case ast.OpBitAnd:
		return sdb.IntValue(li & ri), nil
	case ast.OpBitOr:
		return sdb.IntValue(li | ri), nil
	case ast.OpBitXor:
		return sdb.IntValue(li ^ ri), nil
	case ast.OpShl:
		return sdb.IntValue(li << uint(ri)), nil
	case ast.OpShr:
		return sdb.IntValue(li >> uint(ri)), nil
	}
	return sdb.NullValue(), sdb.ErrInternal.New("unknown bitwise operator")
}

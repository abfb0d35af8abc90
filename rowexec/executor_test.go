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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
)

func TestRunOverArrayLiteralWithFilterAndReturn(t *testing.T) {
	ex, _ := newTestExecutor(t)
	q := &ast.Query{
		Body: []ast.Clause{
			ast.ForClause{Var: "n", Source: ast.ArrayLiteral{Elements: []ast.Expr{
				ast.Literal{Value: sdb.IntValue(1)},
				ast.Literal{Value: sdb.IntValue(2)},
				ast.Literal{Value: sdb.IntValue(3)},
			}}},
			ast.FilterClause{Expr: ast.BinaryOp{Op: ast.OpGte, Left: ast.Var{Name: "n"}, Right: ast.Literal{Value: sdb.IntValue(2)}}},
		},
		Return: ast.Var{Name: "n"},
	}
	res, err := ex.Run(rowexecCtx(), q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(2), res.Rows[0].Int64())
	assert.Equal(t, int64(3), res.Rows[1].Int64())
}

func TestRunSortAndLimit(t *testing.T) {
	ex, _ := newTestExecutor(t)
	q := &ast.Query{
		Body: []ast.Clause{
			ast.ForClause{Var: "n", Source: ast.ArrayLiteral{Elements: []ast.Expr{
				ast.Literal{Value: sdb.IntValue(3)},
				ast.Literal{Value: sdb.IntValue(1)},
				ast.Literal{Value: sdb.IntValue(2)},
			}}},
		},
		Sort:   []ast.SortKey{{Expr: ast.Var{Name: "n"}, Ascending: true}},
		Limit:  ast.Literal{Value: sdb.IntValue(2)},
		Return: ast.Var{Name: "n"},
	}
	res, err := ex.Run(rowexecCtx(), q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(1), res.Rows[0].Int64())
	assert.Equal(t, int64(2), res.Rows[1].Int64())
}

func TestRunLetBindingVisibleInReturn(t *testing.T) {
	ex, _ := newTestExecutor(t)
	q := &ast.Query{
		Lets:   []ast.LetBinding{{Var: "x", Expr: ast.Literal{Value: sdb.IntValue(41)}}},
		Return: ast.BinaryOp{Op: ast.OpAdd, Left: ast.Var{Name: "x"}, Right: ast.Literal{Value: sdb.IntValue(1)}},
	}
	res, err := ex.Run(rowexecCtx(), q)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(42), res.Rows[0].Int64())
}

func TestRunForSourceMustBeArrayOrCollection(t *testing.T) {
	ex, _ := newTestExecutor(t)
	q := &ast.Query{
		Body: []ast.Clause{
			ast.ForClause{Var: "n", Source: ast.Literal{Value: sdb.IntValue(1)}},
		},
		Return: ast.Var{Name: "n"},
	}
	_, err := ex.Run(rowexecCtx(), q)
	require.Error(t, err)
	assert.True(t, sdb.ErrTypeMismatch.Is(err))
}

func TestRunInsertThenScanCollection(t *testing.T) {
	ex, _ := newTestExecutor(t)
	ctx := rowexecCtx()

	insertQ := &ast.Query{
		Body: []ast.Clause{
			ast.InsertClause{Into: "users", Doc: ast.ObjectLiteral{Fields: []ast.ObjectField{
				{Key: "name", Value: ast.Literal{Value: sdb.StringValue("alice")}},
			}}},
		},
	}
	res, err := ex.Run(ctx, insertQ)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Counters.Inserted)

	scanQ := &ast.Query{
		Body: []ast.Clause{
			ast.ForClause{Var: "doc", Source: ast.CollectionSource{Name: "users"}},
		},
		Return: ast.FieldAccess{Base: ast.Var{Name: "doc"}, Field: "name"},
	}
	res, err = ex.Run(ctx, scanQ)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "alice", res.Rows[0].AsString())
}

func TestExecuteSubqueryRunsWithParentAsStartingRow(t *testing.T) {
	ex, _ := newTestExecutor(t)
	ctx := rowexecCtx()
	parent := sdb.NewRow().With("outer", sdb.IntValue(10))

	q := &ast.Query{Return: ast.Var{Name: "outer"}}
	vals, err := ex.ExecuteSubquery(ctx, q, parent)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, int64(10), vals[0].Int64())
}

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

// Package expression implements the pure expression evaluator described
// in spec §4.2: a function of (expression, binding context) -> Value or
// failure, with no side effects and no knowledge of the pipeline that
// surrounds it.
package expression

import (
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/sdb"
)

// SubqueryExecutor runs a nested Query with the current row as parent
// scope and returns its projected RETURN values as an array (empty
// array if the subquery has no RETURN), per spec §4.2. Defined here
// rather than implemented here to avoid a package cycle: rowexec
// implements this interface and injects itself into Env.
type SubqueryExecutor interface {
	ExecuteSubquery(ctx *sdb.Context, q *ast.Query, parent sdb.Row) ([]sdb.Value, error)
}

// Env is the evaluator's dependency set: the function registry and the
// subquery executor. Both are optional from the evaluator's point of
// view (a nil Functions/Subquery causes an error only if actually
// exercised), which keeps unit tests of pure expressions lightweight.
type Env struct {
	Functions sdb.FunctionRegistry
	CallEnv   *sdb.CallEnv
	Subquery  SubqueryExecutor
}

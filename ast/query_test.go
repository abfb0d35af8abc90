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

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredBindParamsCollectsFromEveryClause(t *testing.T) {
	q := &Query{
		Lets: []LetBinding{{Var: "threshold", Expr: BindVar{Name: "min"}}},
		Body: []Clause{
			ForClause{Var: "u", Source: CollectionSource{Name: "users"}},
			FilterClause{Expr: BinaryOp{Op: OpGt, Left: Var{Name: "u"}, Right: BindVar{Name: "min"}}},
		},
		Return: BinaryOp{Op: OpEq, Left: Var{Name: "u"}, Right: BindVar{Name: "target"}},
	}

	names := q.RequiredBindParams()
	assert.Equal(t, []string{"min", "target"}, names)
}

func TestRequiredBindParamsDedupesRepeatedNames(t *testing.T) {
	q := &Query{
		Body: []Clause{
			FilterClause{Expr: BinaryOp{Op: OpEq, Left: BindVar{Name: "x"}, Right: BindVar{Name: "x"}}},
		},
	}
	assert.Equal(t, []string{"x"}, q.RequiredBindParams())
}

func TestRequiredBindParamsEmptyWhenNoneReferenced(t *testing.T) {
	q := &Query{Return: Literal{}}
	assert.Empty(t, q.RequiredBindParams())
}

func TestRequiredBindParamsFromSortLimitOffset(t *testing.T) {
	q := &Query{
		Sort:   []SortKey{{Expr: BindVar{Name: "sortKey"}, Ascending: true}},
		Limit:  BindVar{Name: "limitParam"},
		Offset: BindVar{Name: "offsetParam"},
	}
	names := q.RequiredBindParams()
	assert.ElementsMatch(t, []string{"sortKey", "limitParam", "offsetParam"}, names)
}

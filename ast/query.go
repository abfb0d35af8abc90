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

// JoinType enumerates the join semantics named in spec §4.4.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFullOuter
)

// Direction enumerates graph traversal edge directions (spec §4.6).
type Direction int

const (
	Outbound Direction = iota
	Inbound
	AnyDirection
)

// SortKey is one element of a SORT clause's key tuple.
type SortKey struct {
	Expr      Expr
	Ascending bool
}

// LetBinding is a top-level LET evaluated once before the main
// pipeline, per spec §4.1.
type LetBinding struct {
	Var  string
	Expr Expr
}

// Clause is any SDBQL body clause (spec §4.1).
type Clause interface {
	clauseNode()
}

type ForClause struct {
	Var    string
	Source Expr
}

type LetClause struct {
	Var  string
	Expr Expr
}

type FilterClause struct{ Expr Expr }

type JoinClause struct {
	Var        string
	Collection string
	Condition  Expr
	Type       JoinType
}

// AggregateSpec is one COLLECT ... AGGREGATE entry: Var = Func(Arg).
type AggregateSpec struct {
	Var  string
	Func string
	Arg  Expr
}

// CollectGroup is one COLLECT group-key entry: Var = Expr.
type CollectGroup struct {
	Var  string
	Expr Expr
}

type CollectClause struct {
	Groups     []CollectGroup
	Into       *string
	CountVar   *string
	Aggregates []AggregateSpec
}

type InsertClause struct {
	Doc  Expr
	Into string
}

// Selector is either a literal key expression or an object expression
// carrying "_key"/"_id", per spec §4.8.
type UpdateClause struct {
	Selector Expr
	Changes  Expr
	In       string
}

type RemoveClause struct {
	Selector Expr
	In       string
}

type UpsertClause struct {
	Search Expr
	Insert Expr
	Update Expr
	In     string
}

type GraphTraversalClause struct {
	Start          Expr
	EdgeCollection string
	MinDepth       int
	MaxDepth       int
	Direction      Direction
	VertexVar      string
	EdgeVar        *string
}

type ShortestPathClause struct {
	Start          Expr
	End            Expr
	EdgeCollection string
	Direction      Direction
	VertexVar      string
	EdgeVar        *string
}

// WindowClause introduces a named window spec usable by window
// function calls later in RETURN (SPEC_FULL window supplement).
type WindowClause struct {
	Name string
	Spec WindowSpec
}

func (ForClause) clauseNode()           {}
func (LetClause) clauseNode()           {}
func (FilterClause) clauseNode()        {}
func (JoinClause) clauseNode()          {}
func (CollectClause) clauseNode()       {}
func (InsertClause) clauseNode()        {}
func (UpdateClause) clauseNode()        {}
func (RemoveClause) clauseNode()        {}
func (UpsertClause) clauseNode()        {}
func (GraphTraversalClause) clauseNode() {}
func (ShortestPathClause) clauseNode()  {}
func (WindowClause) clauseNode()        {}

// Query is a full SDBQL query: top-level LET bindings, an ordered list
// of body clauses, and optional SORT/LIMIT/RETURN, per spec §4.1.
type Query struct {
	Lets   []LetBinding
	Body   []Clause
	Sort   []SortKey
	Offset Expr
	Limit  Expr
	Return Expr
}

// RequiredBindParams returns every "@name" referenced anywhere in the
// query, used by Engine.QueryWithBindings to validate bind parameters
// up front (SPEC_FULL supplemented feature).
func (q *Query) RequiredBindParams() []string {
	seen := map[string]bool{}
	var names []string
	record := func(e Expr) bool {
		if bv, ok := e.(BindVar); ok {
			if !seen[bv.Name] {
				seen[bv.Name] = true
				names = append(names, bv.Name)
			}
		}
		return true
	}
	for _, l := range q.Lets {
		Walk(l.Expr, record)
	}
	for _, c := range q.Body {
		walkClauseExprs(c, record)
	}
	if q.Return != nil {
		Walk(q.Return, record)
	}
	for _, s := range q.Sort {
		Walk(s.Expr, record)
	}
	if q.Offset != nil {
		Walk(q.Offset, record)
	}
	if q.Limit != nil {
		Walk(q.Limit, record)
	}
	return names
}

func walkClauseExprs(c Clause, visit func(Expr) bool) {
	switch cl := c.(type) {
	case ForClause:
		Walk(cl.Source, visit)
	case LetClause:
		Walk(cl.Expr, visit)
	case FilterClause:
		Walk(cl.Expr, visit)
	case JoinClause:
		Walk(cl.Condition, visit)
	case CollectClause:
		for _, g := range cl.Groups {
			Walk(g.Expr, visit)
		}
		for _, a := range cl.Aggregates {
			Walk(a.Arg, visit)
		}
	case InsertClause:
		Walk(cl.Doc, visit)
	case UpdateClause:
		Walk(cl.Selector, visit)
		Walk(cl.Changes, visit)
	case RemoveClause:
		Walk(cl.Selector, visit)
	case UpsertClause:
		Walk(cl.Search, visit)
		Walk(cl.Insert, visit)
		Walk(cl.Update, visit)
	case GraphTraversalClause:
		Walk(cl.Start, visit)
	case ShortestPathClause:
		Walk(cl.Start, visit)
		Walk(cl.End, visit)
	case WindowClause:
		for _, p := range cl.Spec.PartitionBy {
			Walk(p, visit)
		}
		for _, o := range cl.Spec.OrderBy {
			Walk(o.Expr, visit)
		}
	}
}

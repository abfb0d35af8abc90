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
	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/expression"
	"github.com/solisdb/solisdb/sdb"
)

// edge is one adjacency-list entry built from an edge document: the
// neighbor vertex id reached by following it in the requested
// direction, plus the edge document itself.
type edge struct {
	neighbor string
	doc      sdb.Value
}

// buildAdjacency scans every document in the edge collection once and
// indexes it by originating vertex id for the requested direction.
// This is a full scan rather than an index probe because the storage
// contract (spec §6) has no edge-specific index kind; a sharded edge
// collection would instead route through ScatterGatherScan, exactly
// like any other FOR source.
func (ex *Executor) buildAdjacency(ctx *sdb.Context, edgeCollection string, dir ast.Direction) (map[string][]edge, error) {
	values, err := ex.scanCollection(ctx, edgeCollection)
	if err != nil {
		return nil, err
	}
	adj := map[string][]edge{}
	add := func(from, to string, doc sdb.Value) {
		adj[from] = append(adj[from], edge{neighbor: to, doc: doc})
	}
	for _, v := range values {
		if v.Kind() != sdb.Obj {
			continue
		}
		fromV, _ := v.AsObject().Get("_from")
		toV, _ := v.AsObject().Get("_to")
		from, to := fromV.AsString(), toV.AsString()
		switch dir {
		case ast.Outbound:
			add(from, to, v)
		case ast.Inbound:
			add(to, from, v)
		case ast.AnyDirection:
			add(from, to, v)
			add(to, from, v)
		}
	}
	return adj, nil
}

// applyGraphTraversal implements bounded-depth BFS traversal from a
// start vertex, per spec §4.6: vertices are deduplicated by id so a
// cycle is visited at most once, and only depths within
// [MinDepth, MaxDepth] are emitted.
func (ex *Executor) applyGraphTraversal(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.GraphTraversalClause) ([]sdb.Row, error) {
	adj, err := ex.buildAdjacency(ctx, c.EdgeCollection, c.Direction)
	if err != nil {
		return nil, err
	}

	var out []sdb.Row
	for _, row := range rows {
		startV, err := expression.Eval(ctx, env, row, c.Start)
		if err != nil {
			return nil, err
		}
		startID := startV.AsString()

		visited := map[string]bool{startID: true}
		type frontierItem struct {
			id    string
			depth int
		}
		frontier := []frontierItem{{id: startID, depth: 0}}

		for len(frontier) > 0 && frontier[0].depth < c.MaxDepth {
			var next []frontierItem
			for _, f := range frontier {
				for _, e := range adj[f.id] {
					if visited[e.neighbor] {
						continue
					}
					visited[e.neighbor] = true
					depth := f.depth + 1
					next = append(next, frontierItem{id: e.neighbor, depth: depth})
					if depth < c.MinDepth {
						continue
					}
					vertexDoc, err := ex.lookupVertex(ctx, e.neighbor)
					if err != nil {
						return nil, err
					}
					r := row.With(c.VertexVar, vertexDoc)
					if c.EdgeVar != nil {
						r = r.With(*c.EdgeVar, e.doc)
					}
					out = append(out, r)
				}
			}
			frontier = next
		}
	}
	return out, nil
}

func (ex *Executor) lookupVertex(ctx *sdb.Context, id string) (sdb.Value, error) {
	collName, key, ok := sdb.SplitID(id)
	if !ok {
		return sdb.StringValue(id), nil
	}
	coll, err := ex.collection(ctx, collName)
	if err != nil {
		return sdb.NullValue(), nil
	}
	doc, found, err := coll.Get(ctx, key)
	if err != nil {
		return sdb.NullValue(), err
	}
	if !found {
		return sdb.NullValue(), nil
	}
	return doc.ToValue(), nil
}

// applyShortestPath implements unweighted BFS shortest-path search,
// reconstructing the path from parent pointers once the end vertex is
// reached (spec §4.6). Produces at most one row per input row: none if
// no path exists.
func (ex *Executor) applyShortestPath(ctx *sdb.Context, env *expression.Env, rows []sdb.Row, c ast.ShortestPathClause) ([]sdb.Row, error) {
	adj, err := ex.buildAdjacency(ctx, c.EdgeCollection, c.Direction)
	if err != nil {
		return nil, err
	}

	var out []sdb.Row
	for _, row := range rows {
		startV, err := expression.Eval(ctx, env, row, c.Start)
		if err != nil {
			return nil, err
		}
		endV, err := expression.Eval(ctx, env, row, c.End)
		if err != nil {
			return nil, err
		}
		start, end := startV.AsString(), endV.AsString()

		path, edges, found := bfsShortestPath(adj, start, end)
		if !found {
			continue
		}

		vertexValues := make([]sdb.Value, len(path))
		for i, id := range path {
			v, err := ex.lookupVertex(ctx, id)
			if err != nil {
				return nil, err
			}
			vertexValues[i] = v
		}

		r := row.With(c.VertexVar, sdb.ArrayValue(vertexValues))
		if c.EdgeVar != nil {
			r = r.With(*c.EdgeVar, sdb.ArrayValue(edges))
		}
		out = append(out, r)
	}
	return out, nil
}

func bfsShortestPath(adj map[string][]edge, start, end string) ([]string, []sdb.Value, bool) {
	if start == end {
		return []string{start}, nil, true
	}
	type parentLink struct {
		id   string
		edge sdb.Value
	}
	parents := map[string]parentLink{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range adj[cur] {
			if _, seen := parents[e.neighbor]; seen {
				continue
			}
			parents[e.neighbor] = parentLink{id: cur, edge: e.doc}
			if e.neighbor == end {
				var path []string
				var edges []sdb.Value
				for at := end; at != start; {
					link := parents[at]
					path = append([]string{at}, path...)
					edges = append([]sdb.Value{link.edge}, edges...)
					at = link.id
				}
				path = append([]string{start}, path...)
				return path, edges, true
			}
			queue = append(queue, e.neighbor)
		}
	}
	return nil, nil, false
}

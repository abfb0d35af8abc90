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

// Package solisdb wires the SDBQL parser, planner and pipeline
// executor into the single entry point embedders use: Engine.
package solisdb

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/solisdb/solisdb/ast"
	"github.com/solisdb/solisdb/parse"
	"github.com/solisdb/solisdb/plan"
	"github.com/solisdb/solisdb/rowexec"
	"github.com/solisdb/solisdb/sdb"
)

// Config holds engine-wide behavior knobs layered over sdb.Runtime's
// own tuning fields (those govern planner/executor internals; Config
// governs the engine's surface behavior).
type Config struct {
	// IsReadOnly rejects any query containing an INSERT, UPDATE,
	// REMOVE or UPSERT clause before it reaches the planner.
	IsReadOnly bool
}

// Engine is the top-level entry point: parse, validate bind
// parameters, and run through the rule-based planner (spec §4.5),
// falling back to the pipeline executor (spec §4.4).
type Engine struct {
	rt      *sdb.Runtime
	planner *plan.Planner
	cfg     Config
	logger  *logrus.Entry
}

// New builds an Engine over rt, filling in rt's own zero-valued tuning
// fields via Runtime.Defaults().
func New(rt *sdb.Runtime, cfg Config) *Engine {
	rt = rt.Defaults()
	return &Engine{
		rt:      rt,
		planner: plan.New(rt),
		cfg:     cfg,
		logger:  logrus.NewEntry(logrus.StandardLogger()),
	}
}

// NewDefault builds an Engine with default Config (read-write).
func NewDefault(rt *sdb.Runtime) *Engine {
	return New(rt, Config{})
}

// Query parses and runs src with whatever bind parameters are already
// attached to ctx (via sdb.WithBindParams).
func (e *Engine) Query(ctx *sdb.Context, src string) (*rowexec.Result, error) {
	return e.run(ctx, src)
}

// QueryWithBindings parses src and runs it with bind substituted for
// ctx's existing bind parameters, per spec §3 ("bind parameters are
// frozen at execution start").
func (e *Engine) QueryWithBindings(ctx *sdb.Context, src string, bind map[string]sdb.Value) (*rowexec.Result, error) {
	bound := *ctx
	bound.Bind = bind
	return e.run(&bound, src)
}

// RunQuery implements shard.QueryRunner, the narrow surface the
// inbound cursor HTTP endpoint needs to execute a query dispatched by
// a peer node's coordinator (spec §6). Mutation counters aren't part
// of that wire contract, so only the projected rows are returned.
func (e *Engine) RunQuery(ctx *sdb.Context, database, query string) ([]sdb.Value, error) {
	scoped := *ctx
	scoped.Database = database
	res, err := e.run(&scoped, query)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

func (e *Engine) run(ctx *sdb.Context, src string) (*rowexec.Result, error) {
	q, err := parse.Parse(src)
	if err != nil {
		return nil, sdb.ErrQueryParse.New(err.Error())
	}

	if e.cfg.IsReadOnly {
		if clause, ok := firstMutatingClause(q); ok {
			return nil, sdb.ErrReadOnly.New(clause)
		}
	}

	for _, name := range q.RequiredBindParams() {
		if _, ok := ctx.BindValue(name); !ok {
			return nil, sdb.ErrMissingBindParam.New(name)
		}
	}

	res, err := e.planner.Run(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "query execution failed")
	}
	return res, nil
}

// firstMutatingClause reports the first write clause found in q's
// body, for Config.IsReadOnly enforcement.
func firstMutatingClause(q *ast.Query) (string, bool) {
	for _, c := range q.Body {
		switch c.(type) {
		case ast.InsertClause:
			return "INSERT", true
		case ast.UpdateClause:
			return "UPDATE", true
		case ast.RemoveClause:
			return "REMOVE", true
		case ast.UpsertClause:
			return "UPSERT", true
		}
	}
	return "", false
}

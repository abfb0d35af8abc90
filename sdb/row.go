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

// Row is the binding context described in spec §3: a mapping from
// variable name to Value, used during pipeline evaluation. Variables
// introduced by a clause are visible only to later clauses in the same
// pipeline, which a Row models by being cloned (never mutated in
// place) whenever a clause fans a row out into several.
type Row map[string]Value

func NewRow() Row { return Row{} }

func (r Row) Clone() Row {
	c := make(Row, len(r)+2)
	for k, v := range r {
		c[k] = v
	}
	return c
}

// With returns a clone of r with var bound to v, leaving r untouched.
func (r Row) With(name string, v Value) Row {
	c := r.Clone()
	c[name] = v
	return c
}

func (r Row) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Counters tallies mutations applied during a query, per the query
// result envelope in spec §6.
type Counters struct {
	Inserted uint64
	Updated  uint64
	Removed  uint64
}

func (c *Counters) Add(o Counters) {
	c.Inserted += o.Inserted
	c.Updated += o.Updated
	c.Removed += o.Removed
}

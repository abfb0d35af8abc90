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

// Package sdb holds the core value model, document/collection contracts
// and execution context shared by every layer of the SDBQL engine: the
// AST, the expression evaluator, the function registry, the planner and
// the pipeline executor.
package sdb

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind tags the dynamic type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Obj
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Obj:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged variant described in spec §3: null, bool, a single
// numeric domain (integer or float), string, ordered array and an
// insertion-order-preserving object.
type Value struct {
	kind  Kind
	b     bool
	isInt bool
	i     int64
	f     float64
	s     string
	arr   []Value
	obj   *Object
}

func NullValue() Value           { return Value{kind: Null} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func IntValue(i int64) Value     { return Value{kind: Number, isInt: true, i: i} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func ArrayValue(vs []Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: Array, arr: vs}
}
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: Obj, obj: o}
}

// FloatValue normalizes a non-finite float to integer 0, per spec §3.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return IntValue(0)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return IntValue(int64(f))
	}
	return Value{kind: Number, isInt: false, f: f}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsBool() bool { return v.b }

func (v Value) IsInt() bool { return v.kind == Number && v.isInt }

// Float64 returns the value's numeric magnitude as a float64, regardless
// of whether it is internally stored as an integer or a float.
func (v Value) Float64() float64 {
	if !v.isInt {
		return v.f
	}
	return float64(v.i)
}

func (v Value) Int64() int64 {
	if v.isInt {
		return v.i
	}
	return int64(v.f)
}

func (v Value) AsString() string { return v.s }
func (v Value) AsArray() []Value { return v.arr }
func (v Value) AsObject() *Object {
	if v.obj == nil {
		return NewObject()
	}
	return v.obj
}

func (v Value) TypeName() string {
	switch v.kind {
	case Number:
		if v.isInt {
			return "integer"
		}
		return "double"
	default:
		return v.kind.String()
	}
}

// Truthy implements the short-circuit logical truthiness rule from spec §4.2:
// null/false/0/""/[]/{} are false, everything else true.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Bool:
		return v.b
	case Number:
		return v.Float64() != 0
	case String:
		return v.s != ""
	case Array:
		return len(v.arr) > 0
	case Obj:
		return v.obj.Len() > 0
	}
	return false
}

func typeRank(k Kind) int {
	switch k {
	case Null:
		return 0
	case Bool:
		return 1
	case Number:
		return 2
	case String:
		return 3
	case Array:
		return 4
	case Obj:
		return 5
	}
	return 99
}

// Compare implements the total ordering from spec §3:
// null < bool < number < string < array < object.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return typeRank(a.kind) - typeRank(b.kind)
	}
	switch a.kind {
	case Null:
		return 0
	case Bool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case Number:
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case String:
		if a.s < b.s {
			return -1
		} else if a.s > b.s {
			return 1
		}
		return 0
	case Array:
		for i := 0; i < len(a.arr) && i < len(b.arr); i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return len(a.arr) - len(b.arr)
	case Obj:
		ak, bk := a.obj.Keys(), b.obj.Keys()
		sa, sb := append([]string{}, ak...), append([]string{}, bk...)
		sort.Strings(sa)
		sort.Strings(sb)
		for i := 0; i < len(sa) && i < len(sb); i++ {
			if sa[i] != sb[i] {
				if sa[i] < sb[i] {
					return -1
				}
				return 1
			}
			av, _ := a.obj.Get(sa[i])
			bv, _ := b.obj.Get(sb[i])
			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
		return len(sa) - len(sb)
	}
	return 0
}

// Equal treats an integer and a float of the same mathematical value as
// equal, per spec §3.
func Equal(a, b Value) bool {
	if a.kind == Number && b.kind == Number {
		return a.Float64() == b.Float64()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case String:
		return a.s == b.s
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Obj:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.Keys() {
			av, _ := a.obj.Get(k)
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// FromJSON converts a parsed encoding/json value (as produced by
// json.Unmarshal into interface{}) into a Value. Object key order is
// not preserved: encoding/json decodes objects into Go maps, so the
// resulting Object's keys follow map iteration order.
func FromJSON(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case float64:
		return FloatValue(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i)
		}
		f, _ := t.Float64()
		return FloatValue(f)
	case string:
		return StringValue(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromJSON(e)
		}
		return ArrayValue(out)
	case map[string]interface{}:
		o := NewObject()
		for k, e := range t {
			o.Set(k, FromJSON(e))
		}
		return ObjectValue(o)
	default:
		return NullValue()
	}
}

// ToJSON converts a Value into a plain interface{} tree suitable for
// encoding/json, applying the non-finite-float-to-zero rule at the
// boundary (already enforced at construction by FloatValue).
func (v Value) ToJSON() interface{} {
	switch v.kind {
	case Null:
		return nil
	case Bool:
		return v.b
	case Number:
		if v.isInt {
			return v.i
		}
		return v.f
	case String:
		return v.s
	case Array:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToJSON()
		}
		return out
	case Obj:
		out := make(map[string]interface{}, v.obj.Len())
		for _, k := range v.obj.Keys() {
			val, _ := v.obj.Get(k)
			out[k] = val.ToJSON()
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	b, _ := json.Marshal(v.ToJSON())
	return string(b)
}

func (v Value) GoString() string { return fmt.Sprintf("Value(%s)", v.String()) }

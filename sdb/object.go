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

// Object is an ordered mapping from string to Value, preserving
// insertion order as required by spec §3.
type Object struct {
	keys []string
	m    map[string]Value
}

func NewObject() *Object {
	return &Object{m: make(map[string]Value)}
}

func NewObjectFromPairs(pairs ...interface{}) *Object {
	o := NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		v, _ := pairs[i+1].(Value)
		o.Set(k, v)
	}
	return o
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.m[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

func (o *Object) Delete(key string) {
	if _, ok := o.m[key]; !ok {
		return
	}
	delete(o.m, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int { return len(o.keys) }

func (o *Object) Clone() *Object {
	c := &Object{
		keys: append([]string{}, o.keys...),
		m:    make(map[string]Value, len(o.m)),
	}
	for k, v := range o.m {
		c.m[k] = v
	}
	return c
}

// Merge shallow-merges src into a clone of o; keys in src win, matching
// spec §3's shallow-merge UPDATE semantics and the MERGE() function.
func (o *Object) Merge(src *Object) *Object {
	c := o.Clone()
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		c.Set(k, v)
	}
	return c
}

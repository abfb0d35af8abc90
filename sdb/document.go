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

import "strings"

// Document is a mapping with a required "_key" field, per spec §3. Its
// "_id" is implied as "<collection>/<_key>" and is materialized on
// demand by ToValue rather than stored.
type Document struct {
	Collection string
	Val        Value // kind Obj
}

func NewDocument(collection string, v Value) Document {
	return Document{Collection: collection, Val: v}
}

func (d Document) Key() string {
	v, ok := d.Val.AsObject().Get("_key")
	if !ok {
		return ""
	}
	return v.AsString()
}

func (d Document) ID() string {
	return d.Collection + "/" + d.Key()
}

// ToValue returns the document's value with "_id" materialized,
// leaving the stored object untouched.
func (d Document) ToValue() Value {
	o := d.Val.AsObject()
	if _, ok := o.Get("_id"); ok {
		return d.Val
	}
	c := o.Clone()
	// _id is appended after the existing fields; only the missing
	// field is added.
	c.Set("_id", StringValue(d.ID()))
	return ObjectValue(c)
}

func (d Document) From() string {
	v, _ := d.Val.AsObject().Get("_from")
	return v.AsString()
}

func (d Document) To() string {
	v, _ := d.Val.AsObject().Get("_to")
	return v.AsString()
}

// SplitID splits a "<collection>/<key>" document id.
func SplitID(id string) (collection, key string, ok bool) {
	i := strings.IndexByte(id, '/')
	if i < 0 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

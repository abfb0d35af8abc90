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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectSetPreservesInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("c", IntValue(3))
	o.Set("a", IntValue(1))
	o.Set("b", IntValue(2))

	assert.Equal(t, []string{"c", "a", "b"}, o.Keys())
}

func TestObjectSetOverwriteKeepsOriginalPosition(t *testing.T) {
	o := NewObject()
	o.Set("a", IntValue(1))
	o.Set("b", IntValue(2))
	o.Set("a", IntValue(99))

	assert.Equal(t, []string{"a", "b"}, o.Keys())
	v, ok := o.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(99), v.Int64())
}

func TestObjectDeleteRemovesFromKeysAndMap(t *testing.T) {
	o := NewObject()
	o.Set("a", IntValue(1))
	o.Set("b", IntValue(2))
	o.Delete("a")

	_, ok := o.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, o.Keys())
	assert.Equal(t, 1, o.Len())
}

func TestObjectDeleteMissingKeyIsNoop(t *testing.T) {
	o := NewObject()
	o.Set("a", IntValue(1))
	o.Delete("missing")
	assert.Equal(t, []string{"a"}, o.Keys())
}

func TestObjectCloneIsIndependent(t *testing.T) {
	o := NewObject()
	o.Set("a", IntValue(1))
	c := o.Clone()
	c.Set("b", IntValue(2))

	assert.Equal(t, 1, o.Len())
	assert.Equal(t, 2, c.Len())
}

func TestObjectMergeSrcWinsOnConflict(t *testing.T) {
	base := NewObject()
	base.Set("a", IntValue(1))
	base.Set("b", IntValue(2))

	patch := NewObject()
	patch.Set("b", IntValue(99))
	patch.Set("c", IntValue(3))

	merged := base.Merge(patch)
	bv, _ := merged.Get("b")
	assert.Equal(t, int64(99), bv.Int64())
	cv, _ := merged.Get("c")
	assert.Equal(t, int64(3), cv.Int64())

	_, hasC := base.Get("c")
	assert.False(t, hasC)
	assert.Equal(t, 2, base.Len())
}

func TestNewObjectFromPairs(t *testing.T) {
	o := NewObjectFromPairs("a", IntValue(1), "b", StringValue("x"))
	av, _ := o.Get("a")
	bv, _ := o.Get("b")
	assert.Equal(t, int64(1), av.Int64())
	assert.Equal(t, "x", bv.AsString())
}

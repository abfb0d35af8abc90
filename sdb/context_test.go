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
	"context"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextDefaultsToBackgroundAndGlobalTracer(t *testing.T) {
	c := NewContext(nil)
	require.NotNil(t, c.Context)
	require.NotNil(t, c.Logger)
	require.NotNil(t, c.Tracer)
	assert.Empty(t, c.Bind)
}

func TestNewContextAppliesOptions(t *testing.T) {
	tracer := mocktracer.New()
	entry := logrus.NewEntry(logrus.StandardLogger())
	bind := map[string]Value{"x": IntValue(1)}

	c := NewContext(context.Background(),
		WithDatabase("mydb"),
		WithBindParams(bind),
		WithLogger(entry),
		WithTracer(tracer),
	)

	assert.Equal(t, "mydb", c.Database)
	assert.Same(t, tracer, c.Tracer)
	v, ok := c.BindValue("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int64())
}

func TestBindValueMissingReturnsFalse(t *testing.T) {
	c := NewContext(context.Background())
	_, ok := c.BindValue("missing")
	assert.False(t, ok)
}

func TestWithLogFieldsDoesNotMutateOriginal(t *testing.T) {
	c := NewContext(context.Background())
	original := c.Logger
	c2 := c.WithLogFields(logrus.Fields{"query_id": "abc"})

	assert.Same(t, original, c.Logger)
	assert.NotSame(t, original, c2.Logger)
	assert.Equal(t, c.Database, c2.Database)
}

func TestWithGoContextSwapsEmbeddedContextOnly(t *testing.T) {
	c := NewContext(context.Background(), WithDatabase("mydb"))
	type key struct{}
	goCtx := context.WithValue(context.Background(), key{}, "v")

	c2 := c.WithGoContext(goCtx)
	assert.Equal(t, "v", c2.Value(key{}))
	assert.Equal(t, "mydb", c2.Database)
	assert.Nil(t, c.Value(key{}))
}

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
)

func TestPhysicalShardNameFollowsNamingConvention(t *testing.T) {
	assert.Equal(t, "orders_s0", PhysicalShardName("orders", 0))
	assert.Equal(t, "orders_s7", PhysicalShardName("orders", 7))
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "Insert", OpInsert.String())
	assert.Equal(t, "Update", OpUpdate.String())
	assert.Equal(t, "Delete", OpDelete.String())
	assert.Equal(t, "Unknown", Operation(99).String())
}

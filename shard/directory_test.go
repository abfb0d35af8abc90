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

package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solisdb/solisdb/sdb"
)

func TestNewDirectorySeedsSelfAddress(t *testing.T) {
	d := NewDirectory("node-1", 8529)
	assert.Equal(t, sdb.NodeID("node-1"), d.MyNodeID())

	hp, ok := d.GetNodeAPIAddress("node-1")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", hp.Host)
	assert.Equal(t, 8529, hp.Port)
}

func TestDirectoryGetUnknownNode(t *testing.T) {
	d := NewDirectory("node-1", 8529)
	_, ok := d.GetNodeAPIAddress("node-2")
	assert.False(t, ok)
}

func TestDirectorySetAndRemoveAddress(t *testing.T) {
	d := NewDirectory("node-1", 8529)
	d.mu.Lock()
	d.addresses["node-2"] = sdb.HostPort{Host: "10.0.0.2", Port: 8529}
	d.mu.Unlock()

	hp, ok := d.GetNodeAPIAddress("node-2")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", hp.Host)

	d.removeAddress("node-2")
	_, ok = d.GetNodeAPIAddress("node-2")
	assert.False(t, ok)
}

func TestDirectoryRemoveAddressNeverDropsSelf(t *testing.T) {
	d := NewDirectory("node-1", 8529)
	d.removeAddress("node-1")

	_, ok := d.GetNodeAPIAddress("node-1")
	assert.True(t, ok)
}

func TestDirectoryCloseWithoutJoinIsNoop(t *testing.T) {
	d := NewDirectory("node-1", 8529)
	assert.NoError(t, d.Close())
}

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

package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAML(t *testing.T) {
	src := `
cluster_secret: s3cr3t
cluster_scheme: https
insert_batch_threshold: 250
scatter_gather_timeout: 15s
`
	c, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", c.ClusterSecret)
	assert.Equal(t, "https", c.ClusterScheme)
	assert.Equal(t, 250, c.InsertBatchThreshold)
	assert.Equal(t, 15*time.Second, c.ScatterGatherTimeout)
}

func TestLoadFillsDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "http", c.ClusterScheme)
	assert.Equal(t, 100, c.InsertBatchThreshold)
	assert.Equal(t, 5000, c.BulkInsertBatchSize)
	assert.Equal(t, 10*time.Second, c.ScatterGatherTimeout)
	assert.Equal(t, 5*time.Second, c.ScatterGatherConnectTimeout)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(strings.NewReader("cluster_secret: [unterminated"))
	assert.Error(t, err)
}

func TestFromEnvOverlaysOnlySetVariables(t *testing.T) {
	os.Setenv(envClusterSecret, "env-secret")
	defer os.Unsetenv(envClusterSecret)

	c := Config{ClusterSecret: "file-secret", ClusterScheme: "https"}
	overlaid := FromEnv(c)
	assert.Equal(t, "env-secret", overlaid.ClusterSecret)
	assert.Equal(t, "https", overlaid.ClusterScheme)
}

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

// Package config defines the injected configuration record (spec §9):
// cluster secret, cluster scheme, batch thresholds and scatter-gather
// timeouts. It is loaded explicitly from a file or reader, never read
// from ambient process lookups inside engine code; only
// cmd/solisdbd's bootstrap reads the environment, via FromEnv.
package config

import (
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the full injected configuration record. Every field has a
// zero value that Defaults fills in, so a partially-specified file is
// valid.
type Config struct {
	// ClusterSecret is compared via shard.CheckClusterSecret against
	// every inbound X-Cluster-Secret header on a scatter-gather or
	// shard-direct request (spec §6/§9).
	ClusterSecret string `yaml:"cluster_secret"`
	// ClusterScheme is "http" or "https" for outbound inter-node calls
	// the shard coordinator makes.
	ClusterScheme string `yaml:"cluster_scheme"`

	// InsertBatchThreshold is the row-count threshold above which
	// INSERT/UPDATE/REMOVE switch to batch mode (spec §4.8).
	InsertBatchThreshold int `yaml:"insert_batch_threshold"`
	// BulkInsertBatchSize is the streaming bulk-insert batch size
	// (spec §4.5 rule 1).
	BulkInsertBatchSize int `yaml:"bulk_insert_batch_size"`
	// BulkInsertMinRange is the minimum FOR..IN range size that
	// qualifies for the streaming bulk-insert rewrite.
	BulkInsertMinRange int `yaml:"bulk_insert_min_range"`

	// ScatterGatherTimeout is the configured bound on a single
	// scatter-gather round trip to a peer node (spec §6). It is not
	// passed to shard.Coordinator, which applies its own fixed 10 s
	// total timeout.
	ScatterGatherTimeout time.Duration `yaml:"scatter_gather_timeout"`
	// ScatterGatherConnectTimeout is the configured bound on just the
	// connection phase of a scatter-gather round trip. It is not passed
	// to shard.Coordinator, which applies its own fixed 5 s connect
	// timeout.
	ScatterGatherConnectTimeout time.Duration `yaml:"scatter_gather_connect_timeout"`

	// StatsFlushInterval is how often a collection's index/fulltext
	// statistics are recomputed when throttled rather than on every
	// mutation (spec §9 open question, resolved as a tunable).
	StatsFlushInterval time.Duration `yaml:"stats_flush_interval"`
}

// Defaults returns a copy of c with every zero-valued field filled in.
func (c Config) Defaults() Config {
	if c.ClusterScheme == "" {
		c.ClusterScheme = "http"
	}
	if c.InsertBatchThreshold == 0 {
		c.InsertBatchThreshold = 100
	}
	if c.BulkInsertBatchSize == 0 {
		c.BulkInsertBatchSize = 5000
	}
	if c.BulkInsertMinRange == 0 {
		c.BulkInsertMinRange = 5000
	}
	if c.ScatterGatherTimeout == 0 {
		c.ScatterGatherTimeout = 10 * time.Second
	}
	if c.ScatterGatherConnectTimeout == 0 {
		c.ScatterGatherConnectTimeout = 5 * time.Second
	}
	if c.StatsFlushInterval == 0 {
		c.StatsFlushInterval = 5 * time.Second
	}
	return c
}

// Load parses a yaml configuration record from r.
func Load(r io.Reader) (Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: reading source")
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "config: parsing yaml")
	}
	return c.Defaults(), nil
}

// LoadFile opens and parses path as a yaml configuration record.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: opening %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Env population prefixes, used only by cmd/solisdbd at process
// bootstrap; the engine itself never calls os.Getenv (spec §9).
const (
	envClusterSecret = "SOLISDB_CLUSTER_SECRET"
	envClusterScheme = "SOLISDB_CLUSTER_SCHEME"
	envScatterGatherTimeout = "SOLISDB_SCATTER_GATHER_TIMEOUT"
)

// FromEnv overlays process-environment values onto c, for
// cmd/solisdbd's bootstrap path only. Unset variables leave the
// corresponding field untouched.
func FromEnv(c Config) Config {
	if v := os.Getenv(envClusterSecret); v != "" {
		c.ClusterSecret = v
	}
	if v := os.Getenv(envClusterScheme); v != "" {
		c.ClusterScheme = v
	}
	if v := os.Getenv(envScatterGatherTimeout); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			c.ScatterGatherTimeout = time.Duration(d) * time.Second
		}
	}
	return c
}

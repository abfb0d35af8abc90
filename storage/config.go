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

// Package storage holds configuration shared by every storage engine
// implementation (spec §6), independent of which one a Database is
// built from; package memory is the one implementation in this module.
package storage

import "time"

// DefaultStatsFlushInterval is how often a Collection recomputes the
// index/fulltext statistics BM25 and query planning consult, when
// FlushStatsThrottled is called on every mutation rather than on a
// fixed schedule. Resolved open question (spec §9): this is a
// performance tunable, not a correctness contract, so a collection
// that never throttles (interval 0) is also valid - just wasteful.
const DefaultStatsFlushInterval = 5 * time.Second

// Config carries the tunables a storage engine's collections are built
// with. It deliberately holds no connection strings or credentials:
// those belong to the process-level config described in SPEC_FULL §9,
// not to the storage contract itself.
type Config struct {
	StatsFlushInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.StatsFlushInterval == 0 {
		c.StatsFlushInterval = DefaultStatsFlushInterval
	}
	return c
}

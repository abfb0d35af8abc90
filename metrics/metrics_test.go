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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/solisdb/solisdb/sdb"
)

func TestRecorderImplementsInterface(t *testing.T) {
	var _ sdb.MetricsRecorder = NewRecorder(prometheus.NewRegistry())
}

func TestRecorderCountsObservations(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.RowsScanned("users", 5)
	r.RowsScanned("users", 3)
	assert.Equal(t, float64(8), testutil.ToFloat64(r.rowsScanned.WithLabelValues("users")))

	r.MutationApplied("insert", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(r.mutationsApplied.WithLabelValues("insert")))

	r.PlannerRuleHit("bulk_insert")
	r.PlannerRuleHit("bulk_insert")
	assert.Equal(t, float64(2), testutil.ToFloat64(r.plannerRuleHits.WithLabelValues("bulk_insert")))

	r.ShardRoundTrip("orders", true)
	r.ShardRoundTrip("orders", false)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.shardRoundTrips.WithLabelValues("orders", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.shardRoundTrips.WithLabelValues("orders", "false")))
}

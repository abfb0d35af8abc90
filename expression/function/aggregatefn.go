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

package function

import (
	"math"
	"sort"

	"github.com/solisdb/solisdb/sdb"
)

func registerAggregate(r *Registry) {
	r.Register("SUM", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "SUM")
		if err != nil {
			return sdb.NullValue(), err
		}
		sum := 0.0
		for _, n := range nums {
			sum += n
		}
		return sdb.FloatValue(sum), nil
	})

	r.Register("AVG", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "AVG")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(nums) == 0 {
			return sdb.NullValue(), nil
		}
		sum := 0.0
		for _, n := range nums {
			sum += n
		}
		return sdb.FloatValue(sum / float64(len(nums))), nil
	})

	r.Register("MIN", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "MIN")
		if err != nil {
			return sdb.NullValue(), err
		}
		return extremum(arr, true), nil
	})

	r.Register("MAX", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "MAX")
		if err != nil {
			return sdb.NullValue(), err
		}
		return extremum(arr, false), nil
	})

	r.Register("COUNT", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "COUNT")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(int64(len(arr))), nil
	})

	r.Register("COUNT_DISTINCT", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "COUNT_DISTINCT")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(int64(len(unique(arr)))), nil
	})

	r.Register("MEDIAN", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "MEDIAN")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(nums) == 0 {
			return sdb.NullValue(), nil
		}
		return sdb.FloatValue(percentile(nums, 50)), nil
	})

	r.Register("PERCENTILE", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "PERCENTILE")
		if err != nil {
			return sdb.NullValue(), err
		}
		p, err := requireNumber(a[1], "PERCENTILE")
		if err != nil {
			return sdb.NullValue(), err
		}
		if p < 0 || p > 100 {
			return argErr("PERCENTILE requires p in [0,100]")
		}
		if len(nums) == 0 {
			return sdb.NullValue(), nil
		}
		return sdb.FloatValue(percentile(nums, p)), nil
	})

	r.Register("VARIANCE_POPULATION", Fixed(1), varianceFn(false))
	r.Register("VARIANCE_SAMPLE", Fixed(1), varianceFn(true))
	r.Register("STDDEV_POPULATION", Fixed(1), stddevFn(false))
	r.Register("STDDEV_SAMPLE", Fixed(1), stddevFn(true))
}

func numericArray(v sdb.Value, what string) ([]float64, error) {
	arr, err := requireArray(v, what)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		if e.Kind() != sdb.Number {
			return nil, sdb.ErrTypeMismatch.New(what + " requires an array of numbers")
		}
		out = append(out, e.Float64())
	}
	return out, nil
}

func extremum(arr []sdb.Value, wantMin bool) sdb.Value {
	if len(arr) == 0 {
		return sdb.NullValue()
	}
	best := arr[0]
	for _, v := range arr[1:] {
		c := sdb.Compare(v, best)
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = v
		}
	}
	return best
}

func percentile(nums []float64, p float64) float64 {
	sorted := append([]float64{}, nums...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func variance(nums []float64, sample bool) float64 {
	n := float64(len(nums))
	if n == 0 || (sample && n < 2) {
		return 0
	}
	mean := 0.0
	for _, x := range nums {
		mean += x
	}
	mean /= n
	ss := 0.0
	for _, x := range nums {
		d := x - mean
		ss += d * d
	}
	if sample {
		return ss / (n - 1)
	}
	return ss / n
}

func varianceFn(sample bool) Fn {
	return func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "VARIANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(nums) == 0 {
			return sdb.NullValue(), nil
		}
		return sdb.FloatValue(variance(nums, sample)), nil
	}
}

func stddevFn(sample bool) Fn {
	return func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		nums, err := numericArray(a[0], "STDDEV")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(nums) == 0 {
			return sdb.NullValue(), nil
		}
		return sdb.FloatValue(math.Sqrt(variance(nums, sample))), nil
	}
}

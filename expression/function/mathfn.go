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
	"math/rand"

	"github.com/solisdb/solisdb/sdb"
)

func unaryMath(f func(float64) float64) Fn {
	return func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "argument")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.FloatValue(f(x)), nil
	}
}

func registerMath(r *Registry) {
	r.Register("ABS", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		if a[0].Kind() != sdb.Number {
			return argErr("ABS requires a number")
		}
		if a[0].IsInt() {
			v := a[0].Int64()
			if v < 0 {
				v = -v
			}
			return sdb.IntValue(v), nil
		}
		return sdb.FloatValue(math.Abs(a[0].Float64())), nil
	})

	r.Register("ROUND", Range(1, 2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "ROUND")
		if err != nil {
			return sdb.NullValue(), err
		}
		prec := optionalInt(a, 1, 0)
		mult := math.Pow(10, float64(prec))
		return sdb.FloatValue(math.Round(x*mult) / mult), nil
	})

	r.Register("FLOOR", Fixed(1), unaryMath(math.Floor))
	r.Register("CEIL", Fixed(1), unaryMath(math.Ceil))

	r.Register("SQRT", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "SQRT")
		if err != nil {
			return sdb.NullValue(), err
		}
		if x < 0 {
			return sdb.NullValue(), sdb.ErrInvalidArgument.New("SQRT of a negative number")
		}
		return sdb.FloatValue(math.Sqrt(x)), nil
	})

	r.Register("POW", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "POW")
		if err != nil {
			return sdb.NullValue(), err
		}
		y, err := requireNumber(a[1], "POW")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.FloatValue(math.Pow(x, y)), nil
	})

	r.Register("EXP", Fixed(1), unaryMath(math.Exp))
	r.Register("LN", Fixed(1), unaryMath(math.Log))
	r.Register("LOG", Fixed(1), unaryMath(math.Log))
	r.Register("LOG10", Fixed(1), unaryMath(math.Log10))
	r.Register("LOG2", Fixed(1), unaryMath(math.Log2))
	r.Register("SIN", Fixed(1), unaryMath(math.Sin))
	r.Register("COS", Fixed(1), unaryMath(math.Cos))
	r.Register("TAN", Fixed(1), unaryMath(math.Tan))
	r.Register("ASIN", Fixed(1), unaryMath(math.Asin))
	r.Register("ACOS", Fixed(1), unaryMath(math.Acos))
	r.Register("ATAN", Fixed(1), unaryMath(math.Atan))

	r.Register("ATAN2", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		y, err := requireNumber(a[0], "ATAN2")
		if err != nil {
			return sdb.NullValue(), err
		}
		x, err := requireNumber(a[1], "ATAN2")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.FloatValue(math.Atan2(y, x)), nil
	})

	r.Register("PI", Fixed(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.FloatValue(math.Pi), nil
	})

	r.Register("SIGN", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "SIGN")
		if err != nil {
			return sdb.NullValue(), err
		}
		switch {
		case x > 0:
			return sdb.IntValue(1), nil
		case x < 0:
			return sdb.IntValue(-1), nil
		default:
			return sdb.IntValue(0), nil
		}
	})

	r.Register("CLAMP", Fixed(3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "CLAMP")
		if err != nil {
			return sdb.NullValue(), err
		}
		lo, err := requireNumber(a[1], "CLAMP")
		if err != nil {
			return sdb.NullValue(), err
		}
		hi, err := requireNumber(a[2], "CLAMP")
		if err != nil {
			return sdb.NullValue(), err
		}
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		return sdb.FloatValue(x), nil
	})

	r.Register("MOD", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		x, err := requireNumber(a[0], "MOD")
		if err != nil {
			return sdb.NullValue(), err
		}
		y, err := requireNumber(a[1], "MOD")
		if err != nil {
			return sdb.NullValue(), err
		}
		if y == 0 {
			return sdb.NullValue(), sdb.ErrDivisionByZero.New()
		}
		return sdb.FloatValue(math.Mod(x, y)), nil
	})

	r.Register("RANDOM", Fixed(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.FloatValue(rand.Float64()), nil
	})

	r.Register("RANDOM_INT", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		lo := a[0].Int64()
		hi := a[1].Int64()
		if hi <= lo {
			return sdb.IntValue(lo), nil
		}
		return sdb.IntValue(lo + rand.Int63n(hi-lo)), nil
	})
}

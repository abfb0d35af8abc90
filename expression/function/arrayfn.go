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
	"sort"

	"github.com/solisdb/solisdb/sdb"
)

func registerArray(r *Registry) {
	r.Register("LENGTH", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		switch a[0].Kind() {
		case sdb.Array:
			return sdb.IntValue(int64(len(a[0].AsArray()))), nil
		case sdb.String:
			return sdb.IntValue(int64(len([]rune(a[0].AsString())))), nil
		case sdb.Obj:
			return sdb.IntValue(int64(a[0].AsObject().Len())), nil
		case sdb.Null:
			return sdb.IntValue(0), nil
		default:
			return argErr("LENGTH requires an array, string or object")
		}
	})

	r.Register("FIRST", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "FIRST")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(arr) == 0 {
			return sdb.NullValue(), nil
		}
		return arr[0], nil
	})

	r.Register("LAST", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "LAST")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(arr) == 0 {
			return sdb.NullValue(), nil
		}
		return arr[len(arr)-1], nil
	})

	r.Register("NTH", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "NTH")
		if err != nil {
			return sdb.NullValue(), err
		}
		i := a[1].Int64()
		if i < 0 || i >= int64(len(arr)) {
			return sdb.NullValue(), nil
		}
		return arr[i], nil
	})

	r.Register("SLICE", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "SLICE")
		if err != nil {
			return sdb.NullValue(), err
		}
		n := len(arr)
		start := int(a[1].Int64())
		length := n
		if len(a) == 3 {
			length = int(a[2].Int64())
		}
		if start < 0 {
			start = n + start
			if start < 0 {
				start = 0
			}
		}
		if start > n {
			return sdb.ArrayValue([]sdb.Value{}), nil
		}
		end := start + length
		if length < 0 {
			end = n + length
		}
		if end > n {
			end = n
		}
		if end < start {
			end = start
		}
		return sdb.ArrayValue(cloneArray(arr[start:end])), nil
	})

	r.Register("FLATTEN", Range(1, 2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "FLATTEN")
		if err != nil {
			return sdb.NullValue(), err
		}
		depth := int64(1)
		if len(a) == 2 {
			depth = a[1].Int64()
		}
		return sdb.ArrayValue(flatten(arr, depth)), nil
	})

	r.Register("UNIQUE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "UNIQUE")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.ArrayValue(unique(arr)), nil
	})

	r.Register("SORTED", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "SORTED")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := cloneArray(arr)
		sort.SliceStable(out, func(i, j int) bool { return sdb.Compare(out[i], out[j]) < 0 })
		return sdb.ArrayValue(out), nil
	})

	r.Register("SORTED_UNIQUE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "SORTED_UNIQUE")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := unique(arr)
		sort.SliceStable(out, func(i, j int) bool { return sdb.Compare(out[i], out[j]) < 0 })
		return sdb.ArrayValue(out), nil
	})

	r.Register("REVERSE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		if a[0].Kind() == sdb.String {
			s := []rune(a[0].AsString())
			for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
				s[i], s[j] = s[j], s[i]
			}
			return sdb.StringValue(string(s)), nil
		}
		arr, err := requireArray(a[0], "REVERSE")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := cloneArray(arr)
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("PUSH", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "PUSH")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := append(cloneArray(arr), a[1])
		if len(a) == 3 && a[2].Truthy() {
			out = unique(out)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("APPEND", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "APPEND")
		if err != nil {
			return sdb.NullValue(), err
		}
		other, err := requireArray(a[1], "APPEND")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := append(cloneArray(arr), other...)
		if len(a) == 3 && a[2].Truthy() {
			out = unique(out)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("UNSHIFT", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "UNSHIFT")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := append([]sdb.Value{a[1]}, arr...)
		if len(a) == 3 && a[2].Truthy() {
			out = unique(out)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("POP", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "POP")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(arr) == 0 {
			return sdb.ArrayValue([]sdb.Value{}), nil
		}
		return sdb.ArrayValue(cloneArray(arr[:len(arr)-1])), nil
	})

	r.Register("SHIFT", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "SHIFT")
		if err != nil {
			return sdb.NullValue(), err
		}
		if len(arr) == 0 {
			return sdb.ArrayValue([]sdb.Value{}), nil
		}
		return sdb.ArrayValue(cloneArray(arr[1:])), nil
	})

	r.Register("UNION", AtLeast(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		var out []sdb.Value
		for _, v := range a {
			arr, err := requireArray(v, "UNION")
			if err != nil {
				return sdb.NullValue(), err
			}
			out = append(out, arr...)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("UNION_DISTINCT", AtLeast(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		var out []sdb.Value
		for _, v := range a {
			arr, err := requireArray(v, "UNION_DISTINCT")
			if err != nil {
				return sdb.NullValue(), err
			}
			out = append(out, arr...)
		}
		return sdb.ArrayValue(unique(out)), nil
	})

	r.Register("INTERSECTION", AtLeast(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		sets := make([][]sdb.Value, len(a))
		for i, v := range a {
			arr, err := requireArray(v, "INTERSECTION")
			if err != nil {
				return sdb.NullValue(), err
			}
			sets[i] = arr
		}
		result := unique(sets[0])
		for _, s := range sets[1:] {
			var next []sdb.Value
			for _, v := range result {
				if containsValue(s, v) {
					next = append(next, v)
				}
			}
			result = next
		}
		return sdb.ArrayValue(result), nil
	})

	minus := func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		first, err := requireArray(a[0], "MINUS")
		if err != nil {
			return sdb.NullValue(), err
		}
		var excl []sdb.Value
		for _, v := range a[1:] {
			arr, err := requireArray(v, "MINUS")
			if err != nil {
				return sdb.NullValue(), err
			}
			excl = append(excl, arr...)
		}
		var out []sdb.Value
		for _, v := range unique(first) {
			if !containsValue(excl, v) {
				out = append(out, v)
			}
		}
		return sdb.ArrayValue(out), nil
	}
	r.Register("MINUS", AtLeast(2), minus)
	r.Register("DIFFERENCE", AtLeast(2), minus)

	r.Register("ZIP", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		keys, err := requireArray(a[0], "ZIP")
		if err != nil {
			return sdb.NullValue(), err
		}
		vals, err := requireArray(a[1], "ZIP")
		if err != nil {
			return sdb.NullValue(), err
		}
		o := sdb.NewObject()
		for i := 0; i < len(keys) && i < len(vals); i++ {
			o.Set(keys[i].AsString(), vals[i])
		}
		return sdb.ObjectValue(o), nil
	})

	r.Register("POSITION", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "POSITION")
		if err != nil {
			return sdb.NullValue(), err
		}
		returnIndex := optionalBool(a, 2, false)
		for i, v := range arr {
			if sdb.Equal(v, a[1]) {
				if returnIndex {
					return sdb.IntValue(int64(i)), nil
				}
				return sdb.BoolValue(true), nil
			}
		}
		if returnIndex {
			return sdb.IntValue(-1), nil
		}
		return sdb.BoolValue(false), nil
	})

	r.Register("CONTAINS_ARRAY", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "CONTAINS_ARRAY")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.BoolValue(containsValue(arr, a[1])), nil
	})

	r.Register("REMOVE_VALUE", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		arr, err := requireArray(a[0], "REMOVE_VALUE")
		if err != nil {
			return sdb.NullValue(), err
		}
		limit := int64(-1)
		if len(a) == 3 {
			limit = a[2].Int64()
		}
		var out []sdb.Value
		removed := int64(0)
		for _, v := range arr {
			if sdb.Equal(v, a[1]) && (limit < 0 || removed < limit) {
				removed++
				continue
			}
			out = append(out, v)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("RANGE", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		start := a[0].Int64()
		end := a[1].Int64()
		step := int64(1)
		if len(a) == 3 {
			step = a[2].Int64()
		}
		if step == 0 {
			return sdb.NullValue(), sdb.ErrInvalidArgument.New("RANGE step must not be zero")
		}
		var out []sdb.Value
		if step > 0 {
			for i := start; i <= end; i += step {
				out = append(out, sdb.IntValue(i))
			}
		} else {
			for i := start; i >= end; i += step {
				out = append(out, sdb.IntValue(i))
			}
		}
		if out == nil {
			out = []sdb.Value{}
		}
		return sdb.ArrayValue(out), nil
	})
}

func flatten(arr []sdb.Value, depth int64) []sdb.Value {
	var out []sdb.Value
	for _, v := range arr {
		if v.Kind() == sdb.Array && depth > 0 {
			out = append(out, flatten(v.AsArray(), depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	if out == nil {
		out = []sdb.Value{}
	}
	return out
}

func unique(arr []sdb.Value) []sdb.Value {
	var out []sdb.Value
	for _, v := range arr {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	if out == nil {
		out = []sdb.Value{}
	}
	return out
}

func containsValue(arr []sdb.Value, v sdb.Value) bool {
	for _, e := range arr {
		if sdb.Equal(e, v) {
			return true
		}
	}
	return false
}

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
	"github.com/solisdb/solisdb/sdb"
	"github.com/spf13/cast"
)

func registerCoerce(r *Registry) {
	r.Register("TO_BOOL", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Truthy()), nil
	})

	r.Register("TO_NUMBER", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		v := a[0]
		if v.Kind() == sdb.Array {
			arr := v.AsArray()
			if len(arr) != 1 {
				return sdb.IntValue(0), nil
			}
			v = arr[0]
		}
		f, err := cast.ToFloat64E(v.ToJSON())
		if err != nil {
			return sdb.IntValue(0), nil
		}
		return sdb.FloatValue(f), nil
	})

	r.Register("TO_STRING", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		v := a[0]
		if v.Kind() == sdb.String {
			return v, nil
		}
		return sdb.StringValue(v.String()), nil
	})

	r.Register("TO_ARRAY", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		v := a[0]
		switch v.Kind() {
		case sdb.Array:
			return v, nil
		case sdb.Null:
			return sdb.ArrayValue(nil), nil
		case sdb.Obj:
			obj := v.AsObject()
			out := make([]sdb.Value, 0, obj.Len())
			for _, k := range obj.Keys() {
				val, _ := obj.Get(k)
				out = append(out, val)
			}
			return sdb.ArrayValue(out), nil
		default:
			return sdb.ArrayValue([]sdb.Value{v}), nil
		}
	})
}

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

import "github.com/solisdb/solisdb/sdb"

func registerObject(r *Registry) {
	r.Register("HAS", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		obj, err := requireObject(a[0], "HAS")
		if err != nil {
			return sdb.NullValue(), err
		}
		key, err := requireString(a[1], "HAS")
		if err != nil {
			return sdb.NullValue(), err
		}
		_, ok := obj.Get(key)
		return sdb.BoolValue(ok), nil
	})

	r.Register("KEEP", AtLeast(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		obj, err := requireObject(a[0], "KEEP")
		if err != nil {
			return sdb.NullValue(), err
		}
		keys, err := keyList(a[1:])
		if err != nil {
			return sdb.NullValue(), err
		}
		out := sdb.NewObject()
		for _, k := range keys {
			if v, ok := obj.Get(k); ok {
				out.Set(k, v)
			}
		}
		return sdb.ObjectValue(out), nil
	})

	r.Register("UNSET", AtLeast(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		obj, err := requireObject(a[0], "UNSET")
		if err != nil {
			return sdb.NullValue(), err
		}
		keys, err := keyList(a[1:])
		if err != nil {
			return sdb.NullValue(), err
		}
		drop := make(map[string]bool, len(keys))
		for _, k := range keys {
			drop[k] = true
		}
		out := sdb.NewObject()
		for _, k := range obj.Keys() {
			if drop[k] {
				continue
			}
			v, _ := obj.Get(k)
			out.Set(k, v)
		}
		return sdb.ObjectValue(out), nil
	})

	r.Register("ATTRIBUTES", Range(1, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		obj, err := requireObject(a[0], "ATTRIBUTES")
		if err != nil {
			return sdb.NullValue(), err
		}
		removeInternal := optionalBool(a, 1, false)
		sortKeys := optionalBool(a, 2, false)
		keys := append([]string{}, obj.Keys()...)
		if removeInternal {
			filtered := keys[:0]
			for _, k := range keys {
				if len(k) > 0 && k[0] == '_' {
					continue
				}
				filtered = append(filtered, k)
			}
			keys = filtered
		}
		if sortKeys {
			sortStrings(keys)
		}
		out := make([]sdb.Value, len(keys))
		for i, k := range keys {
			out[i] = sdb.StringValue(k)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("VALUES", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		obj, err := requireObject(a[0], "VALUES")
		if err != nil {
			return sdb.NullValue(), err
		}
		out := make([]sdb.Value, 0, obj.Len())
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			out = append(out, v)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("MERGE", AtLeast(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		out := sdb.NewObject()
		for _, v := range a {
			if v.IsNull() {
				continue
			}
			obj, err := requireObject(v, "MERGE")
			if err != nil {
				return sdb.NullValue(), err
			}
			for _, k := range obj.Keys() {
				val, _ := obj.Get(k)
				out.Set(k, val)
			}
		}
		return sdb.ObjectValue(out), nil
	})
}

func keyList(args []sdb.Value) ([]string, error) {
	if len(args) == 1 && args[0].Kind() == sdb.Array {
		arr := args[0].AsArray()
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			s, err := requireString(v, "key list")
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	out := make([]string, 0, len(args))
	for _, v := range args {
		s, err := requireString(v, "key list")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

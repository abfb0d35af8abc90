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

func registerPredicates(r *Registry) {
	r.Register("IS_ARRAY", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.Array), nil
	})
	r.Register("IS_BOOL", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.Bool), nil
	})
	r.Register("IS_NUMBER", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.Number), nil
	})
	r.Register("IS_INTEGER", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.Number && a[0].IsInt()), nil
	})
	r.Register("IS_STRING", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.String), nil
	})
	r.Register("IS_OBJECT", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].Kind() == sdb.Obj), nil
	})
	r.Register("IS_NULL", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.BoolValue(a[0].IsNull()), nil
	})
	r.Register("IS_DATETIME", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		if a[0].Kind() != sdb.String {
			return sdb.BoolValue(false), nil
		}
		_, ok := parseISO8601(a[0].AsString())
		return sdb.BoolValue(ok), nil
	})
	r.Register("TYPENAME", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.StringValue(a[0].TypeName()), nil
	})
}

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
	"time"

	"github.com/solisdb/solisdb/sdb"
)

func registerMisc(r *Registry) {
	r.Register("SLEEP", Fixed(1), func(ctx *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		ms := a[0].Int64()
		if ms < 0 {
			ms = 0
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
		}
		return sdb.NullValue(), nil
	})

	r.Register("ASSERT", Range(1, 2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		if a[0].Truthy() {
			return sdb.BoolValue(true), nil
		}
		msg := optionalString(a, 1, "assertion failed")
		return sdb.NullValue(), sdb.ErrInvalidArgument.New(msg)
	})

	r.Register("COLLECTION_COUNT", Fixed(1), func(ctx *sdb.Context, env *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		name, err := requireString(a[0], "COLLECTION_COUNT")
		if err != nil {
			return sdb.NullValue(), err
		}
		coll, err := resolveCollection(env, name)
		if err != nil {
			return sdb.NullValue(), err
		}
		n, err := coll.Count(ctx)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(n), nil
	})
}

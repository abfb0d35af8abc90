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

func argErr(msg string) (sdb.Value, error) {
	return sdb.NullValue(), sdb.ErrInvalidArgument.New(msg)
}

func requireNumber(v sdb.Value, what string) (float64, error) {
	if v.Kind() != sdb.Number {
		return 0, sdb.ErrTypeMismatch.New(what + " must be a number")
	}
	return v.Float64(), nil
}

func requireString(v sdb.Value, what string) (string, error) {
	if v.Kind() != sdb.String {
		return "", sdb.ErrTypeMismatch.New(what + " must be a string")
	}
	return v.AsString(), nil
}

func requireArray(v sdb.Value, what string) ([]sdb.Value, error) {
	if v.Kind() != sdb.Array {
		return nil, sdb.ErrTypeMismatch.New(what + " must be an array")
	}
	return v.AsArray(), nil
}

func requireObject(v sdb.Value, what string) (*sdb.Object, error) {
	if v.Kind() != sdb.Obj {
		return nil, sdb.ErrTypeMismatch.New(what + " must be an object")
	}
	return v.AsObject(), nil
}

func optionalInt(args []sdb.Value, idx int, def int64) int64 {
	if idx >= len(args) {
		return def
	}
	return args[idx].Int64()
}

func optionalBool(args []sdb.Value, idx int, def bool) bool {
	if idx >= len(args) {
		return def
	}
	return args[idx].Truthy()
}

func optionalString(args []sdb.Value, idx int, def string) string {
	if idx >= len(args) || args[idx].Kind() != sdb.String {
		return def
	}
	return args[idx].AsString()
}

func cloneArray(vs []sdb.Value) []sdb.Value {
	out := make([]sdb.Value, len(vs))
	copy(out, vs)
	return out
}

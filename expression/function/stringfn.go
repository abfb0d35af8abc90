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
	"encoding/json"
	"regexp"
	"strings"

	"github.com/solisdb/solisdb/sdb"
)

func registerString(r *Registry) {
	r.Register("UPPER", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "UPPER")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.StringValue(strings.ToUpper(s)), nil
	})

	r.Register("LOWER", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "LOWER")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.StringValue(strings.ToLower(s)), nil
	})

	r.Register("CONCAT", AtLeast(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		var b strings.Builder
		for _, v := range a {
			if v.IsNull() {
				continue
			}
			b.WriteString(stringify(v))
		}
		return sdb.StringValue(b.String()), nil
	})

	r.Register("CONCAT_SEPARATOR", AtLeast(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		sep, err := requireString(a[0], "CONCAT_SEPARATOR")
		if err != nil {
			return sdb.NullValue(), err
		}
		var parts []string
		for _, v := range a[1:] {
			if v.IsNull() {
				continue
			}
			parts = append(parts, stringify(v))
		}
		return sdb.StringValue(strings.Join(parts, sep)), nil
	})

	r.Register("SUBSTRING", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "SUBSTRING")
		if err != nil {
			return sdb.NullValue(), err
		}
		runes := []rune(s)
		n := len(runes)
		start := int(a[1].Int64())
		if start < 0 {
			start = n + start
			if start < 0 {
				start = 0
			}
		}
		if start > n {
			return sdb.StringValue(""), nil
		}
		length := n - start
		if len(a) == 3 {
			length = int(a[2].Int64())
		}
		end := start + length
		if end > n {
			end = n
		}
		if end < start {
			end = start
		}
		return sdb.StringValue(string(runes[start:end])), nil
	})

	r.Register("LEFT", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "LEFT")
		if err != nil {
			return sdb.NullValue(), err
		}
		runes := []rune(s)
		n := int(a[1].Int64())
		if n > len(runes) {
			n = len(runes)
		}
		if n < 0 {
			n = 0
		}
		return sdb.StringValue(string(runes[:n])), nil
	})

	r.Register("RIGHT", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "RIGHT")
		if err != nil {
			return sdb.NullValue(), err
		}
		runes := []rune(s)
		n := int(a[1].Int64())
		if n > len(runes) {
			n = len(runes)
		}
		if n < 0 {
			n = 0
		}
		return sdb.StringValue(string(runes[len(runes)-n:])), nil
	})

	r.Register("CHAR_LENGTH", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "CHAR_LENGTH")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(int64(len([]rune(s)))), nil
	})

	r.Register("FIND_FIRST", Range(2, 4), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, _ := requireString(a[0], "FIND_FIRST")
		search, _ := requireString(a[1], "FIND_FIRST")
		start := int(optionalInt(a, 2, 0))
		if start < 0 || start > len(s) {
			start = 0
		}
		idx := strings.Index(s[start:], search)
		if idx < 0 {
			return sdb.IntValue(-1), nil
		}
		return sdb.IntValue(int64(start + idx)), nil
	})

	r.Register("FIND_LAST", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, _ := requireString(a[0], "FIND_LAST")
		search, _ := requireString(a[1], "FIND_LAST")
		return sdb.IntValue(int64(strings.LastIndex(s, search))), nil
	})

	r.Register("CONTAINS", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, _ := requireString(a[0], "CONTAINS")
		search, _ := requireString(a[1], "CONTAINS")
		idx := strings.Index(s, search)
		if optionalBool(a, 2, false) {
			return sdb.IntValue(int64(idx)), nil
		}
		return sdb.BoolValue(idx >= 0), nil
	})

	r.Register("REGEX_TEST", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, _ := requireString(a[0], "REGEX_TEST")
		pattern, _ := requireString(a[1], "REGEX_TEST")
		re, err := regexp.Compile(pattern)
		if err != nil {
			return sdb.BoolValue(false), nil
		}
		return sdb.BoolValue(re.MatchString(s)), nil
	})

	r.Register("REGEX_REPLACE", Range(3, 4), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, _ := requireString(a[0], "REGEX_REPLACE")
		pattern, _ := requireString(a[1], "REGEX_REPLACE")
		repl, _ := requireString(a[2], "REGEX_REPLACE")
		if optionalBool(a, 3, false) {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return sdb.NullValue(), sdb.ErrInvalidRegex.New(pattern)
		}
		return sdb.StringValue(re.ReplaceAllString(s, repl)), nil
	})

	r.Register("SUBSTITUTE", Range(2, 4), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "SUBSTITUTE")
		if err != nil {
			return sdb.NullValue(), err
		}
		if a[1].Kind() == sdb.Obj {
			out := s
			for _, k := range a[1].AsObject().Keys() {
				v, _ := a[1].AsObject().Get(k)
				out = strings.ReplaceAll(out, k, stringify(v))
			}
			return sdb.StringValue(out), nil
		}
		search, err := requireString(a[1], "SUBSTITUTE")
		if err != nil {
			return sdb.NullValue(), err
		}
		replacement := optionalString(a, 2, "")
		limit := int(optionalInt(a, 3, -1))
		if limit < 0 {
			return sdb.StringValue(strings.ReplaceAll(s, search, replacement)), nil
		}
		return sdb.StringValue(strings.Replace(s, search, replacement, limit)), nil
	})

	r.Register("SPLIT", Range(1, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "SPLIT")
		if err != nil {
			return sdb.NullValue(), err
		}
		sep := optionalString(a, 1, "")
		limit := int(optionalInt(a, 2, 0))
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else if limit == 0 {
			parts = strings.Split(s, sep)
		} else if limit > 0 {
			parts = strings.SplitN(s, sep, limit)
		} else {
			all := strings.Split(s, sep)
			n := -limit
			if n > len(all) {
				n = len(all)
			}
			// negative limit: keep splitting from the right.
			parts = all[len(all)-n:]
			if n < len(all) {
				parts = append([]string{strings.Join(all[:len(all)-n+1], sep)}, all[len(all)-n+1:]...)
			}
		}
		out := make([]sdb.Value, len(parts))
		for i, p := range parts {
			out[i] = sdb.StringValue(p)
		}
		return sdb.ArrayValue(out), nil
	})

	trimFn := func(kind int) Fn {
		return func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
			s, err := requireString(a[0], "TRIM")
			if err != nil {
				return sdb.NullValue(), err
			}
			cutset := " \t\n\r"
			if len(a) > 1 && a[1].Kind() == sdb.String {
				cutset = a[1].AsString()
			}
			switch kind {
			case 1:
				return sdb.StringValue(strings.TrimLeft(s, cutset)), nil
			case 2:
				return sdb.StringValue(strings.TrimRight(s, cutset)), nil
			default:
				return sdb.StringValue(strings.Trim(s, cutset)), nil
			}
		}
	}
	r.Register("TRIM", Range(1, 2), trimFn(0))
	r.Register("LTRIM", Range(1, 2), trimFn(1))
	r.Register("RTRIM", Range(1, 2), trimFn(2))

	r.Register("JSON_PARSE", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s, err := requireString(a[0], "JSON_PARSE")
		if err != nil {
			return sdb.NullValue(), nil
		}
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return sdb.NullValue(), nil
		}
		return sdb.FromJSON(v), nil
	})

	r.Register("JSON_STRINGIFY", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		b, err := json.Marshal(a[0].ToJSON())
		if err != nil {
			return sdb.NullValue(), sdb.ErrInternal.New(err.Error())
		}
		return sdb.StringValue(string(b)), nil
	})
}

func stringify(v sdb.Value) string {
	if v.Kind() == sdb.String {
		return v.AsString()
	}
	return v.String()
}

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
	"strconv"
	"strings"
	"time"

	"github.com/solisdb/solisdb/sdb"
)

func realNow() time.Time {
	return time.Now().UTC()
}

func parseISO8601(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func loadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, sdb.ErrUnknownTimezone.New(name)
	}
	return loc, nil
}

func registerDate(r *Registry) {
	r.Register("DATE_NOW", Fixed(0), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return sdb.IntValue(realNow().UnixNano() / int64(time.Millisecond)), nil
	})

	r.Register("DATE_ISO8601", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.StringValue(t.Format(time.RFC3339Nano)), nil
	})

	r.Register("DATE_TIMESTAMP", Fixed(1), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(t.UnixNano() / int64(time.Millisecond)), nil
	})

	field := func(extract func(time.Time) int64) Fn {
		return func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
			t, err := toTime(a[0])
			if err != nil {
				return sdb.NullValue(), err
			}
			return sdb.IntValue(extract(t)), nil
		}
	}
	r.Register("DATE_YEAR", Fixed(1), field(func(t time.Time) int64 { return int64(t.Year()) }))
	r.Register("DATE_MONTH", Fixed(1), field(func(t time.Time) int64 { return int64(t.Month()) }))
	r.Register("DATE_DAY", Fixed(1), field(func(t time.Time) int64 { return int64(t.Day()) }))
	r.Register("DATE_HOUR", Fixed(1), field(func(t time.Time) int64 { return int64(t.Hour()) }))
	r.Register("DATE_MINUTE", Fixed(1), field(func(t time.Time) int64 { return int64(t.Minute()) }))
	r.Register("DATE_SECOND", Fixed(1), field(func(t time.Time) int64 { return int64(t.Second()) }))
	r.Register("DATE_DAYOFWEEK", Fixed(1), field(func(t time.Time) int64 { return int64(t.Weekday()) }))
	r.Register("DATE_DAYOFYEAR", Fixed(1), field(func(t time.Time) int64 { return int64(t.YearDay()) }))
	r.Register("DATE_QUARTER", Fixed(1), field(func(t time.Time) int64 { return int64(t.Month()-1)/3 + 1 }))
	r.Register("DATE_ISOWEEK", Fixed(1), field(func(t time.Time) int64 { _, w := t.ISOWeek(); return int64(w) }))
	r.Register("DATE_DAYS_IN_MONTH", Fixed(1), field(func(t time.Time) int64 {
		firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		lastOfThis := firstOfNext.AddDate(0, 0, -1)
		return int64(lastOfThis.Day())
	}))

	r.Register("DATE_TRUNC", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		unit, err := requireString(a[1], "DATE_TRUNC")
		if err != nil {
			return sdb.NullValue(), err
		}
		loc, err := loadZone(optionalString(a, 2, ""))
		if err != nil {
			return sdb.NullValue(), err
		}
		local := t.In(loc)
		trunc, err := truncTo(local, unit)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(trunc.UTC().UnixNano() / int64(time.Millisecond)), nil
	})

	r.Register("DATE_FORMAT", Range(2, 3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		format, err := requireString(a[1], "DATE_FORMAT")
		if err != nil {
			return sdb.NullValue(), err
		}
		loc, err := loadZone(optionalString(a, 2, ""))
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.StringValue(strftime(t.In(loc), format)), nil
	})

	r.Register("DATE_ADD", Fixed(3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return dateOffset(a, 1)
	})
	r.Register("DATE_SUBTRACT", Fixed(3), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		return dateOffset(a, -1)
	})

	r.Register("DATE_DIFF", Range(3, 5), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t1, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		t2, err := toTime(a[1])
		if err != nil {
			return sdb.NullValue(), err
		}
		unit, err := requireString(a[2], "DATE_DIFF")
		if err != nil {
			return sdb.NullValue(), err
		}
		asFloat := optionalBool(a, 3, false)
		d := t2.Sub(t1)
		secs := unitSeconds(unit)
		if secs == 0 {
			return argErr("DATE_DIFF unknown unit " + unit)
		}
		raw := d.Seconds() / secs
		if asFloat {
			return sdb.FloatValue(raw), nil
		}
		return sdb.IntValue(int64(raw)), nil
	})

	r.Register("TIME_BUCKET", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		t, err := toTime(a[0])
		if err != nil {
			return sdb.NullValue(), err
		}
		spec, err := requireString(a[1], "TIME_BUCKET")
		if err != nil {
			return sdb.NullValue(), err
		}
		d, err := parseBucketSpec(spec)
		if err != nil {
			return sdb.NullValue(), err
		}
		bucketed := t.Truncate(d)
		return sdb.IntValue(bucketed.UnixNano() / int64(time.Millisecond)), nil
	})
}

func toTime(v sdb.Value) (time.Time, error) {
	switch v.Kind() {
	case sdb.Number:
		ms := v.Int64()
		return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
	case sdb.String:
		t, ok := parseISO8601(v.AsString())
		if !ok {
			return time.Time{}, sdb.ErrInvalidArgument.New("invalid ISO8601 date: " + v.AsString())
		}
		return t, nil
	default:
		return time.Time{}, sdb.ErrTypeMismatch.New("expected a date (number or ISO8601 string)")
	}
}

func truncTo(t time.Time, unit string) (time.Time, error) {
	switch normalizeUnit(unit) {
	case "year":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location()), nil
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), nil
	case "week":
		offset := int(t.Weekday())
		return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location()), nil
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	case "hour":
		return t.Truncate(time.Hour), nil
	case "minute":
		return t.Truncate(time.Minute), nil
	case "second":
		return t.Truncate(time.Second), nil
	default:
		return time.Time{}, sdb.ErrUnknownUnit.New(unit)
	}
}

func dateOffset(a []sdb.Value, sign int) (sdb.Value, error) {
	t, err := toTime(a[0])
	if err != nil {
		return sdb.NullValue(), err
	}
	amount := int(a[1].Int64()) * sign
	unit, err := requireString(a[2], "DATE_ADD")
	if err != nil {
		return sdb.NullValue(), err
	}
	var out time.Time
	switch normalizeUnit(unit) {
	case "year":
		out = t.AddDate(amount, 0, 0)
	case "month":
		out = addMonthsClamped(t, amount)
	case "week":
		out = t.AddDate(0, 0, amount*7)
	case "day":
		out = t.AddDate(0, 0, amount)
	case "hour":
		out = t.Add(time.Duration(amount) * time.Hour)
	case "minute":
		out = t.Add(time.Duration(amount) * time.Minute)
	case "second":
		out = t.Add(time.Duration(amount) * time.Second)
	case "millisecond":
		out = t.Add(time.Duration(amount) * time.Millisecond)
	default:
		return sdb.NullValue(), sdb.ErrUnknownUnit.New(unit)
	}
	return sdb.IntValue(out.UnixNano() / int64(time.Millisecond)), nil
}

// addMonthsClamped mirrors calendar-month arithmetic semantics where
// overflowing the target month's day count clamps to that month's last day
// instead of rolling into the following month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	targetMonthIndex := int(month) - 1 + months
	targetYear := year + targetMonthIndex/12
	targetMonth := targetMonthIndex % 12
	if targetMonth < 0 {
		targetMonth += 12
		targetYear--
	}
	firstOfTarget := time.Date(targetYear, time.Month(targetMonth+1), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	firstOfFollowing := firstOfTarget.AddDate(0, 1, 0)
	lastDay := firstOfFollowing.AddDate(0, 0, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(targetYear, time.Month(targetMonth+1), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func normalizeUnit(u string) string {
	switch strings.ToLower(u) {
	case "y", "year", "years":
		return "year"
	case "mo", "month", "months":
		return "month"
	case "w", "week", "weeks":
		return "week"
	case "d", "day", "days":
		return "day"
	case "h", "hour", "hours":
		return "hour"
	case "i", "minute", "minutes":
		return "minute"
	case "s", "second", "seconds":
		return "second"
	case "f", "millisecond", "milliseconds":
		return "millisecond"
	default:
		return strings.ToLower(u)
	}
}

func unitSeconds(u string) float64 {
	switch normalizeUnit(u) {
	case "millisecond":
		return 0.001
	case "second":
		return 1
	case "minute":
		return 60
	case "hour":
		return 3600
	case "day":
		return 86400
	case "week":
		return 7 * 86400
	case "month":
		return 30 * 86400
	case "year":
		return 365 * 86400
	default:
		return 0
	}
}

func parseBucketSpec(spec string) (time.Duration, error) {
	if len(spec) < 2 {
		return 0, sdb.ErrInvalidArgument.New("invalid time bucket spec: " + spec)
	}
	unit := spec[len(spec)-1]
	numStr := spec[:len(spec)-1]
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0, sdb.ErrInvalidArgument.New("invalid time bucket spec: " + spec)
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, sdb.ErrInvalidArgument.New("invalid time bucket unit: " + string(unit))
	}
}

func strftime(t time.Time, format string) string {
	var b strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'm':
			b.WriteString(pad2(int(t.Month())))
		case 'd':
			b.WriteString(pad2(t.Day()))
		case 'H':
			b.WriteString(pad2(t.Hour()))
		case 'M':
			b.WriteString(pad2(t.Minute()))
		case 'S':
			b.WriteString(pad2(t.Second()))
		case 'j':
			b.WriteString(strconv.Itoa(t.YearDay()))
		case 'Z':
			name, _ := t.Zone()
			b.WriteString(name)
		case '%':
			b.WriteRune('%')
		default:
			b.WriteRune('%')
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

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

	"github.com/solisdb/solisdb/sdb"
)

const earthRadiusMeters = 6371000.0

func registerGeo(r *Registry) {
	r.Register("DISTANCE", Fixed(4), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		lat1, err := requireNumber(a[0], "DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		lon1, err := requireNumber(a[1], "DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		lat2, err := requireNumber(a[2], "DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		lon2, err := requireNumber(a[3], "DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.FloatValue(haversine(lat1, lon1, lat2, lon2)), nil
	})

	r.Register("GEO_DISTANCE", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		p1, err := requireObject(a[0], "GEO_DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		p2, err := requireObject(a[1], "GEO_DISTANCE")
		if err != nil {
			return sdb.NullValue(), err
		}
		lat1, lon1, err := latLon(p1)
		if err != nil {
			return sdb.NullValue(), err
		}
		lat2, lon2, err := latLon(p2)
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.FloatValue(haversine(lat1, lon1, lat2, lon2)), nil
	})

	r.Register("LEVENSHTEIN", Fixed(2), func(_ *sdb.Context, _ *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		s1, err := requireString(a[0], "LEVENSHTEIN")
		if err != nil {
			return sdb.NullValue(), err
		}
		s2, err := requireString(a[1], "LEVENSHTEIN")
		if err != nil {
			return sdb.NullValue(), err
		}
		return sdb.IntValue(int64(levenshtein(s1, s2))), nil
	})

	r.Register("FULLTEXT", Range(3, 4), func(ctx *sdb.Context, env *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		collName, err := requireString(a[0], "FULLTEXT")
		if err != nil {
			return sdb.NullValue(), err
		}
		field, err := requireString(a[1], "FULLTEXT")
		if err != nil {
			return sdb.NullValue(), err
		}
		query, err := requireString(a[2], "FULLTEXT")
		if err != nil {
			return sdb.NullValue(), err
		}
		maxEdit := int(optionalInt(a, 3, 0))
		coll, err := resolveCollection(env, collName)
		if err != nil {
			return sdb.NullValue(), err
		}
		matches, _, err := coll.FulltextSearch(ctx, field, query, maxEdit)
		if err != nil {
			return sdb.NullValue(), err
		}
		out := make([]sdb.Value, len(matches))
		for i, m := range matches {
			obj := sdb.NewObject()
			obj.Set("key", sdb.StringValue(m.DocKey))
			obj.Set("score", sdb.FloatValue(m.Score))
			terms := make([]sdb.Value, len(m.MatchedTerms))
			for j, t := range m.MatchedTerms {
				terms[j] = sdb.StringValue(t)
			}
			obj.Set("matched_terms", sdb.ArrayValue(terms))
			out[i] = sdb.ObjectValue(obj)
		}
		return sdb.ArrayValue(out), nil
	})

	r.Register("BM25", Range(3, 4), func(ctx *sdb.Context, env *sdb.CallEnv, a []sdb.Value) (sdb.Value, error) {
		collName, err := requireString(a[0], "BM25")
		if err != nil {
			return sdb.NullValue(), err
		}
		field, err := requireString(a[1], "BM25")
		if err != nil {
			return sdb.NullValue(), err
		}
		query, err := requireString(a[2], "BM25")
		if err != nil {
			return sdb.NullValue(), err
		}
		// Resolved open question: BM25 requires a resolvable collection to
		// source document-frequency statistics from; called outside of an
		// index-backed context it reports an execution error rather than
		// silently returning a placeholder score.
		coll, err := resolveCollection(env, collName)
		if err != nil {
			return sdb.NullValue(), sdb.ErrInvalidArgument.New("BM25 requires a resolvable collection for corpus statistics")
		}
		matches, found, err := coll.FulltextSearch(ctx, field, query, 0)
		if err != nil {
			return sdb.NullValue(), err
		}
		if !found || len(matches) == 0 {
			return sdb.FloatValue(0), nil
		}
		return sdb.FloatValue(matches[0].Score), nil
	})
}

func resolveCollection(env *sdb.CallEnv, name string) (sdb.Collection, error) {
	if env == nil || env.Storage == nil {
		return nil, sdb.ErrCollectionNotFound.New(name)
	}
	db, ok := env.Storage.GetDatabase(env.Database)
	if !ok {
		return nil, sdb.ErrDatabaseNotFound.New(env.Database)
	}
	coll, ok := db.GetCollection(name)
	if !ok {
		return nil, sdb.ErrCollectionNotFound.New(name)
	}
	return coll, nil
}

func latLon(obj *sdb.Object) (float64, float64, error) {
	latV, ok := obj.Get("lat")
	if !ok {
		return 0, 0, sdb.ErrInvalidArgument.New("geo point missing lat")
	}
	lonV, ok := obj.Get("lon")
	if !ok {
		return 0, 0, sdb.ErrInvalidArgument.New("geo point missing lon")
	}
	return latV.Float64(), lonV.Float64(), nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	phi1 := lat1 * rad
	phi2 := lat2 * rad
	dphi := (lat2 - lat1) * rad
	dlambda := (lon2 - lon1) * rad
	a := math.Sin(dphi/2)*math.Sin(dphi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2)*math.Sin(dlambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		cur[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

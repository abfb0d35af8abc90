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

package memory

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/solisdb/solisdb/sdb"
)

// fulltextIndex is a BM25-scored inverted index over one document
// field, the statistics source both FULLTEXT() and BM25() consult
// through Collection.FulltextSearch.
type fulltextIndex struct {
	field string

	// postings[term][docKey] = term frequency within that document's field.
	postings map[string]map[string]int
	docLen   map[string]int
	docCount int
	totalLen int
}

func newFulltextIndex(field string) *fulltextIndex {
	return &fulltextIndex{
		field:    field,
		postings: map[string]map[string]int{},
		docLen:   map[string]int{},
	}
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return fields
}

func (fx *fulltextIndex) index(key string, text string) {
	fx.remove(key)
	terms := tokenize(text)
	if len(terms) == 0 {
		return
	}
	freq := map[string]int{}
	for _, t := range terms {
		freq[t]++
	}
	for t, n := range freq {
		if fx.postings[t] == nil {
			fx.postings[t] = map[string]int{}
		}
		fx.postings[t][key] = n
	}
	fx.docLen[key] = len(terms)
	fx.docCount++
	fx.totalLen += len(terms)
}

func (fx *fulltextIndex) remove(key string) {
	n, ok := fx.docLen[key]
	if !ok {
		return
	}
	for t, posting := range fx.postings {
		if _, ok := posting[key]; ok {
			delete(posting, key)
			if len(posting) == 0 {
				delete(fx.postings, t)
			}
		}
	}
	delete(fx.docLen, key)
	fx.docCount--
	fx.totalLen -= n
}

func (fx *fulltextIndex) avgDocLen() float64 {
	if fx.docCount == 0 {
		return 0
	}
	return float64(fx.totalLen) / float64(fx.docCount)
}

// matchingTerms returns every indexed term within maxEditDistance of
// queryTerm (0 meaning exact match only).
func (fx *fulltextIndex) matchingTerms(queryTerm string, maxEditDistance int) []string {
	if maxEditDistance <= 0 {
		if _, ok := fx.postings[queryTerm]; ok {
			return []string{queryTerm}
		}
		return nil
	}
	var out []string
	for t := range fx.postings {
		if levenshteinDistance(queryTerm, t) <= maxEditDistance {
			out = append(out, t)
		}
	}
	return out
}

const bm25K1 = 1.2
const bm25B = 0.75

// score computes the Okapi BM25 score of one document for the already
// term-expanded query, per the standard formula with k1=1.2, b=0.75.
func (fx *fulltextIndex) score(key string, terms []string) float64 {
	if fx.docCount == 0 {
		return 0
	}
	avgLen := fx.avgDocLen()
	docLen := float64(fx.docLen[key])
	var total float64
	for _, t := range terms {
		posting := fx.postings[t]
		if posting == nil {
			continue
		}
		tf := float64(posting[key])
		if tf == 0 {
			continue
		}
		df := float64(len(posting))
		idf := math.Log(1 + (float64(fx.docCount)-df+0.5)/(df+0.5))
		num := tf * (bm25K1 + 1)
		den := tf + bm25K1*(1-bm25B+bm25B*(docLen/avgLen))
		total += idf * num / den
	}
	return total
}

// search runs a multi-term BM25 query and returns matches sorted by
// descending score.
func (fx *fulltextIndex) search(query string, maxEditDistance int) []sdb.FulltextMatch {
	queryTerms := tokenize(query)
	expanded := map[string][]string{} // queryTerm -> matched index terms
	candidateDocs := map[string]bool{}
	for _, qt := range queryTerms {
		matched := fx.matchingTerms(qt, maxEditDistance)
		expanded[qt] = matched
		for _, t := range matched {
			for key := range fx.postings[t] {
				candidateDocs[key] = true
			}
		}
	}

	allTerms := make([]string, 0)
	for _, matched := range expanded {
		allTerms = append(allTerms, matched...)
	}

	matches := make([]sdb.FulltextMatch, 0, len(candidateDocs))
	for key := range candidateDocs {
		matches = append(matches, sdb.FulltextMatch{
			DocKey:       key,
			Score:        fx.score(key, allTerms),
			MatchedTerms: allTerms,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DocKey < matches[j].DocKey
	})
	return matches
}

func levenshteinDistance(a, b string) int {
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
			cur[j] = minInt(del, minInt(ins, sub))
		}
		prev, cur = cur, prev
	}
	return prev[n]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

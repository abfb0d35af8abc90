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
	"sort"

	"github.com/solisdb/solisdb/sdb"
)

// fieldIndex is a single secondary index: a value-sorted slice of
// (value, key) entries for one document field. Equality, range and
// sorted-scan probes are all served from the same sorted slice; "hash"
// vs "sorted" only changes what ListIndexes reports, since a reference
// implementation gains nothing from keeping two physical structures.
type fieldIndex struct {
	field   string
	kind    string
	entries []indexEntry
}

type indexEntry struct {
	value sdb.Value
	key   string
}

func newFieldIndex(field, kind string) *fieldIndex {
	return &fieldIndex{field: field, kind: kind}
}

func (ix *fieldIndex) insert(v sdb.Value, key string) {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return sdb.Compare(ix.entries[i].value, v) >= 0
	})
	ix.entries = append(ix.entries, indexEntry{})
	copy(ix.entries[i+1:], ix.entries[i:])
	ix.entries[i] = indexEntry{value: v, key: key}
}

func (ix *fieldIndex) remove(v sdb.Value, key string) {
	lo, hi := ix.boundsEq(v)
	for i := lo; i < hi; i++ {
		if ix.entries[i].key == key {
			ix.entries = append(ix.entries[:i], ix.entries[i+1:]...)
			return
		}
	}
}

// boundsEq returns the [lo, hi) range of entries equal to v.
func (ix *fieldIndex) boundsEq(v sdb.Value) (int, int) {
	lo := sort.Search(len(ix.entries), func(i int) bool {
		return sdb.Compare(ix.entries[i].value, v) >= 0
	})
	hi := sort.Search(len(ix.entries), func(i int) bool {
		return sdb.Compare(ix.entries[i].value, v) > 0
	})
	return lo, hi
}

func (ix *fieldIndex) lookupEq(v sdb.Value) []string {
	lo, hi := ix.boundsEq(v)
	keys := make([]string, 0, hi-lo)
	for _, e := range ix.entries[lo:hi] {
		keys = append(keys, e.key)
	}
	return keys
}

func (ix *fieldIndex) lookupGte(v sdb.Value) []string {
	lo, _ := ix.boundsEq(v)
	return ix.keysFrom(lo)
}

func (ix *fieldIndex) lookupGt(v sdb.Value) []string {
	_, hi := ix.boundsEq(v)
	return ix.keysFrom(hi)
}

func (ix *fieldIndex) lookupLte(v sdb.Value) []string {
	_, hi := ix.boundsEq(v)
	return ix.keysUpTo(hi)
}

func (ix *fieldIndex) lookupLt(v sdb.Value) []string {
	lo, _ := ix.boundsEq(v)
	return ix.keysUpTo(lo)
}

func (ix *fieldIndex) keysFrom(i int) []string {
	keys := make([]string, 0, len(ix.entries)-i)
	for ; i < len(ix.entries); i++ {
		keys = append(keys, ix.entries[i].key)
	}
	return keys
}

func (ix *fieldIndex) keysUpTo(i int) []string {
	keys := make([]string, 0, i)
	for j := 0; j < i; j++ {
		keys = append(keys, ix.entries[j].key)
	}
	return keys
}

// sortedKeys returns every key in ascending (or descending) value
// order, up to limit entries (0 or negative meaning no cap).
func (ix *fieldIndex) sortedKeys(ascending bool, limit int) []string {
	n := len(ix.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	keys := make([]string, 0, n)
	if ascending {
		for i := 0; i < n; i++ {
			keys = append(keys, ix.entries[i].key)
		}
		return keys
	}
	for i := len(ix.entries) - 1; i >= len(ix.entries)-n; i-- {
		keys = append(keys, ix.entries[i].key)
	}
	return keys
}

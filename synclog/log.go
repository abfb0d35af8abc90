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

// Package synclog is a bolt-backed sdb.SyncLog: every mutation the
// engine applies is appended here with a strictly monotonic per-node
// sequence number, durable across restarts. Raft-style replication of
// these entries to other nodes is out of scope (spec §1); this package
// only has to produce and serve them correctly.
package synclog

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	bolt "github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/solisdb/solisdb/sdb"
)

var bucketName = []byte("synclog")

// Log is a durable, append-only sdb.SyncLog backed by a bolt database.
// Sequence numbers are assigned from bolt's own per-bucket sequence
// counter, which is already monotonic and durable, so no separate
// counter needs to be maintained alongside it.
type Log struct {
	db     *bolt.DB
	nodeID string

	mu    sync.RWMutex
	cache []sdb.LogEntry // most recent entries appended, for GetEntriesAfter's fast path
	cap   int
}

const defaultCacheCapacity = 1024

// Open opens (creating if necessary) a bolt database at path as a sync
// log for nodeID.
func Open(path, nodeID string) (*Log, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "synclog: opening bolt database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "synclog: creating bucket")
	}
	return &Log{db: db, nodeID: nodeID, cap: defaultCacheCapacity}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Append assigns entry the next sequence number and writes it durably.
func (l *Log) Append(entry sdb.LogEntry) (uint64, error) {
	last, err := l.AppendBatch([]sdb.LogEntry{entry})
	return last, err
}

// AppendBatch assigns contiguous sequence numbers to entries, in
// order, and writes the whole batch in one bolt transaction. It
// returns the last sequence assigned, per spec §6.
func (l *Log) AppendBatch(entries []sdb.LogEntry) (uint64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	var last uint64
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		for i := range entries {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			entries[i].Sequence = seq
			if entries[i].NodeID == "" {
				entries[i].NodeID = l.nodeID
			}
			data, err := json.Marshal(entries[i])
			if err != nil {
				return errors.Wrap(err, "synclog: encoding entry")
			}
			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
			last = seq
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	l.cache = append(l.cache, entries...)
	if len(l.cache) > l.cap {
		l.cache = l.cache[len(l.cache)-l.cap:]
	}
	l.mu.Unlock()

	return last, nil
}

// GetEntriesAfter returns strictly sequence-ordered entries with
// sequence > afterSeq, up to limit. Per spec §6, the cache is only
// consulted when its oldest entry is exactly afterSeq+1; any gap falls
// back to a full bolt scan, since serving a partial window from a stale
// cache would silently drop entries a caller is entitled to see.
func (l *Log) GetEntriesAfter(afterSeq uint64, limit int) ([]sdb.LogEntry, error) {
	l.mu.RLock()
	if len(l.cache) > 0 && l.cache[0].Sequence == afterSeq+1 {
		out := make([]sdb.LogEntry, 0, limit)
		for _, e := range l.cache {
			if e.Sequence <= afterSeq {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		l.mu.RUnlock()
		return out, nil
	}
	l.mu.RUnlock()

	var out []sdb.LogEntry
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		c := b.Cursor()
		for k, v := c.Seek(seqKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			var e sdb.LogEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrap(err, "synclog: decoding entry")
			}
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

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

package shard

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/solisdb/solisdb/sdb"
)

// connectTimeout/totalTimeout are the two-phase HTTP timeouts spec §5
// specifies for remote shard calls.
const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 10 * time.Second
)

// LocalCollections resolves a physical, per-shard collection name (the
// "<coll>_s<shard_id>" convention) to the sdb.Collection backing it,
// when owned locally by this node.
type LocalCollections interface {
	GetLocalCollection(db, physicalName string) (sdb.Collection, bool)
}

// Coordinator is an HTTP-based sdb.ShardCoordinator: it groups
// documents by shard, routes mutations to a shard's primary node, and
// gathers reads across shards, consulting a local collection lookup
// when a shard happens to be owned by this node.
type Coordinator struct {
	dir      *Directory
	local    LocalCollections
	tables   *tableStore
	secret   string
	scheme   string
	logger   *logrus.Entry
	client   *http.Client
}

// NewCoordinator builds a coordinator. secret is the shared cluster
// secret sent as X-Cluster-Secret on outbound scatter-gather/direct
// requests and checked on inbound ones (see Server). scheme defaults to
// "http" per spec §6 when empty.
func NewCoordinator(dir *Directory, local LocalCollections, secret, scheme string) *Coordinator {
	if scheme == "" {
		scheme = "http"
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = totalTimeout
	if tr, ok := client.Transport.(*http.Transport); ok {
		tr.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	}
	return &Coordinator{
		dir:    dir,
		local:  local,
		tables: newTableStore(),
		secret: secret,
		scheme: scheme,
		logger: logrus.NewEntry(logrus.StandardLogger()),
		client: client,
	}
}

// SetShardTable registers the shard table for a collection. Shard-table
// gossip is out of scope (spec §1); callers populate this from
// whatever external coordination layer owns shard assignment.
func (c *Coordinator) SetShardTable(db, collection string, table *sdb.ShardTable) {
	c.tables.set(db, collection, table)
}

func (c *Coordinator) GetShardTable(ctx *sdb.Context, db, collection string) (*sdb.ShardTable, error) {
	return c.tables.get(db, collection), nil
}

func (c *Coordinator) MyNodeID() sdb.NodeID { return c.dir.MyNodeID() }

func (c *Coordinator) GetNodeAPIAddress(id sdb.NodeID) (sdb.HostPort, bool) {
	return c.dir.GetNodeAPIAddress(id)
}

// shardForKey picks a shard id for key via an FNV hash, a simple
// deterministic partitioning scheme good enough for the reference
// coordinator; production sharding would key off a configured shard
// function instead.
func shardForKey(key string, numShards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(numShards))
}

func docKey(v sdb.Value) string {
	if kv, ok := v.AsObject().Get("_key"); ok {
		return kv.AsString()
	}
	return ""
}

// InsertBatch groups docs by computed shard and forwards each group to
// the shard's primary node (spec §4.7).
func (c *Coordinator) InsertBatch(ctx *sdb.Context, db, collection string, cfg sdb.ShardConfig, docs []sdb.Value) (int, int, error) {
	table, err := c.GetShardTable(ctx, db, collection)
	if err != nil {
		return 0, len(docs), err
	}
	if table == nil {
		return 0, len(docs), sdb.ErrShardRouting.New(collection)
	}

	groups := make(map[int][]sdb.Value)
	for _, d := range docs {
		sid := shardForKey(docKey(d), table.NumShards)
		groups[sid] = append(groups[sid], d)
	}

	var ok, fail int
	for sid, group := range groups {
		phys := sdb.PhysicalShardName(collection, sid)
		n, err := c.insertBatchToShard(ctx, db, phys, table.Assignments[sid], group)
		ok += n
		fail += len(group) - n
		if err != nil {
			c.logger.WithFields(logrus.Fields{"collection": collection, "shard": sid}).WithError(err).Warn("shard: insert batch failed for shard")
		}
	}
	return ok, fail, nil
}

func (c *Coordinator) insertBatchToShard(ctx *sdb.Context, db, phys string, a sdb.ShardAssignment, docs []sdb.Value) (int, error) {
	if coll, ok := c.local.GetLocalCollection(db, phys); ok {
		inserted, err := coll.InsertBatch(ctx, docs)
		return len(inserted), err
	}
	hp, ok := c.GetNodeAPIAddress(a.PrimaryNode)
	if !ok {
		return 0, sdb.ErrScatterGather.New(0)
	}
	_, err := c.remoteCursor(ctx, hp, db, insertQuery(phys, docs), true)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func insertQuery(physicalColl string, docs []sdb.Value) string {
	// Degenerate single-statement query form; the receiving node applies
	// one INSERT per document via its own executor.
	var buf bytes.Buffer
	for _, d := range docs {
		data, _ := json.Marshal(d.ToJSON())
		fmt.Fprintf(&buf, "FOR x IN [%s] INSERT x INTO %s ", string(data), physicalColl)
	}
	return buf.String()
}

func (c *Coordinator) Update(ctx *sdb.Context, db, collection string, cfg sdb.ShardConfig, key string, patch sdb.Value) (sdb.Document, error) {
	table, err := c.GetShardTable(ctx, db, collection)
	if err != nil {
		return sdb.Document{}, err
	}
	if table == nil {
		return sdb.Document{}, sdb.ErrShardRouting.New(collection)
	}
	sid := shardForKey(key, table.NumShards)
	phys := sdb.PhysicalShardName(collection, sid)
	if coll, ok := c.local.GetLocalCollection(db, phys); ok {
		return coll.Update(ctx, key, patch)
	}
	a := table.Assignments[sid]
	hp, ok := c.GetNodeAPIAddress(a.PrimaryNode)
	if !ok {
		return sdb.Document{}, sdb.ErrScatterGather.New(sid)
	}
	data, _ := json.Marshal(patch.ToJSON())
	q := fmt.Sprintf(`FOR d IN %s FILTER d._key == %q UPDATE d WITH %s IN %s RETURN NEW`, phys, key, string(data), phys)
	docs, err := c.remoteCursor(ctx, hp, db, q, true)
	if err != nil {
		return sdb.Document{}, err
	}
	if len(docs) == 0 {
		return sdb.Document{}, sdb.ErrDocumentNotFound.New(key)
	}
	return docs[0], nil
}

func (c *Coordinator) Delete(ctx *sdb.Context, db, collection string, cfg sdb.ShardConfig, key string) error {
	table, err := c.GetShardTable(ctx, db, collection)
	if err != nil {
		return err
	}
	if table == nil {
		return sdb.ErrShardRouting.New(collection)
	}
	sid := shardForKey(key, table.NumShards)
	phys := sdb.PhysicalShardName(collection, sid)
	if coll, ok := c.local.GetLocalCollection(db, phys); ok {
		return coll.Delete(ctx, key)
	}
	a := table.Assignments[sid]
	hp, ok := c.GetNodeAPIAddress(a.PrimaryNode)
	if !ok {
		return sdb.ErrScatterGather.New(sid)
	}
	q := fmt.Sprintf(`FOR d IN %s FILTER d._key == %q REMOVE d IN %s`, phys, key, phys)
	_, err = c.remoteCursor(ctx, hp, db, q, true)
	return err
}

// ScatterGatherScan iterates every shard, scanning locally when owned
// or querying the primary then replicas remotely otherwise, and
// deduplicates the gathered documents by _key (spec §4.7).
func (c *Coordinator) ScatterGatherScan(ctx *sdb.Context, db, collection string, table *sdb.ShardTable, limit int) ([]sdb.Document, error) {
	seen := map[string]bool{}
	var out []sdb.Document

	for sid := 0; sid < table.NumShards; sid++ {
		phys := sdb.PhysicalShardName(collection, sid)
		docs, err := c.scanShard(ctx, db, phys, table.Assignments[sid])
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			out = append(out, d)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Coordinator) scanShard(ctx *sdb.Context, db, phys string, a sdb.ShardAssignment) ([]sdb.Document, error) {
	if coll, ok := c.local.GetLocalCollection(db, phys); ok {
		return coll.All(ctx)
	}

	candidates := append([]sdb.NodeID{a.PrimaryNode}, a.ReplicaNodes...)
	var lastErr error
	for _, nodeID := range candidates {
		hp, ok := c.GetNodeAPIAddress(nodeID)
		if !ok {
			continue
		}
		docs, err := c.remoteCursor(ctx, hp, db, fmt.Sprintf("FOR doc IN %s RETURN doc", phys), true)
		if err == nil {
			return docs, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = sdb.ErrScatterGather.New(0)
	}
	return nil, lastErr
}

// remoteCursor issues the inter-node scatter-gather HTTP request
// described in spec §6: POST /_api/database/<db>/cursor with the
// X-Scatter-Gather/X-Cluster-Secret headers, returning the documents
// in the response's "result" array.
func (c *Coordinator) remoteCursor(ctx *sdb.Context, hp sdb.HostPort, db, query string, scatterGather bool) ([]sdb.Document, error) {
	span := ctx.Tracer.StartSpan("shard_remote_cursor")
	span.SetTag("node", fmt.Sprintf("%s:%d", hp.Host, hp.Port))
	span.SetTag("scatter_gather", scatterGather)
	defer span.Finish()

	url := fmt.Sprintf("%s://%s:%d/_api/database/%s/cursor", c.scheme, hp.Host, hp.Port, db)
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	if scatterGather {
		req.Header.Set("X-Scatter-Gather", "true")
	} else {
		req.Header.Set("X-Shard-Direct", "true")
	}
	req.Header.Set("X-Cluster-Secret", c.secret)
	_ = ctx.Tracer.Inject(span.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetTag("error", true)
		return nil, errors.Wrap(err, "shard: remote cursor request")
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("shard: remote cursor returned status %d: %s", resp.StatusCode, string(data))
	}

	var envelope struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrap(err, "shard: decoding cursor response")
	}

	docs := make([]sdb.Document, 0, len(envelope.Result))
	for _, raw := range envelope.Result {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, errors.Wrap(err, "shard: decoding document")
		}
		docs = append(docs, sdb.NewDocument(db, sdb.FromJSON(decoded)))
	}
	return docs, nil
}

// CheckClusterSecret constant-time-compares candidate against the
// configured secret, failing closed when the configured secret is
// empty (spec §6).
func CheckClusterSecret(configured, candidate string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(candidate)) == 1
}

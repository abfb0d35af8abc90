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

// Command solisdbd boots a single node of the cluster: it loads the
// injected configuration record (spec §9), joins the gossip directory,
// wires storage, the sync log, the shard coordinator and the engine,
// and serves the inter-node cursor endpoint plus Prometheus /metrics
// over HTTP.
package main

import (
	"flag"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	solisdb "github.com/solisdb/solisdb"
	"github.com/solisdb/solisdb/config"
	"github.com/solisdb/solisdb/expression/function"
	"github.com/solisdb/solisdb/metrics"
	"github.com/solisdb/solisdb/sdb"
	"github.com/solisdb/solisdb/shard"
	"github.com/solisdb/solisdb/storage"
	"github.com/solisdb/solisdb/storage/memory"
	"github.com/solisdb/solisdb/synclog"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the yaml configuration file")
		nodeID     = flag.String("node-id", "node-1", "this node's cluster id")
		bindAddr   = flag.String("bind-addr", "0.0.0.0", "gossip bind address")
		bindPort   = flag.Int("bind-port", 7946, "gossip bind port")
		apiAddr    = flag.String("api-addr", ":8529", "HTTP API listen address")
		apiPort    = flag.Int("api-port", 8529, "HTTP API port advertised over gossip")
		seeds      = flag.String("seeds", "", "comma-separated gossip seed addresses")
		syncLog    = flag.String("sync-log", "solisdb.synclog", "path to the bolt-backed sync log file")
	)
	flag.Parse()

	logger := logrus.NewEntry(logrus.StandardLogger())

	cfg := config.Config{}
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("solisdbd: loading configuration")
		}
		cfg = loaded
	}
	cfg = config.FromEnv(cfg).Defaults()

	dir := shard.NewDirectory(sdb.NodeID(*nodeID), *apiPort)
	var seedList []string
	if *seeds != "" {
		seedList = strings.Split(*seeds, ",")
	}
	if err := dir.Join(*bindAddr, *bindPort, seedList); err != nil {
		logger.WithError(err).Fatal("solisdbd: joining gossip cluster")
	}
	defer dir.Close()

	log, err := synclog.Open(*syncLog, *nodeID)
	if err != nil {
		logger.WithError(err).Fatal("solisdbd: opening sync log")
	}
	defer log.Close()

	provider := memory.NewProvider(storage.Config{StatsFlushInterval: cfg.StatsFlushInterval})

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)

	rt := &sdb.Runtime{
		Storage:              provider,
		SyncLog:              log,
		Functions:            function.NewRegistry(),
		Metrics:              recorder,
		InsertBatchThreshold: cfg.InsertBatchThreshold,
		BulkInsertBatchSize:  cfg.BulkInsertBatchSize,
		BulkInsertMinRange:   cfg.BulkInsertMinRange,
	}

	engine := solisdb.NewDefault(rt)

	local := localCollections{provider: provider}
	coordinator := shard.NewCoordinator(dir, local, cfg.ClusterSecret, cfg.ClusterScheme)
	rt.Shard = coordinator

	server := shard.NewServer(engine, cfg.ClusterSecret)

	mux := server.Router()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logger.WithFields(logrus.Fields{
		"node_id":  *nodeID,
		"api_addr": *apiAddr,
	}).Info("solisdbd: listening")

	if err := http.ListenAndServe(*apiAddr, mux); err != nil {
		logger.WithError(err).Fatal("solisdbd: HTTP server exited")
	}
}

// localCollections adapts the in-memory storage provider to
// shard.LocalCollections, letting the coordinator serve a shard that
// happens to live on this node without a network round trip.
type localCollections struct {
	provider *memory.Provider
}

func (l localCollections) GetLocalCollection(database, physicalName string) (sdb.Collection, bool) {
	db, ok := l.provider.GetDatabase(database)
	if !ok {
		return nil, false
	}
	return db.GetCollection(physicalName)
}

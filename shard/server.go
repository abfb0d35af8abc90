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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/solisdb/solisdb/sdb"
)

// QueryRunner executes an SDBQL query against a database and returns
// its result rows as Values, the narrow surface the inbound cursor
// endpoint needs from the engine.
type QueryRunner interface {
	RunQuery(ctx *sdb.Context, database, query string) ([]sdb.Value, error)
}

// Server is the inbound half of the inter-node scatter-gather HTTP
// contract (spec §6): it exposes POST /_api/database/<db>/cursor and
// enforces the X-Cluster-Secret check on any request tagged
// X-Scatter-Gather or X-Shard-Direct.
type Server struct {
	runner QueryRunner
	secret string
	logger *logrus.Entry
}

func NewServer(runner QueryRunner, secret string) *Server {
	return &Server{runner: runner, secret: secret, logger: logrus.NewEntry(logrus.StandardLogger())}
}

// Router builds the gorilla/mux router exposing the cursor endpoint,
// for embedding in the node's main HTTP server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/_api/database/{db}/cursor", s.handleCursor).Methods(http.MethodPost)
	return r
}

type cursorRequest struct {
	Query string `json:"query"`
}

type cursorResponse struct {
	Result []interface{} `json:"result"`
}

func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	scatterGather := r.Header.Get("X-Scatter-Gather") != ""
	shardDirect := r.Header.Get("X-Shard-Direct") != ""
	if scatterGather || shardDirect {
		if !CheckClusterSecret(s.secret, r.Header.Get("X-Cluster-Secret")) {
			http.Error(w, "invalid cluster secret", http.StatusForbidden)
			return
		}
	}

	var req cursorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	db := mux.Vars(r)["db"]
	ctx := sdb.NewContext(r.Context(), sdb.WithDatabase(db))

	results, err := s.runner.RunQuery(ctx, db, req.Query)
	if err != nil {
		s.logger.WithError(err).WithField("database", db).Warn("shard: cursor query failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]interface{}, len(results))
	for i, v := range results {
		out[i] = v.ToJSON()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cursorResponse{Result: out})
}

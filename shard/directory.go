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

// Package shard is the shard coordinator client (spec §4.7): scatter-
// gather reads, sharded write routing, and the node directory they
// route against.
package shard

import (
	"fmt"
	"sync"

	"github.com/hashicorp/memberlist"
	"github.com/hashicorp/serf/serf"
	"github.com/solisdb/solisdb/sdb"
)

// Directory tracks the cluster's node membership and each node's API
// address, backed by a gossiping memberlist/serf cluster so that node
// join/leave/fail events update the directory without a central
// registry. Membership transport is out of scope for this module
// beyond what the directory needs to answer GetNodeAPIAddress (spec §1:
// "cluster membership, shard-table gossip" is an external collaborator
// contract, not reimplemented here).
type Directory struct {
	mu        sync.RWMutex
	self      sdb.NodeID
	apiPort   int
	addresses map[sdb.NodeID]sdb.HostPort

	serf *serf.Serf
}

// NewDirectory creates a directory that considers selfID the local
// node, reachable for the API on apiPort.
func NewDirectory(selfID sdb.NodeID, apiPort int) *Directory {
	return &Directory{
		self:      selfID,
		apiPort:   apiPort,
		addresses: map[sdb.NodeID]sdb.HostPort{selfID: {Host: "127.0.0.1", Port: apiPort}},
	}
}

// Join starts a serf agent bound to bindAddr and attempts to join the
// existing cluster through seeds (may be empty for the first node).
// Serf's member-event stream keeps the address table current as nodes
// come and go; memberlist is what serf uses underneath for the actual
// gossip transport.
func (d *Directory) Join(bindAddr string, bindPort int, seeds []string) error {
	events := make(chan serf.Event, 64)

	conf := serf.DefaultConfig()
	conf.MemberlistConfig = memberlist.DefaultLANConfig()
	conf.MemberlistConfig.BindAddr = bindAddr
	conf.MemberlistConfig.BindPort = bindPort
	conf.NodeName = string(d.self)
	conf.EventCh = events
	conf.Tags = map[string]string{"api_port": fmt.Sprintf("%d", d.apiPort)}

	s, err := serf.Create(conf)
	if err != nil {
		return err
	}
	d.serf = s

	go d.watch(events)

	if len(seeds) > 0 {
		if _, err := s.Join(seeds, true); err != nil {
			return err
		}
	}
	return nil
}

func (d *Directory) watch(events chan serf.Event) {
	for ev := range events {
		me, ok := ev.(serf.MemberEvent)
		if !ok {
			continue
		}
		for _, m := range me.Members {
			switch me.EventType() {
			case serf.EventMemberJoin, serf.EventMemberUpdate:
				d.setAddress(m)
			case serf.EventMemberLeave, serf.EventMemberFailed, serf.EventMemberReap:
				d.removeAddress(sdb.NodeID(m.Name))
			}
		}
	}
}

func (d *Directory) setAddress(m serf.Member) {
	port := d.apiPort
	if v, ok := m.Tags["api_port"]; ok {
		fmt.Sscanf(v, "%d", &port)
	}
	d.mu.Lock()
	d.addresses[sdb.NodeID(m.Name)] = sdb.HostPort{Host: m.Addr.String(), Port: port}
	d.mu.Unlock()
}

func (d *Directory) removeAddress(id sdb.NodeID) {
	if id == d.self {
		return
	}
	d.mu.Lock()
	delete(d.addresses, id)
	d.mu.Unlock()
}

func (d *Directory) MyNodeID() sdb.NodeID { return d.self }

func (d *Directory) GetNodeAPIAddress(id sdb.NodeID) (sdb.HostPort, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hp, ok := d.addresses[id]
	return hp, ok
}

// Close leaves the cluster gracefully, if joined.
func (d *Directory) Close() error {
	if d.serf == nil {
		return nil
	}
	return d.serf.Leave()
}

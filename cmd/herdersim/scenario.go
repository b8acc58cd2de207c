// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/crypto"
	"github.com/algorand/go-herder/data/consensus"
	"github.com/algorand/go-herder/herder"
	"github.com/algorand/go-herder/logging"
	"github.com/algorand/go-herder/network"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util/metrics"
)

// rootQuorumSetName names the quorum set shared by every simulated node.
const rootQuorumSetName = "root"

const maxSettleRounds = 10000

var errBadScenario = errors.New("bad scenario")

// scenario is the JSON description of a simulation run.
type scenario struct {
	Nodes []string `codec:"nodes"`
	// Threshold of the shared root quorum set; a simple majority when zero.
	Threshold  uint32              `codec:"threshold"`
	QuorumSets []scenarioQuorumSet `codec:"qsets"`
	TxSets     []scenarioTxSet     `codec:"txsets"`
	Events     []scenarioEvent     `codec:"events"`
}

type scenarioQuorumSet struct {
	Name       string   `codec:"name"`
	Threshold  uint32   `codec:"threshold"`
	Validators []string `codec:"validators"`
	// Holders are the nodes that know the object before the first event.
	Holders []string `codec:"holders"`
}

type scenarioTxSet struct {
	Name         string   `codec:"name"`
	Transactions []string `codec:"transactions"`
	Holders      []string `codec:"holders"`
}

const (
	eventEnvelope   = "envelope"
	eventAdd        = "add"
	eventEraseBelow = "eraseBelow"
	eventSlotClosed = "slotClosed"
)

type scenarioEvent struct {
	Kind string `codec:"kind"`
	// Node is the node the event happens at.
	Node string `codec:"node"`
	Slot uint64 `codec:"slot"`

	// envelope events
	Sender    string `codec:"sender"`
	Statement string `codec:"statement"`
	QuorumSet string `codec:"qset"`
	TxSet     string `codec:"txset"`
	Gossip    bool   `codec:"gossip"`

	// add events
	Object string `codec:"object"`
}

func loadScenario(filename string) (sc scenario, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return
	}
	err = protocol.DecodeJSON(data, &sc)
	if err != nil {
		err = fmt.Errorf("%s: %w", filename, err)
	}
	return
}

func nodeIDFromName(name string) consensus.NodeID {
	return consensus.NodeID(crypto.Hash([]byte(name)))
}

func parseStatementType(name string) (consensus.StatementType, error) {
	if name == "" {
		return consensus.Nominate, nil
	}
	for t := consensus.Nominate; t <= consensus.Externalize; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown statement %q: %w", name, errBadScenario)
}

// simEngine pops every envelope as soon as it is ready and closes the slot once
// an externalize statement has been processed.
type simEngine struct {
	svc *herder.Service
	log logging.Logger

	popped       uint64
	externalized []uint64
}

func (e *simEngine) EnvelopeReady(env consensus.Envelope) {
	pe := e.svc.Herder()
	got, ok := pe.Pop(env.Slot())
	if !ok {
		return
	}
	e.popped++
	e.log.Debugf("processed %v", got)
	if got.Statement.Type == consensus.Externalize {
		e.externalized = append(e.externalized, got.Slot())
		pe.SlotClosed(got.Slot())
	}
}

type simNode struct {
	name   string
	id     consensus.NodeID
	node   *network.LoopbackNode
	svc    *herder.Service
	engine *simEngine
	reg    *metrics.Registry
}

// simulation is a set of herder services on one loopback network.
type simulation struct {
	sc  scenario
	log logging.Logger
	net *network.LoopbackNetwork

	nodes  map[string]*simNode
	order  []string
	qsets  map[string]consensus.QuorumSet
	txsets map[string]consensus.TxSet
}

func makeSimulation(sc scenario, cfg config.Local, log logging.Logger) (*simulation, error) {
	if len(sc.Nodes) == 0 {
		return nil, fmt.Errorf("no nodes: %w", errBadScenario)
	}
	sim := &simulation{
		sc:     sc,
		log:    log,
		net:    network.MakeLoopbackNetwork(log),
		nodes:  make(map[string]*simNode),
		qsets:  make(map[string]consensus.QuorumSet),
		txsets: make(map[string]consensus.TxSet),
	}

	root := consensus.QuorumSet{Threshold: sc.Threshold}
	for _, name := range sc.Nodes {
		if _, dup := sim.nodes[name]; dup {
			return nil, fmt.Errorf("node %q listed twice: %w", name, errBadScenario)
		}
		sim.nodes[name] = &simNode{name: name, id: nodeIDFromName(name)}
		sim.order = append(sim.order, name)
		root.Validators = append(root.Validators, nodeIDFromName(name))
	}
	if root.Threshold == 0 {
		root.Threshold = uint32(len(sc.Nodes)/2 + 1)
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("root quorum set: %w", err)
	}
	sim.qsets[rootQuorumSetName] = root

	for _, q := range sc.QuorumSets {
		qs := consensus.QuorumSet{Threshold: q.Threshold}
		for _, v := range q.Validators {
			if _, ok := sim.nodes[v]; !ok {
				return nil, fmt.Errorf("quorum set %q: unknown validator %q: %w", q.Name, v, errBadScenario)
			}
			qs.Validators = append(qs.Validators, nodeIDFromName(v))
		}
		if err := qs.Validate(); err != nil {
			return nil, fmt.Errorf("quorum set %q: %w", q.Name, err)
		}
		if err := sim.defineObject(q.Name, q.Holders); err != nil {
			return nil, err
		}
		sim.qsets[q.Name] = qs
	}
	for _, x := range sc.TxSets {
		ts := consensus.TxSet{}
		for _, tx := range x.Transactions {
			ts.Transactions = append(ts.Transactions, []byte(tx))
		}
		if err := sim.defineObject(x.Name, x.Holders); err != nil {
			return nil, err
		}
		sim.txsets[x.Name] = ts
	}

	for _, name := range sim.order {
		sn := sim.nodes[name]
		sn.node = sim.net.AddNode(name)
		sn.reg = metrics.MakeRegistry()
		sn.engine = &simEngine{log: log.With("node", name)}
		svc, err := herder.MakeService(herder.ServiceParameters{
			Local:          cfg,
			Logger:         log.With("node", name),
			Node:           sn.node,
			LocalNode:      sn.id,
			LocalQuorumSet: root,
			Engine:         sn.engine,
			Registry:       sn.reg,
		})
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		sn.svc = svc
		sn.engine.svc = svc
	}
	return sim, nil
}

func (sim *simulation) defineObject(name string, holders []string) error {
	if name == "" || name == rootQuorumSetName {
		return fmt.Errorf("object name %q is reserved: %w", name, errBadScenario)
	}
	_, isQuorumSet := sim.qsets[name]
	_, isTxSet := sim.txsets[name]
	if isQuorumSet || isTxSet {
		return fmt.Errorf("object %q defined twice: %w", name, errBadScenario)
	}
	for _, h := range holders {
		if _, ok := sim.nodes[h]; !ok {
			return fmt.Errorf("object %q: unknown holder %q: %w", name, h, errBadScenario)
		}
	}
	return nil
}

// start starts every service. stop must be called once start has been called.
func (sim *simulation) start() {
	for _, name := range sim.order {
		sim.nodes[name].svc.Start()
	}
}

func (sim *simulation) stop() {
	for _, name := range sim.order {
		sim.nodes[name].svc.Shutdown()
	}
}

// settle delivers messages until the network is quiet and every service has handled
// all the work the deliveries produced.
func (sim *simulation) settle(ctx context.Context) error {
	for i := 0; i < maxSettleRounds; i++ {
		for _, name := range sim.order {
			if err := sim.nodes[name].svc.Do(ctx, func(*herder.PendingEnvelopes) {}); err != nil {
				return err
			}
		}
		if sim.net.Drain() == 0 {
			return nil
		}
	}
	return fmt.Errorf("network did not settle after %d rounds", maxSettleRounds)
}

// run hands out the initial objects and then plays every event, settling after each one.
func (sim *simulation) run(ctx context.Context) error {
	for _, q := range sim.sc.QuorumSets {
		for _, h := range q.Holders {
			sim.nodes[h].svc.AddQuorumSet(0, sim.qsets[q.Name])
		}
	}
	for _, x := range sim.sc.TxSets {
		for _, h := range x.Holders {
			sim.nodes[h].svc.AddTxSet(0, sim.txsets[x.Name])
		}
	}
	if err := sim.settle(ctx); err != nil {
		return err
	}
	for i, ev := range sim.sc.Events {
		if err := sim.apply(i, ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if err := sim.settle(ctx); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (sim *simulation) apply(i int, ev scenarioEvent) error {
	sn, ok := sim.nodes[ev.Node]
	if !ok {
		return fmt.Errorf("unknown node %q: %w", ev.Node, errBadScenario)
	}
	switch ev.Kind {
	case eventEnvelope:
		env, err := sim.envelope(i, ev)
		if err != nil {
			return err
		}
		if ev.Gossip {
			return sn.svc.Submit(env)
		}
		sn.svc.RecvEnvelope(env)
	case eventAdd:
		if qs, ok := sim.qsets[ev.Object]; ok {
			sn.svc.AddQuorumSet(ev.Slot, qs)
		} else if ts, ok := sim.txsets[ev.Object]; ok {
			sn.svc.AddTxSet(ev.Slot, ts)
		} else {
			return fmt.Errorf("unknown object %q: %w", ev.Object, errBadScenario)
		}
	case eventEraseBelow:
		sn.svc.EraseBelow(ev.Slot)
	case eventSlotClosed:
		sn.svc.SlotClosed(ev.Slot)
	default:
		return fmt.Errorf("unknown event kind %q: %w", ev.Kind, errBadScenario)
	}
	return nil
}

func (sim *simulation) envelope(i int, ev scenarioEvent) (env consensus.Envelope, err error) {
	sender := ev.Sender
	if sender == "" {
		sender = ev.Node
	}
	if _, ok := sim.nodes[sender]; !ok {
		// senders outside the network are allowed, they are just never in anybody's quorum
		sim.log.Debugf("envelope from unknown sender %q", sender)
	}
	st := &env.Statement
	st.NodeID = nodeIDFromName(sender)
	st.SlotIndex = ev.Slot
	st.Type, err = parseStatementType(ev.Statement)
	if err != nil {
		return
	}
	if ev.QuorumSet != "" {
		qs, ok := sim.qsets[ev.QuorumSet]
		if !ok {
			return env, fmt.Errorf("unknown quorum set %q: %w", ev.QuorumSet, errBadScenario)
		}
		st.QuorumSetHash = qs.Hash()
	}
	if ev.TxSet != "" {
		ts, ok := sim.txsets[ev.TxSet]
		if !ok {
			return env, fmt.Errorf("unknown tx set %q: %w", ev.TxSet, errBadScenario)
		}
		st.TxSetHash = ts.Hash()
	}
	st.Ballot = []byte(fmt.Sprintf("event-%d", i))
	sig := crypto.Hash(append(st.NodeID[:], st.Ballot...))
	env.Signature = sig[:]
	return env, nil
}

// nodeReport is what a simulated node ended up with.
type nodeReport struct {
	Node         string      `codec:"node"`
	ID           string      `codec:"id"`
	Popped       uint64      `codec:"popped"`
	Externalized []uint64    `codec:"externalized"`
	Herder       herder.Info `codec:"herder"`
}

func (sim *simulation) nodeReport(ctx context.Context, name string, limit int) (r nodeReport, err error) {
	sn, ok := sim.nodes[name]
	if !ok {
		return r, fmt.Errorf("unknown node %q: %w", name, errBadScenario)
	}
	r.Node = name
	r.ID = sn.id.String()
	err = sn.svc.Do(ctx, func(pe *herder.PendingEnvelopes) {
		r.Popped = sn.engine.popped
		r.Externalized = append([]uint64(nil), sn.engine.externalized...)
		r.Herder = pe.Info(limit)
	})
	return
}

func (sim *simulation) report(ctx context.Context, limit int) ([]nodeReport, error) {
	reports := make([]nodeReport, 0, len(sim.order))
	for _, name := range sim.order {
		r, err := sim.nodeReport(ctx, name, limit)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (sim *simulation) nodeNames() []string {
	names := append([]string(nil), sim.order...)
	sort.Strings(names)
	return names
}

// runScenario plays sc to completion and reports the state of every node.
func runScenario(ctx context.Context, sc scenario, cfg config.Local, log logging.Logger, limit int) ([]nodeReport, error) {
	sim, err := makeSimulation(sc, cfg, log)
	if err != nil {
		return nil, err
	}
	sim.start()
	defer sim.stop()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := sim.run(ctx); err != nil {
		return nil, err
	}
	return sim.report(ctx, limit)
}

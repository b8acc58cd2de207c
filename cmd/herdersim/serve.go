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
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/util/metrics"
)

const defaultDiagnosticsAddress = "127.0.0.1:8180"

var (
	serveScenarioFile string
	listenAddress     string
)

func init() {
	serveCmd.Flags().StringVarP(&serveScenarioFile, "scenario", "s", "", "Scenario file (JSON) to play before serving; a single node is started when empty")
	serveCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "Address to serve diagnostics on; overrides DiagnosticsAddress")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play a scenario and keep its nodes running behind a diagnostics API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			reportErrorf("Unable to load config from '%s': %v", dataDir, err)
		}
		sc := scenario{Nodes: []string{"local"}}
		if serveScenarioFile != "" {
			sc, err = loadScenario(serveScenarioFile)
			if err != nil {
				reportErrorf("Unable to load scenario: %v", err)
			}
		}
		log := makeLogger(cfg)
		sim, err := makeSimulation(sc, cfg, log)
		if err != nil {
			reportErrorf("Unable to set up scenario: %v", err)
		}
		sim.start()
		defer sim.stop()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := sim.run(ctx); err != nil {
			reportErrorf("Scenario failed: %v", err)
		}

		addr := listenAddress
		if addr == "" {
			addr = cfg.DiagnosticsAddress
		}
		if addr == "" {
			addr = defaultDiagnosticsAddress
		}
		server := &http.Server{
			Addr:              addr,
			Handler:           makeDiagnosticsRouter(makeDiagnosticsServer(sim)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Infof("serving diagnostics for %d nodes on %s", len(sim.order), addr)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		if err := g.Wait(); err != nil {
			reportErrorf("Diagnostics server failed: %v", err)
		}
	},
}

// diagnosticsServer serves the state of a running simulation. Events posted to it are
// applied one at a time and the network is settled before the response is written.
type diagnosticsServer struct {
	sim *simulation

	mu      deadlock.Mutex
	applied int

	prom *prometheus.Registry
}

func makeDiagnosticsServer(sim *simulation) *diagnosticsServer {
	ds := &diagnosticsServer{
		sim:     sim,
		applied: len(sim.sc.Events),
		prom:    prometheus.NewRegistry(),
	}
	for _, name := range sim.order {
		labelled := prometheus.WrapRegistererWith(prometheus.Labels{"node": name}, ds.prom)
		labelled.MustRegister(metrics.MakePrometheusCollector(sim.nodes[name].reg))
	}
	return ds
}

func makeDiagnosticsRouter(ds *diagnosticsServer) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(ds.prom, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/v1/herder/nodes", ds.listNodes).Methods(http.MethodGet)
	r.HandleFunc("/v1/herder/nodes/{node}", ds.nodeInfo).Methods(http.MethodGet)
	r.HandleFunc("/v1/herder/events", ds.postEvent).Methods(http.MethodPost)
	return r
}

type nodeListResponse struct {
	Nodes []string `codec:"nodes"`
}

type errorResponse struct {
	Message string `codec:"message"`
}

func writeJSON(w http.ResponseWriter, status int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(protocol.EncodeJSON(obj))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func (ds *diagnosticsServer) listNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nodeListResponse{Nodes: ds.sim.nodeNames()})
}

func (ds *diagnosticsServer) nodeInfo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["node"]
	if _, ok := ds.sim.nodes[name]; !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown node "+strconv.Quote(name)))
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		var err error
		limit, err = strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	report, err := ds.sim.nodeReport(r.Context(), name, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (ds *diagnosticsServer) postEvent(w http.ResponseWriter, r *http.Request) {
	var ev scenarioEvent
	if err := protocol.NewJSONDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if err := ds.sim.apply(ds.applied, ev); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errBadScenario) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	ds.applied++
	if err := ds.sim.settle(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/config"
	"github.com/algorand/go-herder/protocol"
	"github.com/algorand/go-herder/test/partitiontest"
)

func makeTestRouter(t *testing.T) *mux.Router {
	sc := scenario{
		Nodes:  []string{"b", "a"},
		TxSets: []scenarioTxSet{{Name: "tx", Transactions: []string{"t"}, Holders: []string{"a"}}},
	}
	sim, err := makeSimulation(sc, config.GetDefaultLocal(), quietLog(t))
	require.NoError(t, err)
	sim.start()
	t.Cleanup(sim.stop)
	require.NoError(t, sim.run(context.Background()))
	return makeDiagnosticsRouter(makeDiagnosticsServer(sim))
}

func serve(router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDiagnosticsListNodes(t *testing.T) {
	partitiontest.PartitionTest(t)

	router := makeTestRouter(t)
	rec := serve(router, http.MethodGet, "/v1/herder/nodes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp nodeListResponse
	require.NoError(t, protocol.DecodeJSON(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"a", "b"}, resp.Nodes)
}

func TestDiagnosticsNodeInfo(t *testing.T) {
	partitiontest.PartitionTest(t)

	router := makeTestRouter(t)

	rec := serve(router, http.MethodGet, "/v1/herder/nodes/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report nodeReport
	require.NoError(t, protocol.DecodeJSON(rec.Body.Bytes(), &report))
	require.Equal(t, "a", report.Node)
	require.Equal(t, nodeIDFromName("a").String(), report.ID)
	require.Equal(t, 1, report.Herder.TxSets.Len)

	rec = serve(router, http.MethodGet, "/v1/herder/nodes/zz", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, http.MethodGet, "/v1/herder/nodes/a?limit=many", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/v1/herder/nodes/a", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDiagnosticsPostEvent(t *testing.T) {
	partitiontest.PartitionTest(t)

	router := makeTestRouter(t)

	body := `{"kind": "envelope", "node": "a", "slot": 3, "statement": "externalize", "qset": "root", "txset": "tx", "gossip": true}`
	rec := serve(router, http.MethodPost, "/v1/herder/events", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	for _, name := range []string{"a", "b"} {
		rec = serve(router, http.MethodGet, "/v1/herder/nodes/"+name+"?limit=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var report nodeReport
		require.NoError(t, protocol.DecodeJSON(rec.Body.Bytes(), &report))
		require.Equal(t, uint64(1), report.Popped, name)
		require.Equal(t, []uint64{3}, report.Externalized, name)
		require.Len(t, report.Herder.Slots, 1)
		require.True(t, report.Herder.Slots[0].Closed)
	}

	rec = serve(router, http.MethodPost, "/v1/herder/events", `{"kind": "explode", "node": "a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/v1/herder/events", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnosticsMetrics(t *testing.T) {
	partitiontest.PartitionTest(t)

	router := makeTestRouter(t)
	body := `{"kind": "envelope", "node": "b", "slot": 1, "qset": "root", "txset": "tx"}`
	require.Equal(t, http.StatusNoContent, serve(router, http.MethodPost, "/v1/herder/events", body).Code)

	rec := serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `herder_envelopes_received_total{node="b"} 1`)
	require.Contains(t, rec.Body.String(), `node="a"`)
}

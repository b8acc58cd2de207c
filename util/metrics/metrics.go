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

package metrics

// MetricName describes the name and description of a single metric
type MetricName struct {
	Name        string
	Description string
}

var (
	// HerderEnvelopesReceived "Number of envelopes handed to the herder"
	HerderEnvelopesReceived = MetricName{Name: "herder_envelopes_received_total", Description: "Number of envelopes handed to the herder"}
	// HerderEnvelopesDiscarded "Number of envelopes discarded by the herder, labeled by reason"
	HerderEnvelopesDiscarded = MetricName{Name: "herder_envelopes_discarded_total", Description: "Number of envelopes discarded by the herder, labeled by reason"}
	// HerderEnvelopesReady "Number of envelopes that became ready for the consensus engine"
	HerderEnvelopesReady = MetricName{Name: "herder_envelopes_ready_total", Description: "Number of envelopes that became ready for the consensus engine"}
	// HerderEnvelopesPopped "Number of envelopes popped by the consensus engine"
	HerderEnvelopesPopped = MetricName{Name: "herder_envelopes_popped_total", Description: "Number of envelopes popped by the consensus engine"}
	// HerderPendingEnvelopes "Number of envelopes currently fetching or pending"
	HerderPendingEnvelopes = MetricName{Name: "herder_pending_envelopes", Description: "Number of envelopes currently fetching or pending"}
	// HerderWorkQueueMaxDepth "Deepest the herder work queue has been"
	HerderWorkQueueMaxDepth = MetricName{Name: "herder_work_queue_max_depth", Description: "Deepest the herder work queue has been"}

	// FetcherRequestsSent "Number of item requests sent to peers"
	FetcherRequestsSent = MetricName{Name: "fetcher_requests_sent_total", Description: "Number of item requests sent to peers"}
	// FetcherRequestsCoalesced "Number of fetches served by an already outstanding request"
	FetcherRequestsCoalesced = MetricName{Name: "fetcher_requests_coalesced_total", Description: "Number of fetches served by an already outstanding request"}
	// FetcherDontHave "Number of peer responses reporting a missing item"
	FetcherDontHave = MetricName{Name: "fetcher_dont_have_total", Description: "Number of peer responses reporting a missing item"}
	// FetcherExhausted "Number of trackers that ran out of peers to ask"
	FetcherExhausted = MetricName{Name: "fetcher_exhausted_total", Description: "Number of trackers that ran out of peers to ask"}
)

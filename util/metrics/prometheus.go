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

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exposes a Registry through the prometheus client library,
// so it can be served by promhttp alongside other collectors.
// It is an unchecked collector: the set of metric names is only known at collection time.
type PrometheusCollector struct {
	reg *Registry
}

// MakePrometheusCollector wraps reg, or the default registry when reg is nil.
func MakePrometheusCollector(reg *Registry) *PrometheusCollector {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &PrometheusCollector{reg: reg}
}

// Describe implements prometheus.Collector.
func (pc *PrometheusCollector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (pc *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	values := make(map[string]float64)
	pc.reg.AddMetrics(values)

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		promName := sanitizePrometheusName(name)
		desc := prometheus.NewDesc(promName, promName, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.UntypedValue, values[name])
	}
}

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
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Gauge represent a single gauge variable.
type Gauge struct {
	value       atomic.Uint64 // float64 bits
	name        string
	description string
}

// NewGauge creates a new gauge with the provided name and description,
// without registering it anywhere.
func NewGauge(metric MetricName) *Gauge {
	return &Gauge{
		name:        metric.Name,
		description: metric.Description,
	}
}

// MakeGauge create a new gauge with the provided name and description,
// and registers it with the default registry.
func MakeGauge(metric MetricName) *Gauge {
	g := NewGauge(metric)
	g.Register(nil)
	return g
}

// Register registers the gauge with the default/specific registry
func (gauge *Gauge) Register(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Register(gauge)
	} else {
		reg.Register(gauge)
	}
}

// Deregister deregisters the gauge with the default/specific registry
func (gauge *Gauge) Deregister(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Deregister(gauge)
	} else {
		reg.Deregister(gauge)
	}
}

// Set sets gauge to x
func (gauge *Gauge) Set(x float64) {
	gauge.value.Store(math.Float64bits(x))
}

// SetUint64 sets gauge to x
func (gauge *Gauge) SetUint64(x uint64) {
	gauge.Set(float64(x))
}

// Add increases gauge by x
func (gauge *Gauge) Add(x float64) {
	for {
		old := gauge.value.Load()
		updated := math.Float64bits(math.Float64frombits(old) + x)
		if gauge.value.CompareAndSwap(old, updated) {
			return
		}
	}
}

// Get returns the current value of the gauge
func (gauge *Gauge) Get() float64 {
	return math.Float64frombits(gauge.value.Load())
}

// WriteMetric writes the metric into the output stream
func (gauge *Gauge) WriteMetric(buf *strings.Builder, parentLabels string) {
	buf.WriteString("# HELP ")
	buf.WriteString(gauge.name)
	buf.WriteString(" ")
	buf.WriteString(gauge.description)
	buf.WriteString("\n# TYPE ")
	buf.WriteString(gauge.name)
	buf.WriteString(" gauge\n")
	buf.WriteString(gauge.name)
	if parentLabels != "" {
		buf.WriteString("{")
		buf.WriteString(parentLabels)
		buf.WriteString("}")
	}
	buf.WriteString(" ")
	buf.WriteString(strconv.FormatFloat(gauge.Get(), 'f', -1, 64))
	buf.WriteString("\n")
}

// AddMetric adds the metric into the map
func (gauge *Gauge) AddMetric(values map[string]float64) {
	values[sanitizeTelemetryName(gauge.name)] = gauge.Get()
}

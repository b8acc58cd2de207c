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
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/algorand/go-deadlock"
)

// Counter represent a single counter variable.
type Counter struct {
	// Collects value for special fast-path with no labels through Inc(nil) AddUint64(x, nil)
	intValue atomic.Uint64

	mu          deadlock.Mutex
	name        string
	description string
	values      map[string]*counterValues // keyed by formatted labels
}

type counterValues struct {
	counter         uint64
	labels          map[string]string
	formattedLabels string
}

// NewCounter creates a new counter with the provided name and description,
// without registering it anywhere.
func NewCounter(metric MetricName) *Counter {
	return &Counter{
		name:        metric.Name,
		description: metric.Description,
		values:      make(map[string]*counterValues),
	}
}

// MakeCounter create a new counter with the provided name and description,
// and registers it with the default registry.
func MakeCounter(metric MetricName) *Counter {
	c := NewCounter(metric)
	c.Register(nil)
	return c
}

// Register registers the counter with the default/specific registry
func (counter *Counter) Register(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Register(counter)
	} else {
		reg.Register(counter)
	}
}

// Deregister deregisters the counter with the default/specific registry
func (counter *Counter) Deregister(reg *Registry) {
	if reg == nil {
		DefaultRegistry().Deregister(counter)
	} else {
		reg.Deregister(counter)
	}
}

// Inc increases counter by 1
// Much faster if labels is nil or empty.
func (counter *Counter) Inc(labels map[string]string) {
	counter.AddUint64(1, labels)
}

// AddUint64 increases counter by x
// If labels is nil this is much faster than if labels is not nil.
func (counter *Counter) AddUint64(x uint64, labels map[string]string) {
	if len(labels) == 0 {
		counter.intValue.Add(x)
		return
	}
	formatted := formatLabels(labels)

	counter.mu.Lock()
	defer counter.mu.Unlock()
	val, has := counter.values[formatted]
	if !has {
		copied := make(map[string]string, len(labels))
		for k, v := range labels {
			copied[k] = v
		}
		val = &counterValues{labels: copied, formattedLabels: formatted}
		counter.values[formatted] = val
	}
	val.counter += x
}

// GetUint64Value returns the value of the counter.
func (counter *Counter) GetUint64Value() (x uint64) {
	return counter.intValue.Load()
}

// GetUint64ValueForLabels returns the value of the counter for the given labels or 0 if it's not found.
func (counter *Counter) GetUint64ValueForLabels(labels map[string]string) uint64 {
	if len(labels) == 0 {
		return counter.GetUint64Value()
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if val, has := counter.values[formatLabels(labels)]; has {
		return val.counter
	}
	return 0
}

// WriteMetric writes the metric into the output stream
func (counter *Counter) WriteMetric(buf *strings.Builder, parentLabels string) {
	counter.mu.Lock()
	defer counter.mu.Unlock()

	buf.WriteString("# HELP ")
	buf.WriteString(counter.name)
	buf.WriteString(" ")
	buf.WriteString(counter.description)
	buf.WriteString("\n# TYPE ")
	buf.WriteString(counter.name)
	buf.WriteString(" counter\n")

	writeSample(buf, counter.name, joinLabels(parentLabels, ""), counter.intValue.Load())
	for _, key := range sortedKeys(counter.values) {
		val := counter.values[key]
		writeSample(buf, counter.name, joinLabels(parentLabels, val.formattedLabels), val.counter)
	}
}

// AddMetric adds the metric into the map
func (counter *Counter) AddMetric(values map[string]float64) {
	counter.mu.Lock()
	defer counter.mu.Unlock()

	values[sanitizeTelemetryName(counter.name)] = float64(counter.intValue.Load())
	for _, val := range counter.values {
		name := counter.name
		for _, k := range sortedKeys(val.labels) {
			name += "_" + k + "_" + val.labels[k]
		}
		values[sanitizeTelemetryName(name)] = float64(val.counter)
	}
}

func writeSample(buf *strings.Builder, name, labels string, value uint64) {
	buf.WriteString(name)
	if labels != "" {
		buf.WriteString("{")
		buf.WriteString(labels)
		buf.WriteString("}")
	}
	buf.WriteString(" ")
	buf.WriteString(strconv.FormatUint(value, 10))
	buf.WriteString("\n")
}

func formatLabels(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for _, k := range sortedKeys(labels) {
		parts = append(parts, k+"=\""+labels[k]+"\"")
	}
	return strings.Join(parts, ",")
}

func joinLabels(parent, own string) string {
	switch {
	case parent == "":
		return own
	case own == "":
		return parent
	default:
		return parent + "," + own
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

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

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-herder/test/partitiontest"
)

/*
Since most of the functions are pure wrappers, we don't test them and trust the logrus testing coverage.
*/

func isJSON(s string) bool {
	var js map[string]interface{}
	return json.Unmarshal([]byte(s), &js) == nil
}

func TestFileOutputNewLogger(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var bufNewLogger bytes.Buffer

	nl := NewLogger()
	nl.SetOutput(&bufNewLogger)

	nl.Info("Should show up in New logger but not in BaseLogger")
	a.Contains(bufNewLogger.String(), "Should show up in New logger but not in BaseLogger")
}

func TestSetGetLevel(t *testing.T) {
	partitiontest.PartitionTest(t)

	nl := NewLogger()
	require.Equal(t, Info, nl.GetLevel())
	nl.SetLevel(Error)
	require.Equal(t, Error, nl.GetLevel())
	require.True(t, nl.IsLevelEnabled(Error))
	require.False(t, nl.IsLevelEnabled(Warn))
}

func TestSetLevelNewLogger(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var bufNewLogger bytes.Buffer

	nl := NewLogger()
	nl.SetOutput(&bufNewLogger)

	nl.Debug("ABC Should not show up")
	nl.Info("CDF Should show up")
	nl.Warn("GHI Should show up")

	a.NotContains(bufNewLogger.String(), "ABC Should not show up")
	a.Contains(bufNewLogger.String(), "CDF Should show up")
	a.Contains(bufNewLogger.String(), "GHI Should show up")
}

func TestWithFieldsNewLogger(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var bufNewLogger bytes.Buffer

	nl := NewLogger()
	nl.SetOutput(&bufNewLogger)

	nl.WithFields(Fields{"1": 4, "2": "testNew"}).Info("ABCDEFG")
	a.Regexp("time=\".*\" level=info msg=ABCDEFG 1=4 2=testNew file=log_test.go function=github.com/algorand/go-herder/logging.TestWithFieldsNewLogger line=\\d+", bufNewLogger.String())

	bufNewLogger.Reset()
	nl.With("slot", 5).Info("HIJ")
	a.Contains(bufNewLogger.String(), "slot=5")
}

func TestSetJSONFormatter(t *testing.T) {
	partitiontest.PartitionTest(t)
	a := require.New(t)

	var bufNewLogger bytes.Buffer

	nl := NewLogger()
	nl.SetOutput(&bufNewLogger)
	nl.SetJSONFormatter()
	nl.WithFields(Fields{"1": 4, "2": "testNew"}).Info("ABCDEFG")
	a.True(isJSON(bufNewLogger.String()))
}

type countingHook struct {
	fired int
}

func (h *countingHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel}
}

func (h *countingHook) Fire(*logrus.Entry) error {
	h.fired++
	return nil
}

func TestAddHook(t *testing.T) {
	partitiontest.PartitionTest(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	hook := &countingHook{}
	nl.AddHook(hook)

	nl.Info("not a warning")
	nl.Warnf("warning %d", 1)
	require.Equal(t, 1, hook.fired)
}

type recordingTestingT struct {
	helpers int
	lines   []string
}

func (r *recordingTestingT) Helper() { r.helpers++ }

func (r *recordingTestingT) Log(args ...interface{}) {
	for _, a := range args {
		r.lines = append(r.lines, a.(string))
	}
}

func TestTestingLogWritesThroughHandle(t *testing.T) {
	partitiontest.PartitionTest(t)

	rec := &recordingTestingT{}
	l := TestingLog(rec)
	require.Equal(t, Debug, l.GetLevel())

	l.Debug("first")
	l.Warnf("second %d", 2)
	require.Len(t, rec.lines, 2)
	require.Contains(t, rec.lines[0], "first")
	require.Contains(t, rec.lines[1], "second 2")
	require.Equal(t, 2, rec.helpers)
}

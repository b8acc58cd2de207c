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

// TestingT is the part of testing.TB the testing logger writes through.
// Property-test handles such as *rapid.T satisfy it too.
type TestingT interface {
	Helper()
	Log(args ...interface{})
}

// TestingLog is a test-only convenience function to configure logging for testing.
// Output is routed to t.Log so it is only shown for failing or verbose tests.
func TestingLog(tb TestingT) Logger {
	l := NewLogger()
	l.SetLevel(Debug)
	l.SetOutput(testLoggerWriter{tb})
	return l
}

type testLoggerWriter struct {
	tb TestingT
}

func (w testLoggerWriter) Write(p []byte) (n int, err error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}

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

// Package logging wraps logrus with the Logger interface every herder component takes.
//
//	log := logging.NewLogger()
//	log.With("slot", 12).Info("envelope admitted")
package logging

import (
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level refers to the log logging level
type Level uint32

const (
	// Panic logs and then panics.
	Panic Level = iota
	// Fatal logs and then exits, whatever the configured level.
	Fatal
	// Error is for failures that need attention.
	Error
	// Warn is for unexpected input that the program recovers from.
	Warn
	// Info is for routine operational events.
	Info
	// Debug is for per-message detail.
	Debug
)

const stackPrefix = "[Stack]"

var (
	baseLogger Logger
	once       sync.Once
)

// Init creates the base logger. It logs warnings and above to stderr.
func Init() {
	once.Do(func() {
		baseLogger = NewLogger()
		baseLogger.SetLevel(Warn)
	})
}

func init() {
	Init()
}

// Fields maps logrus fields
type Fields = logrus.Fields

// Logger is the interface for loggers.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})

	// Error, Fatal and Panic also log the current stack.
	Error(...interface{})
	Errorf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Panic(...interface{})
	Panicf(string, ...interface{})

	// With returns a logger that adds one field to every entry.
	With(key string, value interface{}) Logger
	// WithFields returns a logger that adds fields to every entry.
	WithFields(Fields) Logger

	SetLevel(Level)
	GetLevel() Level
	IsLevelEnabled(level Level) bool
	SetOutput(io.Writer)
	SetJSONFormatter()
	AddHook(hook logrus.Hook)

	// source adds file, line and function fields of the caller's caller
	source() *logrus.Entry
}

type logger struct {
	entry *logrus.Entry
}

// Base returns the process-wide logger.
func Base() Logger {
	return baseLogger
}

// NewLogger returns a logger at Info level writing text to stderr.
func NewLogger() Logger {
	l := logrus.New()
	if tf, ok := l.Formatter.(*logrus.TextFormatter); ok {
		tf.TimestampFormat = "2006-01-02T15:04:05.000000 -0700"
	}
	return logger{entry: logrus.NewEntry(l)}
}

func (l logger) With(key string, value interface{}) Logger {
	return logger{entry: l.entry.WithField(key, value)}
}

func (l logger) WithFields(fields Fields) Logger {
	return logger{entry: l.source().WithFields(fields)}
}

func (l logger) Debug(args ...interface{}) {
	l.source().Debug(args...)
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.source().Debugf(format, args...)
}

func (l logger) Info(args ...interface{}) {
	l.source().Info(args...)
}

func (l logger) Infof(format string, args ...interface{}) {
	l.source().Infof(format, args...)
}

func (l logger) Warn(args ...interface{}) {
	l.source().Warn(args...)
}

func (l logger) Warnf(format string, args ...interface{}) {
	l.source().Warnf(format, args...)
}

func (l logger) Error(args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Error(args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Errorf(format, args...)
}

func (l logger) Fatal(args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Fatal(args...)
}

func (l logger) Fatalf(format string, args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Fatalf(format, args...)
}

func (l logger) Panic(args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Panic(args...)
}

func (l logger) Panicf(format string, args ...interface{}) {
	e := l.source()
	e.Errorln(stackPrefix, string(debug.Stack()))
	e.Panicf(format, args...)
}

func (l logger) SetLevel(lvl Level) {
	l.entry.Logger.SetLevel(logrus.Level(lvl))
}

func (l logger) GetLevel() Level {
	return Level(l.entry.Logger.GetLevel())
}

func (l logger) IsLevelEnabled(level Level) bool {
	return l.entry.Logger.IsLevelEnabled(logrus.Level(level))
}

func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l logger) SetJSONFormatter() {
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000000Z07:00"})
}

func (l logger) AddHook(hook logrus.Hook) {
	l.entry.Logger.AddHook(hook)
}

func (l logger) source() *logrus.Entry {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return l.entry
	}
	fields := logrus.Fields{
		"file": file[strings.LastIndex(file, "/")+1:],
		"line": line,
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		fields["function"] = fn.Name()
	}
	return l.entry.WithFields(fields)
}

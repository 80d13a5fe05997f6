// Copyright 2024 The Rustchain Authors
// This file is part of the Rustchain node.
//
// The Rustchain node is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The Rustchain node is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Rustchain node. If not, see <http://www.gnu.org/licenses/>.

// Package log provides per-module structured logging on top of zap,
// mirroring the module-logger convention used throughout this codebase
// (every package keeps its own `var logger = log.NewModuleLogger(...)`).
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module name constants, one per package that keeps a module logger.
const (
	Storage     = "storage"
	Attestation = "attestation"
	Fingerprint = "fingerprint"
	Epoch       = "epoch"
	Wallet      = "wallet"
	P2P         = "p2p"
	API         = "api"
	Node        = "node"
	CLI         = "cli"
)

var (
	baseOnce   sync.Once
	baseLogger *zap.Logger
)

// Logger wraps a zap SugaredLogger tagged with a module field.
type Logger struct {
	s *zap.SugaredLogger
}

func base() *zap.Logger {
	baseOnce.Do(func() {
		var cfg zap.Config
		if os.Getenv("RC_RUNTIME_ENV") == "test" {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			// Logging must never be able to crash boot; fall back to a no-op core.
			l = zap.NewNop()
		}
		baseLogger = l
	})
	return baseLogger
}

// NewModuleLogger returns a logger pre-tagged with the given module name,
// the same shape as `log.NewModuleLogger(log.StorageDatabase)` in the
// ancestor codebase this package is modeled on.
func NewModuleLogger(module string) *Logger {
	return &Logger{s: base().Sugar().With("module", module)}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

// With returns a child logger with additional persistent fields.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{s: l.s.With(kv...)}
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}

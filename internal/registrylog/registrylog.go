// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package registrylog builds the hclog.Logger the registry and its tables
// share, following the construction style of the teacher's
// internal/command/views.NewJSONView (a single hclog.New call configured
// from plain fields, passed down explicitly rather than resolved from a
// package-global).
package registrylog

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// Level mirrors the DBG/TXT/INF/WRN/ERR levels from section 6 of the
// registry specification. TXT has no hclog equivalent (a bare, level-less
// message); it maps to Info with a "mode=text" field rather than being
// dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelText
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) hclogLevel() hclog.Level {
	switch l {
	case LevelDebug:
		return hclog.Debug
	case LevelWarn:
		return hclog.Warn
	case LevelError:
		return hclog.Error
	default:
		return hclog.Info
	}
}

// NewLogger constructs the named hclog.Logger used throughout the registry
// packages. w defaults to io.Discard when nil, so callers that don't want
// log output (most tests) don't need to wire up a sink themselves.
func NewLogger(name string, w io.Writer) hclog.Logger {
	if w == nil {
		w = io.Discard
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.Trace,
		Output: w,
	})
}

// Text logs msg at Info level tagged "mode", "text", modeling the
// original C logger's level-less plain-text output (section 6).
func Text(log hclog.Logger, msg string, args ...interface{}) {
	log.Info(msg, append([]interface{}{"mode", "text"}, args...)...)
}

// At logs msg at the hclog level corresponding to lvl, for callers (such
// as the cmd/modreg check runner) that carry a section-6 log level as data
// rather than knowing statically which hclog method to call.
func At(log hclog.Logger, lvl Level, msg string, args ...interface{}) {
	if lvl == LevelText {
		Text(log, msg, args...)
		return
	}
	log.Log(lvl.hclogLevel(), msg, args...)
}

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logx bootstraps the zerolog.Logger handle threaded through every
// other package's constructor, standing in for original_source's
// logger_manager.hpp singleton as an explicit value instead of a global.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Level     string // "debug", "info", "warn", "error"; default "info"
	Pretty    bool   // human-readable console output instead of JSON
	Output    io.Writer
	Component string
}

// New builds a zerolog.Logger from opts. Component, if set, is attached to
// every line as a "component" field so cmd/transd and cmd/transc can tell
// their own lines apart from the packages they wire together.
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Component != "" {
		log = log.With().Str("component", opts.Component).Logger()
	}
	return log
}

/* SPDX-License-Identifier: GPL-3.0-or-later
 *
 * camwatch
 * Copyright (C) 2026 camwatch authors
 *
 * This file is part of camwatch.
 *
 * camwatch is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * camwatch is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with camwatch.  If not, see <https://www.gnu.org/licenses/>.
 */
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	astiav "github.com/asticode/go-astiav"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

// setupLogging installs the default slog logger: tinted output on stderr,
// optionally fanned out to an append-only logfile. The returned closer owns
// the logfile handle, if any.
func setupLogging(logFile string, verbose bool) (io.Closer, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	console := tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	handler := slog.Handler(console)
	var closer io.Closer
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %q: %w", logFile, err)
		}
		handler = slogmulti.Fanout(
			console,
			slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}),
		)
		closer = f
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

// avLogLevels maps the -v occurrence count onto media library log levels,
// starting from fatal-only.
var avLogLevels = []astiav.LogLevel{
	astiav.LogLevelFatal,
	astiav.LogLevelError,
	astiav.LogLevelWarning,
	astiav.LogLevelInfo,
	astiav.LogLevelVerbose,
	astiav.LogLevelDebug,
}

// setupAVLogging sets the media library verbosity and bridges its log
// callback into slog.
func setupAVLogging(verbosity int) {
	if verbosity >= len(avLogLevels) {
		verbosity = len(avLogLevels) - 1
	}
	astiav.SetLogLevel(avLogLevels[verbosity])
	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, _, msg string) {
		var cs string
		if c != nil {
			if cl := c.Class(); cl != nil {
				cs = cl.String()
			}
		}
		msg = strings.TrimSpace(msg)
		switch {
		case l <= astiav.LogLevelError:
			slog.Error("ffmpeg", "msg", msg, "class", cs)
		case l <= astiav.LogLevelWarning:
			slog.Warn("ffmpeg", "msg", msg, "class", cs)
		default:
			slog.Debug("ffmpeg", "msg", msg, "class", cs)
		}
	})
}

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
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

/*
camwatch mirrors each configured camera to a live output and archives
motion-triggered segments. See the repository README for the config schema.
*/

var version string
var build string

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("camwatch", flag.ContinueOnError)
	configPath := fs.String("c", "", "path to the camera configuration file (required)")
	testOnly := fs.Bool("t", false, "parse and validate the configuration, then exit")
	var verbosity countValue
	fs.Var(&verbosity, "v", "raise media library log verbosity one level (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *configPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: camwatch -c <config> [-v]... [-t]\n")
		fs.PrintDefaults()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "camwatch: %v\n", err)
		return 1
	}
	if *testOnly {
		fmt.Printf("configuration ok: %d camera(s)\n", len(cfg.Cameras))
		return 0
	}

	logClose, err := setupLogging(cfg.LogFile, verbosity > 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "camwatch: %v\n", err)
		return 1
	}
	if logClose != nil {
		defer logClose.Close()
	}
	setupAVLogging(int(verbosity))

	slog.Info("starting camwatch", "version", version, "build", build, "cameras", len(cfg.Cameras))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := newSupervisor(cfg)
	if len(sup.workers) == 0 {
		slog.Error("no camera workers could be created")
		return 1
	}
	sup.run(ctx)

	slog.Info("shut down")
	return 0
}

// countValue counts flag occurrences, so every -v raises the level by one;
// -v=N sets the count directly.
type countValue int

func (c *countValue) String() string { return strconv.Itoa(int(*c)) }

func (c *countValue) IsBoolFlag() bool { return true }

func (c *countValue) Set(s string) error {
	if s == "" || s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = countValue(n)
	return nil
}

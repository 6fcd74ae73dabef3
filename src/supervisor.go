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
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// supervisor owns one worker per configured camera. A camera that fails to
// set up is logged and skipped; it never aborts the others.
type supervisor struct {
	workers []*cameraWorker
}

func newSupervisor(cfg *Config) *supervisor {
	s := &supervisor{}
	for _, name := range cfg.cameraNames() {
		w, err := newCameraWorker(cfg.Cameras[name])
		if err != nil {
			slog.Error("create camera worker", "camera", name, "err", err)
			continue
		}
		s.workers = append(s.workers, w)
	}
	return s
}

// run starts every worker and joins them all once ctx is cancelled. Workers
// handle their own failures; nothing propagates across camera boundaries.
func (s *supervisor) run(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range s.workers {
		g.Go(func() error {
			slog.Info("camera starting", "camera", w.cfg.Name, "input", w.cfg.Input.URL)
			w.run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

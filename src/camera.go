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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	astiav "github.com/asticode/go-astiav"
)

// retryBackoff spaces input reconnection attempts.
const retryBackoff = time.Second

// cameraWorker supervises one camera: it keeps the input open, routes every
// packet through the classifier, the segment recorder and the live mirror,
// and retries after transient input failures. Workers are fully independent
// of each other.
type cameraWorker struct {
	cfg   *CameraConfig
	queue *packetQueue
	cls   *motionClassifier

	// dial opens the camera input; swapped out in tests
	dial func() (*input, error)
}

func newCameraWorker(cfg *CameraConfig) (*cameraWorker, error) {
	var logw io.Writer
	if cfg.Detect.Logfile != "" {
		f, err := os.OpenFile(cfg.Detect.Logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open detect logfile: %w", err)
		}
		logw = f
	}
	w := &cameraWorker{
		cfg:   cfg,
		queue: newPacketQueue(packetQueueLen),
	}
	w.cls = newMotionClassifier(cfg.Name, cfg.Detect, logw)
	w.dial = func() (*input, error) { return openInput(cfg) }
	return w, nil
}

// run loops until the context is cancelled: open input, read until error or
// shutdown, back off, retry.
func (w *cameraWorker) run(ctx context.Context) {
	defer w.teardown()

	for {
		if ctx.Err() != nil {
			return
		}
		in, err := w.dial()
		if err != nil {
			slog.Warn("open camera input", "camera", w.cfg.Name, "err", err)
		} else {
			w.readLoop(ctx, in)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff):
		}
	}
}

// readLoop consumes one input connection. The mirror and the recorder's
// sink are bound to this connection's stream layout, so both are rebuilt on
// reconnect; the queue and the classifier persist across connections.
func (w *cameraWorker) readLoop(ctx context.Context, in *input) {
	rec := newSegmentRecorder(w.cfg.Name, w.queue, &motionSink{cam: w.cfg, in: in})
	live := newLiveMirror(w.cfg.Name, &w.cfg.Live, in)
	defer func() {
		rec.close()
		live.close()
		in.close()
	}()

	pkt := astiav.AllocPacket()
	if pkt == nil {
		return
	}
	defer pkt.Free()

	for ctx.Err() == nil {
		if err := in.readPacket(pkt); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, astiav.ErrEof) {
				slog.Warn("read packet", "camera", w.cfg.Name, "err", err)
			}
			return
		}

		c := w.cls.feed(in, pkt)
		rec.on(pkt, c)
		live.onPacket(pkt)
		pkt.Unref()
	}
}

func (w *cameraWorker) teardown() {
	w.queue.drain()
	w.cls.close()
	slog.Info("camera closed", "camera", w.cfg.Name)
}

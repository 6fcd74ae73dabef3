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
	"log/slog"

	astiav "github.com/asticode/go-astiav"
)

// segmentSink is the motion output as the recorder sees it: open starts a
// new segment, write muxes one packet into it, close finishes it.
type segmentSink interface {
	open() error
	write(pkt *astiav.Packet) error
	close()
}

// motionSink muxes segments to the camera's configured motion output.
type motionSink struct {
	cam *CameraConfig
	in  *input
	out *output
}

func (s *motionSink) open() error {
	out, err := openOutput(s.cam.Name, &s.cam.Motion, s.in)
	if err != nil {
		return err
	}
	s.out = out
	slog.Info("motion output opened", "camera", s.cam.Name, "url", out.url)
	return nil
}

func (s *motionSink) write(pkt *astiav.Packet) error {
	return s.out.write(s.in, pkt)
}

func (s *motionSink) close() {
	if s.out != nil {
		s.out.close()
		s.out = nil
	}
}

// segmentRecorder drives the motion output lifecycle from per-packet
// classifications. The output is open exactly while a motion event is
// active, and a fresh segment always begins with the keyframe that
// triggered it.
type segmentRecorder struct {
	camera string
	queue  *packetQueue
	sink   segmentSink
	active bool
}

func newSegmentRecorder(camera string, queue *packetQueue, sink segmentSink) *segmentRecorder {
	return &segmentRecorder{camera: camera, queue: queue, sink: sink}
}

// on routes one classified packet.
//
// Every keyframe is a queue boundary: a quiet keyframe closes the segment
// and releases the pre-roll, a motion keyframe first releases the stale
// non-keyframe tail (undecodable without its keyframe) and then starts or
// continues the segment with itself. Non-keyframes round-trip through the
// queue while a segment is open so packet ownership is uniform across paths.
func (r *segmentRecorder) on(pkt *astiav.Packet, c classification) {
	switch c {
	case classNotDetected:
		if r.active {
			r.sink.close()
			r.active = false
			slog.Info("motion segment closed", "camera", r.camera)
		}
		if !r.queue.put(pkt) {
			slog.Warn("packet queue full, packet dropped", "camera", r.camera)
		}
		r.queue.drain()

	case classDetected:
		r.queue.drain()
		if !r.queue.put(pkt) {
			slog.Warn("packet queue full, packet dropped", "camera", r.camera)
		}
		if !r.active {
			if err := r.sink.open(); err != nil {
				slog.Warn("open motion output", "camera", r.camera, "err", err)
				return
			}
			r.active = true
		}
		r.flush()

	case classNonKeyframe:
		if !r.queue.put(pkt) {
			// the only path that loses an in-segment packet
			slog.Warn("packet queue full, packet dropped", "camera", r.camera)
			return
		}
		if r.active {
			qp := r.queue.get()
			if qp != nil {
				r.writeRelease(qp)
			}
		}
	}
}

// flush writes and releases everything queued.
func (r *segmentRecorder) flush() {
	for r.active {
		pkt := r.queue.get()
		if pkt == nil {
			return
		}
		r.writeRelease(pkt)
	}
}

func (r *segmentRecorder) writeRelease(pkt *astiav.Packet) {
	err := r.sink.write(pkt)
	pkt.Unref()
	pkt.Free()
	if err != nil {
		slog.Warn("write motion packet", "camera", r.camera, "err", err)
		r.sink.close()
		r.active = false
		r.queue.drain()
	}
}

// close finishes any open segment and releases the pre-roll.
func (r *segmentRecorder) close() {
	if r.active {
		r.sink.close()
		r.active = false
		slog.Info("motion segment closed", "camera", r.camera)
	}
	r.queue.drain()
}

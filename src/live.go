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

// liveMirror forwards every packet to the camera's live output. The output
// opens lazily on the first packet; a failed open turns the mirror off for
// the rest of the input connection. Mirroring is best effort — write errors
// are logged and never propagate.
type liveMirror struct {
	camera string
	cfg    *OutputConfig
	in     *input
	out    *output
	failed bool
}

func newLiveMirror(camera string, cfg *OutputConfig, in *input) *liveMirror {
	return &liveMirror{camera: camera, cfg: cfg, in: in}
}

func (l *liveMirror) onPacket(pkt *astiav.Packet) {
	if l.failed {
		return
	}
	if l.out == nil {
		out, err := openOutput(l.camera, l.cfg, l.in)
		if err != nil {
			slog.Warn("open live output", "camera", l.camera, "err", err)
			l.failed = true
			return
		}
		l.out = out
		slog.Info("live output opened", "camera", l.camera, "url", out.url)
	}

	// write mutates its packet, so mirror a reference instead of the
	// caller's packet
	cp := astiav.AllocPacket()
	if cp == nil {
		return
	}
	if err := cp.Ref(pkt); err != nil {
		cp.Free()
		return
	}
	err := l.out.write(l.in, cp)
	cp.Unref()
	cp.Free()
	if err != nil {
		slog.Warn("write live packet", "camera", l.camera, "err", err)
	}
}

func (l *liveMirror) close() {
	if l.out != nil {
		l.out.close()
		l.out = nil
	}
}

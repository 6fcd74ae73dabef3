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
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	astiav "github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// readTimeoutUS bounds a blocked RTSP read (microseconds) so a stuck socket
// cannot delay shutdown indefinitely.
const readTimeoutUS = 5_000_000

// input owns a demuxer connection.
type input struct {
	fc  *astiav.FormatContext
	url string
	c   *astikit.Closer
}

// openInput opens the camera's demuxer and reads stream info.
func openInput(cfg *CameraConfig) (*input, error) {
	c := astikit.NewCloser()

	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("alloc format context")
	}
	c.Add(fc.Free)

	d := astiav.NewDictionary()
	defer d.Free()
	if strings.HasPrefix(cfg.Input.URL, "rtsp:") {
		_ = d.Set("timeout", strconv.Itoa(readTimeoutUS), 0)
	}
	for k, v := range cfg.Input.Options {
		_ = d.Set(k, v, 0)
	}
	if s := JoinDict(d); s != "" {
		slog.Debug("input options", "camera", cfg.Name, "options", s)
	}

	if err := fc.OpenInput(cfg.Input.URL, nil, d); err != nil {
		c.Close()
		return nil, fmt.Errorf("open input %q: %w", cfg.Input.URL, err)
	}
	c.Add(fc.CloseInput)

	if err := fc.FindStreamInfo(nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("find stream info for %q: %w", cfg.Input.URL, err)
	}
	if len(fc.Streams()) == 0 {
		c.Close()
		return nil, fmt.Errorf("no streams in %q", cfg.Input.URL)
	}

	for _, s := range fc.Streams() {
		cp := s.CodecParameters()
		tb := s.TimeBase()
		slog.Info("input stream", "camera", cfg.Name, "index", s.Index(),
			"type", cp.MediaType().String(), "codec", cp.CodecID().Name(),
			"time_base", fmt.Sprintf("%d/%d", tb.Num(), tb.Den()))
	}

	return &input{fc: fc, url: cfg.Input.URL, c: c}, nil
}

// readPacket reads the next packet into pkt. The caller owns pkt and must
// unref it after use.
func (in *input) readPacket(pkt *astiav.Packet) error {
	return in.fc.ReadFrame(pkt)
}

func (in *input) close() {
	in.c.Close()
}

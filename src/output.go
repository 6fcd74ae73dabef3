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

	astiav "github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// maxStreams bounds how many input streams an output will map.
const maxStreams = 4

// output owns one muxer: the live mirror keeps one per input connection, the
// segment recorder cycles one per motion event.
type output struct {
	fc      *astiav.FormatContext
	io      *astiav.IOContext // nil for muxers that open their own files
	mapping [maxStreams]int   // input stream index -> output stream index, -1 drops
	url     string
}

// planStreamMapping maps video and audio streams to output indexes in input
// order and drops everything else. Streams past maxStreams are dropped.
func planStreamMapping(kinds []astiav.MediaType) [maxStreams]int {
	var m [maxStreams]int
	for i := range m {
		m[i] = -1
	}
	next := 0
	for i, k := range kinds {
		if i >= maxStreams {
			break
		}
		if k != astiav.MediaTypeVideo && k != astiav.MediaTypeAudio {
			continue
		}
		m[i] = next
		next++
	}
	return m
}

// openOutput allocates the muxer for cfg against the input's stream layout,
// copies codec parameters for every mapped stream and writes the header.
func openOutput(camera string, cfg *OutputConfig, in *input) (*output, error) {
	url := expandURL(cfg.URL)

	fc, err := astiav.AllocOutputFormatContext(nil, cfg.Format, url)
	if err != nil {
		return nil, fmt.Errorf("alloc output %q (%s): %w", url, cfg.Format, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("alloc output %q (%s)", url, cfg.Format)
	}
	c := astikit.NewCloser()
	c.Add(fc.Free)

	out := &output{fc: fc, url: url}

	streams := in.fc.Streams()
	kinds := make([]astiav.MediaType, len(streams))
	for i, s := range streams {
		kinds[i] = s.CodecParameters().MediaType()
	}
	out.mapping = planStreamMapping(kinds)

	for _, s := range streams {
		i := s.Index()
		if i >= maxStreams {
			slog.Warn("too many input streams, stream not mapped", "camera", camera, "stream", i)
			continue
		}
		if out.mapping[i] < 0 {
			continue
		}
		os := fc.NewStream(nil)
		if os == nil {
			c.Close()
			return nil, errors.New("new output stream")
		}
		if err := s.CodecParameters().Copy(os.CodecParameters()); err != nil {
			c.Close()
			return nil, fmt.Errorf("copy codec parameters for stream %d: %w", i, err)
		}
		os.SetTimeBase(s.TimeBase())
	}

	if !fc.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		pb, err := astiav.OpenIOContext(url, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open io %q: %w", url, err)
		}
		fc.SetPb(pb)
		out.io = pb
		c.Add(func() {
			_ = pb.Close()
			pb.Free()
		})
	}

	d := newDictionary(cfg.Options)
	defer d.Free()
	if err := fc.WriteHeader(d); err != nil {
		c.Close()
		return nil, fmt.Errorf("write header for %q: %w", url, err)
	}

	return out, nil
}

// write rescales the packet's timestamps into the output stream's time base
// and muxes it. The caller passes a packet it owns; write may mutate it.
// Packets on dropped streams are skipped.
func (o *output) write(in *input, pkt *astiav.Packet) error {
	si := pkt.StreamIndex()
	if si < 0 || si >= maxStreams || o.mapping[si] < 0 {
		return nil
	}
	ist := in.fc.Streams()[si]
	ost := o.fc.Streams()[o.mapping[si]]

	// nearest rounding, min/max sentinels pass through
	pkt.RescaleTs(ist.TimeBase(), ost.TimeBase())
	pkt.SetStreamIndex(ost.Index())

	if err := o.fc.WriteInterleavedFrame(pkt); err != nil {
		return fmt.Errorf("mux packet to %q: %w", o.url, err)
	}
	return nil
}

// close flushes the trailer and releases the muxer.
func (o *output) close() {
	if err := o.fc.WriteTrailer(); err != nil {
		slog.Warn("write trailer", "url", o.url, "err", err)
	}
	if o.io != nil {
		_ = o.io.Close()
		o.io.Free()
		o.io = nil
	}
	o.fc.Free()
	o.fc = nil
}

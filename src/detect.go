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
	"io"
	"log/slog"

	astiav "github.com/asticode/go-astiav"
)

// classification is the per-packet verdict of the motion classifier.
type classification int

const (
	classNonKeyframe classification = iota
	classDetected
	classNotDetected
)

func (c classification) String() string {
	switch c {
	case classNonKeyframe:
		return "non-keyframe"
	case classDetected:
		return "detected"
	case classNotDetected:
		return "not-detected"
	}
	return "unknown"
}

// motionClassifier decodes video keyframes and compares each one against the
// previous keyframe. Decisions never change between two keyframes because
// only keyframes are evaluated.
type motionClassifier struct {
	camera    string
	threshold float64
	dec       *astiav.CodecContext
	frame     *astiav.Frame
	prev      *yuvImage
	logw      io.Writer // detect logfile, nil when disabled
}

func newMotionClassifier(camera string, cfg DetectConfig, logw io.Writer) *motionClassifier {
	return &motionClassifier{
		camera:    camera,
		threshold: cfg.Threshold,
		frame:     astiav.AllocFrame(),
		logw:      logw,
	}
}

// feed classifies one packet. Non-video and non-key packets are NonKeyframe;
// keyframes are decoded and compared. Decoder failures invalidate the
// decoder (recreated on the next keyframe) and fail toward recording.
func (m *motionClassifier) feed(in *input, pkt *astiav.Packet) classification {
	si := pkt.StreamIndex()
	streams := in.fc.Streams()
	if si < 0 || si >= len(streams) {
		return classNonKeyframe
	}
	st := streams[si]
	if st.CodecParameters().MediaType() != astiav.MediaTypeVideo || !pkt.Flags().Has(astiav.PacketFlagKey) {
		return classNonKeyframe
	}

	if m.dec == nil {
		if err := m.openDecoder(st.CodecParameters()); err != nil {
			slog.Warn("create decoder", "camera", m.camera, "err", err)
			return classDetected
		}
	}
	if m.frame == nil {
		m.frame = astiav.AllocFrame()
		if m.frame == nil {
			return classDetected
		}
	}

	if err := m.dec.SendPacket(pkt); err != nil {
		slog.Warn("decode keyframe", "camera", m.camera, "err", err)
		m.closeDecoder()
		return classDetected
	}

	// Drain every decoded frame; the last frame's decision wins.
	decision := classNotDetected
	for {
		if err := m.dec.ReceiveFrame(m.frame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				break
			}
			slog.Warn("receive frame", "camera", m.camera, "err", err)
			m.closeDecoder()
			return classDetected
		}
		decision = m.evaluate(m.frame)
		m.frame.Unref()
	}
	return decision
}

func (m *motionClassifier) evaluate(f *astiav.Frame) classification {
	img, err := snapshotFrame(f)
	if err != nil {
		slog.Warn("snapshot keyframe", "camera", m.camera, "err", err)
		return classDetected
	}

	delta, err := compareFrames(m.prev, img)
	m.prev = img
	if err != nil {
		slog.Debug("compare keyframes", "camera", m.camera, "err", err)
		return classDetected
	}

	sum := delta.sum()
	decision := classNotDetected
	if sum > m.threshold {
		decision = classDetected
	}
	slog.Debug("keyframe evaluated", "camera", m.camera,
		"dy", delta.y, "du", delta.u, "dv", delta.v, "delta", sum, "decision", decision.String())
	if m.logw != nil {
		m.logDecision(delta, sum, decision)
	}
	return decision
}

// logDecision appends one diagnostic line per evaluated keyframe.
func (m *motionClassifier) logDecision(d yuvDelta, sum float64, c classification) {
	detected := 0
	if c == classDetected {
		detected = 1
	}
	fmt.Fprintf(m.logw, "%f %f %f %f %d\n", d.y, d.u, d.v, sum, detected)
}

func (m *motionClassifier) openDecoder(cp *astiav.CodecParameters) error {
	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return fmt.Errorf("no decoder for %s", cp.CodecID().Name())
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return errors.New("alloc codec context")
	}
	if err := cp.ToCodecContext(cc); err != nil {
		cc.Free()
		return fmt.Errorf("apply codec parameters: %w", err)
	}
	// ask for a comparable 4:2:0 layout when the codec offers a choice
	if pfs := codec.PixelFormats(); len(pfs) > 0 {
		cc.SetPixelFormat(preferredPixelFormat(pfs))
	}
	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return fmt.Errorf("open decoder: %w", err)
	}
	m.dec = cc
	return nil
}

func (m *motionClassifier) closeDecoder() {
	if m.dec != nil {
		m.dec.Free()
		m.dec = nil
	}
}

func (m *motionClassifier) close() {
	m.closeDecoder()
	m.prev = nil
	if m.frame != nil {
		m.frame.Free()
		m.frame = nil
	}
	if c, ok := m.logw.(io.Closer); ok {
		_ = c.Close()
	}
}

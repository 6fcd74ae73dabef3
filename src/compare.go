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

	astiav "github.com/asticode/go-astiav"
)

// Comparison failure reasons. Each one makes the classifier fail toward
// recording.
var (
	errNoPrevFrame       = errors.New("no previous frame")
	errFormatMismatch    = errors.New("pixel format mismatch")
	errSizeMismatch      = errors.New("frame size mismatch")
	errUnsupportedFormat = errors.New("unsupported pixel format")
	errStrideMismatch    = errors.New("plane stride mismatch")
)

// comparablePixelFormats lists the 4:2:0 planar layouts the comparator
// understands (full range and studio range).
var comparablePixelFormats = []astiav.PixelFormat{
	astiav.PixelFormatYuvj420P,
	astiav.PixelFormatYuv420P,
}

// preferredPixelFormat picks the decode pixel format from an offer list: the
// first comparable 4:2:0 offer wins, otherwise the first offer. The bindings
// do not expose the decoder's format negotiation callback, so the preference
// is enforced at snapshot time instead: frames in any other layout fail with
// a typed reason.
func preferredPixelFormat(offered []astiav.PixelFormat) astiav.PixelFormat {
	for _, pf := range offered {
		if comparablePixelFormat(pf) {
			return pf
		}
	}
	if len(offered) > 0 {
		return offered[0]
	}
	return astiav.PixelFormatNone
}

func comparablePixelFormat(pf astiav.PixelFormat) bool {
	for _, c := range comparablePixelFormats {
		if pf == c {
			return true
		}
	}
	return false
}

// yuvImage is a decoded picture copied out of the media library: one luma
// plane and two half-resolution chroma planes with their strides.
type yuvImage struct {
	pixFmt astiav.PixelFormat
	width  int
	height int
	stride [3]int
	plane  [3][]byte
}

// snapshotFrame copies a decoded 4:2:0 frame into a yuvImage. Planes are
// packed tightly, so the snapshot owns plain bytes and no FFI references.
func snapshotFrame(f *astiav.Frame) (*yuvImage, error) {
	pf := f.PixelFormat()
	if !comparablePixelFormat(pf) {
		return nil, fmt.Errorf("%w: %s", errUnsupportedFormat, pf.String())
	}
	w, h := f.Width(), f.Height()
	n, err := f.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("image buffer size: %w", err)
	}
	buf := make([]byte, n)
	if _, err := f.ImageCopyToBuffer(buf, 1); err != nil {
		return nil, fmt.Errorf("image copy: %w", err)
	}

	cw, ch := (w+1)/2, (h+1)/2
	img := &yuvImage{
		pixFmt: pf,
		width:  w,
		height: h,
		stride: [3]int{w, cw, cw},
	}
	y := w * h
	c := cw * ch
	img.plane[0] = buf[:y]
	img.plane[1] = buf[y : y+c]
	img.plane[2] = buf[y+c : y+2*c]
	return img, nil
}

// yuvDelta is the per-plane difference between two keyframes, normalized so
// that threshold values are resolution independent.
type yuvDelta struct {
	y, u, v float64
}

func (d yuvDelta) sum() float64 { return d.y + d.u + d.v }

// compareFrames sums absolute per-pixel byte differences per plane over the
// plane-native stride. The result is normalized by (W*H)/100; chroma planes
// scale by 4 to approximate per-luma-pixel contribution.
func compareFrames(prev, curr *yuvImage) (yuvDelta, error) {
	var d yuvDelta
	if prev == nil {
		return d, errNoPrevFrame
	}
	if prev.pixFmt != curr.pixFmt {
		return d, errFormatMismatch
	}
	if prev.width != curr.width || prev.height != curr.height {
		return d, errSizeMismatch
	}
	if !comparablePixelFormat(curr.pixFmt) {
		return d, fmt.Errorf("%w: %s", errUnsupportedFormat, curr.pixFmt.String())
	}
	for p := 0; p < 3; p++ {
		if prev.stride[p] != curr.stride[p] {
			return d, fmt.Errorf("%w: plane %d", errStrideMismatch, p)
		}
	}

	scale := float64(curr.width*curr.height) / 100
	d.y = float64(byteDifference(prev.plane[0], curr.plane[0], curr.width, curr.height, curr.stride[0])) / scale
	d.u = float64(byteDifference(prev.plane[1], curr.plane[1], curr.width/2, curr.height/2, curr.stride[1])) * 4 / scale
	d.v = float64(byteDifference(prev.plane[2], curr.plane[2], curr.width/2, curr.height/2, curr.stride[2])) * 4 / scale
	return d, nil
}

func byteDifference(a, b []byte, width, height, stride int) uint64 {
	var sum uint64
	for y := 0; y < height; y++ {
		row := y * stride
		for x := 0; x < width; x++ {
			diff := int(a[row+x]) - int(b[row+x])
			if diff < 0 {
				diff = -diff
			}
			sum += uint64(diff)
		}
	}
	return sum
}

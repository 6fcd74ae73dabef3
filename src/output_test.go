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
	"math/rand"
	"testing"
	"time"

	astiav "github.com/asticode/go-astiav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStreamMapping(t *testing.T) {
	v := astiav.MediaTypeVideo
	a := astiav.MediaTypeAudio
	d := astiav.MediaTypeData

	t.Run("video and audio map in order", func(t *testing.T) {
		m := planStreamMapping([]astiav.MediaType{v, a})
		assert.Equal(t, [maxStreams]int{0, 1, -1, -1}, m)
	})

	t.Run("other stream kinds drop", func(t *testing.T) {
		m := planStreamMapping([]astiav.MediaType{v, d, a})
		assert.Equal(t, [maxStreams]int{0, -1, 1, -1}, m)
	})

	t.Run("streams past the bound drop", func(t *testing.T) {
		m := planStreamMapping([]astiav.MediaType{v, a, v, v, v, a})
		assert.Equal(t, [maxStreams]int{0, 1, 2, 3}, m)
	})

	t.Run("empty input", func(t *testing.T) {
		m := planStreamMapping(nil)
		assert.Equal(t, [maxStreams]int{-1, -1, -1, -1}, m)
	})
}

// TestRescaleRoundTrip: rescaling timestamps to a finer time base and back
// reproduces the originals within one unit.
func TestRescaleRoundTrip(t *testing.T) {
	coarse := astiav.NewRational(1, 1000)
	fine := astiav.NewRational(1, 90000)

	pkt := astiav.AllocPacket()
	require.NotNil(t, pkt)
	defer pkt.Free()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		pts := rng.Int63n(1 << 40)
		dts := pts - rng.Int63n(1000)
		dur := rng.Int63n(10000)

		pkt.SetPts(pts)
		pkt.SetDts(dts)
		pkt.SetDuration(dur)

		pkt.RescaleTs(coarse, fine)
		pkt.RescaleTs(fine, coarse)

		assert.InDelta(t, pts, pkt.Pts(), 1)
		assert.InDelta(t, dts, pkt.Dts(), 1)
		assert.InDelta(t, dur, pkt.Duration(), 1)
	}
}

// TestRescaleNoPtsPassThrough: the "no timestamp" sentinel must survive
// rescaling unchanged instead of being wrapped.
func TestRescaleNoPtsPassThrough(t *testing.T) {
	pkt := astiav.AllocPacket()
	require.NotNil(t, pkt)
	defer pkt.Free()

	pkt.SetPts(astiav.NoPtsValue)
	pkt.SetDts(astiav.NoPtsValue)
	pkt.SetDuration(0)

	pkt.RescaleTs(astiav.NewRational(1, 1000), astiav.NewRational(1, 90000))
	assert.Equal(t, astiav.NoPtsValue, pkt.Pts())
	assert.Equal(t, astiav.NoPtsValue, pkt.Dts())
}

func TestExpandURL(t *testing.T) {
	year := time.Now().Format("2006")
	assert.Contains(t, expandURL("motion-%Y.mp4"), "motion-"+year)
	assert.Equal(t, "plain.m3u8", expandURL("plain.m3u8"))
}

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

	astiav "github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
)

func newTestPacket(t *testing.T, pts int64) *astiav.Packet {
	t.Helper()
	pkt := astiav.AllocPacket()
	require.NotNil(t, pkt)
	t.Cleanup(pkt.Free)
	pkt.SetPts(pts)
	return pkt
}

func releasePacket(pkt *astiav.Packet) {
	pkt.Unref()
	pkt.Free()
}

func TestPacketQueueFIFO(t *testing.T) {
	q := newPacketQueue(4)
	defer q.drain()

	for i := int64(0); i < 3; i++ {
		require.True(t, q.put(newTestPacket(t, i)))
	}
	require.Equal(t, 3, q.len())

	for i := int64(0); i < 3; i++ {
		pkt := q.get()
		require.NotNil(t, pkt)
		require.Equal(t, i, pkt.Pts())
		releasePacket(pkt)
	}
	require.Equal(t, 0, q.len())
	require.Nil(t, q.get())
}

func TestPacketQueueRejectsWhenFull(t *testing.T) {
	q := newPacketQueue(4)
	defer q.drain()

	for i := int64(0); i < 4; i++ {
		require.True(t, q.put(newTestPacket(t, i)))
	}
	require.Equal(t, 4, q.len())

	// full: the put is rejected, the queue is unchanged
	require.False(t, q.put(newTestPacket(t, 99)))
	require.Equal(t, 4, q.len())

	pkt := q.get()
	require.NotNil(t, pkt)
	require.Equal(t, int64(0), pkt.Pts())
	releasePacket(pkt)

	require.True(t, q.put(newTestPacket(t, 4)))
	require.Equal(t, 4, q.len())
}

func TestPacketQueueDrain(t *testing.T) {
	q := newPacketQueue(8)
	for i := int64(0); i < 5; i++ {
		require.True(t, q.put(newTestPacket(t, i)))
	}
	q.drain()
	require.Equal(t, 0, q.len())

	// usable again after drain
	require.True(t, q.put(newTestPacket(t, 10)))
	require.Equal(t, 1, q.len())
	q.drain()
}

func TestPacketQueueLenInvariant(t *testing.T) {
	const capacity = 8
	q := newPacketQueue(capacity)
	defer q.drain()

	rng := rand.New(rand.NewSource(42))
	model := 0
	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			ok := q.put(newTestPacket(t, int64(i)))
			require.Equal(t, model < capacity, ok)
			if ok {
				model++
			}
		} else {
			pkt := q.get()
			require.Equal(t, model > 0, pkt != nil)
			if pkt != nil {
				releasePacket(pkt)
				model--
			}
		}
		require.Equal(t, model, q.len())
		require.LessOrEqual(t, q.len(), capacity)
	}
}

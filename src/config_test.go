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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
log-file: /tmp/camwatch.log
cameras:
  front-door:
    input:
      url: rtsp://192.168.1.10:554/stream1
      options:
        rtsp_transport: tcp
    output-live:
      format: hls
      url: front-%Y%m%d.m3u8
      options:
        hls_time: "4"
        hls_list_size: "8"
    output-motion:
      format: mp4
      url: front-motion-%Y%m%d-%H%M%S.mp4
    basic-detect:
      threshold: 10.5
      logfile: front-detect.log
  backyard:
    input:
      url: rtsp://192.168.1.11:554/stream1
    output-live:
      format: hls
      url: back-%Y%m%d.m3u8
    output-motion:
      format: mp4
      url: back-motion-%Y%m%d-%H%M%S.mp4
    basic-detect:
      threshold: 25
      thumbnail: back-thumb.jpg
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cameras.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/camwatch.log", cfg.LogFile)
	require.Len(t, cfg.Cameras, 2)
	assert.Equal(t, []string{"backyard", "front-door"}, cfg.cameraNames())

	front := cfg.Cameras["front-door"]
	require.NotNil(t, front)
	assert.Equal(t, "front-door", front.Name)
	assert.Equal(t, "rtsp://192.168.1.10:554/stream1", front.Input.URL)
	assert.Equal(t, "tcp", front.Input.Options["rtsp_transport"])
	assert.Equal(t, "hls", front.Live.Format)
	assert.Equal(t, "4", front.Live.Options["hls_time"])
	assert.Equal(t, "mp4", front.Motion.Format)
	assert.InDelta(t, 10.5, front.Detect.Threshold, 1e-9)
	assert.Equal(t, "front-detect.log", front.Detect.Logfile)

	back := cfg.Cameras["backyard"]
	require.NotNil(t, back)
	assert.Equal(t, "back-thumb.jpg", back.Detect.Thumbnail)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	body := strings.Replace(sampleConfig, "thumbnail:", "thumbnails:", 1)
	_, err := loadConfig(writeConfig(t, body))
	require.Error(t, err)
}

func TestLoadConfigNoCameras(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "cameras: {}\n"))
	require.ErrorContains(t, err, "no cameras")
}

func TestLoadConfigTooManyCameras(t *testing.T) {
	var b strings.Builder
	b.WriteString("cameras:\n")
	for i := 0; i < maxCameras+1; i++ {
		fmt.Fprintf(&b, `  cam%d:
    input:
      url: rtsp://host/stream%d
    output-live:
      format: hls
      url: live%d.m3u8
    output-motion:
      format: mp4
      url: motion%d.mp4
    basic-detect:
      threshold: 10
`, i, i, i, i)
	}
	_, err := loadConfig(writeConfig(t, b.String()))
	require.ErrorContains(t, err, "at most")
}

func TestLoadConfigMissingFields(t *testing.T) {
	for name, mangle := range map[string]func(string) string{
		"input url": func(s string) string {
			return strings.Replace(s, "url: rtsp://192.168.1.10:554/stream1", `url: ""`, 1)
		},
		"live format": func(s string) string {
			return strings.Replace(s, "format: hls", `format: ""`, 1)
		},
		"threshold": func(s string) string {
			return strings.Replace(s, "threshold: 10.5", "threshold: 0", 1)
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, mangle(sampleConfig)))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

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
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// maxCameras bounds how many camera blocks a configuration may define.
const maxCameras = 8

type Config struct {
	// LogFile tees all log records into an append-only file next to the
	// colored stderr output.
	LogFile string                   `yaml:"log-file,omitempty"`
	Cameras map[string]*CameraConfig `yaml:"cameras"`
}

type CameraConfig struct {
	Name   string       `yaml:"-"` // map key, filled in during validation
	Input  InputConfig  `yaml:"input"`
	Live   OutputConfig `yaml:"output-live"`
	Motion OutputConfig `yaml:"output-motion"`
	Detect DetectConfig `yaml:"basic-detect"`
}

type InputConfig struct {
	URL string `yaml:"url"` // e.g. rtsp://...
	// Options are forwarded verbatim to the demuxer (rtsp_transport,
	// probesize, ...).
	Options map[string]string `yaml:"options,omitempty"`
}

type OutputConfig struct {
	Format string `yaml:"format"` // muxer name, e.g. "hls"
	// URL is expanded through a strftime formatter at open time so every
	// segment gets a dated name.
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options,omitempty"` // forwarded to the muxer
}

type DetectConfig struct {
	Threshold float64 `yaml:"threshold"`
	Thumbnail string  `yaml:"thumbnail,omitempty"` // accepted, no writer yet
	Logfile   string  `yaml:"logfile,omitempty"`
}

// loadConfig reads and validates the camera configuration. Unknown keys at
// any level are an error.
func loadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Cameras) == 0 {
		return errors.New("no cameras configured")
	}
	if len(c.Cameras) > maxCameras {
		return fmt.Errorf("%d cameras configured, at most %d supported", len(c.Cameras), maxCameras)
	}
	for name, cam := range c.Cameras {
		if cam == nil {
			return fmt.Errorf("camera %q: empty definition", name)
		}
		cam.Name = name
		if cam.Input.URL == "" {
			return fmt.Errorf("camera %q: input.url is required", name)
		}
		if err := cam.Live.validate(); err != nil {
			return fmt.Errorf("camera %q: output-live: %w", name, err)
		}
		if err := cam.Motion.validate(); err != nil {
			return fmt.Errorf("camera %q: output-motion: %w", name, err)
		}
		if cam.Detect.Threshold <= 0 {
			return fmt.Errorf("camera %q: basic-detect.threshold must be positive", name)
		}
	}
	return nil
}

func (o *OutputConfig) validate() error {
	if o.Format == "" {
		return errors.New("format is required")
	}
	if o.URL == "" {
		return errors.New("url is required")
	}
	return nil
}

// cameraNames returns the configured camera names in a stable order.
func (c *Config) cameraNames() []string {
	names := make([]string, 0, len(c.Cameras))
	for name := range c.Cameras {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

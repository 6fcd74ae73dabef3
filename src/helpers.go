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
	"strings"
	"time"

	astiav "github.com/asticode/go-astiav"
	"github.com/ncruces/go-strftime"
)

// expandURL runs a configured output URL through the strftime formatter so
// every open yields a dated name.
func expandURL(pattern string) string {
	return strftime.Format(pattern, time.Now())
}

// newDictionary builds an option dictionary from a config map. Caller frees.
func newDictionary(opts map[string]string) *astiav.Dictionary {
	d := astiav.NewDictionary()
	for k, v := range opts {
		_ = d.Set(k, v, 0)
	}
	return d
}

// DictPairs returns key=value option pairs for logging.
func DictPairs(d *astiav.Dictionary) []string {
	if d == nil {
		return nil
	}
	var pairs []string
	var prev *astiav.DictionaryEntry
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix) // iterate all keys
	for {
		e := d.Get("", prev, flags)
		if e == nil {
			break
		}
		pairs = append(pairs, e.Key()+"="+e.Value())
		prev = e
	}
	return pairs
}

// JoinDict is a convenience to print in one line.
func JoinDict(d *astiav.Dictionary) string {
	return strings.Join(DictPairs(d), " ")
}

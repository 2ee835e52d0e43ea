/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"sort"

	"github.com/mattn/go-runewidth"
)

// DefaultLinesPerPage is the page capacity of the industry page format.
const DefaultLinesPerPage = 55

// orphanMargin is how close to the bottom a scene heading may not start.
const orphanMargin = 2

// Options controls pagination.
//
// WrapColumns enables soft-wrap accounting: when > 0 a line occupies
// ceil(displayWidth/WrapColumns) rows of page capacity instead of one.
type Options struct {
	MaxLinesPerPage int
	WrapColumns     int
}

// Paginate groups lines into pages of at most maxLinesPerPage lines.
// A non-positive maxLinesPerPage selects DefaultLinesPerPage.
func Paginate(lines []Line, maxLinesPerPage int) []Page {
	return PaginateWith(lines, Options{MaxLinesPerPage: maxLinesPerPage})
}

// PaginateWith paginates using opts. It always returns at least one page.
// A scene heading never starts within the last orphanMargin rows of a page;
// the page is closed early and the heading opens the next one.
func PaginateWith(lines []Line, opts Options) []Page {
	capacity := opts.MaxLinesPerPage
	if capacity <= 0 {
		capacity = DefaultLinesPerPage
	}
	if len(lines) == 0 {
		return []Page{{PageNumber: 1, Lines: []Line{}}}
	}

	var pages []Page
	start := 0
	used := 0
	closePage := func(end int) {
		pl := lines[start:end:end]
		pages = append(pages, Page{
			PageNumber:     len(pages) + 1,
			Lines:          pl,
			StartLineIndex: pl[0].LineIndex,
			EndLineIndex:   pl[len(pl)-1].LineIndex,
		})
		start = end
		used = 0
	}

	for i, ln := range lines {
		w := lineWeight(ln, opts.WrapColumns)
		if i > start {
			orphan := ln.Type == SceneHeading && used >= capacity-orphanMargin
			if orphan || used+w > capacity {
				closePage(i)
			}
		}
		used += w
	}
	closePage(len(lines))
	return pages
}

func lineWeight(ln Line, wrap int) int {
	if wrap <= 0 {
		return 1
	}
	w := runewidth.StringWidth(ln.Content)
	if w <= wrap {
		return 1
	}
	return (w + wrap - 1) / wrap
}

// LineAt returns the line whose span [CharOffset, End()] contains off.
// The end is inclusive so a caret placed after the last rune still maps to its line.
func LineAt(lines []Line, off DocOffset) (Line, bool) {
	i := sort.Search(len(lines), func(i int) bool { return lines[i].CharOffset > off })
	if i == 0 {
		return Line{}, false
	}
	ln := lines[i-1]
	if off > ln.End() {
		return Line{}, false
	}
	return ln, true
}

// ByLineIndex returns the parsed line produced from raw line idx.
func ByLineIndex(lines []Line, idx LineIndex) (Line, bool) {
	i := sort.Search(len(lines), func(i int) bool { return lines[i].LineIndex >= idx })
	if i < len(lines) && lines[i].LineIndex == idx {
		return lines[i], true
	}
	return Line{}, false
}

// PageOf returns the page rendering the line that contains off.
func PageOf(pages []Page, off DocOffset) (Page, bool) {
	for _, p := range pages {
		if len(p.Lines) == 0 {
			continue
		}
		first, last := p.Lines[0], p.Lines[len(p.Lines)-1]
		if off >= first.CharOffset && off <= last.End() {
			return p, true
		}
	}
	return Page{}, false
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package breakdown

import (
	"sort"

	"screenbreak/internal/screenplay"
)

// EmptyLinePlaceholder stands in for an empty line so it still occupies space.
const EmptyLinePlaceholder = "\u00a0"

// Segment is a run of line text, highlighted when Highlight is non-nil.
type Segment struct {
	Text      string
	Highlight *HighlightSpan
	Stale     bool
}

// Overlay splits lineText into plain and highlighted segments.
//
// Highlights intersecting [lineOffset, lineOffset+len) are applied in start
// order. Overlaps are clipped: a later highlight only covers text after what
// was already emitted, so no rune is duplicated or dropped.
func Overlay(lineText string, lineOffset screenplay.DocOffset, highlights []HighlightSpan) []Segment {
	text := []rune(lineText)
	n := len(text)
	lineEnd := lineOffset + screenplay.DocOffset(n)

	var hits []*HighlightSpan
	for i := range highlights {
		h := &highlights[i]
		if h.StartOffset < lineEnd && h.EndOffset > lineOffset {
			hits = append(hits, h)
		}
	}
	if len(hits) == 0 {
		return []Segment{plain(lineText)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].StartOffset < hits[j].StartOffset })

	segs := make([]Segment, 0, 2*len(hits)+1)
	cursor := 0
	for _, h := range hits {
		s := clamp(int(h.StartOffset-lineOffset), 0, n)
		e := clamp(int(h.EndOffset-lineOffset), 0, n)
		if s < cursor {
			s = cursor
		}
		if e <= s {
			continue
		}
		if s > cursor {
			segs = append(segs, Segment{Text: string(text[cursor:s])})
		}
		segs = append(segs, Segment{Text: string(text[s:e]), Highlight: h, Stale: h.Status == StatusStale})
		cursor = e
	}
	if cursor < n {
		segs = append(segs, Segment{Text: string(text[cursor:])})
	}
	if len(segs) == 0 {
		return []Segment{plain(lineText)}
	}
	return segs
}

// LineSegments is the overlay of one rendered line.
type LineSegments struct {
	Line     screenplay.Line
	Segments []Segment
}

// LinesOverlay runs Overlay for every line, typically the lines of one page.
func LinesOverlay(lines []screenplay.Line, highlights []HighlightSpan) []LineSegments {
	out := make([]LineSegments, len(lines))
	for i, ln := range lines {
		out[i] = LineSegments{Line: ln, Segments: Overlay(ln.Content, ln.CharOffset, highlights)}
	}
	return out
}

func plain(s string) Segment {
	if s == "" {
		return Segment{Text: EmptyLinePlaceholder}
	}
	return Segment{Text: s}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

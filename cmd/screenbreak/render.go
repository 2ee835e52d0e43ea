/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"screenbreak/internal/breakdown"
	"screenbreak/internal/screenplay"
)

func printLines(w io.Writer, lines []screenplay.Line) {
	for _, ln := range lines {
		_, _ = fmt.Fprintf(w, "%4d %6d  %-16s %s\n", ln.LineIndex+1, ln.CharOffset, ln.Type, ln.Content)
	}
}

func printPages(w io.Writer, pages []screenplay.Page) {
	for _, p := range pages {
		_, _ = fmt.Fprintf(w, "page %d: lines %d-%d (%d)\n", p.PageNumber, p.StartLineIndex+1, p.EndLineIndex+1, len(p.Lines))
	}
}

// renderSegments marks highlighted runs as [text|category], with a trailing ! when stale.
func renderSegments(segs []breakdown.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Highlight == nil {
			b.WriteString(s.Text)
			continue
		}
		b.WriteString("[")
		b.WriteString(s.Text)
		b.WriteString("|")
		b.WriteString(string(s.Highlight.Category))
		if s.Stale {
			b.WriteString("!")
		}
		b.WriteString("]")
	}
	return b.String()
}

// overlayPage checks hs for drift against the document and overlays them on
// the 1-based page pageNo.
func overlayPage(doc *screenplay.Document, hs []breakdown.HighlightSpan, pageNo int) []breakdown.LineSegments {
	return breakdown.LinesOverlay(doc.Pages[pageNo-1].Lines, breakdown.RefreshStatuses(hs, doc.Content))
}

func printOverlay(w io.Writer, lines []breakdown.LineSegments) {
	for _, ls := range lines {
		_, _ = fmt.Fprintf(w, "%4d  %s\n", ls.Line.LineIndex+1, renderSegments(ls.Segments))
	}
}

func printStatuses(w io.Writer, hs []breakdown.HighlightSpan) {
	for _, h := range hs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%q\n", h.ID, h.Category, h.StartOffset, h.EndOffset, h.Status, h.StoredText)
	}
}

// resolveAt maps a 1-based raw line number and a rune column to a selection.
func resolveAt(lines []screenplay.Line, lineNo, col int, text string) (breakdown.Selection, error) {
	ln, ok := screenplay.ByLineIndex(lines, screenplay.LineIndex(lineNo-1))
	if !ok {
		return breakdown.Selection{}, fmt.Errorf("line %d is not part of the parsed document", lineNo)
	}
	return breakdown.ResolveSelection(text, ln.CharOffset, col)
}

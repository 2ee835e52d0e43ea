/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"regexp"
	"strings"
)

// rePageNumber matches page numbers left behind by text extraction, e.g. "12.".
var rePageNumber = regexp.MustCompile(`^\d{1,3}\.$`)

// Normalize converts CRLF and lone CR line endings to LF.
// All offsets produced by this package refer to the normalized text.
func Normalize(content string) string {
	if !strings.Contains(content, "\r") {
		return content
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

// scanState is the accumulator threaded through the line scan.
type scanState struct {
	offset     DocOffset
	prev       Element
	skipBlanks bool
}

// Parse splits content into lines, drops page-number noise and classifies
// every surviving line in body mode. Dropped lines still advance the offset
// counter so offsets stay aligned with the original text.
func Parse(content string) []Line {
	return parse(content, false)
}

// ParseTitlePage is Parse for a title-page block.
func ParseTitlePage(content string) []Line {
	return parse(content, true)
}

func parse(content string, isTitlePage bool) []Line {
	if content == "" {
		return []Line{}
	}
	raw := strings.Split(Normalize(content), "\n")
	out := make([]Line, 0, len(raw))
	st := scanState{}
	for i, text := range raw {
		var ln Line
		var keep bool
		st, ln, keep = step(st, LineIndex(i), text, isTitlePage)
		if keep {
			out = append(out, ln)
		}
	}
	return out
}

// step consumes one raw line and returns the next state plus the emitted line, if any.
func step(st scanState, idx LineIndex, text string, isTitlePage bool) (scanState, Line, bool) {
	next := st
	next.offset = st.offset + DocOffset(runeLen(text)+1)
	trimmed := strings.TrimSpace(text)

	if rePageNumber.MatchString(trimmed) {
		next.skipBlanks = true
		return next, Line{}, false
	}
	if trimmed == "" && st.skipBlanks {
		return next, Line{}, false
	}
	next.skipBlanks = false

	typ := Classify(text, st.prev, isTitlePage)
	if trimmed != "" {
		next.prev = typ
	}
	return next, Line{Type: typ, Content: text, LineIndex: idx, CharOffset: st.offset}, true
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package breakdown

import "screenbreak/internal/screenplay"

// IsStale reports whether the document text at the highlight's offsets no
// longer equals the text it was anchored to. Out-of-range spans are clipped,
// so they are stale unless their stored text is empty.
// doc is normalized first, so CRLF input is compared on parser offsets.
func IsStale(h HighlightSpan, doc string) bool {
	return textAt([]rune(screenplay.Normalize(doc)), h) != h.StoredText
}

// RefreshStatuses returns a copy of highlights with drifted spans marked stale.
// Spans are never moved or removed; non-drifted spans keep their status.
func RefreshStatuses(highlights []HighlightSpan, doc string) []HighlightSpan {
	runes := []rune(screenplay.Normalize(doc))
	out := make([]HighlightSpan, len(highlights))
	for i, h := range highlights {
		if textAt(runes, h) != h.StoredText {
			h.Status = StatusStale
		}
		out[i] = h
	}
	return out
}

func textAt(doc []rune, h HighlightSpan) string {
	s := clamp(int(h.StartOffset), 0, len(doc))
	e := clamp(int(h.EndOffset), 0, len(doc))
	if e <= s {
		return ""
	}
	return string(doc[s:e])
}

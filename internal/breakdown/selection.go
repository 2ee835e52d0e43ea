/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package breakdown

import (
	"errors"
	"strings"
	"unicode/utf8"

	"screenbreak/internal/screenplay"
)

// minSelectionLen is the shortest trimmed selection worth tagging.
const minSelectionLen = 2

var (
	// ErrSelectionTooShort rejects empty, collapsed or too short selections.
	// Callers usually ignore it silently.
	ErrSelectionTooShort = errors.New("selection too short or empty")
	// ErrInvalidAnchor rejects negative anchor offsets.
	ErrInvalidAnchor = errors.New("selection anchor out of range")
)

// Selection is a resolved text selection, ready to be tagged with a category.
type Selection struct {
	Text        string
	StartOffset screenplay.DocOffset
	EndOffset   screenplay.DocOffset
}

// ResolveSelection maps a host-reported selection to absolute document offsets.
// anchorLineOffset is the CharOffset of the line the selection starts in and
// inner the rune offset of the selection start within that line.
func ResolveSelection(selectedText string, anchorLineOffset screenplay.DocOffset, inner int) (Selection, error) {
	if selectedText == "" || utf8.RuneCountInString(strings.TrimSpace(selectedText)) < minSelectionLen {
		return Selection{}, ErrSelectionTooShort
	}
	if anchorLineOffset < 0 || inner < 0 {
		return Selection{}, ErrInvalidAnchor
	}
	start := anchorLineOffset + screenplay.DocOffset(inner)
	return Selection{
		Text:        selectedText,
		StartOffset: start,
		EndOffset:   start + screenplay.DocOffset(utf8.RuneCountInString(selectedText)),
	}, nil
}

// Draft turns a resolved selection and a picked category into a pending
// highlight. The ID is assigned by the store that persists it.
func Draft(sel Selection, category Category, sceneID string) HighlightSpan {
	return HighlightSpan{
		Category:    category,
		StartOffset: sel.StartOffset,
		EndOffset:   sel.EndOffset,
		Status:      StatusPending,
		SceneID:     sceneID,
		StoredText:  sel.Text,
	}
}

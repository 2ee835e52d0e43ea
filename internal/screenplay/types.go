/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package screenplay classifies fixed-width screenplay text into typed elements
// and paginates it into industry-format pages.
//
// Two coordinate systems coexist here: DocOffset is a rune position in the
// normalized document (the join key for stored highlights), LineIndex is the
// position of a line in the raw line split. They are distinct types on purpose
// and must not be mixed.
package screenplay

// Element is the structural category assigned to one screenplay line.
type Element string

const (
	SceneHeading  Element = "scene_heading"
	Action        Element = "action"
	Character     Element = "character"
	Dialogue      Element = "dialogue"
	Parenthetical Element = "parenthetical"
	Transition    Element = "transition"
	General       Element = "general"

	// Title page elements.
	Title         Element = "title"
	Author        Element = "author"
	Contact       Element = "contact"
	DraftInfo     Element = "draft_info"
	Copyright     Element = "copyright"
	TitlePageText Element = "title_page_text"
)

// Elements lists every element type in declaration order.
var Elements = []Element{
	SceneHeading, Action, Character, Dialogue, Parenthetical, Transition, General,
	Title, Author, Contact, DraftInfo, Copyright, TitlePageText,
}

// Valid reports whether e is one of the known element types.
func (e Element) Valid() bool {
	for _, k := range Elements {
		if k == e {
			return true
		}
	}
	return false
}

// DocOffset is an absolute rune offset into the normalized document.
type DocOffset int

// LineIndex is the index of a line in the raw newline split of a document.
type LineIndex int

// Line is one classified line of a parsed document.
// Content is kept raw, including its leading whitespace.
type Line struct {
	Type       Element   `json:"type"`
	Content    string    `json:"content"`
	LineIndex  LineIndex `json:"lineIndex"`
	CharOffset DocOffset `json:"charOffset"`
}

// End returns the offset just past the last rune of the line (exclusive).
func (l Line) End() DocOffset { return l.CharOffset + DocOffset(runeLen(l.Content)) }

// Page is an immutable slice of consecutive lines rendered together.
// PageNumber is 1-based and counts content pages only.
type Page struct {
	PageNumber     int       `json:"pageNumber"`
	Lines          []Line    `json:"lines"`
	StartLineIndex LineIndex `json:"startLineIndex"`
	EndLineIndex   LineIndex `json:"endLineIndex"`
}

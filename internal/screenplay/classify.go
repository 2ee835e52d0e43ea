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
	"unicode"
	"unicode/utf8"
)

// Band is an inclusive range of leading-whitespace columns.
// Max < 0 means unbounded.
type Band struct {
	Min int
	Max int
}

// Contains reports whether indent falls inside the band.
func (b Band) Contains(indent int) bool {
	if indent < b.Min {
		return false
	}
	return b.Max < 0 || indent <= b.Max
}

// Indentation bands of the fixed-width screenplay convention.
// The bands overlap; Classify tests them in a fixed order.
var (
	TransitionBand    = Band{Min: 35, Max: -1}
	CharacterBand     = Band{Min: 15, Max: 30}
	ParentheticalBand = Band{Min: 12, Max: 18}
	DialogueBand      = Band{Min: 8, Max: 14}
	ActionBand        = Band{Min: 0, Max: 7}
)

// IndentBands maps each indentation-driven element to its band.
var IndentBands = map[Element]Band{
	Transition:    TransitionBand,
	Character:     CharacterBand,
	Parenthetical: ParentheticalBand,
	Dialogue:      DialogueBand,
	Action:        ActionBand,
}

// maxCueLen bounds the length of a character cue (exclusive on both ends: 1 < n < maxCueLen).
// maxTitleLen bounds a title line on the title page.
const (
	maxCueLen   = 50
	maxTitleLen = 80
)

var (
	reSceneHeading = regexp.MustCompile(`(?i)^(?:INT\./EXT|INT/EXT|EXT\./INT|EXT/INT|INT-EXT|I-E|I/E|INT|EXT|EST)\.?\s`)
	reTransition   = regexp.MustCompile(`^(?:[A-Z0-9 .'’-]+ TO:|FADE (?:IN|OUT)[.:]?|FADE TO BLACK\.?|CUT TO BLACK\.?|THE END\.?)$`)
	reCueExtension = regexp.MustCompile(`(?:\s*\([^()]*\))+\s*$`)

	reCopyright = regexp.MustCompile(`(?i)(?:copyright|©|\(c\)\s*\d{4}|all rights reserved)`)
	reAuthor    = regexp.MustCompile(`(?i)^(?:(?:written|screenplay|story|teleplay)(?:\s+and\s+\w+)?\s+by\b|by$|by\s)`)
	reDraft     = regexp.MustCompile(`(?i)(?:\b(?:draft|revision|revised|rev\.)|\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b|\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b)`)
	reContact   = regexp.MustCompile(`(?i)(?:[\w.+-]+@[\w-]+\.[\w.]+|\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}|\b(?:agent|manager|management|agency|represented by|contact)\b)`)
)

// Indent returns the number of leading whitespace runes in line.
func Indent(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// Classify assigns an element type to a single raw line.
// prev is the type of the nearest preceding non-blank line ("" when none).
// Classification never fails; ambiguous input falls through to Action
// (body) or TitlePageText (title page).
func Classify(line string, prev Element, isTitlePage bool) Element {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return General
	}
	if isTitlePage {
		return classifyTitlePage(trimmed)
	}

	indent := Indent(line)
	switch {
	case TransitionBand.Contains(indent):
		return Transition
	case CharacterBand.Contains(indent) && isCharacterCue(trimmed):
		return Character
	case ParentheticalBand.Contains(indent) && isParenthetical(trimmed):
		return Parenthetical
	case DialogueBand.Contains(indent) && (prev == Character || prev == Parenthetical || prev == Dialogue):
		return Dialogue
	case ActionBand.Contains(indent):
		if reSceneHeading.MatchString(trimmed) {
			return SceneHeading
		}
		if reTransition.MatchString(trimmed) {
			return Transition
		}
		return Action
	}

	// ambiguous indentation
	switch {
	case reSceneHeading.MatchString(trimmed):
		return SceneHeading
	case reTransition.MatchString(trimmed):
		return Transition
	case isParenthetical(trimmed) && (prev == Character || prev == Dialogue):
		return Parenthetical
	case isCharacterCue(trimmed):
		return Character
	case prev == Character || prev == Parenthetical:
		return Dialogue
	}
	return Action
}

func classifyTitlePage(trimmed string) Element {
	switch {
	case reCopyright.MatchString(trimmed):
		return Copyright
	case reAuthor.MatchString(trimmed):
		return Author
	case reDraft.MatchString(trimmed):
		return DraftInfo
	case reContact.MatchString(trimmed):
		return Contact
	case runeLen(trimmed) < maxTitleLen && isAllUpper(trimmed) && !reSceneHeading.MatchString(trimmed):
		return Title
	}
	return TitlePageText
}

// isCharacterCue reports whether s reads as a speaker cue once extensions
// like (V.O.) or (CONT'D) are removed.
func isCharacterCue(s string) bool {
	name := strings.TrimSpace(reCueExtension.ReplaceAllString(s, ""))
	n := runeLen(name)
	return n > 1 && n < maxCueLen && isAllUpper(name)
}

func isParenthetical(s string) bool {
	return strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
}

// isAllUpper requires at least one letter and no lower-case letters.
func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

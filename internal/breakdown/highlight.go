/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package breakdown overlays production-breakdown highlights onto screenplay
// lines, resolves text selections into document offset ranges and detects
// highlights whose anchored text has drifted.
//
// Highlight records are owned by a persistence layer; this package only reads
// them and proposes drafts.
package breakdown

import (
	"fmt"
	"strings"

	"screenbreak/internal/screenplay"
)

// Category is a breakdown category a highlight is tagged with.
type Category string

const (
	CategoryCast              Category = "cast"
	CategoryExtras            Category = "extras"
	CategoryStunts            Category = "stunts"
	CategoryVehicles          Category = "vehicles"
	CategoryProps             Category = "props"
	CategorySpecialEffects    Category = "special_effects"
	CategoryWardrobe          Category = "wardrobe"
	CategoryMakeup            Category = "makeup"
	CategoryAnimals           Category = "animals"
	CategoryAnimalHandler     Category = "animal_handler"
	CategoryMusic             Category = "music"
	CategorySound             Category = "sound"
	CategorySetDressing       Category = "set_dressing"
	CategoryGreenery          Category = "greenery"
	CategorySpecialEquipment  Category = "special_equipment"
	CategorySecurity          Category = "security"
	CategoryAdditionalLabor   Category = "additional_labor"
	CategoryVisualEffects     Category = "visual_effects"
	CategoryMechanicalEffects Category = "mechanical_effects"
	CategoryNotes             Category = "notes"
	CategoryLocation          Category = "location"
)

// Categories lists all known breakdown categories.
var Categories = []Category{
	CategoryCast, CategoryExtras, CategoryStunts, CategoryVehicles, CategoryProps,
	CategorySpecialEffects, CategoryWardrobe, CategoryMakeup, CategoryAnimals,
	CategoryAnimalHandler, CategoryMusic, CategorySound, CategorySetDressing,
	CategoryGreenery, CategorySpecialEquipment, CategorySecurity,
	CategoryAdditionalLabor, CategoryVisualEffects, CategoryMechanicalEffects,
	CategoryNotes, CategoryLocation,
}

// ParseCategory normalizes s ("Special Effects", "special-effects") to a known Category.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, c := range Categories {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown breakdown category %q", s)
}

// Status is the review state of a highlight.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusStale     Status = "stale"
)

// ParseStatus validates a stored status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusRejected, StatusStale:
		return st, nil
	}
	return "", fmt.Errorf("unknown highlight status %q", s)
}

// HighlightSpan is a stored breakdown annotation over [StartOffset, EndOffset).
// StoredText is the document text the span covered when it was created.
type HighlightSpan struct {
	ID          string               `json:"id"`
	Category    Category             `json:"category"`
	StartOffset screenplay.DocOffset `json:"start_offset"`
	EndOffset   screenplay.DocOffset `json:"end_offset"`
	Status      Status               `json:"status"`
	SceneID     string               `json:"scene_id,omitempty"`
	StoredText  string               `json:"stored_text"`
}

// Len returns the number of runes the span covers (0 for inverted spans).
func (h HighlightSpan) Len() int {
	if h.EndOffset <= h.StartOffset {
		return 0
	}
	return int(h.EndOffset - h.StartOffset)
}

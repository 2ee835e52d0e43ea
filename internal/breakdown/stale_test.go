/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package breakdown

import (
	"testing"

	"screenbreak/internal/screenplay"
)

func TestIsStale(t *testing.T) {
	doc := "The knife glints."
	h := span("k", 4, 9)
	h.StoredText = "knife"
	if IsStale(h, doc) {
		t.Fatalf("matching span reported stale")
	}
	if !IsStale(h, "The spoon glints.") {
		t.Fatalf("edited span not reported stale")
	}
	if !IsStale(h, "Short") {
		t.Fatalf("out-of-range span must be stale")
	}
	inverted := span("x", 9, 4)
	inverted.StoredText = "knife"
	if !IsStale(inverted, doc) {
		t.Fatalf("inverted span must be stale")
	}
}

func TestRefreshStatuses(t *testing.T) {
	a := span("a", 0, 3)
	a.StoredText = "The"
	b := span("b", 4, 9)
	b.StoredText = "knife"
	in := []HighlightSpan{a, b}
	out := RefreshStatuses(in, "The spoon glints.")
	if out[0].Status != StatusConfirmed {
		t.Fatalf("unchanged span lost its status: %q", out[0].Status)
	}
	if out[1].Status != StatusStale {
		t.Fatalf("drifted span not marked stale: %q", out[1].Status)
	}
	if in[1].Status != StatusConfirmed {
		t.Fatalf("input slice must not be modified")
	}
	if out[1].StartOffset != 4 || out[1].EndOffset != 9 {
		t.Fatalf("stale span must keep its offsets")
	}
}

func TestIsStaleCRLFDocument(t *testing.T) {
	doc := "INT. YARD - DAY\r\n\r\nThe shovel is here.\r\n"
	lines := screenplay.Parse(doc)
	sel, err := ResolveSelection("shovel", lines[2].CharOffset, 4)
	if err != nil {
		t.Fatalf("ResolveSelection: %v", err)
	}
	h := Draft(sel, CategoryProps, "")
	if h.StartOffset != 21 || h.EndOffset != 27 {
		t.Fatalf("span = [%d, %d), want [21, 27)", h.StartOffset, h.EndOffset)
	}
	if IsStale(h, doc) {
		t.Fatalf("span taken from a CRLF document reported stale")
	}
	if out := RefreshStatuses([]HighlightSpan{h}, doc); out[0].Status != StatusPending {
		t.Fatalf("RefreshStatuses marked CRLF span %q", out[0].Status)
	}
}

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
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"screenbreak/internal/breakdown"
	"screenbreak/internal/screenplay"
	"screenbreak/internal/storage"
)

const sample = "INT. KITCHEN - DAY\n\nThe knife glints.\n\n               JOHN\n        Put it down.\n"

func TestOverlayPageMarksDrift(t *testing.T) {
	doc := screenplay.NewCache(screenplay.Options{}, 1).Get(strings.ReplaceAll(sample, "\n", "\r\n"))
	hs := []breakdown.HighlightSpan{
		{ID: "k", Category: breakdown.CategoryProps, StartOffset: 24, EndOffset: 29, StoredText: "knife"},
		{ID: "x", Category: breakdown.CategoryNotes, StartOffset: 30, EndOffset: 36, StoredText: "gleams"},
	}
	page := overlayPage(doc, hs, 1)
	if len(page) != len(doc.Pages[0].Lines) {
		t.Fatalf("overlay has %d lines, page has %d", len(page), len(doc.Pages[0].Lines))
	}
	if got := renderSegments(page[2].Segments); got != "The [knife|props] [glints|notes!]." {
		t.Fatalf("renderSegments = %q", got)
	}
	if hs[1].Status != "" {
		t.Fatalf("input highlights must not be modified")
	}
}

func TestResolveAt(t *testing.T) {
	lines := screenplay.Parse(sample)
	sel, err := resolveAt(lines, 3, 4, "knife")
	if err != nil {
		t.Fatalf("resolveAt: %v", err)
	}
	if sel.StartOffset != 24 || sel.EndOffset != 29 {
		t.Fatalf("selection = %+v", sel)
	}
	if _, err := resolveAt(lines, 99, 0, "knife"); err == nil {
		t.Fatalf("expected error for a line outside the document")
	}
	if _, err := resolveAt(lines, 3, 4, "k"); !errors.Is(err, breakdown.ErrSelectionTooShort) {
		t.Fatalf("expected ErrSelectionTooShort, got %v", err)
	}
}

func TestPrintPages(t *testing.T) {
	var buf bytes.Buffer
	printPages(&buf, screenplay.Paginate(screenplay.Parse(sample), 3))
	out := buf.String()
	if !strings.HasPrefix(out, "page 1: lines 1-3 (3)\n") || !strings.Contains(out, "page 2: lines 4-") {
		t.Fatalf("unexpected pages output:\n%s", out)
	}
}

func TestDocumentID(t *testing.T) {
	if got := documentID(filepath.Join("scripts", "pilot.v2.txt")); got != "pilot.v2" {
		t.Fatalf("documentID = %q", got)
	}
}

func TestImportDocumentMarksStale(t *testing.T) {
	ctx := context.Background()
	st, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cli.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = st.Close() }()
	hs := []breakdown.HighlightSpan{
		{Category: breakdown.CategoryProps, StartOffset: 24, EndOffset: 29, StoredText: "knife"},
		{Category: breakdown.CategoryCast, StartOffset: 52, EndOffset: 56, StoredText: "MARY"},
	}
	n, err := importDocument(ctx, st, "pilot", sample, hs)
	if err != nil {
		t.Fatalf("importDocument: %v", err)
	}
	if n != 1 {
		t.Fatalf("stale count = %d, want 1", n)
	}
	list, err := st.ListHighlights(ctx, "pilot")
	if err != nil || len(list) != 2 {
		t.Fatalf("ListHighlights = %+v, %v", list, err)
	}
}

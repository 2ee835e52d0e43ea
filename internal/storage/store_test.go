/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"screenbreak/internal/breakdown"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "store.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLiteMigrates(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("schema version %d, want %d", v, schemaVersion)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.sqlite")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := s.SaveDocument(ctx, "doc", "INT. A - DAY", time.Now()); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	_ = s.Close()
	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	if got, _, err := s.LatestDocument(ctx, "doc"); err != nil || got != "INT. A - DAY" {
		t.Fatalf("LatestDocument = %q, %v", got, err)
	}
}

func TestHighlightCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h, err := s.CreateHighlight(ctx, "doc", breakdown.HighlightSpan{
		Category: "Props", StartOffset: 4, EndOffset: 9, SceneID: "sc1", StoredText: "knife",
	})
	if err != nil {
		t.Fatalf("CreateHighlight: %v", err)
	}
	if h.ID == "" || h.Status != breakdown.StatusPending || h.Category != breakdown.CategoryProps {
		t.Fatalf("unexpected created highlight %+v", h)
	}
	got, err := s.GetHighlight(ctx, h.ID)
	if err != nil || got != h {
		t.Fatalf("GetHighlight = %+v, %v; want %+v", got, err, h)
	}
	if _, err := s.CreateHighlight(ctx, "doc", breakdown.HighlightSpan{Category: breakdown.CategoryCast, StartOffset: 0, EndOffset: 3, StoredText: "The"}); err != nil {
		t.Fatalf("CreateHighlight second: %v", err)
	}
	list, err := s.ListHighlights(ctx, "doc")
	if err != nil || len(list) != 2 || list[0].StartOffset != 0 {
		t.Fatalf("ListHighlights = %+v, %v", list, err)
	}
	if err := s.UpdateStatus(ctx, h.ID, breakdown.StatusConfirmed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got, _ := s.GetHighlight(ctx, h.ID); got.Status != breakdown.StatusConfirmed {
		t.Fatalf("status not updated: %q", got.Status)
	}
	if err := s.DeleteHighlight(ctx, h.ID); err != nil {
		t.Fatalf("DeleteHighlight: %v", err)
	}
	if _, err := s.GetHighlight(ctx, h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteHighlight(ctx, h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestCreateHighlightValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	bad := []breakdown.HighlightSpan{
		{Category: "catering", StartOffset: 0, EndOffset: 2},
		{Category: breakdown.CategoryProps, StartOffset: 5, EndOffset: 5},
		{Category: breakdown.CategoryProps, StartOffset: -1, EndOffset: 2},
		{Category: breakdown.CategoryProps, StartOffset: 0, EndOffset: 2, Status: "archived"},
	}
	for _, h := range bad {
		if _, err := s.CreateHighlight(ctx, "doc", h); err == nil {
			t.Fatalf("expected validation error for %+v", h)
		}
	}
	if _, err := s.CreateHighlight(ctx, "", breakdown.HighlightSpan{Category: breakdown.CategoryProps, EndOffset: 2}); err == nil {
		t.Fatalf("expected error for empty document id")
	}
}

func TestRefreshStale(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	t0 := time.Now().Add(-time.Minute)
	if err := s.SaveDocument(ctx, "doc", "The knife glints.", t0); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	knife, _ := s.CreateHighlight(ctx, "doc", breakdown.HighlightSpan{Category: breakdown.CategoryProps, StartOffset: 4, EndOffset: 9, StoredText: "knife"})
	the, _ := s.CreateHighlight(ctx, "doc", breakdown.HighlightSpan{Category: breakdown.CategoryNotes, StartOffset: 0, EndOffset: 3, StoredText: "The"})

	if n, err := s.RefreshStale(ctx, "doc"); err != nil || n != 0 {
		t.Fatalf("RefreshStale on unchanged doc = %d, %v", n, err)
	}
	if err := s.SaveDocument(ctx, "doc", "The spoon glints.", t0.Add(time.Second)); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	n, err := s.RefreshStale(ctx, "doc")
	if err != nil || n != 1 {
		t.Fatalf("RefreshStale = %d, %v; want 1", n, err)
	}
	if got, _ := s.GetHighlight(ctx, knife.ID); got.Status != breakdown.StatusStale {
		t.Fatalf("knife not stale: %q", got.Status)
	}
	if got, _ := s.GetHighlight(ctx, the.ID); got.Status != breakdown.StatusPending {
		t.Fatalf("unchanged span status changed: %q", got.Status)
	}
	if _, err := s.RefreshStale(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing document, got %v", err)
	}
}

func TestDocumentsNormalizedAndPruned(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.SaveDocument(ctx, "doc", "A\r\nB", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}
	got, _, err := s.LatestDocument(ctx, "doc")
	if err != nil || got != "A\nB" {
		t.Fatalf("LatestDocument = %q, %v", got, err)
	}
	n, err := s.PruneDocuments(ctx, "doc", 2)
	if err != nil || n != 3 {
		t.Fatalf("PruneDocuments = %d, %v; want 3", n, err)
	}
}

func TestStatusesAreNormalized(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	h, err := s.CreateHighlight(ctx, "doc", breakdown.HighlightSpan{
		Category: breakdown.CategoryProps, StartOffset: 0, EndOffset: 3, Status: "Rejected", StoredText: "The",
	})
	if err != nil {
		t.Fatalf("CreateHighlight: %v", err)
	}
	if got, _ := s.GetHighlight(ctx, h.ID); got.Status != breakdown.StatusRejected {
		t.Fatalf("stored status %q, want rejected", got.Status)
	}
	if err := s.UpdateStatus(ctx, h.ID, " Confirmed "); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got, _ := s.GetHighlight(ctx, h.ID); got.Status != breakdown.StatusConfirmed {
		t.Fatalf("stored status %q, want confirmed", got.Status)
	}
}

func TestDocumentErrorsAreReported(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO documents(document_id, ts, content) VALUES ('doc', 'yesterday', 'x')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := s.LatestDocument(ctx, "doc"); err == nil || !strings.Contains(err.Error(), "timestamp") {
		t.Fatalf("expected timestamp error, got %v", err)
	}
	_ = s.Close()
	if _, err := s.PruneDocuments(ctx, "doc", 1); err == nil || !strings.Contains(err.Error(), "prune documents") {
		t.Fatalf("expected wrapped prune error, got %v", err)
	}
}

func TestDecodeHighlights(t *testing.T) {
	in := `[
	  {"id": "h1", "category": "props", "start_offset": 4, "end_offset": 9, "status": "confirmed", "stored_text": "knife"},
	  {"category": "Special Effects", "start_offset": 10, "end_offset": 16, "stored_text": "glints"}
	]`
	hs, err := DecodeHighlights(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeHighlights: %v", err)
	}
	if len(hs) != 2 || hs[1].Category != breakdown.CategorySpecialEffects || hs[1].Status != breakdown.StatusPending {
		t.Fatalf("unexpected highlights %+v", hs)
	}
	for _, bad := range []string{
		`{"category": "props"}`,
		`[{"category": "props", "start_offset": -1, "end_offset": 2}]`,
		`[{"category": "props", "start_offset": 1}]`,
		`[{"category": "props", "start_offset": 1, "end_offset": 2, "status": "gone"}]`,
		`[{"category": "catering", "start_offset": 1, "end_offset": 2}]`,
	} {
		if _, err := DecodeHighlights(strings.NewReader(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SBK_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("SBK_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer func() { _ = s.Close() }()
	doc := "pgtest-" + time.Now().Format("150405.000000")
	h, err := s.CreateHighlight(ctx, doc, breakdown.HighlightSpan{Category: breakdown.CategoryCast, StartOffset: 0, EndOffset: 4, StoredText: "JOHN"})
	if err != nil {
		t.Fatalf("CreateHighlight: %v", err)
	}
	defer func() { _ = s.DeleteHighlight(ctx, h.ID) }()
	list, err := s.ListHighlights(ctx, doc)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListHighlights = %+v, %v", list, err)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: dialectPostgres}
	if got := s.rebind("a=? AND b=? LIMIT ?"); got != "a=$1 AND b=$2 LIMIT $3" {
		t.Fatalf("rebind = %q", got)
	}
	s.dialect = dialectSQLite
	if got := s.rebind("a=?"); got != "a=?" {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

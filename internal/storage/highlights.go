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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"screenbreak/internal/breakdown"
	"screenbreak/internal/screenplay"
)

// language=SQL
const insertHighlightSQL = `INSERT INTO highlights
	(id, document_id, category, start_offset, end_offset, status, scene_id, stored_text, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
const selectHighlightColumns = `SELECT id, category, start_offset, end_offset, status, scene_id, stored_text FROM highlights`

// language=SQL
const updateHighlightStatusSQL = `UPDATE highlights SET status=?, updated_at=? WHERE id=?`

// language=SQL
const deleteHighlightSQL = `DELETE FROM highlights WHERE id=?`

// CreateHighlight validates and stores h for documentID. An empty ID is
// replaced by a fresh UUID and an empty status by pending.
func (s *Store) CreateHighlight(ctx context.Context, documentID string, h breakdown.HighlightSpan) (breakdown.HighlightSpan, error) {
	if documentID == "" {
		return h, errors.New("document id is required")
	}
	if err := validateHighlight(&h); err != nil {
		return h, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.exec(ctx, insertHighlightSQL,
		h.ID, documentID, string(h.Category), int64(h.StartOffset), int64(h.EndOffset),
		string(h.Status), nullString(h.SceneID), h.StoredText, now, now)
	if err != nil {
		return h, fmt.Errorf("insert highlight: %w", err)
	}
	s.log.Debug("highlight created", slog.String("id", h.ID), slog.String("doc", documentID), slog.String("category", string(h.Category)))
	return h, nil
}

// GetHighlight returns the highlight with the given id or ErrNotFound.
func (s *Store) GetHighlight(ctx context.Context, id string) (breakdown.HighlightSpan, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectHighlightColumns+` WHERE id=?`), id)
	h, err := scanHighlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("highlight %s: %w", id, ErrNotFound)
	}
	return h, err
}

// ListHighlights returns the highlights of a document ordered by start offset.
func (s *Store) ListHighlights(ctx context.Context, documentID string) ([]breakdown.HighlightSpan, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectHighlightColumns+` WHERE document_id=? ORDER BY start_offset, id`), documentID)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []breakdown.HighlightSpan{}
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateStatus changes the review status of a highlight.
func (s *Store) UpdateStatus(ctx context.Context, id string, status breakdown.Status) error {
	status, err := breakdown.ParseStatus(string(status))
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, updateHighlightStatusSQL, string(status), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return expectOne(res, "highlight "+id)
}

// DeleteHighlight removes a highlight.
func (s *Store) DeleteHighlight(ctx context.Context, id string) error {
	res, err := s.exec(ctx, deleteHighlightSQL, id)
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	return expectOne(res, "highlight "+id)
}

// RefreshStale re-checks the highlights of documentID against the latest
// stored content and persists the stale status for drifted spans.
// It returns the number of highlights newly marked stale.
func (s *Store) RefreshStale(ctx context.Context, documentID string) (int, error) {
	content, _, err := s.LatestDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	hs, err := s.ListHighlights(ctx, documentID)
	if err != nil {
		return 0, err
	}
	refreshed := breakdown.RefreshStatuses(hs, content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	changed := 0
	for i := range refreshed {
		if refreshed[i].Status == hs[i].Status {
			continue
		}
		if _, err := tx.ExecContext(ctx, s.rebind(updateHighlightStatusSQL), string(refreshed[i].Status), now, refreshed[i].ID); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mark stale: %w", err)
		}
		changed++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	if changed > 0 {
		s.log.Info("highlights marked stale", slog.String("doc", documentID), slog.Int("count", changed))
	}
	return changed, nil
}

func validateHighlight(h *breakdown.HighlightSpan) error {
	cat, err := breakdown.ParseCategory(string(h.Category))
	if err != nil {
		return err
	}
	h.Category = cat
	if h.Status == "" {
		h.Status = breakdown.StatusPending
	}
	st, err := breakdown.ParseStatus(string(h.Status))
	if err != nil {
		return err
	}
	h.Status = st
	if h.StartOffset < 0 || h.EndOffset <= h.StartOffset {
		return fmt.Errorf("invalid highlight range [%d, %d)", h.StartOffset, h.EndOffset)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHighlight(sc scanner) (breakdown.HighlightSpan, error) {
	var (
		h          breakdown.HighlightSpan
		cat, st    string
		start, end int64
		scene      sql.NullString
	)
	if err := sc.Scan(&h.ID, &cat, &start, &end, &st, &scene, &h.StoredText); err != nil {
		return h, err
	}
	h.Category = breakdown.Category(cat)
	h.Status = breakdown.Status(st)
	h.StartOffset = screenplay.DocOffset(start)
	h.EndOffset = screenplay.DocOffset(end)
	h.SceneID = scene.String
	return h, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

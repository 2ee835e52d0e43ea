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
	"time"

	"screenbreak/internal/screenplay"
)

// language=SQL
const insertDocumentSQL = `INSERT INTO documents(document_id, ts, content) VALUES (?, ?, ?)`

// language=SQL
const selectLatestDocumentSQL = `SELECT ts, content FROM documents WHERE document_id=? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
const pruneDocumentsSQL = `DELETE FROM documents WHERE document_id=? AND id NOT IN (
	SELECT id FROM documents WHERE document_id=? ORDER BY ts DESC, id DESC LIMIT ?
)`

// SaveDocument stores a content snapshot. Content is normalized first so it
// matches the text highlight offsets are recorded against.
func (s *Store) SaveDocument(ctx context.Context, documentID, content string, ts time.Time) error {
	if documentID == "" {
		return errors.New("document id is required")
	}
	if _, err := s.exec(ctx, insertDocumentSQL, documentID, ts.UTC().Format(time.RFC3339Nano), screenplay.Normalize(content)); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// LatestDocument returns the newest snapshot of a document or ErrNotFound.
func (s *Store) LatestDocument(ctx context.Context, documentID string) (string, time.Time, error) {
	var tsStr, content string
	err := s.db.QueryRowContext(ctx, s.rebind(selectLatestDocumentSQL), documentID).Scan(&tsStr, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("select document: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("document %s timestamp %q: %w", documentID, tsStr, err)
	}
	return content, ts, nil
}

// PruneDocuments keeps at most keepLast snapshots of a document.
func (s *Store) PruneDocuments(ctx context.Context, documentID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := s.exec(ctx, pruneDocumentsSQL, documentID, documentID, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune documents: %w", err)
	}
	return res.RowsAffected()
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
	"mangastudio/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DBFileName is the studio's document database inside the data directory.
	DBFileName = "projects.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump it when adding
	// migrations; bumps must be additive and never drop user documents.
	schemaVersion = 2
)

// SQLiteStore persists documents in an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) the document database inside dataDir,
// enables WAL mode, ensures the meta/version tables exist, and runs any
// pending migrations.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: create data dir: %v", ErrStorageUnavailable, err)
	}

	path := filepath.Join(dataDir, DBFileName)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: enable WAL: %v", ErrStorageUnavailable, err)
	}

	s := &SQLiteStore{db: db, log: applog.WithComponent("storage")}
	if err := s.ensureVersion(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("document store ready", slog.String("path", path))
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ensureVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: create table: %v", ErrStorageUnavailable, err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database starts life at version 1 so migrate() walks every
		// step; that keeps fresh and upgraded schemas identical.
		if _, err := s.db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("%w: insert version: %v", ErrStorageUnavailable, err)
		}
	case err != nil:
		return fmt.Errorf("%w: read version: %v", ErrStorageUnavailable, err)
	default:
		if _, err := s.db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("%w: update version: %v", ErrStorageUnavailable, err)
		}
	}
	return nil
}

// migrate applies incremental schema migrations up to schemaVersion.
// Migration is one-directional: a database at a newer version is left alone.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	var cur int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("%w: read schema version: %v", ErrStorageUnavailable, err)
	}
	if cur > schemaVersion {
		s.log.Warn("database schema newer than application", slog.Int("db", cur), slog.Int("app", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin migration %d: %v", ErrStorageUnavailable, next, err)
		}
		var stmts []string
		switch next {
		case 1:
			stmts = []string{
				`CREATE TABLE IF NOT EXISTS documents (
					id         TEXT PRIMARY KEY,
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL,
					doc        TEXT NOT NULL
				);`,
			}
		case 2:
			// Backfill the ordering index used by ListIDs. Purely additive.
			stmts = []string{
				`CREATE TABLE IF NOT EXISTS documents (
					id         TEXT PRIMARY KEY,
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL,
					doc        TEXT NOT NULL
				);`,
				`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at DESC);`,
				`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);`,
			}
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("%w: migration %d stmt failed: %v", ErrStorageUnavailable, next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: migration %d update version: %v", ErrStorageUnavailable, next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: migration %d commit: %v", ErrStorageUnavailable, next, err)
		}
		s.log.Info("schema migrated", slog.Int("to", next))
		cur = next
	}
	return nil
}

// Put upserts a full document snapshot keyed by its id.
func (s *SQLiteStore) Put(ctx context.Context, doc *domain.Document) error {
	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return errors.New("document id is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(id, created_at, updated_at, doc) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at, updated_at=excluded.updated_at, doc=excluded.doc`,
		doc.ID, doc.CreatedAt, doc.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStorageUnavailable, doc.ID, err)
	}
	return nil
}

// Get returns the document for id, repaired to a valid shape, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE id=?`, id).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		if missingTable(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, id, err)
	}
	return decodeDocument(id, []byte(data))
}

// ListIDs returns all document ids, most recently updated first. An
// uninitialized schema yields an empty list, not an error.
func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		if missingTable(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: list ids: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", ErrStorageUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list ids: %v", ErrStorageUnavailable, err)
	}
	return ids, nil
}

// Delete removes a document. Deleting a non-existent id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=?`, id); err != nil {
		if missingTable(err) {
			return nil
		}
		return fmt.Errorf("%w: delete %s: %v", ErrStorageUnavailable, id, err)
	}
	return nil
}

// decodeDocument unmarshals a stored snapshot and repairs missing containers
// so old or partially-written documents still load.
func decodeDocument(id string, data []byte) (*domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	doc.Repair()
	return &doc, nil
}

func missingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

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
	"strings"
	"time"

	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store against a Postgres database. It exists for
// setups where several machines share one project library; the embedded
// SQLite store remains the default. Both stores keep behavioral parity and
// share the same schema version.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenPostgres connects with the given DSN and brings the schema up to date.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open_pg")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", ErrStorageUnavailable, err)
	}
	s := &PostgresStore{db: db, log: applog.WithComponent("storage")}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.Info("postgres document store ready")
	return s, nil
}

// Close releases the underlying database handle.
func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id         INTEGER PRIMARY KEY CHECK(id=1),
			schema     INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: ensure version table: %v", ErrStorageUnavailable, err)
		}
	}
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO version (id, schema, updated_at) VALUES(1, 0, $1)`, time.Now().UTC()); err != nil {
			return fmt.Errorf("%w: seed version: %v", ErrStorageUnavailable, err)
		}
		cur = 0
	case err != nil:
		return fmt.Errorf("%w: read schema version: %v", ErrStorageUnavailable, err)
	}
	if cur > schemaVersion {
		s.log.Warn("database schema newer than application", slog.Int("db", cur), slog.Int("app", schemaVersion))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 1:
			stmts = []string{
				`CREATE TABLE IF NOT EXISTS documents (
					id         TEXT PRIMARY KEY,
					created_at BIGINT NOT NULL,
					updated_at BIGINT NOT NULL,
					doc        JSONB  NOT NULL
				);`,
			}
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at DESC);`,
				`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);`,
			}
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin migration %d: %v", ErrStorageUnavailable, next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("%w: migration %d stmt failed: %v", ErrStorageUnavailable, next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=$1, updated_at=$2 WHERE id=1`, next, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: migration %d update version: %v", ErrStorageUnavailable, next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: migration %d commit: %v", ErrStorageUnavailable, next, err)
		}
		cur = next
	}
	return nil
}

// Put upserts a full document snapshot keyed by its id.
func (s *PostgresStore) Put(ctx context.Context, doc *domain.Document) error {
	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return errors.New("document id is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(id, created_at, updated_at, doc) VALUES($1,$2,$3,$4)
		 ON CONFLICT(id) DO UPDATE SET created_at=EXCLUDED.created_at, updated_at=EXCLUDED.updated_at, doc=EXCLUDED.doc`,
		doc.ID, doc.CreatedAt, doc.UpdatedAt, data)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrStorageUnavailable, doc.ID, err)
	}
	return nil
}

// Get returns the document for id, repaired to a valid shape, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE id=$1`, id).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorageUnavailable, id, err)
	}
	return decodeDocument(id, data)
}

// ListIDs returns all document ids, most recently updated first.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY updated_at DESC, id DESC`)
	if err != nil {
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
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id=$1`, id); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStorageUnavailable, id, err)
	}
	return nil
}

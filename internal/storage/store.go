/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements durable persistence of manga project documents.
// Documents are stored as JSON snapshots keyed by id in an embedded SQLite
// database (or optionally Postgres for shared setups), with an integer
// schema version and one-directional additive migrations.
package storage

import (
	"context"
	"errors"

	"mangastudio/internal/domain"
)

// ErrNotFound is returned by Get when no document exists for the id.
var ErrNotFound = errors.New("document not found")

// ErrStorageUnavailable wraps failures of the underlying storage engine.
// Callers should treat it as retryable.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store is the persistence boundary for project documents.
//
// Put upserts a full snapshot keyed by the document id. Get returns the
// snapshot or ErrNotFound; documents missing their story memory or chapters
// are repaired in-memory before being returned. ListIDs returns all known
// ids ordered by most-recently-updated first and degrades to an empty list
// on an uninitialized schema. Delete is idempotent.
type Store interface {
	Put(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

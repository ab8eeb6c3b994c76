/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mangastudio/internal/domain"
	"mangastudio/internal/storage"
)

func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	st, err := storage.OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func transferDoc() *domain.Document {
	now := time.Now().UnixMilli()
	doc := &domain.Document{
		ID:        "xfer-1",
		Title:     "Transfer Test",
		ArtStyle:  domain.StyleCartoon,
		CreatedAt: now,
		UpdatedAt: now,
		Chapters: []domain.Chapter{{
			ChapterNumber: 1,
			Pages: []domain.Page{{
				PageNumber: 1,
				Layout:     domain.LayoutGrid2x2,
				Panels: []domain.Panel{{
					PanelOrder:  0,
					Description: "a chase",
					StyleKey:    domain.StyleCartoon,
					Dialogue:    []domain.SpeechBubble{{CharacterName: "Aya", Text: "Wait!", Style: domain.BubbleShout}},
				}},
			}},
		}},
	}
	doc.Repair()
	return doc
}

func TestExportedDocumentValidatesAndRoundTrips(t *testing.T) {
	store := openTestStore(t)
	path := filepath.Join(t.TempDir(), "project.json")
	doc := transferDoc()

	if err := Export(doc, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("exported document should validate: %v", err)
	}

	got, err := Import(context.Background(), store, path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.ID != doc.ID || got.Title != doc.Title {
		t.Fatalf("imported identity mismatch: %+v", got)
	}
	loaded, err := store.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get after import: %v", err)
	}
	pn := loaded.Chapters[0].Pages[0].Panels[0]
	if pn.Description != "a chase" || pn.Dialogue[0].Style != domain.BubbleShout {
		t.Fatalf("imported panel mangled: %+v", pn)
	}
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	cases := map[string]string{
		"missing_id":    `{"title":"x","artStyle":"anime","createdAt":1,"updatedAt":1,"chapters":[],"storyMemory":{"characters":[],"world":{"places":[],"majorEvents":[]}}}`,
		"bad_art_style": `{"id":"a","title":"x","artStyle":"watercolor","createdAt":1,"updatedAt":1,"chapters":[],"storyMemory":{"characters":[],"world":{"places":[],"majorEvents":[]}}}`,
		"bad_layout":    `{"id":"a","title":"x","artStyle":"anime","createdAt":1,"updatedAt":1,"chapters":[{"chapterNumber":1,"pages":[{"pageNumber":1,"layout":"grid_9x9","panels":[]}]}],"storyMemory":{"characters":[],"world":{"places":[],"majorEvents":[]}}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		_, err := Import(context.Background(), store, path)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", name, err)
		}
	}
	ids, err := store.ListIDs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("invalid imports must not be persisted: %v", ids)
	}
}

func TestImportRejectsDanglingRelationships(t *testing.T) {
	store := openTestStore(t)
	doc := transferDoc()
	doc.StoryMemory.Characters = []domain.CharacterMemory{{
		ID:            "c1",
		Name:          "Aya",
		Relationships: []domain.Relationship{{RelatedCharacterID: "ghost", Description: "haunted by"}},
	}}
	path := filepath.Join(t.TempDir(), "dangling.json")
	if err := Export(doc, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := Import(context.Background(), store, path); err == nil {
		t.Fatalf("dangling relationship must be rejected")
	}
}

func TestImportRepairsLegacyDocuments(t *testing.T) {
	store := openTestStore(t)
	legacy := `{"id":"old-1","title":"Legacy","artStyle":"noir","createdAt":1,"updatedAt":1,"chapters":[],"storyMemory":{"characters":[],"world":{"places":[],"majorEvents":[]}}}`
	path := filepath.Join(t.TempDir(), "legacy.json")
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Import(context.Background(), store, path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got.Chapters) == 0 {
		t.Fatalf("empty chapters should be repaired to the default skeleton")
	}
	if got.VisualStyleKey != domain.StyleNoir {
		t.Fatalf("visual style key should backfill from art style, got %q", got.VisualStyleKey)
	}
}

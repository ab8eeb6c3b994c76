/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package studio is the document state core. A Session holds the single
// active document as an immutable snapshot: every mutation deep-copies
// the snapshot, edits the copy and swaps it in atomically, so readers
// holding the previous pointer always see a consistent document.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
	"mangastudio/internal/storage"
)

// Phase is the load lifecycle of the active document.
type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// SaveState is the persistence lifecycle, observable by the UI layer.
type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SavePending SaveState = "pending"
	SaveSaved   SaveState = "saved"
	SaveFailed  SaveState = "failed"
)

// ErrNoDocument is returned by mutations attempted while no document is
// active.
var ErrNoDocument = errors.New("no active document")

// maxContentHistory bounds the undo trail of the narrative text.
const maxContentHistory = 20

// Session manages one active document against a backing store. All
// methods are safe for concurrent use. Save-state observers run
// synchronously and must not call back into the session.
type Session struct {
	store storage.Store
	log   *slog.Logger

	mu        sync.Mutex
	phase     Phase
	doc       *domain.Document
	loadErr   error
	saveState SaveState
	dirty     bool
	onSave    func(SaveState)
}

// NewSession creates an empty session over a store.
func NewSession(store storage.Store) *Session {
	return &Session{
		store:     store,
		log:       applog.WithComponent("studio"),
		phase:     PhaseEmpty,
		saveState: SaveIdle,
	}
}

// OnSaveStateChange registers the save-state observer. Only one observer
// is supported; passing nil removes it.
func (s *Session) OnSaveStateChange(fn func(SaveState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = fn
}

// Phase returns the current load phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SaveState returns the current persistence state.
func (s *Session) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

// Dirty reports whether the snapshot has changes the store has not
// confirmed. It stays set after a failed save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Err returns the load error when the session is in the error phase.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Document returns the current snapshot. The snapshot is replaced
// wholesale on every mutation; callers must treat it as read-only.
func (s *Session) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Load fetches a document and makes it active. Loading the id that is
// already active and ready is a no-op and does not touch the store. Any
// other id replaces the active document.
func (s *Session) Load(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.phase == PhaseReady && s.doc != nil && s.doc.ID == id {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseLoading
	s.loadErr = nil
	s.mu.Unlock()

	doc, err := s.store.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseError
		s.doc = nil
		s.loadErr = err
		s.log.Error("load failed", "id", id, "error", err)
		return err
	}
	s.phase = PhaseReady
	s.doc = doc
	s.dirty = false
	s.saveState = SaveIdle
	s.log.Info("document loaded", "id", id, "chapters", len(doc.Chapters))
	return nil
}

// Clear drops the active document and resets all state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseEmpty
	s.doc = nil
	s.loadErr = nil
	s.dirty = false
	s.saveState = SaveIdle
}

// Patch is a shallow merge against the document's top-level fields. Nil
// fields are left untouched; set fields replace the current value
// wholesale, including Chapters and StoryMemory.
type Patch struct {
	Title          *string
	Summary        *string
	Content        *string
	ArtStyle       *domain.ArtStyle
	VisualStyleKey *domain.ArtStyle
	Environment    *domain.Environment
	Season         *string
	Episode        *int
	Chapters       *[]domain.Chapter
	StoryMemory    *domain.StoryMemory
}

func applyPatch(doc *domain.Document, p Patch) {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Summary != nil {
		doc.Summary = *p.Summary
	}
	if p.Content != nil {
		doc.Content = *p.Content
	}
	if p.ArtStyle != nil {
		doc.ArtStyle = *p.ArtStyle
	}
	if p.VisualStyleKey != nil {
		doc.VisualStyleKey = *p.VisualStyleKey
	}
	if p.Environment != nil {
		doc.Environment = *p.Environment
	}
	if p.Season != nil {
		doc.Season = *p.Season
	}
	if p.Episode != nil {
		doc.Episode = *p.Episode
	}
	if p.Chapters != nil {
		doc.Chapters = *p.Chapters
	}
	if p.StoryMemory != nil {
		doc.StoryMemory = *p.StoryMemory
	}
}

// UpdateAndSave applies a patch optimistically and persists the result.
// The in-memory snapshot keeps the new state even when the save fails;
// the session stays dirty and the save state reports the failure, so
// callers can retry with Save.
func (s *Session) UpdateAndSave(ctx context.Context, p Patch) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	next := s.doc.Clone()
	applyPatch(next, p)
	next.Touch()
	s.doc = next
	s.dirty = true
	s.mu.Unlock()

	return s.persist(ctx, next)
}

// Save persists the current snapshot without changing it.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return ErrNoDocument
	}
	return s.persist(ctx, doc)
}

// persist drives the save lifecycle around one store write.
func (s *Session) persist(ctx context.Context, doc *domain.Document) error {
	s.setSaveState(SavePending)
	if err := s.store.Put(ctx, doc); err != nil {
		s.setSaveState(SaveFailed)
		s.log.Error("save failed", "id", doc.ID, "error", err)
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	s.mu.Lock()
	// A newer snapshot may have been swapped in while the write ran;
	// only its own save clears the dirty flag.
	if s.doc == doc {
		s.dirty = false
	}
	s.mu.Unlock()
	s.setSaveState(SaveSaved)
	return nil
}

func (s *Session) setSaveState(st SaveState) {
	s.mu.Lock()
	s.saveState = st
	fn := s.onSave
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// UpdatePanel upserts one panel on the addressed page: the panel with a
// matching order is replaced, otherwise it is appended. A missing
// chapter or page leaves the document unchanged and is logged, not an
// error; stale addresses happen when pages are restructured mid-edit.
// With persist set the new snapshot is written through to the store.
func (s *Session) UpdatePanel(ctx context.Context, chapterNumber, pageNumber int, panel domain.Panel, persist bool) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	next := s.doc.Clone()
	ch := next.FindChapter(chapterNumber)
	if ch == nil {
		s.mu.Unlock()
		s.log.Warn("update panel: chapter not found", "chapter", chapterNumber)
		return nil
	}
	pg := ch.FindPage(pageNumber)
	if pg == nil {
		s.mu.Unlock()
		s.log.Warn("update panel: page not found", "chapter", chapterNumber, "page", pageNumber)
		return nil
	}
	pg.UpsertPanel(panel)
	next.Touch()
	s.doc = next
	s.dirty = true
	s.mu.Unlock()

	if !persist {
		return nil
	}
	return s.persist(ctx, next)
}

// AddChapter appends a new chapter numbered one past the current maximum,
// pre-created with a single empty default-layout page, and persists. An
// empty title falls back to "Chapter <n>". On any failure the document is
// unchanged and the returned chapter is nil.
func (s *Session) AddChapter(ctx context.Context, title string) (*domain.Chapter, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, ErrNoDocument
	}
	next := s.doc.Clone()
	n := next.NextChapterNumber()
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Chapter %d", n)
	}
	ch := domain.Chapter{
		ChapterNumber: n,
		Title:         title,
		Pages: []domain.Page{{
			PageNumber: 1,
			Layout:     domain.DefaultLayout,
			Panels:     []domain.Panel{},
		}},
	}
	next.Chapters = append(next.Chapters, ch)
	next.Touch()
	prev := s.doc
	s.doc = next
	s.dirty = true
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		// Chapter creation is not optimistic: roll the snapshot back so a
		// chapter the store never saw does not linger in the document.
		s.mu.Lock()
		if s.doc == next {
			s.doc = prev
		}
		s.mu.Unlock()
		return nil, err
	}
	return &ch, nil
}

// AppendContent extends the narrative text, pushing the previous text
// onto the bounded content history, and persists.
func (s *Session) AppendContent(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	next := s.doc.Clone()
	next.ContentHistory = append(next.ContentHistory, next.Content)
	if len(next.ContentHistory) > maxContentHistory {
		next.ContentHistory = next.ContentHistory[len(next.ContentHistory)-maxContentHistory:]
	}
	next.Content += text
	next.Touch()
	s.doc = next
	s.dirty = true
	s.mu.Unlock()

	return s.persist(ctx, next)
}

// MemoryAdditions are accepted suggestions to fold into story memory.
// Entries carry no ids; the session allocates them on acceptance.
type MemoryAdditions struct {
	Characters []domain.CharacterMemory
	Places     []domain.WorldPlace
	Events     []domain.WorldEvent
}

// ApplyMemoryAdditions merges accepted suggestions into story memory and
// persists. Characters and places already present under the same name
// are skipped so re-running an analysis cannot duplicate entities.
func (s *Session) ApplyMemoryAdditions(ctx context.Context, add MemoryAdditions) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	next := s.doc.Clone()
	mem := &next.StoryMemory
	for _, c := range add.Characters {
		if c.Name == "" || mem.CharacterByName(c.Name) != nil {
			continue
		}
		nc := domain.NewCharacter(c.Name)
		nc.Role = c.Role
		nc.Description = c.Description
		nc.Traits = append([]string(nil), c.Traits...)
		mem.Characters = append(mem.Characters, nc)
	}
	for _, p := range add.Places {
		if p.Name == "" || hasPlace(mem, p.Name) {
			continue
		}
		mem.World.Places = append(mem.World.Places, domain.NewPlace(p.Name, p.Description))
	}
	for _, e := range add.Events {
		if e.Description == "" {
			continue
		}
		mem.World.MajorEvents = append(mem.World.MajorEvents, domain.NewEvent(e.Description))
	}
	next.Touch()
	s.doc = next
	s.dirty = true
	s.mu.Unlock()

	return s.persist(ctx, next)
}

func hasPlace(m *domain.StoryMemory, name string) bool {
	for _, p := range m.World.Places {
		if p.Name == name {
			return true
		}
	}
	return false
}

// BeginPanelImage flags a panel as generating and clears any stale image
// error. The flag is in-memory state; it is not persisted on its own.
func (s *Session) BeginPanelImage(chapterNumber, pageNumber, panelOrder int) error {
	return s.setPanelImageState(chapterNumber, pageNumber, panelOrder, func(p *domain.Panel) {
		p.GeneratingImage = true
		p.ImageError = ""
	})
}

// FinishPanelImage clears the generating flag and records the outcome:
// image bytes and the prompt used on success, the error message on
// failure. The result is persisted.
func (s *Session) FinishPanelImage(ctx context.Context, chapterNumber, pageNumber, panelOrder int, image []byte, prompt string, genErr error) error {
	err := s.setPanelImageState(chapterNumber, pageNumber, panelOrder, func(p *domain.Panel) {
		p.GeneratingImage = false
		if genErr != nil {
			p.ImageError = genErr.Error()
			return
		}
		p.Image = image
		p.ImagePrompt = prompt
		p.ImageError = ""
		p.Timestamp = time.Now().UnixMilli()
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	return s.persist(ctx, doc)
}

func (s *Session) setPanelImageState(chapterNumber, pageNumber, panelOrder int, mutate func(*domain.Panel)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}
	next := s.doc.Clone()
	ch := next.FindChapter(chapterNumber)
	if ch == nil {
		return fmt.Errorf("chapter %d not found", chapterNumber)
	}
	pg := ch.FindPage(pageNumber)
	if pg == nil {
		return fmt.Errorf("page %d not found in chapter %d", pageNumber, chapterNumber)
	}
	pn := pg.FindPanel(panelOrder)
	if pn == nil {
		return fmt.Errorf("panel %d not found on chapter %d page %d", panelOrder, chapterNumber, pageNumber)
	}
	mutate(pn)
	next.Touch()
	s.doc = next
	s.dirty = true
	return nil
}

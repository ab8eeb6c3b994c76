/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pipeline turns a story idea into a persisted project: outline
// first, then per-panel captions and dialogue, then assembly into the
// initial chapter.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mangastudio/internal/ai"
	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
	"mangastudio/internal/storage"
)

// generator is the slice of the dispatcher the pipeline needs.
type generator interface {
	GenerateStoryStub(ctx context.Context, in ai.StoryStubInput) (string, error)
	GeneratePageOutline(ctx context.Context, in ai.PageOutlineInput) (*ai.PageOutline, error)
	GeneratePanelElements(ctx context.Context, in ai.PanelElementsInput) (*ai.PanelElements, error)
}

// Builder creates new projects.
type Builder struct {
	store storage.Store
	gen   generator
	log   *slog.Logger
}

// NewBuilder wires the pipeline. gen is normally an *ai.Service.
func NewBuilder(store storage.Store, gen generator) *Builder {
	return &Builder{
		store: store,
		gen:   gen,
		log:   applog.WithComponent("pipeline"),
	}
}

// CreateInput seeds a new project.
type CreateInput struct {
	Title       string
	StoryIdea   string
	ArtStyle    domain.ArtStyle
	Environment domain.Environment
	Season      string
	Episode     int
}

// Result reports what the pipeline produced. FailedPanels lists the
// orders of panels whose caption and dialogue generation failed; those
// panels exist with their description only and can be regenerated later.
type Result struct {
	DocumentID   string
	Document     *domain.Document
	FailedPanels []int
}

// CreateProject builds and persists a complete first-chapter project.
// The outline is required: its failure aborts the pipeline. Element
// generation is best-effort per panel; a failed panel keeps its outline
// description and is reported, not fatal.
func (b *Builder) CreateProject(ctx context.Context, in CreateInput) (*Result, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("create project: title is required")
	}
	if strings.TrimSpace(in.StoryIdea) == "" {
		return nil, fmt.Errorf("create project: story idea is required")
	}
	if in.ArtStyle == "" {
		in.ArtStyle = domain.StyleAnime
	}

	log := applog.WithOperation(b.log, "create_project")
	log.Info("starting", "title", in.Title, "style", in.ArtStyle)

	outline, err := b.gen.GeneratePageOutline(ctx, ai.PageOutlineInput{
		StoryIdea:        in.StoryIdea,
		ArtStyle:         in.ArtStyle,
		Environment:      in.Environment,
		TargetPanelCount: domain.DefaultLayout.PanelCount(),
	})
	if err != nil {
		return nil, fmt.Errorf("create project: outline: %w", err)
	}

	memory := seedMemory(outline)
	panels, failed := b.generatePanels(ctx, outline, in.ArtStyle, &memory)

	summary, err := b.gen.GenerateStoryStub(ctx, ai.StoryStubInput{
		Title:       in.Title,
		ArtStyle:    in.ArtStyle,
		Environment: in.Environment,
		Season:      in.Season,
		Episode:     in.Episode,
	})
	if err != nil {
		// A missing summary does not block project creation.
		log.Warn("summary generation failed", "error", err)
		summary = ""
	}

	now := time.Now().UnixMilli()
	doc := &domain.Document{
		ID:             uuid.NewString(),
		Title:          in.Title,
		ArtStyle:       in.ArtStyle,
		VisualStyleKey: in.ArtStyle,
		Environment:    in.Environment,
		Season:         in.Season,
		Episode:        in.Episode,
		CreatedAt:      now,
		UpdatedAt:      now,
		Summary:        summary,
		ContentHistory: []string{},
		Chapters:       initialChapters(outline.LayoutSuggestion, panels),
		StoryMemory:    memory,
	}

	if err := b.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("create project: persist: %w", err)
	}
	log.Info("project created", "id", doc.ID, "panels", len(panels), "failed_panels", len(failed))
	return &Result{DocumentID: doc.ID, Document: doc, FailedPanels: failed}, nil
}

// generatePanels runs element generation for every outline panel
// concurrently and assembles the results in ascending panel order.
func (b *Builder) generatePanels(ctx context.Context, outline *ai.PageOutline, style domain.ArtStyle, memory *domain.StoryMemory) ([]domain.Panel, []int) {
	type slot struct {
		elements *ai.PanelElements
		err      error
	}
	slots := make([]slot, len(outline.PanelDescriptions))

	var wg sync.WaitGroup
	for i, pd := range outline.PanelDescriptions {
		wg.Add(1)
		go func(i int, pd ai.PanelDescription) {
			defer wg.Done()
			elems, err := b.gen.GeneratePanelElements(ctx, ai.PanelElementsInput{
				Description:       pd.Description,
				CharactersInPanel: characterRefs(pd.CharactersInPanel, memory),
				Memory:            memory,
				PanelOrder:        pd.PanelOrder,
			})
			slots[i] = slot{elements: elems, err: err}
		}(i, pd)
	}
	wg.Wait()

	settings := domain.DefaultSceneSettings()
	panels := make([]domain.Panel, 0, len(outline.PanelDescriptions))
	var failed []int
	for i, pd := range outline.PanelDescriptions {
		s := settings
		panel := domain.Panel{
			PanelOrder:  pd.PanelOrder,
			Description: pd.Description,
			StyleKey:    style,
			Settings:    &s,
		}
		if slots[i].err != nil {
			b.log.Warn("panel elements failed", "panel", pd.PanelOrder, "error", slots[i].err)
			failed = append(failed, pd.PanelOrder)
		} else {
			panel.Caption = slots[i].elements.Caption
			panel.Dialogue = slots[i].elements.Dialogue
		}
		panels = append(panels, panel)
	}
	sort.Slice(panels, func(i, j int) bool { return panels[i].PanelOrder < panels[j].PanelOrder })
	sort.Ints(failed)
	return panels, failed
}

func characterRefs(names []string, memory *domain.StoryMemory) []ai.CharacterRef {
	refs := make([]ai.CharacterRef, 0, len(names))
	for _, name := range names {
		ref := ai.CharacterRef{Name: name}
		if c := memory.CharacterByName(name); c != nil {
			ref.Description = c.Description
		}
		refs = append(refs, ref)
	}
	return refs
}

// seedMemory turns the outline's character roster and setting notes into
// the project's initial story memory.
func seedMemory(outline *ai.PageOutline) domain.StoryMemory {
	mem := domain.DefaultStoryMemory()
	for _, oc := range outline.InitialCharacters {
		c := domain.NewCharacter(oc.Name)
		c.Role = oc.Role
		c.Description = oc.Description
		c.Traits = append([]string(nil), oc.Traits...)
		mem.Characters = append(mem.Characters, c)
	}
	mem.Theme = outline.PageTheme
	mem.World.Lore = outline.EnvironmentSynopsis
	if outline.CentralConflictHint != "" {
		mem.World.MajorEvents = append(mem.World.MajorEvents, domain.NewEvent(outline.CentralConflictHint))
	}
	return mem
}

// initialChapters builds chapter 1: the generated first page plus empty
// placeholder pages so the project opens with room to grow.
func initialChapters(layout domain.PanelLayout, panels []domain.Panel) []domain.Chapter {
	pages := []domain.Page{{
		PageNumber: 1,
		Layout:     layout,
		Panels:     panels,
	}}
	for n := 2; n <= domain.InitialPagesInNewChapter; n++ {
		pages = append(pages, domain.Page{
			PageNumber: n,
			Layout:     domain.DefaultLayout,
			Panels:     []domain.Panel{},
		})
	}
	return []domain.Chapter{{ChapterNumber: 1, Title: "Chapter 1", Pages: pages}}
}

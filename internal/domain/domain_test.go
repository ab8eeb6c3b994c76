/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"
	"testing"
)

func sampleDocument() *Document {
	return &Document{
		ID:             "m1",
		Title:          "Test Manga",
		ArtStyle:       StyleAnime,
		VisualStyleKey: StyleAnime,
		CreatedAt:      1000,
		UpdatedAt:      1000,
		Chapters: []Chapter{{
			ChapterNumber: 1,
			Pages: []Page{{
				PageNumber: 1,
				Layout:     LayoutGrid2x2,
				Panels: []Panel{
					{PanelOrder: 0, Description: "opening shot", StyleKey: StyleAnime},
					{PanelOrder: 1, Description: "hero appears", StyleKey: StyleAnime,
						Dialogue: []SpeechBubble{{CharacterName: "Mano", Style: BubbleShout, Text: "Here!"}}},
				},
			}},
		}},
		StoryMemory: DefaultStoryMemory(),
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	cp := doc.Clone()
	cp.Chapters[0].Pages[0].Panels[0].Description = "changed"
	cp.Chapters[0].Pages[0].Panels[1].Dialogue[0].Text = "changed"
	cp.StoryMemory.Characters = append(cp.StoryMemory.Characters, NewCharacter("Extra"))
	if doc.Chapters[0].Pages[0].Panels[0].Description != "opening shot" {
		t.Fatalf("clone aliased panel description")
	}
	if doc.Chapters[0].Pages[0].Panels[1].Dialogue[0].Text != "Here!" {
		t.Fatalf("clone aliased dialogue")
	}
	if len(doc.StoryMemory.Characters) != 0 {
		t.Fatalf("clone aliased story memory characters")
	}
}

func TestUpsertPanelReplaceAndAppend(t *testing.T) {
	doc := sampleDocument()
	pg := doc.Chapters[0].FindPage(1)

	pg.UpsertPanel(Panel{PanelOrder: 1, Description: "rewritten"})
	if got := pg.FindPanel(1).Description; got != "rewritten" {
		t.Fatalf("expected in-place replace, got %q", got)
	}
	if len(pg.Panels) != 2 {
		t.Fatalf("replace must not grow panel list: %d", len(pg.Panels))
	}

	pg.UpsertPanel(Panel{PanelOrder: 5, Description: "late arrival"})
	if len(pg.Panels) != 3 {
		t.Fatalf("expected append on missing slot, got %d panels", len(pg.Panels))
	}
	if pg.FindPanel(5) == nil {
		t.Fatalf("appended panel not findable")
	}
}

func TestNextChapterNumber(t *testing.T) {
	doc := sampleDocument()
	if n := doc.NextChapterNumber(); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	doc.Chapters = append(doc.Chapters, Chapter{ChapterNumber: 7})
	if n := doc.NextChapterNumber(); n != 8 {
		t.Fatalf("expected max+1=8, got %d", n)
	}
	empty := &Document{}
	if n := empty.NextChapterNumber(); n != 1 {
		t.Fatalf("expected 1 for empty document, got %d", n)
	}
}

func TestTouchMonotonic(t *testing.T) {
	doc := sampleDocument()
	doc.UpdatedAt = 1 << 62 // far future
	before := doc.UpdatedAt
	doc.Touch()
	if doc.UpdatedAt <= before-1 {
		t.Fatalf("UpdatedAt went backwards: %d -> %d", before, doc.UpdatedAt)
	}
	if doc.UpdatedAt < before {
		t.Fatalf("UpdatedAt must be non-decreasing")
	}
}

func TestRepairFillsDefaults(t *testing.T) {
	doc := &Document{ID: "old", ArtStyle: StyleNoir}
	doc.Repair()
	if doc.StoryMemory.Characters == nil || doc.StoryMemory.World.Places == nil {
		t.Fatalf("story memory not repaired: %+v", doc.StoryMemory)
	}
	if len(doc.Chapters) != 1 || doc.Chapters[0].ChapterNumber != 1 {
		t.Fatalf("chapters not repaired: %+v", doc.Chapters)
	}
	if doc.Chapters[0].Pages[0].Layout != DefaultLayout {
		t.Fatalf("default page layout missing")
	}
	if doc.VisualStyleKey != StyleNoir {
		t.Fatalf("visual style should default to project art style")
	}
}

func TestValidateRelationships(t *testing.T) {
	m := DefaultStoryMemory()
	a := NewCharacter("A")
	b := NewCharacter("B")
	a.Relationships = []Relationship{{RelatedCharacterID: b.ID, Description: "rival"}}
	m.Characters = []CharacterMemory{a, b}
	if err := m.ValidateRelationships(); err != nil {
		t.Fatalf("valid relationships rejected: %v", err)
	}
	m.Characters[0].Relationships[0].RelatedCharacterID = "missing"
	if err := m.ValidateRelationships(); err == nil {
		t.Fatalf("dangling relationship not detected")
	}
}

func TestRemoveCharacterStripsRelationships(t *testing.T) {
	m := DefaultStoryMemory()
	a := NewCharacter("A")
	b := NewCharacter("B")
	a.Relationships = []Relationship{{RelatedCharacterID: b.ID, Description: "ally"}}
	m.Characters = []CharacterMemory{a, b}
	if !m.RemoveCharacter(b.ID) {
		t.Fatalf("remove failed")
	}
	if err := m.ValidateRelationships(); err != nil {
		t.Fatalf("relationships left dangling after removal: %v", err)
	}
	if m.RemoveCharacter("missing") {
		t.Fatalf("removing unknown id should report false")
	}
}

func TestPanelCount(t *testing.T) {
	cases := map[PanelLayout]int{
		LayoutGrid2x3:         6,
		LayoutGrid1x3Vertical: 3,
		LayoutGrid2x2:         4,
		LayoutSplashFullPage:  1,
		LayoutCustom:          0,
	}
	for l, want := range cases {
		if got := l.PanelCount(); got != want {
			t.Fatalf("%s: expected %d panels, got %d", l, want, got)
		}
	}
}

func TestSplitScenes(t *testing.T) {
	long := strings.Repeat("a scene with enough text. ", 3)
	content := long + "\n\n" + "short" + "\n\n" + long
	scenes := SplitScenes(content)
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes (short fragment dropped), got %d", len(scenes))
	}
	if SplitScenes("   \n ") != nil {
		t.Fatalf("blank content should yield no scenes")
	}
	many := strings.Repeat(long+"\n\n", 20)
	if got := len(SplitScenes(many)); got != 10 {
		t.Fatalf("expected cap at 10 scenes, got %d", got)
	}
}

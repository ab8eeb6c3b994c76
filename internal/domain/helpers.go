/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// Clone returns a deep copy of the document. Mutations of the copy never
// alias the original; the state core relies on this for copy-then-swap
// updates.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.ContentHistory = append([]string(nil), d.ContentHistory...)
	out.Chapters = make([]Chapter, len(d.Chapters))
	for i, ch := range d.Chapters {
		out.Chapters[i] = ch.clone()
	}
	out.StoryMemory = d.StoryMemory.clone()
	return &out
}

func (c Chapter) clone() Chapter {
	out := c
	out.Pages = make([]Page, len(c.Pages))
	for i, p := range c.Pages {
		out.Pages[i] = p.clone()
	}
	return out
}

func (p Page) clone() Page {
	out := p
	out.Panels = make([]Panel, len(p.Panels))
	for i, pn := range p.Panels {
		out.Panels[i] = pn.clone()
	}
	return out
}

func (p Panel) clone() Panel {
	out := p
	out.Dialogue = append([]SpeechBubble(nil), p.Dialogue...)
	out.Image = append([]byte(nil), p.Image...)
	if p.Settings != nil {
		s := *p.Settings
		out.Settings = &s
	}
	return out
}

func (m StoryMemory) clone() StoryMemory {
	out := m
	out.Characters = make([]CharacterMemory, len(m.Characters))
	for i, c := range m.Characters {
		cc := c
		cc.Traits = append([]string(nil), c.Traits...)
		cc.History = append([]string(nil), c.History...)
		cc.Relationships = append([]Relationship(nil), c.Relationships...)
		out.Characters[i] = cc
	}
	out.World.Places = append([]WorldPlace(nil), m.World.Places...)
	out.World.MajorEvents = append([]WorldEvent(nil), m.World.MajorEvents...)
	return out
}

// Touch stamps a fresh last-modified time, keeping it monotonically
// non-decreasing even when the wall clock steps backwards.
func (d *Document) Touch() {
	now := time.Now().UnixMilli()
	if now <= d.UpdatedAt {
		now = d.UpdatedAt + 1
	}
	d.UpdatedAt = now
}

// FindChapter returns the chapter with the given number, or nil.
func (d *Document) FindChapter(chapterNumber int) *Chapter {
	for i := range d.Chapters {
		if d.Chapters[i].ChapterNumber == chapterNumber {
			return &d.Chapters[i]
		}
	}
	return nil
}

// FindPage returns the page with the given number within the chapter, or nil.
func (c *Chapter) FindPage(pageNumber int) *Page {
	for i := range c.Pages {
		if c.Pages[i].PageNumber == pageNumber {
			return &c.Pages[i]
		}
	}
	return nil
}

// FindPanel returns the panel with the given order on the page, or nil.
func (p *Page) FindPanel(panelOrder int) *Panel {
	for i := range p.Panels {
		if p.Panels[i].PanelOrder == panelOrder {
			return &p.Panels[i]
		}
	}
	return nil
}

// UpsertPanel replaces the panel with a matching panelOrder in place, or
// appends it when no such slot exists yet. Pipeline-created panels may lag
// behind the page descriptor, so a missing slot is never an error.
func (p *Page) UpsertPanel(panel Panel) {
	for i := range p.Panels {
		if p.Panels[i].PanelOrder == panel.PanelOrder {
			p.Panels[i] = panel
			return
		}
	}
	p.Panels = append(p.Panels, panel)
}

// NextChapterNumber is one greater than the current maximum chapter number,
// or 1 when no chapters exist.
func (d *Document) NextChapterNumber() int {
	max := 0
	for _, c := range d.Chapters {
		if c.ChapterNumber > max {
			max = c.ChapterNumber
		}
	}
	return max + 1
}

// Repair fills in empty-but-valid defaults for documents persisted before
// StoryMemory or Chapters existed, so old or partially-written documents
// still load.
func (d *Document) Repair() {
	if d.StoryMemory.Characters == nil {
		d.StoryMemory.Characters = []CharacterMemory{}
	}
	if d.StoryMemory.World.Places == nil {
		d.StoryMemory.World.Places = []WorldPlace{}
	}
	if d.StoryMemory.World.MajorEvents == nil {
		d.StoryMemory.World.MajorEvents = []WorldEvent{}
	}
	if len(d.Chapters) == 0 {
		d.Chapters = DefaultChapters()
	}
	if d.ContentHistory == nil {
		d.ContentHistory = []string{}
	}
	if d.VisualStyleKey == "" {
		d.VisualStyleKey = d.ArtStyle
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"fmt"
	"sort"
	"strings"

	"mangastudio/internal/domain"
)

// Wire shapes for structured model responses. Kept separate from the
// exported output types so response normalization stays in one place.

type outlineCharacterWire struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
}

type panelDescriptionWire struct {
	PanelOrder        int      `json:"panelOrder"`
	Description       string   `json:"description"`
	CharactersInPanel []string `json:"charactersInPanel"`
}

type outlineWire struct {
	InitialCharacters    []outlineCharacterWire `json:"initialCharacters"`
	EnvironmentSynopsis  string                 `json:"environmentSynopsis"`
	CentralConflictHint  string                 `json:"centralConflictHint"`
	PanelDescriptions    []panelDescriptionWire `json:"panelDescriptions"`
	PageTheme            string                 `json:"pageTheme"`
	PageLayoutSuggestion string                 `json:"pageLayoutSuggestion"`
}

// normalizeOutline coerces a raw outline response into a usable
// PageOutline: at most target panels, contiguous orders from zero, and a
// layout from the known set. Zero panel descriptions are legal and yield
// an outline with an empty panel list.
func normalizeOutline(w *outlineWire, target int) *PageOutline {
	if target <= 0 {
		target = domain.DefaultLayout.PanelCount()
	}
	panels := make([]panelDescriptionWire, len(w.PanelDescriptions))
	copy(panels, w.PanelDescriptions)
	sort.SliceStable(panels, func(i, j int) bool { return panels[i].PanelOrder < panels[j].PanelOrder })
	if len(panels) > target {
		panels = panels[:target]
	}

	out := &PageOutline{
		EnvironmentSynopsis: strings.TrimSpace(w.EnvironmentSynopsis),
		CentralConflictHint: strings.TrimSpace(w.CentralConflictHint),
		PageTheme:           strings.TrimSpace(w.PageTheme),
		LayoutSuggestion:    domain.PanelLayout(w.PageLayoutSuggestion),
	}
	if !out.LayoutSuggestion.Valid() {
		out.LayoutSuggestion = domain.DefaultLayout
	}
	for _, c := range w.InitialCharacters {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		out.InitialCharacters = append(out.InitialCharacters, OutlineCharacter{
			Name:        strings.TrimSpace(c.Name),
			Role:        c.Role,
			Description: c.Description,
			Traits:      c.Traits,
		})
	}
	// Reassign orders to a contiguous 0..n-1 run regardless of what the
	// model sent. Callers index pages by these values.
	for i, p := range panels {
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			desc = fmt.Sprintf("Panel %d.", i+1)
		}
		out.PanelDescriptions = append(out.PanelDescriptions, PanelDescription{
			PanelOrder:        i,
			Description:       desc,
			CharactersInPanel: p.CharactersInPanel,
		})
	}
	return out
}

type dialogueWire struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	Style     string `json:"style"`
}

type panelElementsWire struct {
	Caption  string         `json:"caption"`
	Dialogue []dialogueWire `json:"dialogue"`
}

var knownBubbleStyles = map[domain.BubbleStyle]bool{
	domain.BubbleNormal:    true,
	domain.BubbleShout:     true,
	domain.BubbleThought:   true,
	domain.BubbleWhisper:   true,
	domain.BubbleNarration: true,
}

// normalizePanelElements maps a raw elements response onto the panel it
// was generated for. Unknown bubble styles fall back to normal.
func normalizePanelElements(w *panelElementsWire, panelOrder int) *PanelElements {
	out := &PanelElements{
		PanelOrder: panelOrder,
		Caption:    strings.TrimSpace(w.Caption),
	}
	for _, d := range w.Dialogue {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		style := domain.BubbleStyle(strings.ToLower(strings.TrimSpace(d.Style)))
		if !knownBubbleStyles[style] {
			style = domain.BubbleNormal
		}
		out.Dialogue = append(out.Dialogue, domain.SpeechBubble{
			CharacterName: d.Character,
			Text:          d.Text,
			Style:         style,
		})
	}
	return out
}

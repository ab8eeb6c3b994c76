/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"context"
	"errors"
	"fmt"

	"mangastudio/internal/domain"
)

// errOffline guards against a task method reaching the transport while
// running offline. Task methods answer from canned data first, so hitting
// this is a wiring bug.
var errOffline = errors.New("generative backend not configured")

// offlineClient is the zero-credential fallback. It performs no I/O; the
// dispatcher answers every task from deterministic canned data instead of
// calling through.
type offlineClient struct{}

func (offlineClient) Offline() bool { return true }

func (offlineClient) GenerateText(context.Context, string) (string, error) {
	return "", errOffline
}

func (offlineClient) GenerateJSON(context.Context, string, any) error {
	return errOffline
}

func (offlineClient) GenerateImage(context.Context, string) ([]byte, error) {
	return nil, errOffline
}

func (offlineClient) EditImage(context.Context, []byte, string, string) ([]byte, string, error) {
	return nil, "", errOffline
}

// stubPNG is a valid 1x1 transparent PNG used as the offline image result.
var stubPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func stubStoryStub(in StoryStubInput) string {
	return fmt.Sprintf("%s is a %s story set in a %s world. Season %s, episode %d opens with an unexpected arrival that upends a quiet routine.",
		in.Title, in.ArtStyle, in.Environment, in.Season, in.Episode)
}

func stubContinuation(in ContinueStoryInput) string {
	return "The silence broke. Somewhere beyond the rooftops a signal flared, and everyone who saw it understood that the waiting was over."
}

func stubOutline(in PageOutlineInput) *PageOutline {
	n := in.TargetPanelCount
	if n <= 0 {
		n = domain.DefaultLayout.PanelCount()
	}
	out := &PageOutline{
		InitialCharacters: []OutlineCharacter{
			{Name: "Aya", Role: "protagonist", Description: "A determined newcomer with something to prove.", Traits: []string{"stubborn", "loyal"}},
			{Name: "Ren", Role: "rival", Description: "A guarded veteran who distrusts outsiders.", Traits: []string{"sharp", "proud"}},
		},
		EnvironmentSynopsis: fmt.Sprintf("A %s setting rendered in %s style.", in.Environment, in.ArtStyle),
		CentralConflictHint: "Two ambitions collide over the same prize.",
		PageTheme:           "Arrival",
		LayoutSuggestion:    domain.DefaultLayout,
	}
	for i := 0; i < n; i++ {
		chars := []string{"Aya"}
		if i%2 == 1 {
			chars = append(chars, "Ren")
		}
		out.PanelDescriptions = append(out.PanelDescriptions, PanelDescription{
			PanelOrder:        i,
			Description:       fmt.Sprintf("Panel %d: the opening scene develops around %s.", i+1, in.StoryIdea),
			CharactersInPanel: chars,
		})
	}
	return out
}

func stubPanelElements(in PanelElementsInput) *PanelElements {
	out := &PanelElements{
		PanelOrder: in.PanelOrder,
		Caption:    fmt.Sprintf("Panel %d.", in.PanelOrder+1),
	}
	for _, c := range in.CharactersInPanel {
		out.Dialogue = append(out.Dialogue, domain.SpeechBubble{
			CharacterName: c.Name,
			Text:          "...",
			Style:         domain.BubbleNormal,
		})
	}
	return out
}

func stubPlotPoint(in PlotPointInput) *PlotSuggestion {
	return &PlotSuggestion{
		Suggestion: "An ally from the protagonist's past resurfaces carrying information that reframes the central conflict.",
		Reasoning:  "Reintroducing a known figure raises stakes without new exposition.",
	}
}

func stubFeedback(in FeedbackInput) *StoryFeedback {
	return &StoryFeedback{
		OverallAssessment:   "The draft has a clear premise and a readable through-line.",
		PositivePoints:      []string{"Distinct character voices", "Consistent setting"},
		AreasForImprovement: []string{"Clarify the antagonist's motivation", "Vary pacing between chapters"},
	}
}

func stubMemorySuggestions(in AnalyzeMemoryInput) *MemorySuggestions {
	return &MemorySuggestions{
		Characters:      []SuggestedCharacter{{Name: "The Courier", Role: "supporting", Description: "Mentioned in passing but never tracked."}},
		Places:          []SuggestedPlace{{Name: "The Old Terminal", Description: "Recurs as a meeting point."}},
		Events:          []SuggestedEvent{{Description: "The first confrontation at the terminal."}},
		AnalysisSummary: "One character, one place and one event appear in the text but not in memory.",
	}
}

func stubCharacterArc(in CharacterArcInput) *CharacterArc {
	return &CharacterArc{
		ArcSuggestions: []string{
			fmt.Sprintf("%s confronts the flaw that caused an early failure.", in.Character.Name),
			fmt.Sprintf("%s inherits a responsibility they once rejected.", in.Character.Name),
		},
		RelationshipSuggestions: []string{"A rivalry softens into reluctant trust."},
	}
}

func stubGraphConnections(in GraphConnectionsInput) []GraphConnection {
	if in.Memory == nil || len(in.Memory.Characters) < 2 {
		return []GraphConnection{}
	}
	a, b := in.Memory.Characters[0], in.Memory.Characters[1]
	return []GraphConnection{{
		FromID:    a.ID,
		FromType:  "character",
		ToID:      b.ID,
		ToType:    "character",
		Label:     "uneasy allies",
		Reasoning: "Both appear in the same scenes and pursue the same goal.",
	}}
}

func stubWorldFoundation(in BrainstormWorldInput) *WorldFoundation {
	return &WorldFoundation{
		AnalysisSummary:     fmt.Sprintf("A foundation sketch for %q.", in.Title),
		SuggestedCharacters: []SuggestedCharacter{{Name: "Aya", Role: "protagonist", Description: "A determined newcomer."}},
		SuggestedPlaces:     []SuggestedPlace{{Name: "The Lower District", Description: "Where the story begins."}},
		SuggestedThemes:     []string{"belonging", "ambition"},
	}
}

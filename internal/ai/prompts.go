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
	"strings"

	"mangastudio/internal/domain"
)

// formatStoryMemory renders story memory as prompt context. Empty memory
// renders to the empty string so prompts stay short for new projects.
func formatStoryMemory(m *domain.StoryMemory) string {
	if m == nil {
		return ""
	}
	var sb strings.Builder
	if len(m.Characters) > 0 {
		sb.WriteString("Known characters:\n")
		for _, c := range m.Characters {
			fmt.Fprintf(&sb, "- %s (%s): %s", c.Name, c.Role, c.Description)
			if len(c.Traits) > 0 {
				fmt.Fprintf(&sb, " Traits: %s.", strings.Join(c.Traits, ", "))
			}
			sb.WriteString("\n")
			for _, r := range c.Relationships {
				if other := m.CharacterByID(r.RelatedCharacterID); other != nil {
					fmt.Fprintf(&sb, "  relationship with %s: %s\n", other.Name, r.Description)
				}
			}
		}
	}
	if len(m.World.Places) > 0 {
		sb.WriteString("Known places:\n")
		for _, p := range m.World.Places {
			fmt.Fprintf(&sb, "- %s: %s\n", p.Name, p.Description)
		}
	}
	if len(m.World.MajorEvents) > 0 {
		sb.WriteString("Key events so far:\n")
		for _, e := range m.World.MajorEvents {
			fmt.Fprintf(&sb, "- %s\n", e.Description)
		}
	}
	if m.World.Lore != "" {
		fmt.Fprintf(&sb, "Lore: %s\n", m.World.Lore)
	}
	if m.Theme != "" {
		fmt.Fprintf(&sb, "Theme: %s\n", m.Theme)
	}
	if m.OverallStyleNotes != "" {
		fmt.Fprintf(&sb, "Style notes: %s\n", m.OverallStyleNotes)
	}
	return sb.String()
}

func formatCharacterRefs(refs []CharacterRef) string {
	if len(refs) == 0 {
		return "No named characters appear in this panel."
	}
	var sb strings.Builder
	sb.WriteString("Characters in this panel:\n")
	for _, r := range refs {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Name, r.Description)
	}
	return sb.String()
}

func storyStubPrompt(in StoryStubInput) string {
	return fmt.Sprintf(
		"Write a two-sentence story summary for a manga project.\nTitle: %s\nArt style: %s\nSetting: %s\nSeason: %s, episode %d.\nReturn only the summary text.",
		in.Title, in.ArtStyle, in.Environment, in.Season, in.Episode)
}

func continuationPrompt(in ContinueStoryInput) string {
	// Long narratives are cut down to their most recent scenes so the
	// prompt stays within a sane context size.
	context := in.Content
	if scenes := domain.SplitScenes(in.Content); len(scenes) > 3 {
		context = strings.Join(scenes[len(scenes)-3:], "\n\n")
	}
	return fmt.Sprintf(
		"Continue this manga story with one compelling paragraph. Keep the established tone and do not contradict the context.\n\n%s\nMost recent scenes:\n%s\n\nReturn only the new paragraph.",
		formatStoryMemory(in.Memory), context)
}

func panelImagePrompt(in PanelImageInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A manga panel in %s style. %s", in.StyleKey, in.Description)
	if in.Settings != nil {
		fmt.Fprintf(&sb, " Camera: %s angle.", in.Settings.CameraAngle)
		fmt.Fprintf(&sb, " Detail level %d of 5.", in.Settings.DetailLevel)
		if in.Settings.ColorTone != "" && in.Settings.ColorTone != domain.ToneDefault {
			fmt.Fprintf(&sb, " Color tone: %s.", in.Settings.ColorTone)
		}
	}
	for _, c := range in.CharactersInPanel {
		if c.Description != "" {
			fmt.Fprintf(&sb, " %s looks like: %s.", c.Name, c.Description)
		}
	}
	return sb.String()
}

func plotPointPrompt(in PlotPointInput) string {
	return fmt.Sprintf(
		"Suggest the single most interesting next plot point for this manga.\nTitle: %s\nSummary: %s\n%s\nStory so far:\n%s\n\nRespond as JSON: {\"suggestion\": string, \"reasoning\": string}.",
		in.Title, in.Summary, formatStoryMemory(in.Memory), in.Content)
}

func feedbackPrompt(in FeedbackInput) string {
	return fmt.Sprintf(
		"You are an experienced manga editor. Review this story.\nTitle: %s\nSummary: %s\n%s\nStory:\n%s\n\nRespond as JSON: {\"overallAssessment\": string, \"positivePoints\": [string], \"areasForImprovement\": [string]}.",
		in.Title, in.Summary, formatStoryMemory(in.Memory), in.Content)
}

func analyzeMemoryPrompt(in AnalyzeMemoryInput) string {
	return fmt.Sprintf(
		"Compare this story text against the tracked story memory and list characters, places and events that appear in the text but are missing from memory. Do not repeat entries already in memory.\n%s\nStory:\n%s\n\nRespond as JSON: {\"suggestedCharacters\": [{\"name\": string, \"role\": string, \"description\": string, \"traits\": [string]}], \"suggestedPlaces\": [{\"name\": string, \"description\": string}], \"suggestedEvents\": [{\"description\": string}], \"analysisSummary\": string}.",
		formatStoryMemory(in.Memory), in.Content)
}

func characterArcPrompt(in CharacterArcInput) string {
	var others strings.Builder
	for _, c := range in.AllCharacters {
		if c.ID != in.Character.ID {
			fmt.Fprintf(&others, "- %s (%s)\n", c.Name, c.Role)
		}
	}
	return fmt.Sprintf(
		"Suggest character development for %s (%s): %s\nTraits: %s.\nOther characters:\n%s\nStory context:\n%s\nTheme: %s\n\nRespond as JSON: {\"arcSuggestions\": [string], \"relationshipSuggestions\": [string]}.",
		in.Character.Name, in.Character.Role, in.Character.Description,
		strings.Join(in.Character.Traits, ", "), others.String(), in.StoryContext, in.Theme)
}

func pageOutlinePrompt(in PageOutlineInput) string {
	n := in.TargetPanelCount
	if n <= 0 {
		n = domain.DefaultLayout.PanelCount()
	}
	return fmt.Sprintf(
		"Create the outline for the first page of a new manga.\nStory idea: %s\nArt style: %s\nSetting: %s\n%s\nThe page has exactly %d panels, ordered 0 to %d.\n\nRespond as JSON: {\"initialCharacters\": [{\"name\": string, \"role\": string, \"description\": string, \"traits\": [string]}], \"environmentSynopsis\": string, \"centralConflictHint\": string, \"panelDescriptions\": [{\"panelOrder\": number, \"description\": string, \"charactersInPanel\": [string]}], \"pageTheme\": string, \"pageLayoutSuggestion\": string}.",
		in.StoryIdea, in.ArtStyle, in.Environment, formatStoryMemory(in.Memory), n, n-1)
}

func panelElementsPrompt(in PanelElementsInput) string {
	return fmt.Sprintf(
		"Write the caption and dialogue for one manga panel.\nPanel description: %s\n%s%s\nSpeech bubble styles: normal, shout, thought, whisper, narration.\n\nRespond as JSON: {\"caption\": string, \"dialogue\": [{\"character\": string, \"text\": string, \"style\": string}]}.",
		in.Description, formatCharacterRefs(in.CharactersInPanel), formatStoryMemory(in.Memory))
}

func graphConnectionsPrompt(in GraphConnectionsInput) string {
	var entities strings.Builder
	if in.Memory != nil {
		for _, c := range in.Memory.Characters {
			fmt.Fprintf(&entities, "- character %s: %s\n", c.ID, c.Name)
		}
		for _, p := range in.Memory.World.Places {
			fmt.Fprintf(&entities, "- place %s: %s\n", p.ID, p.Name)
		}
	}
	return fmt.Sprintf(
		"Given these story entities and the narrative, suggest relationships that are implied by the text but not yet tracked. Refer to entities strictly by the ids listed.\nEntities:\n%s\nStory:\n%s\n\nRespond as JSON: [{\"fromId\": string, \"fromType\": string, \"toId\": string, \"toType\": string, \"label\": string, \"reasoning\": string}].",
		entities.String(), in.Content)
}

func brainstormWorldPrompt(in BrainstormWorldInput) string {
	return fmt.Sprintf(
		"Brainstorm the world foundation for a new manga.\nTitle: %s\nStory idea: %s\n\nRespond as JSON: {\"analysisSummary\": string, \"suggestedCharacters\": [{\"name\": string, \"role\": string, \"description\": string, \"traits\": [string]}], \"suggestedPlaces\": [{\"name\": string, \"description\": string}], \"suggestedThemes\": [string]}.",
		in.Title, in.StoryIdea)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import "mangastudio/internal/domain"

// Task identifies one generation task. The set is closed: adding a task
// means adding a constant here, a case to Service.Invoke, and an entry in
// KnownTasks, so the compiler and tests force complete wiring.
type Task string

const (
	TaskGenerateStoryStub       Task = "generate_story_stub"
	TaskContinueStory           Task = "generate_story_continuation"
	TaskGeneratePanelImage      Task = "generate_panel_image"
	TaskEditPanelImage          Task = "edit_panel_image"
	TaskSuggestPlotPoint        Task = "suggest_plot_point"
	TaskStoryFeedback           Task = "get_story_feedback"
	TaskAnalyzeMemory           Task = "analyze_and_suggest_memory_updates"
	TaskSuggestCharacterArc     Task = "suggest_character_arc"
	TaskGeneratePageOutline     Task = "generate_manga_page_outline"
	TaskGeneratePanelElements   Task = "generate_panel_elements"
	TaskSuggestGraphConnections Task = "suggest_story_graph_connections"
	TaskBrainstormWorld         Task = "generate_world_memory_foundation"
)

// KnownTasks lists every registered task id.
var KnownTasks = []Task{
	TaskGenerateStoryStub,
	TaskContinueStory,
	TaskGeneratePanelImage,
	TaskEditPanelImage,
	TaskSuggestPlotPoint,
	TaskStoryFeedback,
	TaskAnalyzeMemory,
	TaskSuggestCharacterArc,
	TaskGeneratePageOutline,
	TaskGeneratePanelElements,
	TaskSuggestGraphConnections,
	TaskBrainstormWorld,
}

// CharacterRef names a character present in a panel, with an optional
// description for prompt context.
type CharacterRef struct {
	Name        string
	Description string
}

// StoryStubInput seeds generation of an initial project summary.
type StoryStubInput struct {
	Title       string
	ArtStyle    domain.ArtStyle
	Environment domain.Environment
	Season      string
	Episode     int
}

// ContinueStoryInput asks for the next stretch of narrative text.
type ContinueStoryInput struct {
	Content string
	Memory  *domain.StoryMemory
}

// PanelImageInput describes one panel image to generate.
type PanelImageInput struct {
	Description       string
	StyleKey          domain.ArtStyle
	Settings          *domain.SceneSettings
	Memory            *domain.StoryMemory
	CharactersInPanel []CharacterRef
}

// PanelImage is the generated raster plus the prompt actually used.
type PanelImage struct {
	Image  []byte
	Prompt string
}

// EditImageInput applies an instruction to an existing panel image.
type EditImageInput struct {
	Image    []byte
	MimeType string
	Prompt   string
}

// EditedImage is the reworked raster plus any accompanying model text.
type EditedImage struct {
	Image []byte
	Text  string
}

// PlotPointInput asks for a suggested next story event.
type PlotPointInput struct {
	Content string
	Title   string
	Summary string
	Memory  *domain.StoryMemory
}

// PlotSuggestion is a proposed event with the model's reasoning.
type PlotSuggestion struct {
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// FeedbackInput asks for an editorial review of the story so far.
type FeedbackInput struct {
	Title   string
	Summary string
	Content string
	Memory  *domain.StoryMemory
}

// StoryFeedback is an editorial assessment of the narrative.
type StoryFeedback struct {
	OverallAssessment   string   `json:"overallAssessment"`
	PositivePoints      []string `json:"positivePoints"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

// AnalyzeMemoryInput asks the model to mine the narrative for entities
// missing from story memory.
type AnalyzeMemoryInput struct {
	Content string
	Memory  *domain.StoryMemory
}

// SuggestedCharacter is a character candidate without an allocated id.
type SuggestedCharacter struct {
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Description string   `json:"description,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// SuggestedPlace is a place candidate without an allocated id.
type SuggestedPlace struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SuggestedEvent is an event candidate without an allocated id.
type SuggestedEvent struct {
	Description string `json:"description"`
}

// MemorySuggestions bundles entity candidates mined from the narrative.
type MemorySuggestions struct {
	Characters      []SuggestedCharacter `json:"suggestedCharacters"`
	Places          []SuggestedPlace     `json:"suggestedPlaces"`
	Events          []SuggestedEvent     `json:"suggestedEvents"`
	AnalysisSummary string               `json:"analysisSummary,omitempty"`
}

// CharacterArcInput asks for development ideas for one character.
type CharacterArcInput struct {
	Character     domain.CharacterMemory
	StoryContext  string
	AllCharacters []domain.CharacterMemory
	Theme         string
}

// CharacterArc holds arc and relationship development notes.
type CharacterArc struct {
	ArcSuggestions          []string `json:"arcSuggestions"`
	RelationshipSuggestions []string `json:"relationshipSuggestions"`
}

// PageOutlineInput seeds the first-page outline generation.
type PageOutlineInput struct {
	StoryIdea        string
	ArtStyle         domain.ArtStyle
	Environment      domain.Environment
	TargetPanelCount int
	Memory           *domain.StoryMemory
}

// OutlineCharacter is a character the outline introduces.
type OutlineCharacter struct {
	Name        string
	Role        string
	Description string
	Traits      []string
}

// PanelDescription is one panel slot of an outline, ordered 0-indexed.
type PanelDescription struct {
	PanelOrder        int
	Description       string
	CharactersInPanel []string
}

// PageOutline is the skeleton of a manga page: who appears, where it is
// set, what is at stake, and what each panel shows.
type PageOutline struct {
	InitialCharacters   []OutlineCharacter
	EnvironmentSynopsis string
	CentralConflictHint string
	PanelDescriptions   []PanelDescription
	PageTheme           string
	LayoutSuggestion    domain.PanelLayout
}

// PanelElementsInput asks for a caption and dialogue for one panel.
type PanelElementsInput struct {
	Description       string
	CharactersInPanel []CharacterRef
	Memory            *domain.StoryMemory
	PanelOrder        int
}

// PanelElements is the generated caption and dialogue for one panel.
type PanelElements struct {
	PanelOrder int                   `json:"panelOrder"`
	Caption    string                `json:"caption"`
	Dialogue   []domain.SpeechBubble `json:"dialogue"`
}

// GraphConnectionsInput asks for implicit relationships between memory
// entities based on the narrative.
type GraphConnectionsInput struct {
	Content string
	Memory  *domain.StoryMemory
}

// GraphConnection proposes a labeled edge between two memory entities.
type GraphConnection struct {
	FromID    string `json:"fromId"`
	FromType  string `json:"fromType"` // "character" or "place"
	ToID      string `json:"toId"`
	ToType    string `json:"toType"`
	Label     string `json:"label"`
	Reasoning string `json:"reasoning"`
}

// BrainstormWorldInput seeds AI-assisted world building from a raw idea.
type BrainstormWorldInput struct {
	Title     string
	StoryIdea string
}

// WorldFoundation is the brainstormed starting point for story memory.
type WorldFoundation struct {
	AnalysisSummary     string               `json:"analysisSummary"`
	SuggestedCharacters []SuggestedCharacter `json:"suggestedCharacters"`
	SuggestedPlaces     []SuggestedPlace     `json:"suggestedPlaces"`
	SuggestedThemes     []string             `json:"suggestedThemes"`
}

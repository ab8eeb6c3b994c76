/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for a manga project document.
// The document serializes to JSON as the canonical persisted shape; field
// names are part of the storage contract and must stay stable.

// ArtStyle selects the visual rendering style for generated imagery.
type ArtStyle string

const (
	StyleAnime   ArtStyle = "anime"
	StyleCartoon ArtStyle = "cartoon"
	StyleNoir    ArtStyle = "noir"
	StyleFantasy ArtStyle = "fantasy"
)

// Environment is a coarse setting hint used for theme and world seeding.
type Environment string

const (
	EnvCity       Environment = "city"
	EnvForest     Environment = "forest"
	EnvSpace      Environment = "space"
	EnvUnderwater Environment = "underwater"
	EnvDesert     Environment = "desert"
)

// BubbleStyle is the fixed set of speech bubble renderings.
type BubbleStyle string

const (
	BubbleNormal    BubbleStyle = "normal"
	BubbleShout     BubbleStyle = "shout"
	BubbleThought   BubbleStyle = "thought"
	BubbleWhisper   BubbleStyle = "whisper"
	BubbleNarration BubbleStyle = "narration"
)

// ColorTone biases the palette of a generated panel image.
type ColorTone string

const (
	ToneDefault   ColorTone = "default"
	ToneWarm      ColorTone = "warm"
	ToneCool      ColorTone = "cool"
	ToneNeutral   ColorTone = "neutral"
	ToneVibrant   ColorTone = "vibrant"
	ToneMuted     ColorTone = "muted"
	ToneSepia     ColorTone = "sepia"
	ToneGrayscale ColorTone = "grayscale"
)

// Document is the root aggregate for one manga project.
// Timestamps are Unix milliseconds; UpdatedAt is stamped on every committed
// mutation and never decreases.
type Document struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	ArtStyle       ArtStyle    `json:"artStyle"`
	Environment    Environment `json:"environment,omitempty"`
	Season         string      `json:"season,omitempty"`
	Episode        int         `json:"episode,omitempty"`
	CreatedAt      int64       `json:"createdAt"`
	UpdatedAt      int64       `json:"updatedAt"`
	Summary        string      `json:"summary,omitempty"`
	Content        string      `json:"content,omitempty"`
	ContentHistory []string    `json:"contentHistory"`
	VisualStyleKey ArtStyle    `json:"visualStyleKey"`
	Chapters       []Chapter   `json:"chapters"`
	StoryMemory    StoryMemory `json:"storyMemory"`
}

// Chapter is an ordered narrative unit. Numbers are unique within the
// document and assigned monotonically increasing, starting at 1.
type Chapter struct {
	ChapterNumber int    `json:"chapterNumber"`
	Title         string `json:"title,omitempty"`
	Pages         []Page `json:"pages"`
}

// Page holds an ordered list of panels under a layout template. The panel
// count should match the layout's expected count but fewer panels are valid
// placeholders; this is deliberately not enforced.
type Page struct {
	PageNumber int         `json:"pageNumber"`
	Layout     PanelLayout `json:"layout"`
	Panels     []Panel     `json:"panels"`
}

// Panel is the atomic creative unit. PanelOrder is 0-indexed and unique
// only within its parent page; it defines render order, not identity across
// pages.
type Panel struct {
	PanelOrder  int            `json:"panelOrder"`
	Description string         `json:"description"`
	Caption     string         `json:"caption,omitempty"`
	Dialogue    []SpeechBubble `json:"dialogue,omitempty"`
	ImagePrompt string         `json:"imagePrompt,omitempty"`
	Image       []byte         `json:"imageData,omitempty"`
	StyleKey    ArtStyle       `json:"styleKey"`
	Settings    *SceneSettings `json:"settings,omitempty"`
	Timestamp   int64          `json:"timestamp,omitempty"`

	// Transient generation state; not meaningful across sessions but
	// persisted harmlessly with the document.
	GeneratingImage bool   `json:"isGeneratingImage,omitempty"`
	ImageError      string `json:"imageError,omitempty"`
}

// SpeechBubble is one dialogue element inside a panel.
type SpeechBubble struct {
	CharacterName string      `json:"characterName,omitempty"`
	Style         BubbleStyle `json:"style,omitempty"`
	Text          string      `json:"text"`
}

// SceneSettings tune per-panel image generation.
type SceneSettings struct {
	CameraAngle       string    `json:"cameraAngle"`
	DetailLevel       int       `json:"detailLevel"` // 1..5
	ColorTone         ColorTone `json:"colorTone"`
	AdditionalDetails string    `json:"additionalDetails,omitempty"`
}

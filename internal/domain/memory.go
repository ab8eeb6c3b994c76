/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// StoryMemory is the structured knowledge base the AI consults for
// consistency: characters, the world, and overall theme/style notes.
type StoryMemory struct {
	Characters        []CharacterMemory `json:"characters"`
	World             WorldMemory       `json:"world"`
	Theme             string            `json:"theme,omitempty"`
	OverallStyleNotes string            `json:"overallStyleNotes,omitempty"`
}

// CharacterMemory describes one recurring character.
type CharacterMemory struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Role          string         `json:"role,omitempty"`
	Description   string         `json:"description,omitempty"`
	Traits        []string       `json:"traits,omitempty"`
	History       []string       `json:"history,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Relationship links a character to another character in the same document.
type Relationship struct {
	RelatedCharacterID string `json:"relatedCharacterId"`
	Description        string `json:"description"`
}

// WorldMemory holds the setting: places, major events, and free-text notes.
type WorldMemory struct {
	Places        []WorldPlace `json:"places"`
	MajorEvents   []WorldEvent `json:"majorEvents"`
	TimelineNotes string       `json:"timelineNotes,omitempty"`
	Lore          string       `json:"lore,omitempty"`
}

// WorldPlace is a named location.
type WorldPlace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorldEvent is a plot-relevant happening with an optional scene-order hint.
type WorldEvent struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	SceneOrder  int    `json:"sceneOrder,omitempty"`
}

// DefaultStoryMemory returns an empty-but-valid memory so old documents can
// be repaired on read.
func DefaultStoryMemory() StoryMemory {
	return StoryMemory{
		Characters: []CharacterMemory{},
		World: WorldMemory{
			Places:      []WorldPlace{},
			MajorEvents: []WorldEvent{},
		},
	}
}

// NewCharacter allocates a character with a fresh id.
func NewCharacter(name string) CharacterMemory {
	return CharacterMemory{ID: uuid.NewString(), Name: name}
}

// NewPlace allocates a place with a fresh id.
func NewPlace(name, description string) WorldPlace {
	return WorldPlace{ID: uuid.NewString(), Name: name, Description: description}
}

// NewEvent allocates an event with a fresh id.
func NewEvent(description string) WorldEvent {
	return WorldEvent{ID: uuid.NewString(), Description: description}
}

// CharacterByID returns the character with the given id, or nil.
func (m *StoryMemory) CharacterByID(id string) *CharacterMemory {
	for i := range m.Characters {
		if m.Characters[i].ID == id {
			return &m.Characters[i]
		}
	}
	return nil
}

// CharacterByName returns the first character with a matching name, or nil.
// Matching is exact; panel descriptions naming unknown characters are
// accepted elsewhere without validation, so a nil here is not an error.
func (m *StoryMemory) CharacterByName(name string) *CharacterMemory {
	for i := range m.Characters {
		if m.Characters[i].Name == name {
			return &m.Characters[i]
		}
	}
	return nil
}

// RemoveCharacter deletes the character and strips relationships pointing
// at it from the remaining roster. Returns false if the id was absent.
func (m *StoryMemory) RemoveCharacter(id string) bool {
	idx := -1
	for i := range m.Characters {
		if m.Characters[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.Characters = append(m.Characters[:idx], m.Characters[idx+1:]...)
	for i := range m.Characters {
		c := &m.Characters[i]
		kept := c.Relationships[:0]
		for _, r := range c.Relationships {
			if r.RelatedCharacterID != id {
				kept = append(kept, r)
			}
		}
		c.Relationships = kept
	}
	return true
}

// RemovePlace deletes a place by id. Returns false if absent.
func (m *StoryMemory) RemovePlace(id string) bool {
	for i := range m.World.Places {
		if m.World.Places[i].ID == id {
			m.World.Places = append(m.World.Places[:i], m.World.Places[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveEvent deletes an event by id. Returns false if absent.
func (m *StoryMemory) RemoveEvent(id string) bool {
	for i := range m.World.MajorEvents {
		if m.World.MajorEvents[i].ID == id {
			m.World.MajorEvents = append(m.World.MajorEvents[:i], m.World.MajorEvents[i+1:]...)
			return true
		}
	}
	return false
}

// ValidateRelationships checks that every character relationship references
// an existing character id within this memory. A dangling reference is a
// data-integrity bug, not a supported state.
func (m *StoryMemory) ValidateRelationships() error {
	ids := make(map[string]struct{}, len(m.Characters))
	for _, c := range m.Characters {
		ids[c.ID] = struct{}{}
	}
	for _, c := range m.Characters {
		for _, r := range c.Relationships {
			if _, ok := ids[r.RelatedCharacterID]; !ok {
				return fmt.Errorf("character %q has relationship to unknown character id %q", c.Name, r.RelatedCharacterID)
			}
		}
	}
	return nil
}

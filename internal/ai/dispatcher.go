/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ai routes generation tasks to the generative backend. It owns
// the closed task registry, prompt construction and response
// normalization; callers work with typed inputs and outputs only.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
)

// Service dispatches generation tasks. All methods are safe for
// concurrent use; the underlying client carries its own HTTP client.
type Service struct {
	client GenerativeClient
	log    *slog.Logger
}

// NewService wraps a client. Pass NewClient's result in production;
// tests inject fakes.
func NewService(client GenerativeClient) *Service {
	return &Service{
		client: client,
		log:    applog.WithComponent("ai"),
	}
}

// Offline reports whether the service answers from canned data.
func (s *Service) Offline() bool { return s.client.Offline() }

// Invoke runs a task by id with a task-specific input value. Unknown
// tasks and mismatched input types fail before any request is built or
// sent. Callers that know the task at compile time should prefer the
// typed methods.
func (s *Service) Invoke(ctx context.Context, task Task, input any) (any, error) {
	switch task {
	case TaskGenerateStoryStub:
		in, err := taskInput[StoryStubInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.GenerateStoryStub(ctx, in)
	case TaskContinueStory:
		in, err := taskInput[ContinueStoryInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.ContinueStory(ctx, in)
	case TaskGeneratePanelImage:
		in, err := taskInput[PanelImageInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.GeneratePanelImage(ctx, in)
	case TaskEditPanelImage:
		in, err := taskInput[EditImageInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.EditPanelImage(ctx, in)
	case TaskSuggestPlotPoint:
		in, err := taskInput[PlotPointInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.SuggestPlotPoint(ctx, in)
	case TaskStoryFeedback:
		in, err := taskInput[FeedbackInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.GetStoryFeedback(ctx, in)
	case TaskAnalyzeMemory:
		in, err := taskInput[AnalyzeMemoryInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.AnalyzeMemory(ctx, in)
	case TaskSuggestCharacterArc:
		in, err := taskInput[CharacterArcInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.SuggestCharacterArc(ctx, in)
	case TaskGeneratePageOutline:
		in, err := taskInput[PageOutlineInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.GeneratePageOutline(ctx, in)
	case TaskGeneratePanelElements:
		in, err := taskInput[PanelElementsInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.GeneratePanelElements(ctx, in)
	case TaskSuggestGraphConnections:
		in, err := taskInput[GraphConnectionsInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.SuggestGraphConnections(ctx, in)
	case TaskBrainstormWorld:
		in, err := taskInput[BrainstormWorldInput](task, input)
		if err != nil {
			return nil, err
		}
		return s.BrainstormWorld(ctx, in)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}
}

func taskInput[T any](task Task, input any) (T, error) {
	in, ok := input.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("task %s: input is %T, want %T", task, input, zero)
	}
	return in, nil
}

// GenerateStoryStub produces an initial summary for a new project.
func (s *Service) GenerateStoryStub(ctx context.Context, in StoryStubInput) (string, error) {
	if s.client.Offline() {
		return stubStoryStub(in), nil
	}
	text, err := s.client.GenerateText(ctx, storyStubPrompt(in))
	if err != nil {
		return "", generationFailed(TaskGenerateStoryStub, err)
	}
	return text, nil
}

// ContinueStory produces the next paragraph of the narrative.
func (s *Service) ContinueStory(ctx context.Context, in ContinueStoryInput) (string, error) {
	if s.client.Offline() {
		return stubContinuation(in), nil
	}
	text, err := s.client.GenerateText(ctx, continuationPrompt(in))
	if err != nil {
		return "", generationFailed(TaskContinueStory, err)
	}
	return text, nil
}

// GeneratePanelImage renders one panel. The returned prompt is the exact
// text sent to the image model so it can be stored on the panel.
func (s *Service) GeneratePanelImage(ctx context.Context, in PanelImageInput) (*PanelImage, error) {
	prompt := panelImagePrompt(in)
	if s.client.Offline() {
		return &PanelImage{Image: stubPNG, Prompt: prompt}, nil
	}
	s.log.Debug("generating panel image", "style", in.StyleKey)
	img, err := s.client.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, generationFailed(TaskGeneratePanelImage, err)
	}
	return &PanelImage{Image: img, Prompt: prompt}, nil
}

// EditPanelImage reworks an existing panel image per the instruction.
func (s *Service) EditPanelImage(ctx context.Context, in EditImageInput) (*EditedImage, error) {
	if len(in.Image) == 0 {
		return nil, generationFailed(TaskEditPanelImage, fmt.Errorf("no source image"))
	}
	if s.client.Offline() {
		return &EditedImage{Image: in.Image, Text: "offline: image unchanged"}, nil
	}
	img, text, err := s.client.EditImage(ctx, in.Image, in.MimeType, in.Prompt)
	if err != nil {
		return nil, generationFailed(TaskEditPanelImage, err)
	}
	return &EditedImage{Image: img, Text: text}, nil
}

// SuggestPlotPoint proposes the next story event.
func (s *Service) SuggestPlotPoint(ctx context.Context, in PlotPointInput) (*PlotSuggestion, error) {
	if s.client.Offline() {
		return stubPlotPoint(in), nil
	}
	var out PlotSuggestion
	if err := s.client.GenerateJSON(ctx, plotPointPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskSuggestPlotPoint, err)
	}
	return &out, nil
}

// GetStoryFeedback asks for an editorial review of the narrative.
func (s *Service) GetStoryFeedback(ctx context.Context, in FeedbackInput) (*StoryFeedback, error) {
	if s.client.Offline() {
		return stubFeedback(in), nil
	}
	var out StoryFeedback
	if err := s.client.GenerateJSON(ctx, feedbackPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskStoryFeedback, err)
	}
	return &out, nil
}

// AnalyzeMemory mines the narrative for entities missing from memory.
func (s *Service) AnalyzeMemory(ctx context.Context, in AnalyzeMemoryInput) (*MemorySuggestions, error) {
	if s.client.Offline() {
		return stubMemorySuggestions(in), nil
	}
	var out MemorySuggestions
	if err := s.client.GenerateJSON(ctx, analyzeMemoryPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskAnalyzeMemory, err)
	}
	return &out, nil
}

// SuggestCharacterArc proposes development ideas for one character.
func (s *Service) SuggestCharacterArc(ctx context.Context, in CharacterArcInput) (*CharacterArc, error) {
	if s.client.Offline() {
		return stubCharacterArc(in), nil
	}
	var out CharacterArc
	if err := s.client.GenerateJSON(ctx, characterArcPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskSuggestCharacterArc, err)
	}
	return &out, nil
}

// GeneratePageOutline produces the first-page skeleton for a new manga.
// The result is normalized: panels run 0..n-1 and the layout is valid. An
// outline without panel descriptions is not an error; the resulting page
// simply starts empty.
func (s *Service) GeneratePageOutline(ctx context.Context, in PageOutlineInput) (*PageOutline, error) {
	if s.client.Offline() {
		return stubOutline(in), nil
	}
	applog.WithOperation(s.log, "page_outline").Info("generating outline", "panels", in.TargetPanelCount)
	var wire outlineWire
	if err := s.client.GenerateJSON(ctx, pageOutlinePrompt(in), &wire); err != nil {
		return nil, generationFailed(TaskGeneratePageOutline, err)
	}
	return normalizeOutline(&wire, in.TargetPanelCount), nil
}

// GeneratePanelElements writes the caption and dialogue for one panel.
func (s *Service) GeneratePanelElements(ctx context.Context, in PanelElementsInput) (*PanelElements, error) {
	if s.client.Offline() {
		return stubPanelElements(in), nil
	}
	var wire panelElementsWire
	if err := s.client.GenerateJSON(ctx, panelElementsPrompt(in), &wire); err != nil {
		return nil, generationFailed(TaskGeneratePanelElements, err)
	}
	return normalizePanelElements(&wire, in.PanelOrder), nil
}

// SuggestGraphConnections proposes untracked relationships between
// memory entities. Connections referencing unknown ids are dropped.
func (s *Service) SuggestGraphConnections(ctx context.Context, in GraphConnectionsInput) ([]GraphConnection, error) {
	if s.client.Offline() {
		return stubGraphConnections(in), nil
	}
	var out []GraphConnection
	if err := s.client.GenerateJSON(ctx, graphConnectionsPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskSuggestGraphConnections, err)
	}
	return filterConnections(out, in.Memory), nil
}

func filterConnections(conns []GraphConnection, m *domain.StoryMemory) []GraphConnection {
	if m == nil {
		return []GraphConnection{}
	}
	known := make(map[string]bool)
	for _, c := range m.Characters {
		known[c.ID] = true
	}
	for _, p := range m.World.Places {
		known[p.ID] = true
	}
	kept := make([]GraphConnection, 0, len(conns))
	for _, c := range conns {
		if known[c.FromID] && known[c.ToID] {
			kept = append(kept, c)
		}
	}
	return kept
}

// BrainstormWorld brainstorms a memory foundation from a raw story idea.
func (s *Service) BrainstormWorld(ctx context.Context, in BrainstormWorldInput) (*WorldFoundation, error) {
	if s.client.Offline() {
		return stubWorldFoundation(in), nil
	}
	var out WorldFoundation
	if err := s.client.GenerateJSON(ctx, brainstormWorldPrompt(in), &out); err != nil {
		return nil, generationFailed(TaskBrainstormWorld, err)
	}
	return &out, nil
}

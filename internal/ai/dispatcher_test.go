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
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"mangastudio/internal/domain"
)

// countingClient records every transport call so tests can assert that
// failing paths never reach the backend.
type countingClient struct {
	calls    int
	fail     error
	text     string
	jsonBody string
}

func (c *countingClient) Offline() bool { return false }

func (c *countingClient) GenerateText(context.Context, string) (string, error) {
	c.calls++
	return c.text, c.fail
}

func (c *countingClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	c.calls++
	if c.fail != nil {
		return c.fail
	}
	return jsonInto(c.jsonBody, out)
}

func (c *countingClient) GenerateImage(context.Context, string) ([]byte, error) {
	c.calls++
	return []byte{1, 2, 3}, c.fail
}

func (c *countingClient) EditImage(context.Context, []byte, string, string) ([]byte, string, error) {
	c.calls++
	return []byte{4, 5, 6}, "done", c.fail
}

func jsonInto(raw string, out any) error {
	if raw == "" {
		return fmt.Errorf("no canned json configured")
	}
	return json.Unmarshal([]byte(raw), out)
}

func TestInvokeUnknownTaskFailsBeforeIO(t *testing.T) {
	client := &countingClient{}
	svc := NewService(client)
	_, err := svc.Invoke(context.Background(), Task("summarize_everything"), nil)
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("unknown task reached the client %d times", client.calls)
	}
}

func TestInvokeWrongInputTypeFailsBeforeIO(t *testing.T) {
	client := &countingClient{}
	svc := NewService(client)
	_, err := svc.Invoke(context.Background(), TaskSuggestPlotPoint, PageOutlineInput{})
	if err == nil {
		t.Fatalf("expected input type error")
	}
	if client.calls != 0 {
		t.Fatalf("bad input reached the client %d times", client.calls)
	}
}

func TestInvokeCoversEveryKnownTask(t *testing.T) {
	svc := NewService(NewClient(ClientConfig{})) // offline
	mem := domain.DefaultStoryMemory()
	inputs := map[Task]any{
		TaskGenerateStoryStub:       StoryStubInput{Title: "Test", ArtStyle: domain.StyleAnime},
		TaskContinueStory:           ContinueStoryInput{Content: "A beginning.", Memory: &mem},
		TaskGeneratePanelImage:      PanelImageInput{Description: "A rooftop at dusk.", StyleKey: domain.StyleNoir},
		TaskEditPanelImage:          EditImageInput{Image: []byte{1}, Prompt: "darker"},
		TaskSuggestPlotPoint:        PlotPointInput{Content: "x"},
		TaskStoryFeedback:           FeedbackInput{Content: "x"},
		TaskAnalyzeMemory:           AnalyzeMemoryInput{Content: "x", Memory: &mem},
		TaskSuggestCharacterArc:     CharacterArcInput{Character: domain.CharacterMemory{ID: "c1", Name: "Aya"}},
		TaskGeneratePageOutline:     PageOutlineInput{StoryIdea: "a heist", TargetPanelCount: 6},
		TaskGeneratePanelElements:   PanelElementsInput{Description: "x", PanelOrder: 2},
		TaskSuggestGraphConnections: GraphConnectionsInput{Content: "x", Memory: &mem},
		TaskBrainstormWorld:         BrainstormWorldInput{Title: "T", StoryIdea: "an idea"},
	}
	for _, task := range KnownTasks {
		in, ok := inputs[task]
		if !ok {
			t.Fatalf("no test input registered for task %s", task)
		}
		out, err := svc.Invoke(context.Background(), task, in)
		if err != nil {
			t.Fatalf("task %s: %v", task, err)
		}
		if out == nil {
			t.Fatalf("task %s returned nil output", task)
		}
	}
}

func TestOfflineOutlineIsDeterministic(t *testing.T) {
	svc := NewService(NewClient(ClientConfig{}))
	if !svc.Offline() {
		t.Fatalf("client without credentials should be offline")
	}
	in := PageOutlineInput{StoryIdea: "a duel at dawn", ArtStyle: domain.StyleFantasy, TargetPanelCount: 6}
	a, err := svc.GeneratePageOutline(context.Background(), in)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	b, err := svc.GeneratePageOutline(context.Background(), in)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("offline outline is not deterministic")
	}
	if len(a.PanelDescriptions) != 6 {
		t.Fatalf("expected 6 panels, got %d", len(a.PanelDescriptions))
	}
	for i, p := range a.PanelDescriptions {
		if p.PanelOrder != i {
			t.Fatalf("panel %d has order %d", i, p.PanelOrder)
		}
	}
	if len(a.InitialCharacters) == 0 {
		t.Fatalf("offline outline has no characters")
	}
}

func TestGenerationErrorCarriesTask(t *testing.T) {
	client := &countingClient{fail: errors.New("boom")}
	svc := NewService(client)
	_, err := svc.SuggestPlotPoint(context.Background(), PlotPointInput{Content: "x"})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Task != TaskSuggestPlotPoint {
		t.Fatalf("wrong task on error: %s", genErr.Task)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one client call, got %d", client.calls)
	}
}

func TestPanelElementsNormalization(t *testing.T) {
	client := &countingClient{jsonBody: `{
		"caption": "  Dawn breaks.  ",
		"dialogue": [
			{"character": "Aya", "text": "Now!", "style": "SHOUT"},
			{"character": "Ren", "text": "", "style": "normal"},
			{"character": "Ren", "text": "Fine.", "style": "grumble"}
		]
	}`}
	svc := NewService(client)
	out, err := svc.GeneratePanelElements(context.Background(), PanelElementsInput{Description: "x", PanelOrder: 3})
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	if out.PanelOrder != 3 {
		t.Fatalf("panel order not preserved: %d", out.PanelOrder)
	}
	if out.Caption != "Dawn breaks." {
		t.Fatalf("caption not trimmed: %q", out.Caption)
	}
	if len(out.Dialogue) != 2 {
		t.Fatalf("empty dialogue line not dropped: %d lines", len(out.Dialogue))
	}
	if out.Dialogue[0].Style != domain.BubbleShout {
		t.Fatalf("style not lowercased: %q", out.Dialogue[0].Style)
	}
	if out.Dialogue[1].Style != domain.BubbleNormal {
		t.Fatalf("unknown style should fall back to normal, got %q", out.Dialogue[1].Style)
	}
}

func TestOutlineNormalization(t *testing.T) {
	wire := &outlineWire{
		PanelDescriptions: []panelDescriptionWire{
			{PanelOrder: 5, Description: "last"},
			{PanelOrder: 0, Description: "first"},
			{PanelOrder: 2, Description: "middle"},
		},
		PageLayoutSuggestion: "grid_9x9",
	}
	out := normalizeOutline(wire, 3)
	if out.LayoutSuggestion != domain.DefaultLayout {
		t.Fatalf("unknown layout should fall back to default, got %s", out.LayoutSuggestion)
	}
	want := []string{"first", "middle", "last"}
	for i, p := range out.PanelDescriptions {
		if p.PanelOrder != i || p.Description != want[i] {
			t.Fatalf("panel %d = {%d %q}, want {%d %q}", i, p.PanelOrder, p.Description, i, want[i])
		}
	}
}

func TestOutlineWithoutPanelsIsNotAnError(t *testing.T) {
	client := &countingClient{jsonBody: `{
		"initialCharacters": [{"name": "Aya", "role": "protagonist"}],
		"environmentSynopsis": "A quiet harbor.",
		"panelDescriptions": [],
		"pageTheme": "Calm before the storm",
		"pageLayoutSuggestion": "grid_2x3"
	}`}
	svc := NewService(client)
	out, err := svc.GeneratePageOutline(context.Background(), PageOutlineInput{StoryIdea: "a slow opening", TargetPanelCount: 6})
	if err != nil {
		t.Fatalf("outline without panels should succeed, got %v", err)
	}
	if len(out.PanelDescriptions) != 0 {
		t.Fatalf("expected an empty panel list, got %d panels", len(out.PanelDescriptions))
	}
	if len(out.InitialCharacters) != 1 || out.InitialCharacters[0].Name != "Aya" {
		t.Fatalf("characters should survive an empty panel list: %+v", out.InitialCharacters)
	}
	if out.LayoutSuggestion != domain.LayoutGrid2x3 {
		t.Fatalf("layout suggestion lost: %s", out.LayoutSuggestion)
	}
}

func TestGraphConnectionsDropUnknownIDs(t *testing.T) {
	mem := domain.DefaultStoryMemory()
	mem.Characters = []domain.CharacterMemory{{ID: "c1", Name: "Aya"}, {ID: "c2", Name: "Ren"}}
	conns := []GraphConnection{
		{FromID: "c1", ToID: "c2", Label: "rivals"},
		{FromID: "c1", ToID: "ghost", Label: "haunted by"},
	}
	kept := filterConnections(conns, &mem)
	if len(kept) != 1 || kept[0].Label != "rivals" {
		t.Fatalf("expected only the known-id connection, got %+v", kept)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      "{\"a\":1}",
		"```json\n{\"a\":1}\n```":        "{\"a\":1}",
		"```\n[1,2]\n```":                "[1,2]",
		"  ```json\n{\"b\":true}\n``` ":  "{\"b\":true}",
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

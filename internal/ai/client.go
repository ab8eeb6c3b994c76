/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default model ids. Text and structured output share one model; images
// use the dedicated generation and editing models.
const (
	DefaultTextModel      = "gemini-2.5-flash"
	DefaultImageModel     = "imagen-4.0-generate-001"
	DefaultImageEditModel = "gemini-2.5-flash-image"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GenerativeClient is the transport the dispatcher talks through. Exactly
// one implementation performs network I/O; the zero-credential fallback
// answers deterministically so the application keeps working offline.
type GenerativeClient interface {
	// GenerateText returns free-form text for the prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON asks for a JSON response and decodes it into out.
	GenerateJSON(ctx context.Context, prompt string, out any) error
	// GenerateImage renders an image for the prompt and returns PNG bytes.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	// EditImage reworks an existing image per the instruction. The string
	// result carries any text the model returned alongside the image.
	EditImage(ctx context.Context, image []byte, mimeType, prompt string) ([]byte, string, error)
	// Offline reports whether this client answers from canned data.
	Offline() bool
}

// ClientConfig configures the Gemini REST client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string // defaults to the public endpoint
	TextModel      string
	ImageModel     string
	ImageEditModel string
	Timeout        time.Duration
}

// NewClient returns a network-backed client when an API key is present
// and the deterministic offline client otherwise.
func NewClient(cfg ClientConfig) GenerativeClient {
	if cfg.APIKey == "" {
		return &offlineClient{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.ImageEditModel == "" {
		cfg.ImageEditModel = DefaultImageEditModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &geminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// geminiClient talks to the Generative Language REST API.
type geminiClient struct {
	cfg    ClientConfig
	client *http.Client
}

func (c *geminiClient) Offline() bool { return false }

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) generate(ctx context.Context, model string, reqBody generateRequest) (*generateResponse, error) {
	u := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), model)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("model %s: %s: %s", model, resp.Status, strings.TrimSpace(string(body)))
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 {
		return nil, fmt.Errorf("model %s: empty response", model)
	}
	return &out, nil
}

func (c *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, c.cfg.TextModel, generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *geminiClient) GenerateJSON(ctx context.Context, prompt string, out any) error {
	resp, err := c.generate(ctx, c.cfg.TextModel, generateRequest{
		Contents:         []generateContent{{Parts: []generatePart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	raw := stripCodeFence(sb.String())
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

type predictRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount int `json:"sampleCount"`
	} `json:"parameters"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"predictions"`
}

func (c *geminiClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	var reqBody predictRequest
	reqBody.Instances = append(reqBody.Instances, struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	reqBody.Parameters.SampleCount = 1

	u := fmt.Sprintf("%s/models/%s:predict", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.ImageModel)
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("model %s: %s: %s", c.cfg.ImageModel, resp.Status, strings.TrimSpace(string(body)))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("model %s: no image returned", c.cfg.ImageModel)
	}
	return base64.StdEncoding.DecodeString(out.Predictions[0].BytesBase64Encoded)
}

func (c *geminiClient) EditImage(ctx context.Context, image []byte, mimeType, prompt string) ([]byte, string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	resp, err := c.generate(ctx, c.cfg.ImageEditModel, generateRequest{
		Contents: []generateContent{{Parts: []generatePart{
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
			{Text: prompt},
		}}},
	})
	if err != nil {
		return nil, "", err
	}
	var edited []byte
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && edited == nil {
			edited, err = base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, "", err
			}
		}
		text.WriteString(p.Text)
	}
	if edited == nil {
		return nil, "", fmt.Errorf("model %s: no image in response", c.cfg.ImageEditModel)
	}
	return edited, text.String(), nil
}

// stripCodeFence removes a surrounding ```json fence if the model added
// one despite the JSON mime type request.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

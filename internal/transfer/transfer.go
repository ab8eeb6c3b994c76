/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transfer moves whole projects across installations as JSON
// files. Imports are validated against the document schema before any
// bytes reach the store.
package transfer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"mangastudio/internal/domain"
	"mangastudio/internal/storage"
)

//go:embed manga.schema.json
var schemaJSON []byte

// Export writes the document as indented JSON to path.
func Export(doc *domain.Document, path string) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ValidationError carries the individual schema violations of a rejected
// import file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document does not conform to schema: %s", strings.Join(e.Problems, "; "))
}

// Validate checks raw JSON against the document schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if !result.Valid() {
		ve := &ValidationError{}
		for _, e := range result.Errors() {
			ve.Problems = append(ve.Problems, e.String())
		}
		return ve
	}
	return nil
}

// Import reads a project JSON file, validates it, repairs legacy gaps and
// persists it. A document with the same id is overwritten.
func Import(ctx context.Context, store storage.Store, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Repair()
	if err := doc.StoryMemory.ValidateRelationships(); err != nil {
		return nil, fmt.Errorf("import rejected: %w", err)
	}
	if err := store.Put(ctx, &doc); err != nil {
		return nil, fmt.Errorf("persist import: %w", err)
	}
	return &doc, nil
}

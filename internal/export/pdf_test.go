/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mangastudio/internal/domain"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func exportDoc(t *testing.T) *domain.Document {
	t.Helper()
	return &domain.Document{
		ID:    "exp-1",
		Title: "Export Test",
		Chapters: []domain.Chapter{
			{
				ChapterNumber: 1,
				Pages: []domain.Page{{
					PageNumber: 1,
					Layout:     domain.LayoutGrid2x2,
					Panels: []domain.Panel{
						{PanelOrder: 0, Description: "with image", Image: testPNG(t, 64, 48), Caption: "Dawn."},
						{PanelOrder: 1, Description: "text only",
							Dialogue: []domain.SpeechBubble{{CharacterName: "Aya", Text: "Here!", Style: domain.BubbleShout}}},
					},
				}},
			},
			{ChapterNumber: 2, Pages: []domain.Page{{PageNumber: 1, Layout: domain.LayoutSplashFullPage}}},
		},
	}
}

func TestExportPDFWritesValidFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.pdf")
	if err := ExportPDF(exportDoc(t), out, PDFOptions{IncludeText: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}
	if len(data) < 1000 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestExportPDFChapterSelection(t *testing.T) {
	dir := t.TempDir()
	all := filepath.Join(dir, "all.pdf")
	one := filepath.Join(dir, "one.pdf")
	doc := exportDoc(t)
	if err := ExportPDF(doc, all, PDFOptions{}); err != nil {
		t.Fatalf("export all: %v", err)
	}
	if err := ExportPDF(doc, one, PDFOptions{Chapters: []int{2}}); err != nil {
		t.Fatalf("export one: %v", err)
	}
	if err := ExportPDF(doc, filepath.Join(dir, "none.pdf"), PDFOptions{Chapters: []int{9}}); err == nil {
		t.Fatalf("unknown chapter selection should fail")
	}
}

func TestExportPDFNilDocument(t *testing.T) {
	if err := ExportPDF(nil, filepath.Join(t.TempDir(), "x.pdf"), PDFOptions{}); err == nil {
		t.Fatalf("nil document should fail")
	}
}

func TestLayoutCellCounts(t *testing.T) {
	cases := map[domain.PanelLayout]int{
		domain.LayoutGrid2x3:         6,
		domain.LayoutGrid1x3Vertical: 3,
		domain.LayoutGrid2x2:         4,
		domain.LayoutSplashFullPage:  1,
	}
	for layout, want := range cases {
		if got := len(layoutCells(layout)); got != want {
			t.Fatalf("layout %s has %d cells, want %d", layout, got, want)
		}
	}
}

func TestDownscaleBoundsLongEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	small := downscale(img, 100)
	b := small.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("downscale = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
	same := downscale(img, 1000)
	if same != image.Image(img) {
		t.Fatalf("small images should pass through untouched")
	}
}

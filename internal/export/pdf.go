/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders documents to shareable formats.
package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	xdraw "golang.org/x/image/draw"

	"mangastudio/internal/domain"
)

// PDFOptions controls PDF export. Units are points.
type PDFOptions struct {
	Chapters     []int // chapter numbers; empty exports all
	IncludeText  bool  // captions and dialogue under each panel
	MaxImageEdge int   // panel images are downscaled to this edge; 0 uses the default
}

const defaultMaxImageEdge = 1024

// A4 in points.
const (
	pageW  = 595.28
	pageH  = 841.89
	margin = 36.0
	header = 24.0
)

type cell struct{ x, y, w, h float64 }

// layoutCells maps a layout template onto the printable area.
func layoutCells(layout domain.PanelLayout) []cell {
	innerW := pageW - 2*margin
	innerH := pageH - 2*margin - header
	top := margin + header
	grid := func(cols, rows int) []cell {
		gap := 8.0
		w := (innerW - gap*float64(cols-1)) / float64(cols)
		h := (innerH - gap*float64(rows-1)) / float64(rows)
		var out []cell
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				out = append(out, cell{
					x: margin + float64(c)*(w+gap),
					y: top + float64(r)*(h+gap),
					w: w, h: h,
				})
			}
		}
		return out
	}
	switch layout {
	case domain.LayoutGrid1x3Vertical:
		return grid(1, 3)
	case domain.LayoutGrid2x2:
		return grid(2, 2)
	case domain.LayoutSplashFullPage:
		return []cell{{x: margin, y: top, w: innerW, h: innerH}}
	default: // grid_2x3 and custom
		return grid(2, 3)
	}
}

// ExportPDF writes the selected chapters as a multi-page PDF. Every
// document page maps to one PDF page; panels without an image render as
// an outlined placeholder with their description.
func ExportPDF(doc *domain.Document, outPath string, opt PDFOptions) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	chapters := selectChapters(doc, opt.Chapters)
	if len(chapters) == 0 {
		return fmt.Errorf("no chapters to export")
	}
	maxEdge := opt.MaxImageEdge
	if maxEdge <= 0 {
		maxEdge = defaultMaxImageEdge
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(doc.Title, false)
	pdf.SetFont("Helvetica", "", 10)

	imgSeq := 0
	for _, ch := range chapters {
		for _, pg := range ch.Pages {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 12)
			pdf.Text(margin, margin+4, fmt.Sprintf("%s — Chapter %d, Page %d", doc.Title, ch.ChapterNumber, pg.PageNumber))
			pdf.SetFont("Helvetica", "", 10)

			cells := layoutCells(pg.Layout)
			for i, pnl := range pg.Panels {
				if i >= len(cells) {
					break
				}
				c := cells[i]
				pdf.SetDrawColor(0, 0, 0)
				pdf.SetLineWidth(1)
				pdf.Rect(c.x, c.y, c.w, c.h, "D")

				textTop := c.y + c.h
				if len(pnl.Image) > 0 {
					imgSeq++
					if err := placeImage(pdf, pnl.Image, c, maxEdge, fmt.Sprintf("panel_%d", imgSeq)); err != nil {
						return fmt.Errorf("chapter %d page %d panel %d: %w", ch.ChapterNumber, pg.PageNumber, pnl.PanelOrder, err)
					}
				} else {
					pdf.SetTextColor(120, 120, 120)
					writeClipped(pdf, pnl.Description, c.x+6, c.y+16, c.w-12)
					pdf.SetTextColor(0, 0, 0)
				}
				if opt.IncludeText {
					writePanelText(pdf, pnl, c, textTop)
				}
			}
		}
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func selectChapters(doc *domain.Document, numbers []int) []domain.Chapter {
	if len(numbers) == 0 {
		return doc.Chapters
	}
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = true
	}
	var out []domain.Chapter
	for _, ch := range doc.Chapters {
		if want[ch.ChapterNumber] {
			out = append(out, ch)
		}
	}
	return out
}

// placeImage decodes, downscales and embeds one panel image, fitted into
// the cell with the aspect ratio preserved.
func placeImage(pdf *gofpdf.Fpdf, data []byte, c cell, maxEdge int, name string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode panel image: %w", err)
	}
	img = downscale(img, maxEdge)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("re-encode panel image: %w", err)
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)

	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	scale := c.w / iw
	if s := c.h / ih; s < scale {
		scale = s
	}
	w, h := iw*scale, ih*scale
	x := c.x + (c.w-w)/2
	y := c.y + (c.h-h)/2
	pdf.ImageOptions(name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

// downscale resizes the image so its longer edge is at most maxEdge,
// using Catmull-Rom resampling. Small images pass through untouched.
func downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	edge := w
	if h > edge {
		edge = h
	}
	if edge <= maxEdge {
		return img
	}
	scale := float64(maxEdge) / float64(edge)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

func writePanelText(pdf *gofpdf.Fpdf, pnl domain.Panel, c cell, top float64) {
	y := top - 6
	lines := make([]string, 0, len(pnl.Dialogue)+1)
	for i := len(pnl.Dialogue) - 1; i >= 0; i-- {
		d := pnl.Dialogue[i]
		if d.CharacterName != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", d.CharacterName, d.Text))
		} else {
			lines = append(lines, d.Text)
		}
	}
	if pnl.Caption != "" {
		lines = append(lines, pnl.Caption)
	}
	// Lines are written bottom-up so overflow drops dialogue before the
	// caption.
	for _, line := range lines {
		if y < c.y+12 {
			break
		}
		writeClipped(pdf, line, c.x+6, y, c.w-12)
		y -= 12
	}
}

// writeClipped draws one line of text, truncated to the given width.
func writeClipped(pdf *gofpdf.Fpdf, s string, x, y, w float64) {
	for len(s) > 0 && pdf.GetStringWidth(s) > w {
		s = s[:len(s)-1]
	}
	pdf.Text(x, y, s)
}

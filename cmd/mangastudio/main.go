/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mangastudio/internal/ai"
	"mangastudio/internal/config"
	"mangastudio/internal/domain"
	"mangastudio/internal/export"
	applog "mangastudio/internal/log"
	"mangastudio/internal/pipeline"
	"mangastudio/internal/storage"
	"mangastudio/internal/studio"
	"mangastudio/internal/transfer"
	"mangastudio/internal/version"
)

func usage() {
	fmt.Println("MangaStudio — manga project studio")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mangastudio version|-v|--version                 Show version")
	fmt.Println("  mangastudio create <title> <story idea> [style]  Create a project from a story idea")
	fmt.Println("  mangastudio list                                 List projects, most recently edited first")
	fmt.Println("  mangastudio show <id>                            Print a project summary")
	fmt.Println("  mangastudio continue <id>                        Append an AI-generated story continuation")
	fmt.Println("  mangastudio add-chapter <id> [title]             Append an empty chapter")
	fmt.Println("  mangastudio delete <id>                          Delete a project")
	fmt.Println("  mangastudio export-pdf <id> <out.pdf>            Export a project to PDF")
	fmt.Println("  mangastudio export-json <id> <out.json>          Export a project to JSON")
	fmt.Println("  mangastudio import-json <in.json>                Import a project from JSON")
}

func main() {
	cfg, apiKey, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	applog.Init(applog.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	args := os.Args
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("MangaStudio")
		fmt.Println(version.String())
		return
	}

	store, err := openStore(cfg)
	if err != nil {
		l.Error("open store failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	switch args[1] {
	case "create":
		if len(args) < 4 {
			fmt.Println("create requires <title> and <story idea>")
			usage()
			os.Exit(2)
		}
		style := domain.StyleAnime
		if len(args) >= 5 {
			style = domain.ArtStyle(strings.ToLower(args[4]))
		}
		svc := ai.NewService(ai.NewClient(ai.ClientConfig{
			APIKey:         apiKey,
			BaseURL:        cfg.AI.BaseURL,
			TextModel:      cfg.AI.TextModel,
			ImageModel:     cfg.AI.ImageModel,
			ImageEditModel: cfg.AI.ImageEditModel,
			Timeout:        time.Duration(cfg.AI.TimeoutMs) * time.Millisecond,
		}))
		if svc.Offline() {
			fmt.Println("No API key configured; generating with offline placeholders.")
		}
		b := pipeline.NewBuilder(store, svc)
		res, err := b.CreateProject(ctx, pipeline.CreateInput{
			Title:     args[2],
			StoryIdea: args[3],
			ArtStyle:  style,
		})
		if err != nil {
			l.Error("create failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Created project", res.DocumentID)
		if len(res.FailedPanels) > 0 {
			fmt.Println("Panels without generated text:", res.FailedPanels)
		}
	case "list":
		ids, err := store.ListIDs(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		for _, id := range ids {
			doc, err := store.Get(ctx, id)
			if err != nil {
				fmt.Printf("%s  (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("%s  %-24s  edited %s\n", id, doc.Title,
				time.UnixMilli(doc.UpdatedAt).Format(time.RFC3339))
		}
	case "show":
		doc := mustGet(ctx, store, args, l)
		fmt.Printf("Title:    %s\n", doc.Title)
		fmt.Printf("Style:    %s\n", doc.ArtStyle)
		fmt.Printf("Chapters: %d\n", len(doc.Chapters))
		fmt.Printf("Memory:   %d characters, %d places, %d events\n",
			len(doc.StoryMemory.Characters),
			len(doc.StoryMemory.World.Places),
			len(doc.StoryMemory.World.MajorEvents))
		if doc.Summary != "" {
			fmt.Println("Summary: ", doc.Summary)
		}
	case "continue":
		if len(args) < 3 {
			fmt.Println("continue requires <id>")
			os.Exit(2)
		}
		svc := ai.NewService(ai.NewClient(ai.ClientConfig{
			APIKey:    apiKey,
			BaseURL:   cfg.AI.BaseURL,
			TextModel: cfg.AI.TextModel,
			Timeout:   time.Duration(cfg.AI.TimeoutMs) * time.Millisecond,
		}))
		sess := studio.NewSession(store)
		if err := sess.Load(ctx, args[2]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		doc := sess.Document()
		text, err := svc.ContinueStory(ctx, ai.ContinueStoryInput{
			Content: doc.Content,
			Memory:  &doc.StoryMemory,
		})
		if err != nil {
			l.Error("continuation failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		if doc.Content != "" {
			text = "\n\n" + text
		}
		if err := sess.AppendContent(ctx, text); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(strings.TrimSpace(text))
	case "add-chapter":
		if len(args) < 3 {
			fmt.Println("add-chapter requires <id>")
			os.Exit(2)
		}
		sess := studio.NewSession(store)
		if err := sess.Load(ctx, args[2]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		title := ""
		if len(args) >= 4 {
			title = args[3]
		}
		ch, err := sess.AddChapter(ctx, title)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("Added chapter %d (%s)\n", ch.ChapterNumber, ch.Title)
	case "delete":
		if len(args) < 3 {
			fmt.Println("delete requires <id>")
			os.Exit(2)
		}
		if err := store.Delete(ctx, args[2]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Deleted", args[2])
	case "export-pdf":
		if len(args) < 4 {
			fmt.Println("export-pdf requires <id> and <out.pdf>")
			os.Exit(2)
		}
		doc := mustGet(ctx, store, args, l)
		if err := export.ExportPDF(doc, args[3], export.PDFOptions{IncludeText: true}); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Exported", args[3])
	case "export-json":
		if len(args) < 4 {
			fmt.Println("export-json requires <id> and <out.json>")
			os.Exit(2)
		}
		doc := mustGet(ctx, store, args, l)
		if err := transfer.Export(doc, args[3]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Exported", args[3])
	case "import-json":
		if len(args) < 3 {
			fmt.Println("import-json requires <in.json>")
			os.Exit(2)
		}
		doc, err := transfer.Import(ctx, store, args[2])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %s (%s)\n", doc.ID, doc.Title)
	default:
		usage()
		os.Exit(2)
	}
}

func openStore(cfg config.AppConfig) (storage.Store, error) {
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		return storage.OpenPostgres(context.Background(), dsn)
	}
	return storage.OpenSQLite(cfg.Storage.DataDir)
}

func mustGet(ctx context.Context, store storage.Store, args []string, l *slog.Logger) *domain.Document {
	if len(args) < 3 {
		fmt.Println("command requires <id>")
		os.Exit(2)
	}
	doc, err := store.Get(ctx, args[2])
	if err != nil {
		l.Error("get failed", slog.String("id", args[2]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return doc
}

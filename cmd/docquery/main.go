// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/budget"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/reindex"
	"github.com/poiesic/docquery/search"
)

func main() {
	app := &cli.App{
		Name:  "docquery",
		Usage: "Hybrid documentation search over markdown corpora",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest markdown files into the index",
				Action:    ingestCommand,
				ArgsUsage: "FILE [FILE...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.BoolFlag{
						Name:  "enrich",
						Usage: "Generate LLM explanations for each chunk",
					},
					&cli.StringFlag{
						Name:  "enrichment-host",
						Usage: "Enrichment LLM host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "enrichment-model",
						Usage: "Enrichment model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "library",
						Usage: "Library identifier recorded on every chunk",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "Library version recorded on every chunk",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source label recorded on every chunk",
					},
					&cli.StringSliceFlag{
						Name:  "topic",
						Usage: "Topic tag recorded on every chunk (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Mark ingested chunks as private",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the index",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Search type (vector, keyword, hybrid)",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultLimit,
					},
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Token budget for the result set (0 disables)",
					},
					&cli.BoolFlag{
						Name:  "preserve-sentences",
						Usage: "Truncate the last result at a sentence boundary",
					},
					&cli.BoolFlag{
						Name:  "rerank",
						Usage: "Apply multi-stage reranking",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "stored-scores",
						Usage: "Use quality scores computed at ingestion time",
					},
					&cli.StringFlag{
						Name:  "tokenizer",
						Usage: "Tokenizer encoding for the budget (heuristic when empty)",
					},
					&cli.StringFlag{
						Name:  "library",
						Usage: "Restrict results to a library",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "Restrict results to a library version",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Restrict results to a topic",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Deadline for the whole request",
						Value: 30 * time.Second,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored chunks with a new embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("at least one markdown file is required")
	}

	enrichmentHost := c.String("enrichment-host")
	if enrichmentHost == "" {
		enrichmentHost = c.String("embedding-host")
	}
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEnrichmentHost(enrichmentHost),
		ai.WithEnrichmentModel(c.String("enrichment-model")),
		ai.WithEnrichment(c.Bool("enrich")),
	)

	engine, err := docquery.NewEngine(c.String("db"), docquery.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	access := core.AccessPublic
	if c.Bool("private") {
		access = core.AccessPrivate
	}

	total := 0
	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		name := filepath.Base(path)
		doc := &ingestion.Document{
			ID:        path,
			Title:     strings.TrimSuffix(name, filepath.Ext(name)),
			Source:    c.String("source"),
			LibraryID: c.String("library"),
			Version:   c.String("version"),
			Topics:    c.StringSlice("topic"),
			Access:    access,
			Content:   string(content),
		}

		chunks, err := pipeline.Ingest(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		total += len(chunks)
		fmt.Fprintf(os.Stderr, "%s: %d chunks\n", path, len(chunks))
	}

	fmt.Fprintf(os.Stderr, "Ingested %d chunks from %d files\n", total, c.NArg())
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	engine, err := docquery.NewEngine(c.String("db"), docquery.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	var searcherOpts []search.Option
	if encoding := c.String("tokenizer"); encoding != "" {
		counter, err := budget.NewTiktokenCounter(encoding)
		if err != nil {
			return fmt.Errorf("failed to create tokenizer: %w", err)
		}
		searcherOpts = append(searcherOpts, search.WithTokenCounter(counter))
	}

	searcher, err := engine.NewSearcher(searcherOpts...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	response, err := searcher.Search(ctx, query, &search.SearchOptions{
		Type: search.SearchType(c.String("type")),
		Filters: core.SearchFilters{
			LibraryID: c.String("library"),
			Version:   c.String("version"),
			Topic:     c.String("topic"),
		},
		Limit:             c.Int("limit"),
		MaxTokens:         c.Int("max-tokens"),
		PreserveSentences: c.Bool("preserve-sentences"),
		UseReranking:      c.Bool("rerank"),
		UseStoredScores:   c.Bool("stored-scores"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, warning := range response.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if response.Partial {
		fmt.Fprintln(os.Stderr, "warning: deadline expired, results are partial")
	}

	fmt.Printf("Found %d hits\n", len(response.Results))
	for i, hit := range response.Results {
		title := hit.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d: %s [%0.3f]\n", i, title, hit.FinalScore)
		if hit.IsCodeSnippet {
			fmt.Printf("   code (%s)\n", hit.CodeLanguage)
		}
		fmt.Printf("   %s\n", firstLine(hit.Content))
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := docquery.NewEngine(c.String("db"), docquery.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer engine.Close()

	config := reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := engine.NewReindexer(config)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	result, err := reindexer.Run(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Reindexed %d of %d chunks (%d failed)\n",
		result.Processed, result.Total, result.Failed)
	return nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

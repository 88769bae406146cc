package github

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/studylens/studyrag/internal/engine"
	"github.com/studylens/studyrag/internal/markdown"
)

// ImportStats summarizes one ImportAll run.
type ImportStats struct {
	Listed   int
	Imported int
	Skipped  int
	Failed   int
}

// Importer pulls every markdown note from a repository directory and runs
// each one through the document pipeline.
type Importer struct {
	fetcher   *Fetcher
	converter *markdown.Converter
	engine    *engine.Engine
	logger    *slog.Logger
}

// NewImporter creates an importer over the given fetcher and engine.
func NewImporter(fetcher *Fetcher, eng *engine.Engine, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		fetcher:   fetcher,
		converter: markdown.NewConverter(),
		engine:    eng,
		logger:    logger,
	}
}

// ImportAll lists, fetches, and processes every note. A note that is too
// short to chunk is counted as skipped; any other per-note failure is
// counted and logged, and the run continues.
func (im *Importer) ImportAll(ctx context.Context) (ImportStats, error) {
	paths, err := im.fetcher.ListNotes(ctx)
	if err != nil {
		return ImportStats{}, err
	}

	stats := ImportStats{Listed: len(paths)}

	for _, notePath := range paths {
		if err := im.importOne(ctx, notePath); err != nil {
			if errors.Is(err, engine.ErrInsufficientContent) {
				im.logger.Info("note too short, skipping", "path", notePath)
				stats.Skipped++
				continue
			}
			im.logger.Error("note import failed", "path", notePath, "error", err)
			stats.Failed++
			continue
		}
		stats.Imported++
	}

	im.logger.Info("import complete",
		"listed", stats.Listed,
		"imported", stats.Imported,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return stats, nil
}

func (im *Importer) importOne(ctx context.Context, notePath string) error {
	note, err := im.fetcher.FetchNote(ctx, notePath)
	if err != nil {
		return err
	}

	source := []byte(note.Content)
	plain := im.converter.ToPlainText(source)

	outline, err := im.converter.Outline(source)
	if err != nil {
		im.logger.Warn("outline extraction failed", "path", notePath, "error", err)
		outline = nil
	}

	_, err = im.engine.ProcessDocument(ctx, engine.DocumentInput{
		ID:      DocumentID(notePath),
		Title:   noteTitle(notePath, outline),
		Text:    plain,
		Outline: outline,
	})
	return err
}

// DocumentID derives a stable document ID from a note's repository path.
func DocumentID(notePath string) string {
	id := strings.TrimSuffix(notePath, ".md")
	return strings.ReplaceAll(id, "/", "--")
}

// noteTitle prefers the note's top heading, falling back to its filename.
func noteTitle(notePath string, outline []string) string {
	if len(outline) > 0 {
		return outline[0]
	}
	base := strings.TrimSuffix(path.Base(notePath), ".md")
	return strings.ReplaceAll(base, "-", " ")
}

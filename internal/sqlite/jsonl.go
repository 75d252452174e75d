// This file provides JSONL export and import of whole recipes, so a
// knowledge base can be shared as a text file. Export writes atomically.
package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/recipes/pkg/types"
)

// maxRecordBytes bounds a single JSONL line. Recipe content is free text and
// easily exceeds bufio.Scanner's 64 KiB default.
const maxRecordBytes = 16 << 20

// recipeRecord is one line of an export file: a recipe with its children,
// without store-assigned ids.
type recipeRecord struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Content     string           `json:"content"`
	Keywords    []string         `json:"keywords,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Snippets    []snippetRecord  `json:"snippets,omitempty"`
	Addendums   []addendumRecord `json:"addendums,omitempty"`
}

type snippetRecord struct {
	Ref         string    `json:"ref"`
	Snippet     string    `json:"snippet"`
	Language    string    `json:"language,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type addendumRecord struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult reports what Import did with each line of its input.
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedLine `json:"skipped,omitempty"`
}

// SkippedLine is an input line that was not imported.
type SkippedLine struct {
	Line   int    `json:"line"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

func toRecord(d *types.RecipeDetail) recipeRecord {
	rec := recipeRecord{
		Title:       d.Title,
		Description: d.Description,
		Content:     d.Content,
		Keywords:    d.Keywords,
		CreatedAt:   d.CreatedAt,
	}
	for _, s := range d.Snippets {
		rec.Snippets = append(rec.Snippets, snippetRecord{
			Ref: s.Ref, Snippet: s.Snippet, Language: s.Language, Description: s.Description, CreatedAt: s.CreatedAt,
		})
	}
	for _, a := range d.Addendums {
		rec.Addendums = append(rec.Addendums, addendumRecord{Content: a.Content, CreatedAt: a.CreatedAt})
	}
	return rec
}

// Export writes every recipe, oldest first, to path as JSONL. It returns
// the number of recipes written.
func (b *Backend) Export(ctx context.Context, path string) (int, error) {
	var records []json.RawMessage
	err := b.read(ctx, "export", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT id FROM recipes ORDER BY created_at, id")
		if err != nil {
			return fmt.Errorf("listing recipes: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scanning recipe id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			d, err := loadRecipeDetail(ctx, tx, id)
			if err != nil {
				return err
			}
			line, err := json.Marshal(toRecord(d))
			if err != nil {
				return fmt.Errorf("encoding recipe %d: %w", id, err)
			}
			records = append(records, line)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, fmt.Errorf("%w: %w", types.ErrStorage, err)
	}
	b.log.Info("recipes exported", "path", path, "recipes", len(records))
	return len(records), nil
}

// Import adds every recipe in the JSONL file at path, keeping the recorded
// creation times. Each recipe commits on its own; a line that is malformed
// or fails validation is skipped and reported, and does not stop the rest.
func (b *Backend) Import(ctx context.Context, path string) (*ImportResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.importLocked(ctx, path)
}

func (b *Backend) importLocked(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrValidation, path, err)
	}
	defer f.Close()

	res := &ImportResult{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec recipeRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			res.Skipped = append(res.Skipped, SkippedLine{Line: n, Reason: "malformed JSON: " + err.Error()})
			continue
		}
		err := b.inTx(ctx, "import recipe", func(tx *sql.Tx) error {
			return b.importRecord(ctx, tx, rec)
		})
		switch {
		case err == nil:
			res.Imported++
		case types.IsUserError(err):
			res.Skipped = append(res.Skipped, SkippedLine{Line: n, Title: rec.Title, Reason: err.Error()})
		default:
			return res, err
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("%w: reading %s: %w", types.ErrStorage, path, err)
	}
	b.log.Info("recipes imported", "path", path, "imported", res.Imported, "skipped", len(res.Skipped))
	return res, nil
}

func (b *Backend) importRecord(ctx context.Context, tx *sql.Tx, rec recipeRecord) error {
	nr := types.NewRecipe{
		Title:       rec.Title,
		Description: rec.Description,
		Content:     rec.Content,
		Keywords:    strings.Join(rec.Keywords, ","),
	}
	for _, s := range rec.Snippets {
		nr.Snippets = append(nr.Snippets, types.NewSnippet{
			Ref: s.Ref, Snippet: s.Snippet, Language: s.Language, Description: s.Description,
		})
	}
	if err := nr.Validate(); err != nil {
		return err
	}

	created := b.stamp(rec.CreatedAt)
	snippets := nr.Snippets
	nr.Snippets = nil
	id, err := b.insertRecipe(ctx, tx, nr, created)
	if err != nil {
		return err
	}
	for i, s := range snippets {
		ts := rec.Snippets[i].CreatedAt
		if ts.IsZero() {
			ts = rec.CreatedAt
		}
		if _, err := insertSnippet(ctx, tx, id, s, b.stamp(ts)); err != nil {
			return err
		}
	}
	for _, a := range rec.Addendums {
		if strings.TrimSpace(a.Content) == "" {
			continue
		}
		if _, err := insertAddendum(ctx, tx, id, a.Content, b.stamp(a.CreatedAt)); err != nil {
			return err
		}
	}
	return nil
}

// stamp formats t, or the current time when t is unset.
func (b *Backend) stamp(t time.Time) string {
	if t.IsZero() {
		return b.timestamp()
	}
	return formatTime(t)
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// isMissingFile reports whether err means the file does not exist.
func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

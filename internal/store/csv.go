package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"attendance-bot/internal/model"
)

// CSVBackend keeps the ledger in a single CSV file.
type CSVBackend struct {
	path string
}

// NewCSVBackend creates a backend for the file at path.
func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{path: path}
}

// Load reads all rows. A missing file is an empty ledger.
func (b *CSVBackend) Load(ctx context.Context) ([]model.SessionRecord, error) {
	f, err := os.Open(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	rows := make([]model.SessionRecord, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := decodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Save rewrites the file atomically: rows go to a temporary file that then replaces the ledger.
func (b *CSVBackend) Save(ctx context.Context, rows []model.SessionRecord) error {
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp ledger file: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write(encodeRow(r)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger file: %w", err)
	}

	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chris-regnier/assay/internal/sarif"
)

// FileStore writes each run to <dir>/<id>/{sarif,verdict}.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) resultDir(id string) string {
	return filepath.Join(s.dir, id)
}

func (s *FileStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error) {
	_, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	id := generateID()
	dir := s.resultDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fail(span, err)
	}
	if err := writeJSON(filepath.Join(dir, "sarif.json"), doc); err != nil {
		return "", fail(span, err)
	}

	span.SetAttributes(
		attribute.String("assay.store.id", id),
		attribute.Int("assay.store.result_count", resultCount(doc)),
	)
	return id, nil
}

func (s *FileStore) WriteVerdict(ctx context.Context, sarifID string, verdict *Verdict) error {
	_, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	dir := s.resultDir(sarifID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(span, fmt.Errorf("run %s: %w", sarifID, ErrNotFound))
		}
		return fail(span, err)
	}
	if err := writeJSON(filepath.Join(dir, "verdict.json"), verdict); err != nil {
		return fail(span, err)
	}

	span.SetAttributes(
		attribute.String("assay.store.id", sarifID),
		attribute.String("assay.decision", verdict.Decision),
	)
	return nil
}

func (s *FileStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := readJSON(filepath.Join(s.resultDir(id), "sarif.json"), &log); err != nil {
		return nil, fmt.Errorf("reading sarif for %s: %w", id, err)
	}
	return &log, nil
}

func (s *FileStore) ReadVerdict(ctx context.Context, sarifID string) (*Verdict, error) {
	var v Verdict
	if err := readJSON(filepath.Join(s.resultDir(sarifID), "verdict.json"), &v); err != nil {
		return nil, fmt.Errorf("reading verdict for %s: %w", sarifID, err)
	}
	return &v, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

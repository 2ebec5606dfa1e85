package store

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"sjsage522/carlistingworker/internal/crawler"
	"sjsage522/carlistingworker/logger"
	"sjsage522/carlistingworker/pkg/errors"
)

// utf8BOM lets spreadsheet tools detect the encoding of the Czech headers
const utf8BOM = "\ufeff"

// Stats summarises one merge
type Stats struct {
	Added int
	Total int

	// New holds the records behind the added rows, in input order
	New []crawler.ListingRecord
}

// CSVStore is the persisted per-site dataset. It is rewritten as a whole on
// every merge; callers must not run two merges against one path at once.
type CSVStore struct {
	path       string
	withEngine bool
	log        *logger.Logger
}

// NewCSVStore creates a store at path; withEngine adds the displacement column
func NewCSVStore(path string, withEngine bool) *CSVStore {
	return &CSVStore{
		path:       path,
		withEngine: withEngine,
		log:        logger.ForStore().WithFields(logger.Fields{"path": path, "engine": withEngine}),
	}
}

// Path returns the file backing the store
func (s *CSVStore) Path() string {
	return s.path
}

// MergeAndSave appends records to the existing rows, drops rows identical to an
// earlier one and replaces the file with the result.
func (s *CSVStore) MergeAndSave(records []crawler.ListingRecord) (Stats, error) {
	existing, err := s.Load()
	if err != nil {
		return Stats{}, err
	}

	seen := make(map[string]struct{}, len(existing)+len(records))
	rows := make([][]string, 0, len(existing)+len(records))
	for _, row := range existing {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	stats := Stats{}
	for _, record := range records {
		row := record.Row(s.withEngine)
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
		stats.New = append(stats.New, record)
	}
	stats.Added = len(stats.New)
	stats.Total = len(rows)

	if err := s.write(rows); err != nil {
		return Stats{}, err
	}

	s.log.Info().
		Int("existing", len(existing)).
		Int("added", stats.Added).
		Int("total", stats.Total).
		Msg("Store merged")
	return stats, nil
}

// Load reads the data rows of the store. A missing or empty file is an empty store.
func (s *CSVStore) Load() ([][]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStore(s.path, "read failed", err)
	}

	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(crawler.Columns(s.withEngine))

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewStore(s.path, "header unreadable", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !slices.Equal(header, crawler.Columns(s.withEngine)) {
		return nil, errors.NewStore(s.path, fmt.Sprintf("unexpected header %v", header), nil)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewStore(s.path, "row unreadable", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// write replaces the store through a temp file in the same directory
func (s *CSVStore) write(rows [][]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStore(s.path, "create output dir", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewStore(s.path, "create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	buf := bufio.NewWriter(tmp)
	if _, err := buf.WriteString(utf8BOM); err != nil {
		tmp.Close()
		return errors.NewStore(s.path, "write BOM", err)
	}

	w := csv.NewWriter(buf)
	if err := w.Write(crawler.Columns(s.withEngine)); err != nil {
		tmp.Close()
		return errors.NewStore(s.path, "write header", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return errors.NewStore(s.path, "write rows", err)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return errors.NewStore(s.path, "flush", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStore(s.path, "close temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.NewStore(s.path, "replace store", err)
	}
	return nil
}

func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// csvSource is a list of page URLs kept in the first column of a CSV file,
// below a header row
type csvSource struct {
	path string
}

func newCSVSource(path string) (*csvSource, error) {
	if path == "" {
		return nil, errors.New("input path cannot be empty")
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("input file does not exist: %s", path)
	case err != nil:
		return nil, fmt.Errorf("cannot access input file: %w", err)
	case info.IsDir():
		return nil, fmt.Errorf("input path is a directory: %s", path)
	}

	return &csvSource{path: path}, nil
}

// extract returns the non-blank URLs in file order. Rows may have any
// number of columns; only the first is read
func (s *csvSource) extract(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file is empty or missing header")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var urls []string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return urls, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if u := strings.TrimSpace(row[0]); u != "" {
			urls = append(urls, u)
		}
	}
}

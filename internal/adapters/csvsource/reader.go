package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"vetdir/internal/domain"
)

// Source reads one or more CSV exports into header-keyed rows. Files are
// parsed concurrently under a bounded semaphore, but rows are merged in
// argument order so the builder sees a deterministic input sequence.
type Source struct {
	paths   []string
	workers int
}

func New(paths []string, workers int) *Source {
	if workers <= 0 {
		workers = 4
	}
	return &Source{paths: paths, workers: workers}
}

func (s *Source) Rows(ctx context.Context) ([]domain.SourceRow, error) {
	perFile := make([][]domain.SourceRow, len(s.paths))
	errs := make([]error, len(s.paths))

	sem := semaphore.NewWeighted(int64(s.workers))
	var wg sync.WaitGroup
	for i, path := range s.paths {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			perFile[i], errs[i] = readFile(path)
		}(i, path)
	}
	wg.Wait()

	var out []domain.SourceRow
	for i := range s.paths {
		if errs[i] != nil {
			return nil, fmt.Errorf("%s: %w", s.paths[i], errs[i])
		}
		out = append(out, perFile[i]...)
	}
	return out, nil
}

func readFile(path string) ([]domain.SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV from r. The first record is the header (trimmed); a source
// with no header row at all is a fatal parse error, not an empty result.
func Read(r io.Reader) ([]domain.SourceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows; missing cells stay absent

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty source: no header row")
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.SourceRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(domain.SourceRow, len(header))
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			row[h] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

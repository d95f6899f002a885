package catalogfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vetdir/internal/domain"
)

// Store persists the catalog as a single JSON flat-file artifact, the only
// durable state this system keeps. The builder writes it once per run; the
// API loads it once at startup and treats it as read-only.
type Store struct{ path string }

func New(path string) *Store { return &Store{path: path} }

// Save writes atomically: temp file in the target directory, then rename, so
// a crashed build never leaves a partial artifact behind.
func (s *Store) Save(_ context.Context, c domain.Catalog) error {
	if c.Cities == nil {
		c.Cities = []domain.City{}
	}
	if c.AllItems == nil {
		c.AllItems = []domain.BusinessRecord{}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) Load(_ context.Context) (domain.Catalog, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog artifact: %w", err)
	}
	var c domain.Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog artifact: %w", err)
	}
	return c, nil
}

package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// SourceRow is one raw tabular record, keyed by trimmed header name.
type SourceRow map[string]string

// RowSource yields the raw records the builder consumes. An error here is
// fatal for the build run; row-level problems are the builder's to absorb.
type RowSource interface {
	Rows(ctx context.Context) ([]SourceRow, error)
}

// CatalogStore persists the build artifact and hands it to the read path.
type CatalogStore interface {
	Save(ctx context.Context, c Catalog) error
	Load(ctx context.Context) (Catalog, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

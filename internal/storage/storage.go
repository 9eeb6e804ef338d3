// Package storage persists harvested posts and comments behind a common
// backend contract. Three variants are provided: a sqlite database, a pair
// of JSON array files and a pair of CSV tables. All of them upsert by
// record identifier, so re-running a harvest overwrites rather than
// duplicates.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// Backend is implemented by every storage variant. Result ordering of the
// Get methods is backend-native and must not be relied upon. Backends are
// not safe for concurrent use; Close is safe to call more than once.
type Backend interface {
	SavePosts(ctx context.Context, posts []domain.Post) error
	SaveComments(ctx context.Context, comments []domain.Comment) error
	GetPosts(ctx context.Context, filter Filter) ([]domain.Post, error)
	GetComments(ctx context.Context, filter Filter) ([]domain.Comment, error)
	Close() error
}

// Kind tags a storage variant.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindJSON   Kind = "json"
	KindCSV    Kind = "csv"
)

// Options carries per-variant construction settings. Each variant reads
// its own subset and ignores the rest.
type Options struct {
	// DBPath is the sqlite database file. Defaults to reddit_data.db.
	DBPath string
	// DataDir is the directory holding the JSON or CSV files. Defaults
	// to data.
	DataDir string
	// Logger receives save/load progress. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// New constructs the backend selected by kind. An unrecognized kind is a
// configuration error.
func New(kind Kind, opts Options) (Backend, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindSQLite:
		path := opts.DBPath
		if path == "" {
			path = "reddit_data.db"
		}
		return NewSQLiteStore(path, opts.logger())
	case KindJSON:
		return NewJSONStore(dataDir(opts), opts.logger())
	case KindCSV:
		return NewCSVStore(dataDir(opts), opts.logger())
	}
	return nil, fmt.Errorf("%w: %q (use sqlite, json or csv)", ErrUnknownKind, string(kind))
}

func dataDir(opts Options) string {
	if opts.DataDir != "" {
		return opts.DataDir
	}
	return "data"
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// JSONStore is the document-file variant: posts.json and comments.json,
// each one JSON array of objects with timestamps as RFC 3339 strings.
// A save loads the whole array, overlays records by identifier and
// rewrites the file, so a crash mid-write can corrupt the target file.
type JSONStore struct {
	postsFile    string
	commentsFile string
	logger       *slog.Logger
}

var _ Backend = (*JSONStore)(nil)

// NewJSONStore creates dataDir if needed and seeds empty array files.
func NewJSONStore(dataDir string, log *slog.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	store := &JSONStore{
		postsFile:    filepath.Join(dataDir, "posts.json"),
		commentsFile: filepath.Join(dataDir, "comments.json"),
		logger:       log,
	}
	for _, file := range []string{store.postsFile, store.commentsFile} {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			if err := os.WriteFile(file, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("initializing %s: %w", file, err)
			}
		}
	}
	log.Info("initialized json storage", "dir", dataDir)
	return store, nil
}

func (s *JSONStore) SavePosts(_ context.Context, posts []domain.Post) error {
	existing, err := readJSON[domain.Post](s.postsFile)
	if err != nil {
		return err
	}
	if err := writeJSON(s.postsFile, overlay(existing, posts, func(p domain.Post) string { return p.ID })); err != nil {
		return err
	}
	s.logger.Info("saved posts to json file", "count", len(posts))
	return nil
}

func (s *JSONStore) SaveComments(_ context.Context, comments []domain.Comment) error {
	existing, err := readJSON[domain.Comment](s.commentsFile)
	if err != nil {
		return err
	}
	if err := writeJSON(s.commentsFile, overlay(existing, comments, func(c domain.Comment) string { return c.ID })); err != nil {
		return err
	}
	s.logger.Info("saved comments to json file", "count", len(comments))
	return nil
}

func (s *JSONStore) GetPosts(_ context.Context, filter Filter) ([]domain.Post, error) {
	if err := filter.Validate(postFields); err != nil {
		return nil, err
	}
	posts, err := readJSON[domain.Post](s.postsFile)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return posts, nil
	}
	var matched []domain.Post
	for _, post := range posts {
		if MatchPost(post, filter) {
			matched = append(matched, post)
		}
	}
	return matched, nil
}

func (s *JSONStore) GetComments(_ context.Context, filter Filter) ([]domain.Comment, error) {
	if err := filter.Validate(commentFields); err != nil {
		return nil, err
	}
	comments, err := readJSON[domain.Comment](s.commentsFile)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return comments, nil
	}
	var matched []domain.Comment
	for _, comment := range comments {
		if MatchComment(comment, filter) {
			matched = append(matched, comment)
		}
	}
	return matched, nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *JSONStore) Close() error { return nil }

// overlay merges incoming records over existing ones by identifier:
// an existing record keeps its position and is replaced wholesale, new
// records append in input order.
func overlay[T any](existing, incoming []T, id func(T) string) []T {
	index := make(map[string]int, len(existing))
	for i, item := range existing {
		index[id(item)] = i
	}
	merged := existing
	for _, item := range incoming {
		if i, ok := index[id(item)]; ok {
			merged[i] = item
		} else {
			index[id(item)] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged
}

func readJSON[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return items, nil
}

func writeJSON[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// CSVStore is the tabular-file variant: posts.csv and comments.csv with a
// header row. A save reads the existing table, appends the new rows,
// drops duplicate identifiers keeping the newest occurrence and rewrites
// the whole file.
type CSVStore struct {
	postsFile    string
	commentsFile string
	logger       *slog.Logger
}

var _ Backend = (*CSVStore)(nil)

var (
	postHeader = []string{
		"id", "title", "author", "created_utc", "score", "upvote_ratio",
		"num_comments", "url", "selftext", "is_self", "permalink", "flair",
		"domain", "is_video", "is_original_content", "subreddit",
	}
	commentHeader = []string{
		"id", "post_id", "parent_id", "author", "created_utc", "score",
		"body", "permalink", "depth", "is_submitter", "subreddit",
	}
)

// NewCSVStore creates dataDir if needed. The table files are created
// lazily on first save.
func NewCSVStore(dataDir string, log *slog.Logger) (*CSVStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	log.Info("initialized csv storage", "dir", dataDir)
	return &CSVStore{
		postsFile:    filepath.Join(dataDir, "posts.csv"),
		commentsFile: filepath.Join(dataDir, "comments.csv"),
		logger:       log,
	}, nil
}

func (s *CSVStore) SavePosts(_ context.Context, posts []domain.Post) error {
	existing, err := readCSV(s.postsFile, postHeader, parsePostRow)
	if err != nil {
		return err
	}
	merged := keepLast(append(existing, posts...), func(p domain.Post) string { return p.ID })
	if err := writeCSV(s.postsFile, postHeader, merged, postRow); err != nil {
		return err
	}
	s.logger.Info("saved posts to csv file", "count", len(posts))
	return nil
}

func (s *CSVStore) SaveComments(_ context.Context, comments []domain.Comment) error {
	existing, err := readCSV(s.commentsFile, commentHeader, parseCommentRow)
	if err != nil {
		return err
	}
	merged := keepLast(append(existing, comments...), func(c domain.Comment) string { return c.ID })
	if err := writeCSV(s.commentsFile, commentHeader, merged, commentRow); err != nil {
		return err
	}
	s.logger.Info("saved comments to csv file", "count", len(comments))
	return nil
}

func (s *CSVStore) GetPosts(_ context.Context, filter Filter) ([]domain.Post, error) {
	if err := filter.Validate(postFields); err != nil {
		return nil, err
	}
	posts, err := readCSV(s.postsFile, postHeader, parsePostRow)
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

func (s *CSVStore) GetComments(_ context.Context, filter Filter) ([]domain.Comment, error) {
	if err := filter.Validate(commentFields); err != nil {
		return nil, err
	}
	comments, err := readCSV(s.commentsFile, commentHeader, parseCommentRow)
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

// Close is a no-op; files are opened per call.
func (s *CSVStore) Close() error { return nil }

// keepLast drops duplicate identifiers, keeping the newest occurrence at
// its own position in the combined order.
func keepLast[T any](items []T, id func(T) string) []T {
	last := make(map[string]int, len(items))
	for i, item := range items {
		last[id(item)] = i
	}
	out := make([]T, 0, len(last))
	for i, item := range items {
		if last[id(item)] == i {
			out = append(out, item)
		}
	}
	return out
}

func readCSV[T any](path string, header []string, parse func([]string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(header)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []T
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		item, err := parse(row)
		if err != nil {
			return nil, fmt.Errorf("parsing %s row %d: %w", path, i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func writeCSV[T any](path string, header []string, items []T, row func(T) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", path, err)
	}
	for _, item := range items {
		if err := writer.Write(row(item)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func postRow(p domain.Post) []string {
	return []string{
		p.ID,
		p.Title,
		p.Author,
		formatTime(p.CreatedUTC),
		strconv.Itoa(p.Score),
		strconv.FormatFloat(p.UpvoteRatio, 'g', -1, 64),
		strconv.Itoa(p.NumComments),
		p.URL,
		p.Selftext,
		strconv.FormatBool(p.IsSelf),
		p.Permalink,
		p.Flair,
		p.Domain,
		strconv.FormatBool(p.IsVideo),
		strconv.FormatBool(p.IsOriginalContent),
		p.Subreddit,
	}
}

func parsePostRow(row []string) (domain.Post, error) {
	score, err := strconv.Atoi(row[4])
	if err != nil {
		return domain.Post{}, fmt.Errorf("score: %w", err)
	}
	ratio, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return domain.Post{}, fmt.Errorf("upvote_ratio: %w", err)
	}
	numComments, err := strconv.Atoi(row[6])
	if err != nil {
		return domain.Post{}, fmt.Errorf("num_comments: %w", err)
	}
	isSelf, err := strconv.ParseBool(row[9])
	if err != nil {
		return domain.Post{}, fmt.Errorf("is_self: %w", err)
	}
	isVideo, err := strconv.ParseBool(row[13])
	if err != nil {
		return domain.Post{}, fmt.Errorf("is_video: %w", err)
	}
	isOC, err := strconv.ParseBool(row[14])
	if err != nil {
		return domain.Post{}, fmt.Errorf("is_original_content: %w", err)
	}
	return domain.Post{
		ID:                row[0],
		Title:             row[1],
		Author:            row[2],
		CreatedUTC:        parseTime(row[3]),
		Score:             score,
		UpvoteRatio:       ratio,
		NumComments:       numComments,
		URL:               row[7],
		Selftext:          row[8],
		IsSelf:            isSelf,
		Permalink:         row[10],
		Flair:             row[11],
		Domain:            row[12],
		IsVideo:           isVideo,
		IsOriginalContent: isOC,
		Subreddit:         row[15],
	}, nil
}

func commentRow(c domain.Comment) []string {
	return []string{
		c.ID,
		c.PostID,
		c.ParentID,
		c.Author,
		formatTime(c.CreatedUTC),
		strconv.Itoa(c.Score),
		c.Body,
		c.Permalink,
		strconv.Itoa(c.Depth),
		strconv.FormatBool(c.IsSubmitter),
		c.Subreddit,
	}
}

func parseCommentRow(row []string) (domain.Comment, error) {
	score, err := strconv.Atoi(row[5])
	if err != nil {
		return domain.Comment{}, fmt.Errorf("score: %w", err)
	}
	depth, err := strconv.Atoi(row[8])
	if err != nil {
		return domain.Comment{}, fmt.Errorf("depth: %w", err)
	}
	isSubmitter, err := strconv.ParseBool(row[9])
	if err != nil {
		return domain.Comment{}, fmt.Errorf("is_submitter: %w", err)
	}
	return domain.Comment{
		ID:          row[0],
		PostID:      row[1],
		ParentID:    row[2],
		Author:      row[3],
		CreatedUTC:  parseTime(row[4]),
		Score:       score,
		Body:        row[6],
		Permalink:   row[7],
		Depth:       depth,
		IsSubmitter: isSubmitter,
		Subreddit:   row[10],
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime tolerates bad timestamps: the zero time stands in for an
// unparsable value and is dropped by the cleaning date filter.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

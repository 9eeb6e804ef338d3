package cleaner

import (
	"log/slog"
	"time"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// Cleaner runs the batch pipeline over posts and comments. Stages apply
// in a fixed order: dedupe, date window, score window, text cleaning.
// Every stage returns a new batch; inputs are never mutated.
type Cleaner struct {
	normalizer *Normalizer
	logger     *slog.Logger
}

func New(normalizer *Normalizer, logger *slog.Logger) *Cleaner {
	return &Cleaner{normalizer: normalizer, logger: logger}
}

// PostOptions toggles the post cleaning stages. Nil window bounds leave
// that side open; both nil skips the stage entirely.
type PostOptions struct {
	Dedupe        bool
	CleanTitle    bool
	CleanSelftext bool
	MinScore      *int
	MaxScore      *int
	StartDate     *time.Time
	EndDate       *time.Time
}

// CommentOptions is the comment counterpart of PostOptions.
type CommentOptions struct {
	Dedupe    bool
	CleanBody bool
	MinScore  *int
	MaxScore  *int
	StartDate *time.Time
	EndDate   *time.Time
}

func (c *Cleaner) CleanPosts(posts []domain.Post, opts PostOptions) []domain.Post {
	in := len(posts)
	if opts.Dedupe {
		posts = Dedupe(posts, func(p domain.Post) string { return p.ID })
	}
	posts = FilterByDate(posts, func(p domain.Post) time.Time { return p.CreatedUTC }, opts.StartDate, opts.EndDate)
	posts = FilterByScore(posts, func(p domain.Post) int { return p.Score }, opts.MinScore, opts.MaxScore)
	if opts.CleanTitle || opts.CleanSelftext {
		cleaned := make([]domain.Post, len(posts))
		for i, post := range posts {
			if opts.CleanTitle {
				post.Title = c.normalizer.Normalize(post.Title)
			}
			if opts.CleanSelftext {
				post.Selftext = c.normalizer.Normalize(post.Selftext)
			}
			cleaned[i] = post
		}
		posts = cleaned
	}
	c.logger.Info("cleaned posts", "in", in, "out", len(posts))
	return posts
}

func (c *Cleaner) CleanComments(comments []domain.Comment, opts CommentOptions) []domain.Comment {
	in := len(comments)
	if opts.Dedupe {
		comments = Dedupe(comments, func(cm domain.Comment) string { return cm.ID })
	}
	comments = FilterByDate(comments, func(cm domain.Comment) time.Time { return cm.CreatedUTC }, opts.StartDate, opts.EndDate)
	comments = FilterByScore(comments, func(cm domain.Comment) int { return cm.Score }, opts.MinScore, opts.MaxScore)
	if opts.CleanBody {
		cleaned := make([]domain.Comment, len(comments))
		for i, comment := range comments {
			comment.Body = c.normalizer.Normalize(comment.Body)
			cleaned[i] = comment
		}
		comments = cleaned
	}
	c.logger.Info("cleaned comments", "in", in, "out", len(comments))
	return comments
}

// Dedupe collapses records sharing an identifier. The last occurrence in
// input order wins, mirroring the storage upsert policy; the record keeps
// the position of its first occurrence.
func Dedupe[T any](items []T, id func(T) string) []T {
	index := make(map[string]int, len(items))
	var out []T
	for _, item := range items {
		if i, ok := index[id(item)]; ok {
			out[i] = item
			continue
		}
		index[id(item)] = len(out)
		out = append(out, item)
	}
	return out
}

// FilterByDate keeps records whose timestamp falls inside the inclusive
// [start, end] window. A zero timestamp stands for an unparsable value:
// it is dropped when any bound is supplied and passed through otherwise.
func FilterByDate[T any](items []T, at func(T) time.Time, start, end *time.Time) []T {
	if start == nil && end == nil {
		return items
	}
	var out []T
	for _, item := range items {
		t := at(item)
		if t.IsZero() {
			continue
		}
		if start != nil && t.Before(*start) {
			continue
		}
		if end != nil && t.After(*end) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FilterByScore keeps records whose score falls inside the inclusive
// [min, max] window.
func FilterByScore[T any](items []T, score func(T) int, min, max *int) []T {
	if min == nil && max == nil {
		return items
	}
	var out []T
	for _, item := range items {
		s := score(item)
		if min != nil && s < *min {
			continue
		}
		if max != nil && s > *max {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FilterFunc keeps records for which keep returns true. It is the ad-hoc
// predicate hook, not part of the fixed pipeline order.
func FilterFunc[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

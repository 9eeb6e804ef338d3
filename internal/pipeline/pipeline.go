// Package pipeline wires the harvester run together: fetch posts and
// their comment forests, clean the batches, upsert them into storage and
// verify the stored snapshot.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rharvest/reddit-harvester/internal/cleaner"
	"github.com/rharvest/reddit-harvester/internal/domain"
	"github.com/rharvest/reddit-harvester/internal/retry"
	"github.com/rharvest/reddit-harvester/internal/storage"
)

// Options carries the per-run settings.
type Options struct {
	Targets      []domain.Target
	Limit        int
	Sort         domain.PostSort
	Time         domain.TimeFilter
	CommentSort  domain.CommentSort
	CommentLimit int

	// Query, when set, switches the post fetch to subreddit search
	// ordered by SearchSort.
	Query      string
	SearchSort domain.SearchSort

	// MinScore overrides any per-target score floor when set.
	MinScore  *int
	StartDate *time.Time
	EndDate   *time.Time
	CleanText bool

	// Keywords, when non-empty, keeps only posts whose title mentions at
	// least one of them (case-insensitive).
	Keywords []string
}

// Pipeline runs fetch, clean, store.
type Pipeline struct {
	collector domain.Collector
	store     storage.Backend
	cleaner   *cleaner.Cleaner
	policy    retry.Policy
	logger    *slog.Logger
}

func New(col domain.Collector, store storage.Backend, cl *cleaner.Cleaner, policy retry.Policy, logger *slog.Logger) *Pipeline {
	return &Pipeline{collector: col, store: store, cleaner: cl, policy: policy, logger: logger}
}

// Run harvests every target in sequence. The first failing target aborts
// the run; transient fetch failures are retried per the policy first.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	for _, target := range opts.Targets {
		if err := p.runTarget(ctx, target, opts); err != nil {
			return fmt.Errorf("harvesting r/%s: %w", target.Subreddit, err)
		}
	}
	return nil
}

func (p *Pipeline) runTarget(ctx context.Context, target domain.Target, opts Options) error {
	posts, err := p.fetchPosts(ctx, target, opts)
	if err != nil {
		return err
	}

	// Sort modes are configuration; an invalid one fails here, before
	// any attempt spends the retry budget.
	commentQuery := domain.CommentQuery{
		Limit: opts.CommentLimit,
		Sort:  opts.CommentSort,
	}
	if err := commentQuery.Validate(); err != nil {
		return err
	}

	var comments []domain.Comment
	for _, post := range posts {
		commentQuery.PostID = post.ID
		postComments, err := retry.Do(ctx, p.logger, p.policy, "fetch comments", func(ctx context.Context) ([]domain.Comment, error) {
			return p.collector.FetchComments(ctx, commentQuery)
		})
		if err != nil {
			return err
		}
		comments = append(comments, postComments...)
	}
	p.logger.Info("fetched", "subreddit", target.Subreddit, "posts", len(posts), "comments", len(comments))

	minScore := opts.MinScore
	if minScore == nil && target.MinScore > 0 {
		floor := target.MinScore
		minScore = &floor
	}
	posts = p.cleaner.CleanPosts(posts, cleaner.PostOptions{
		Dedupe:        true,
		CleanTitle:    opts.CleanText,
		CleanSelftext: opts.CleanText,
		MinScore:      minScore,
		StartDate:     opts.StartDate,
		EndDate:       opts.EndDate,
	})
	comments = p.cleaner.CleanComments(comments, cleaner.CommentOptions{
		Dedupe:    true,
		CleanBody: opts.CleanText,
		MinScore:  minScore,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
	})

	if len(opts.Keywords) > 0 {
		posts = cleaner.FilterFunc(posts, func(post domain.Post) bool {
			title := strings.ToLower(post.Title)
			for _, keyword := range opts.Keywords {
				if strings.Contains(title, keyword) {
					return true
				}
			}
			return false
		})
	}

	if err := p.store.SavePosts(ctx, posts); err != nil {
		return err
	}
	if err := p.store.SaveComments(ctx, comments); err != nil {
		return err
	}

	storedPosts, err := p.store.GetPosts(ctx, nil)
	if err != nil {
		return err
	}
	storedComments, err := p.store.GetComments(ctx, nil)
	if err != nil {
		return err
	}
	p.logger.Info("verified storage", "subreddit", target.Subreddit,
		"stored_posts", len(storedPosts), "stored_comments", len(storedComments))
	return nil
}

// fetchPosts picks the listing or search path. Queries are validated
// before entering retry so configuration errors are never retried.
func (p *Pipeline) fetchPosts(ctx context.Context, target domain.Target, opts Options) ([]domain.Post, error) {
	if opts.Query != "" {
		query := domain.SearchQuery{
			Subreddit: target.Subreddit,
			Query:     opts.Query,
			Limit:     opts.Limit,
			Sort:      opts.SearchSort,
			Time:      opts.Time,
		}
		if err := query.Validate(); err != nil {
			return nil, err
		}
		return retry.Do(ctx, p.logger, p.policy, "search posts", func(ctx context.Context) ([]domain.Post, error) {
			return p.collector.SearchPosts(ctx, query)
		})
	}

	query := domain.PostQuery{
		Subreddit: target.Subreddit,
		Limit:     opts.Limit,
		Sort:      opts.Sort,
		Time:      opts.Time,
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return retry.Do(ctx, p.logger, p.policy, "fetch posts", func(ctx context.Context) ([]domain.Post, error) {
		return p.collector.FetchPosts(ctx, query)
	})
}

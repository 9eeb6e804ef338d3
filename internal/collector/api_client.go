// Package collector fetches posts and comment forests from reddit. Three
// implementations sit behind the factory: the authenticated API client,
// the public JSON client and a mock for offline runs and tests.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"

	"github.com/rharvest/reddit-harvester/internal/config"
	"github.com/rharvest/reddit-harvester/internal/domain"
)

// APIClient talks to the authenticated reddit API. A token-bucket limiter
// enforces the minimum delay between successive remote calls.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ domain.Collector = (*APIClient)(nil)

func NewAPIClient(creds config.Credentials, minDelay time.Duration, logger *slog.Logger) (*APIClient, error) {
	if err := creds.ValidateForAPI(); err != nil {
		return nil, err
	}
	client, err := reddit.NewClient(reddit.Credentials{
		ID:       creds.ClientID,
		Secret:   creds.ClientSecret,
		Username: creds.Username,
		Password: creds.Password,
	}, reddit.WithUserAgent(creds.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("creating reddit client: %w", err)
	}
	logger.Info("api collector leaves flair, is_video and is_original_content unset",
		"reason", "not exposed by the client library")
	return &APIClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
		logger:  logger,
	}, nil
}

func (c *APIClient) FetchPosts(ctx context.Context, q domain.PostQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("fetching posts", "subreddit", q.Subreddit, "sort", string(q.Sort), "limit", q.Limit)

	listOpts := &reddit.ListOptions{Limit: q.Limit}
	timedOpts := &reddit.ListPostOptions{ListOptions: *listOpts, Time: string(q.Time)}

	var (
		posts []*reddit.Post
		err   error
	)
	switch q.Sort {
	case domain.SortHot:
		posts, _, err = c.client.Subreddit.HotPosts(ctx, q.Subreddit, listOpts)
	case domain.SortNew:
		posts, _, err = c.client.Subreddit.NewPosts(ctx, q.Subreddit, listOpts)
	case domain.SortRising:
		posts, _, err = c.client.Subreddit.RisingPosts(ctx, q.Subreddit, listOpts)
	case domain.SortTop:
		posts, _, err = c.client.Subreddit.TopPosts(ctx, q.Subreddit, timedOpts)
	case domain.SortControversial:
		posts, _, err = c.client.Subreddit.ControversialPosts(ctx, q.Subreddit, timedOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s posts from r/%s: %w", q.Sort, q.Subreddit, err)
	}

	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		result = append(result, fromAPIPost(p))
	}
	return result, nil
}

// SearchPosts queries reddit's search restricted to the subreddit.
func (c *APIClient) SearchPosts(ctx context.Context, q domain.SearchQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("searching posts", "subreddit", q.Subreddit, "query", q.Query, "sort", string(q.Sort), "limit", q.Limit)

	opts := &reddit.ListPostSearchOptions{
		ListPostOptions: reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: q.Limit},
			Time:        string(q.Time),
		},
		Sort: string(q.Sort),
	}
	posts, _, err := c.client.Subreddit.SearchPosts(ctx, q.Query, q.Subreddit, opts)
	if err != nil {
		return nil, fmt.Errorf("searching r/%s for %q: %w", q.Subreddit, q.Query, err)
	}

	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		result = append(result, fromAPIPost(p))
	}
	return result, nil
}

// FetchComments retrieves the whole reply forest of a post. The upstream
// client library exposes no sort parameter, so the listing arrives in the
// post's suggested order; the sort mode is still validated.
func (c *APIClient) FetchComments(ctx context.Context, q domain.CommentQuery) ([]domain.Comment, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("fetching comments", "post_id", q.PostID, "sort", string(q.Sort))

	pc, _, err := c.client.Post.Get(ctx, q.PostID)
	if err != nil {
		return nil, fmt.Errorf("fetching comments for post %s: %w", q.PostID, err)
	}
	return flattenComments(q.PostID, pc.Comments, q.Limit), nil
}

// flattenComments walks the forest with an explicit work queue: top-level
// comments seed the queue, each visited comment appends its replies at the
// tail. The resulting order is preserved as insertion order downstream.
func flattenComments(postID string, roots []*reddit.Comment, limit int) []domain.Comment {
	type item struct {
		comment *reddit.Comment
		depth   int
	}
	queue := make([]item, 0, len(roots))
	for _, root := range roots {
		queue = append(queue, item{comment: root, depth: 0})
	}

	var result []domain.Comment
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		result = append(result, fromAPIComment(postID, next.comment, next.depth))
		if limit > 0 && len(result) >= limit {
			break
		}
		for _, reply := range next.comment.Replies.Comments {
			queue = append(queue, item{comment: reply, depth: next.depth + 1})
		}
	}
	return result
}

func fromAPIPost(p *reddit.Post) domain.Post {
	post := domain.Post{
		ID:          p.ID,
		Title:       p.Title,
		Author:      orDeleted(p.Author),
		CreatedUTC:  created(p.Created),
		Score:       p.Score,
		UpvoteRatio: float64(p.UpvoteRatio),
		NumComments: p.NumberOfComments,
		URL:         p.URL,
		Selftext:    p.Body,
		IsSelf:      p.IsSelfPost,
		Permalink:   p.Permalink,
		Subreddit:   p.SubredditName,
	}
	// Flair, is_video and is_original_content are not exposed by the
	// client library; the public client fills them from the raw listing.
	post.Domain = postDomain(post)
	return post
}

func fromAPIComment(postID string, c *reddit.Comment, depth int) domain.Comment {
	return domain.Comment{
		ID:          c.ID,
		PostID:      postID,
		ParentID:    stripKindPrefix(c.ParentID),
		Author:      orDeleted(c.Author),
		CreatedUTC:  created(c.Created),
		Score:       c.Score,
		Body:        c.Body,
		Permalink:   c.Permalink,
		Depth:       depth,
		IsSubmitter: c.IsSubmitter,
		Subreddit:   c.SubredditName,
	}
}

// postDomain mirrors reddit's domain field: the link host for link posts,
// self.<subreddit> for self posts.
func postDomain(p domain.Post) string {
	if p.IsSelf {
		return "self." + p.Subreddit
	}
	if u, err := url.Parse(p.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return ""
}

// stripKindPrefix turns a fullname like t1_abc or t3_abc into abc.
func stripKindPrefix(fullname string) string {
	if _, id, ok := strings.Cut(fullname, "_"); ok {
		return id
	}
	return fullname
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

func created(ts *reddit.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time.UTC()
}

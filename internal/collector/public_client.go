package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

const publicBaseURL = "https://www.reddit.com"

// PublicClient reads reddit's public JSON listings without credentials.
// Only a descriptive User-Agent is required; rate limits are stricter
// than the authenticated API, so callers should keep minDelay generous.
type PublicClient struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ domain.Collector = (*PublicClient)(nil)

func NewPublicClient(userAgent string, minDelay time.Duration, logger *slog.Logger) (*PublicClient, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("a User-Agent is required for public access")
	}
	client := resty.New().
		SetBaseURL(publicBaseURL).
		SetHeader("User-Agent", userAgent).
		SetTimeout(10 * time.Second)
	return &PublicClient{
		http:    client,
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
		logger:  logger,
	}, nil
}

// listing mirrors reddit's Listing envelope. Children hold raw payloads
// because post, comment and "more" nodes share the envelope.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []child `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Author            string  `json:"author"`
	CreatedUTC        float64 `json:"created_utc"`
	Score             int     `json:"score"`
	UpvoteRatio       float64 `json:"upvote_ratio"`
	NumComments       int     `json:"num_comments"`
	URL               string  `json:"url"`
	Selftext          string  `json:"selftext"`
	IsSelf            bool    `json:"is_self"`
	Permalink         string  `json:"permalink"`
	LinkFlairText     string  `json:"link_flair_text"`
	Domain            string  `json:"domain"`
	IsVideo           bool    `json:"is_video"`
	IsOriginalContent bool    `json:"is_original_content"`
	Subreddit         string  `json:"subreddit"`
}

type commentData struct {
	ID          string          `json:"id"`
	ParentID    string          `json:"parent_id"`
	Author      string          `json:"author"`
	CreatedUTC  float64         `json:"created_utc"`
	Score       int             `json:"score"`
	Body        string          `json:"body"`
	Permalink   string          `json:"permalink"`
	Depth       int             `json:"depth"`
	IsSubmitter bool            `json:"is_submitter"`
	Subreddit   string          `json:"subreddit"`
	Replies     json.RawMessage `json:"replies"`
}

func (c *PublicClient) FetchPosts(ctx context.Context, q domain.PostQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("fetching posts", "subreddit", q.Subreddit, "sort", string(q.Sort), "limit", q.Limit)

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(q.Limit)).
		SetQueryParam("raw_json", "1").
		SetResult(&listing{})
	if q.Sort == domain.SortTop || q.Sort == domain.SortControversial {
		if q.Time != "" {
			req.SetQueryParam("t", string(q.Time))
		}
	}
	resp, err := req.Get(fmt.Sprintf("/r/%s/%s.json", q.Subreddit, q.Sort))
	if err != nil {
		return nil, fmt.Errorf("fetching %s posts from r/%s: %w", q.Sort, q.Subreddit, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit responded %d for r/%s", resp.StatusCode(), q.Subreddit)
	}

	return postsFromListing(resp.Result().(*listing))
}

// SearchPosts queries /r/<sub>/search.json with matching restricted to
// the subreddit. The result envelope is the same t3 listing as the
// subreddit pages.
func (c *PublicClient) SearchPosts(ctx context.Context, q domain.SearchQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("searching posts", "subreddit", q.Subreddit, "query", q.Query, "sort", string(q.Sort), "limit", q.Limit)

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", q.Query).
		SetQueryParam("restrict_sr", "1").
		SetQueryParam("sort", string(q.Sort)).
		SetQueryParam("limit", strconv.Itoa(q.Limit)).
		SetQueryParam("raw_json", "1").
		SetResult(&listing{})
	if q.Time != "" {
		req.SetQueryParam("t", string(q.Time))
	}
	resp, err := req.Get(fmt.Sprintf("/r/%s/search.json", q.Subreddit))
	if err != nil {
		return nil, fmt.Errorf("searching r/%s for %q: %w", q.Subreddit, q.Query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit responded %d for r/%s search", resp.StatusCode(), q.Subreddit)
	}

	return postsFromListing(resp.Result().(*listing))
}

func postsFromListing(page *listing) ([]domain.Post, error) {
	var posts []domain.Post
	for _, node := range page.Data.Children {
		if node.Kind != "t3" {
			continue
		}
		var data postData
		if err := json.Unmarshal(node.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding post listing: %w", err)
		}
		posts = append(posts, fromPublicPost(data))
	}
	return posts, nil
}

func (c *PublicClient) FetchComments(ctx context.Context, q domain.CommentQuery) ([]domain.Comment, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("fetching comments", "post_id", q.PostID, "sort", string(q.Sort))

	sort := q.Sort
	if sort == domain.CommentSortBest {
		sort = "confidence" // reddit's wire name for best
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("sort", string(sort)).
		SetQueryParam("raw_json", "1").
		SetResult(&[]listing{})
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	resp, err := req.Get(fmt.Sprintf("/comments/%s.json", q.PostID))
	if err != nil {
		return nil, fmt.Errorf("fetching comments for post %s: %w", q.PostID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit responded %d for post %s", resp.StatusCode(), q.PostID)
	}

	pages := resp.Result().(*[]listing)
	if len(*pages) < 2 {
		return nil, nil
	}
	return walkCommentTree(q.PostID, (*pages)[1].Data.Children, q.Limit)
}

// walkCommentTree flattens the forest with the same work-queue discipline
// as the API client: seed with top-level nodes, append replies at the tail.
func walkCommentTree(postID string, roots []child, limit int) ([]domain.Comment, error) {
	queue := make([]child, 0, len(roots))
	queue = append(queue, roots...)

	var result []domain.Comment
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Kind != "t1" {
			continue // "more" stubs carry no comment body
		}
		var data commentData
		if err := json.Unmarshal(node.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding comment listing: %w", err)
		}
		result = append(result, fromPublicComment(postID, data))
		if limit > 0 && len(result) >= limit {
			break
		}
		// Replies is either an empty string or a nested listing.
		if len(data.Replies) > 0 && data.Replies[0] == '{' {
			var replies listing
			if err := json.Unmarshal(data.Replies, &replies); err != nil {
				return nil, fmt.Errorf("decoding reply listing: %w", err)
			}
			queue = append(queue, replies.Data.Children...)
		}
	}
	return result, nil
}

func fromPublicPost(d postData) domain.Post {
	return domain.Post{
		ID:                d.ID,
		Title:             d.Title,
		Author:            orDeleted(d.Author),
		CreatedUTC:        time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Score:             d.Score,
		UpvoteRatio:       d.UpvoteRatio,
		NumComments:       d.NumComments,
		URL:               d.URL,
		Selftext:          d.Selftext,
		IsSelf:            d.IsSelf,
		Permalink:         d.Permalink,
		Flair:             d.LinkFlairText,
		Domain:            d.Domain,
		IsVideo:           d.IsVideo,
		IsOriginalContent: d.IsOriginalContent,
		Subreddit:         d.Subreddit,
	}
}

func fromPublicComment(postID string, d commentData) domain.Comment {
	return domain.Comment{
		ID:          d.ID,
		PostID:      postID,
		ParentID:    stripKindPrefix(d.ParentID),
		Author:      orDeleted(d.Author),
		CreatedUTC:  time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Score:       d.Score,
		Body:        d.Body,
		Permalink:   d.Permalink,
		Depth:       d.Depth,
		IsSubmitter: d.IsSubmitter,
		Subreddit:   d.Subreddit,
	}
}

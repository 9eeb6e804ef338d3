package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// Mock implements domain.Collector with canned data, for offline runs and
// tests. Posts and Comments may be replaced wholesale before use.
type Mock struct {
	Posts    []domain.Post
	Comments map[string][]domain.Comment

	PostsErr    error
	CommentsErr error
}

var _ domain.Collector = (*Mock)(nil)

// NewMock seeds a small deterministic sample: three posts with a short
// comment forest on the first one.
func NewMock() *Mock {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]domain.Post, 0, 3)
	for i, score := range []int{5, 1, 9} {
		id := fmt.Sprintf("mock%d", i+1)
		posts = append(posts, domain.Post{
			ID:          id,
			Title:       fmt.Sprintf("Simulated post #%d", i+1),
			Author:      "simulated_user",
			CreatedUTC:  base.Add(time.Duration(i) * time.Hour),
			Score:       score,
			UpvoteRatio: 0.9,
			NumComments: 2,
			URL:         "http://localhost/mock-url",
			IsSelf:      true,
			Permalink:   "/r/golang/comments/" + id + "/",
			Domain:      "self.golang",
			Subreddit:   "golang",
		})
	}
	comments := map[string][]domain.Comment{
		"mock1": {
			{
				ID: "c1", PostID: "mock1", ParentID: "mock1", Author: "commenter",
				CreatedUTC: base.Add(10 * time.Minute), Score: 3,
				Body: "top level reply", Depth: 0, Subreddit: "golang",
			},
			{
				ID: "c2", PostID: "mock1", ParentID: "c1", Author: "simulated_user",
				CreatedUTC: base.Add(20 * time.Minute), Score: 1,
				Body: "nested reply", Depth: 1, IsSubmitter: true, Subreddit: "golang",
			},
		},
	}
	return &Mock{Posts: posts, Comments: comments}
}

func (m *Mock) FetchPosts(_ context.Context, q domain.PostQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if m.PostsErr != nil {
		return nil, m.PostsErr
	}
	posts := m.Posts
	if q.Limit > 0 && q.Limit < len(posts) {
		posts = posts[:q.Limit]
	}
	out := make([]domain.Post, len(posts))
	copy(out, posts)
	return out, nil
}

// SearchPosts matches the query against titles, case-insensitively.
func (m *Mock) SearchPosts(_ context.Context, q domain.SearchQuery) ([]domain.Post, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if m.PostsErr != nil {
		return nil, m.PostsErr
	}
	needle := strings.ToLower(q.Query)
	var out []domain.Post
	for _, post := range m.Posts {
		if !strings.Contains(strings.ToLower(post.Title), needle) {
			continue
		}
		out = append(out, post)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Mock) FetchComments(_ context.Context, q domain.CommentQuery) ([]domain.Comment, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if m.CommentsErr != nil {
		return nil, m.CommentsErr
	}
	comments := m.Comments[q.PostID]
	if q.Limit > 0 && q.Limit < len(comments) {
		comments = comments[:q.Limit]
	}
	out := make([]domain.Comment, len(comments))
	copy(out, comments)
	return out, nil
}

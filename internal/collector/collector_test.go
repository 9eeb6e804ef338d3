package collector

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rharvest/reddit-harvester/internal/config"
	"github.com/rharvest/reddit-harvester/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func apiComment(id, parent string, replies ...*reddit.Comment) *reddit.Comment {
	return &reddit.Comment{
		ID:       id,
		ParentID: parent,
		Author:   "someone",
		Body:     "body of " + id,
		Replies:  reddit.Replies{Comments: replies},
	}
}

func TestFlattenCommentsOrderAndDepth(t *testing.T) {
	// forest: c1(c3, c4(c5)), c2
	c5 := apiComment("c5", "t1_c4")
	c4 := apiComment("c4", "t1_c1", c5)
	c3 := apiComment("c3", "t1_c1")
	c1 := apiComment("c1", "t3_p1", c3, c4)
	c2 := apiComment("c2", "t3_p1")

	out := flattenComments("p1", []*reddit.Comment{c1, c2}, 0)

	require.Len(t, out, 5)
	ids := make([]string, 0, len(out))
	depths := make([]int, 0, len(out))
	for _, c := range out {
		ids = append(ids, c.ID)
		depths = append(depths, c.Depth)
		assert.Equal(t, "p1", c.PostID)
	}
	// breadth-first: all roots before any reply
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids)
	assert.Equal(t, []int{0, 0, 1, 1, 2}, depths)

	// fullname prefixes are stripped from parent references
	assert.Equal(t, "p1", out[0].ParentID)
	assert.Equal(t, "c1", out[2].ParentID)
}

func TestFlattenCommentsLimit(t *testing.T) {
	c3 := apiComment("c3", "t1_c1")
	c1 := apiComment("c1", "t3_p1", c3)
	c2 := apiComment("c2", "t3_p1")

	out := flattenComments("p1", []*reddit.Comment{c1, c2}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "c2", out[1].ID)
}

func TestFromAPICommentDefaults(t *testing.T) {
	raw := apiComment("c1", "t3_p1")
	raw.Author = ""
	raw.Created = nil

	got := fromAPIComment("p1", raw, 0)
	assert.Equal(t, "[deleted]", got.Author)
	assert.True(t, got.CreatedUTC.IsZero())
}

func TestPostDomain(t *testing.T) {
	self := domain.Post{IsSelf: true, Subreddit: "golang"}
	assert.Equal(t, "self.golang", postDomain(self))

	link := domain.Post{URL: "https://blog.example.com/a/b"}
	assert.Equal(t, "blog.example.com", postDomain(link))

	assert.Equal(t, "", postDomain(domain.Post{URL: "not a url"}))
}

func TestStripKindPrefix(t *testing.T) {
	assert.Equal(t, "abc", stripKindPrefix("t1_abc"))
	assert.Equal(t, "abc", stripKindPrefix("t3_abc"))
	assert.Equal(t, "abc", stripKindPrefix("abc"))
}

func TestMockFetch(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	posts, err := mock.FetchPosts(ctx, domain.PostQuery{Subreddit: "golang", Sort: domain.SortHot, Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "mock1", posts[0].ID)

	_, err = mock.FetchPosts(ctx, domain.PostQuery{Subreddit: "golang", Sort: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidSortMode)

	comments, err := mock.FetchComments(ctx, domain.CommentQuery{PostID: "mock1", Sort: domain.CommentSortBest})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, 1, comments[1].Depth)

	none, err := mock.FetchComments(ctx, domain.CommentQuery{PostID: "mock9", Sort: domain.CommentSortBest})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMockSearch(t *testing.T) {
	mock := NewMock()
	ctx := context.Background()

	posts, err := mock.SearchPosts(ctx, domain.SearchQuery{
		Subreddit: "golang", Query: "POST #2", Sort: domain.SearchRelevance,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "mock2", posts[0].ID)

	posts, err = mock.SearchPosts(ctx, domain.SearchQuery{
		Subreddit: "golang", Query: "simulated", Sort: domain.SearchNew, Limit: 2,
	})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	_, err = mock.SearchPosts(ctx, domain.SearchQuery{Subreddit: "golang", Query: "x", Sort: "rising"})
	assert.ErrorIs(t, err, domain.ErrInvalidSortMode)

	_, err = mock.SearchPosts(ctx, domain.SearchQuery{Subreddit: "golang", Sort: domain.SearchRelevance})
	require.Error(t, err, "empty query rejected")
}

func TestNewAPIClientLogsUnavailableFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	creds := config.Credentials{ClientID: "id", ClientSecret: "secret", UserAgent: "harvester-test/0.1"}

	_, err := NewAPIClient(creds, time.Millisecond, logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "flair")
	assert.Contains(t, buf.String(), "is_original_content")
}

func TestFactory(t *testing.T) {
	cfg := &config.Config{}
	cfg.UserAgent = "harvester-test/0.1"

	c, err := New(ModeMock, cfg, time.Millisecond, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, c)

	c, err = New(ModePublic, cfg, time.Millisecond, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &PublicClient{}, c)

	_, err = New("carrier-pigeon", cfg, time.Millisecond, testLogger())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestFactoryPublicRequiresUserAgent(t *testing.T) {
	_, err := New(ModePublic, &config.Config{}, time.Millisecond, testLogger())
	require.Error(t, err)
}

const postListingFixture = `{
  "kind": "Listing",
  "data": {
    "children": [
      {
        "kind": "t3",
        "data": {
          "id": "p1",
          "title": "A link post",
          "author": "alice",
          "created_utc": 1709294400,
          "score": 42,
          "upvote_ratio": 0.93,
          "num_comments": 7,
          "url": "https://example.com/article",
          "selftext": "",
          "is_self": false,
          "permalink": "/r/golang/comments/p1/a_link_post/",
          "link_flair_text": "Discussion",
          "domain": "example.com",
          "is_video": false,
          "is_original_content": true,
          "subreddit": "golang"
        }
      },
      {"kind": "t5", "data": {"id": "ignored"}}
    ]
  }
}`

const commentListingFixture = `[
  {"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "p1"}}]}},
  {
    "kind": "Listing",
    "data": {
      "children": [
        {
          "kind": "t1",
          "data": {
            "id": "c1",
            "parent_id": "t3_p1",
            "author": "bob",
            "created_utc": 1709298000,
            "score": 5,
            "body": "top level",
            "permalink": "/r/golang/comments/p1/x/c1/",
            "depth": 0,
            "is_submitter": false,
            "subreddit": "golang",
            "replies": {
              "kind": "Listing",
              "data": {
                "children": [
                  {
                    "kind": "t1",
                    "data": {
                      "id": "c2",
                      "parent_id": "t1_c1",
                      "author": "",
                      "created_utc": 1709298600,
                      "score": 2,
                      "body": "nested",
                      "depth": 1,
                      "subreddit": "golang",
                      "replies": ""
                    }
                  },
                  {"kind": "more", "data": {"count": 12}}
                ]
              }
            }
          }
        },
        {
          "kind": "t1",
          "data": {
            "id": "c3",
            "parent_id": "t3_p1",
            "author": "carol",
            "created_utc": 1709299200,
            "score": 1,
            "body": "another root",
            "depth": 0,
            "subreddit": "golang",
            "replies": ""
          }
        }
      ]
    }
  }
]`

func newTestPublicClient(t *testing.T, handler http.HandlerFunc) *PublicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pc, err := NewPublicClient("harvester-test/0.1", time.Millisecond, testLogger())
	require.NoError(t, err)
	pc.http.SetBaseURL(srv.URL)
	return pc
}

func TestPublicClientFetchPosts(t *testing.T) {
	var gotPath, gotLimit string
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(postListingFixture))
	})

	posts, err := pc.FetchPosts(context.Background(), domain.PostQuery{
		Subreddit: "golang", Sort: domain.SortHot, Limit: 25,
	})
	require.NoError(t, err)

	assert.Equal(t, "/r/golang/hot.json", gotPath)
	assert.Equal(t, "25", gotLimit)

	require.Len(t, posts, 1, "non-post children are skipped")
	post := posts[0]
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, 42, post.Score)
	assert.Equal(t, "Discussion", post.Flair)
	assert.Equal(t, "example.com", post.Domain)
	assert.True(t, post.IsOriginalContent)
	assert.Equal(t, time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), post.CreatedUTC)
}

func TestPublicClientSearchPosts(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(postListingFixture))
	})

	posts, err := pc.SearchPosts(context.Background(), domain.SearchQuery{
		Subreddit: "golang", Query: "generics", Sort: domain.SearchTop, Time: domain.TimeYear, Limit: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "/r/golang/search.json", gotPath)
	assert.Equal(t, []string{"generics"}, gotQuery["q"])
	assert.Equal(t, []string{"1"}, gotQuery["restrict_sr"])
	assert.Equal(t, []string{"top"}, gotQuery["sort"])
	assert.Equal(t, []string{"year"}, gotQuery["t"])

	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
}

func TestPublicClientSearchPostsInvalidQuery(t *testing.T) {
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid query")
	})

	_, err := pc.SearchPosts(context.Background(), domain.SearchQuery{
		Subreddit: "golang", Query: "generics", Sort: "controversial",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSortMode)
}

func TestPublicClientFetchPostsHTTPError(t *testing.T) {
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := pc.FetchPosts(context.Background(), domain.PostQuery{Subreddit: "golang", Sort: domain.SortHot, Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPublicClientFetchComments(t *testing.T) {
	var gotPath, gotSort string
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSort = r.URL.Query().Get("sort")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(commentListingFixture))
	})

	comments, err := pc.FetchComments(context.Background(), domain.CommentQuery{
		PostID: "p1", Sort: domain.CommentSortBest,
	})
	require.NoError(t, err)

	assert.Equal(t, "/comments/p1.json", gotPath)
	assert.Equal(t, "confidence", gotSort, "best maps to reddit's confidence sort")

	require.Len(t, comments, 3, "more stubs are skipped")
	assert.Equal(t, []string{"c1", "c3", "c2"},
		[]string{comments[0].ID, comments[1].ID, comments[2].ID},
		"roots come before replies")
	assert.Equal(t, "c1", comments[2].ParentID)
	assert.Equal(t, 1, comments[2].Depth)
	assert.Equal(t, "[deleted]", comments[2].Author)
}

func TestPublicClientFetchCommentsLimit(t *testing.T) {
	pc := newTestPublicClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(commentListingFixture))
	})

	comments, err := pc.FetchComments(context.Background(), domain.CommentQuery{
		PostID: "p1", Sort: domain.CommentSortTop, Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].ID)
}

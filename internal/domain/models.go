// Package domain holds the record model shared by the collector, the
// cleaning pipeline and the storage backends.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSortMode is returned when a post or comment sort mode is not
// one of the declared values. It is a configuration error and never retried.
var ErrInvalidSortMode = errors.New("invalid sort mode")

// Post is a single subreddit submission. ID is the reddit base-36
// identifier and the sole deduplication key across re-fetches.
type Post struct {
	ID                string    `json:"id" gorm:"column:id;primaryKey;size:10"`
	Title             string    `json:"title" gorm:"column:title;size:300;not null"`
	Author            string    `json:"author" gorm:"column:author;size:100;not null"`
	CreatedUTC        time.Time `json:"created_utc" gorm:"column:created_utc;not null"`
	Score             int       `json:"score" gorm:"column:score;not null"`
	UpvoteRatio       float64   `json:"upvote_ratio" gorm:"column:upvote_ratio"`
	NumComments       int       `json:"num_comments" gorm:"column:num_comments;not null"`
	URL               string    `json:"url" gorm:"column:url;size:500;not null"`
	Selftext          string    `json:"selftext" gorm:"column:selftext;type:text"`
	IsSelf            bool      `json:"is_self" gorm:"column:is_self;not null"`
	Permalink         string    `json:"permalink" gorm:"column:permalink;size:500;not null"`
	Flair             string    `json:"flair" gorm:"column:flair;size:100"`
	Domain            string    `json:"domain" gorm:"column:domain;size:100"`
	IsVideo           bool      `json:"is_video" gorm:"column:is_video"`
	IsOriginalContent bool      `json:"is_original_content" gorm:"column:is_original_content"`
	Subreddit         string    `json:"subreddit" gorm:"column:subreddit;size:100;not null;index"`

	Comments []Comment `json:"-" gorm:"foreignKey:PostID;references:ID"`
}

// Comment is a single reply in a post's comment forest. ParentID references
// either the post (for top-level comments, depth 0) or another comment.
type Comment struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey;size:10"`
	PostID      string    `json:"post_id" gorm:"column:post_id;size:10;not null;index"`
	ParentID    string    `json:"parent_id" gorm:"column:parent_id;size:10;not null"`
	Author      string    `json:"author" gorm:"column:author;size:100;not null"`
	CreatedUTC  time.Time `json:"created_utc" gorm:"column:created_utc;not null"`
	Score       int       `json:"score" gorm:"column:score;not null"`
	Body        string    `json:"body" gorm:"column:body;type:text;not null"`
	Permalink   string    `json:"permalink" gorm:"column:permalink;size:500"`
	Depth       int       `json:"depth" gorm:"column:depth"`
	IsSubmitter bool      `json:"is_submitter" gorm:"column:is_submitter"`
	Subreddit   string    `json:"subreddit" gorm:"column:subreddit;size:100;not null"`
}

// Target is one subreddit to harvest, optionally with its own score floor.
type Target struct {
	Subreddit string
	MinScore  int
}

// PostSort selects the subreddit listing to fetch.
type PostSort string

const (
	SortHot           PostSort = "hot"
	SortNew           PostSort = "new"
	SortTop           PostSort = "top"
	SortRising        PostSort = "rising"
	SortControversial PostSort = "controversial"
)

func (s PostSort) Validate() error {
	switch s {
	case SortHot, SortNew, SortTop, SortRising, SortControversial:
		return nil
	}
	return fmt.Errorf("%w: post sort %q", ErrInvalidSortMode, string(s))
}

// CommentSort selects the comment listing order for a post.
type CommentSort string

const (
	CommentSortBest          CommentSort = "best"
	CommentSortTop           CommentSort = "top"
	CommentSortNew           CommentSort = "new"
	CommentSortControversial CommentSort = "controversial"
	CommentSortOld           CommentSort = "old"
	CommentSortQA            CommentSort = "qa"
)

func (s CommentSort) Validate() error {
	switch s {
	case CommentSortBest, CommentSortTop, CommentSortNew, CommentSortControversial, CommentSortOld, CommentSortQA:
		return nil
	}
	return fmt.Errorf("%w: comment sort %q", ErrInvalidSortMode, string(s))
}

// TimeFilter bounds top/controversial listings.
type TimeFilter string

const (
	TimeHour  TimeFilter = "hour"
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
	TimeYear  TimeFilter = "year"
	TimeAll   TimeFilter = "all"
)

func (t TimeFilter) Validate() error {
	switch t {
	case TimeHour, TimeDay, TimeWeek, TimeMonth, TimeYear, TimeAll:
		return nil
	}
	return fmt.Errorf("%w: time filter %q", ErrInvalidSortMode, string(t))
}

// SearchSort orders subreddit search results. It is a distinct set from
// PostSort: reddit's search endpoint accepts relevance and comments but
// not rising or controversial.
type SearchSort string

const (
	SearchRelevance SearchSort = "relevance"
	SearchHot       SearchSort = "hot"
	SearchNew       SearchSort = "new"
	SearchTop       SearchSort = "top"
	SearchComments  SearchSort = "comments"
)

func (s SearchSort) Validate() error {
	switch s {
	case SearchRelevance, SearchHot, SearchNew, SearchTop, SearchComments:
		return nil
	}
	return fmt.Errorf("%w: search sort %q", ErrInvalidSortMode, string(s))
}

// PostQuery describes one listing fetch.
type PostQuery struct {
	Subreddit string
	Limit     int
	Sort      PostSort
	Time      TimeFilter
}

func (q PostQuery) Validate() error {
	if err := q.Sort.Validate(); err != nil {
		return err
	}
	if q.Time != "" {
		return q.Time.Validate()
	}
	return nil
}

// SearchQuery describes one subreddit search. Matching is restricted to
// the named subreddit.
type SearchQuery struct {
	Subreddit string
	Query     string
	Limit     int
	Sort      SearchSort
	Time      TimeFilter
}

func (q SearchQuery) Validate() error {
	if q.Query == "" {
		return errors.New("empty search query")
	}
	if err := q.Sort.Validate(); err != nil {
		return err
	}
	if q.Time != "" {
		return q.Time.Validate()
	}
	return nil
}

// CommentQuery describes one comment-forest fetch. Limit 0 means the
// whole forest.
type CommentQuery struct {
	PostID string
	Limit  int
	Sort   CommentSort
}

func (q CommentQuery) Validate() error {
	return q.Sort.Validate()
}

// Collector defines the interface for data fetching.
type Collector interface {
	FetchPosts(ctx context.Context, q PostQuery) ([]Post, error)
	SearchPosts(ctx context.Context, q SearchQuery) ([]Post, error)
	FetchComments(ctx context.Context, q CommentQuery) ([]Comment, error)
}

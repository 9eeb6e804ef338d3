package storage

import (
	"fmt"
	"time"

	"github.com/rharvest/reddit-harvester/internal/domain"
)

// Filter is an equality-only predicate: every entry must match the
// corresponding record field (logical AND). A nil or empty filter matches
// everything. Keys use the persisted column names (id, score,
// created_utc, ...).
type Filter map[string]any

// Field names accepted in filters, matching the persisted layouts.
var (
	postFields = []string{
		"id", "title", "author", "created_utc", "score", "upvote_ratio",
		"num_comments", "url", "selftext", "is_self", "permalink", "flair",
		"domain", "is_video", "is_original_content", "subreddit",
	}
	commentFields = []string{
		"id", "post_id", "parent_id", "author", "created_utc", "score",
		"body", "permalink", "depth", "is_submitter", "subreddit",
	}
)

// Validate rejects filters referencing unknown fields. Every backend calls
// this before evaluating, so the behavior is uniform across variants.
func (f Filter) Validate(known []string) error {
	for key := range f {
		found := false
		for _, name := range known {
			if key == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownFilterKey, key)
		}
	}
	return nil
}

func postField(p domain.Post, name string) any {
	switch name {
	case "id":
		return p.ID
	case "title":
		return p.Title
	case "author":
		return p.Author
	case "created_utc":
		return p.CreatedUTC
	case "score":
		return p.Score
	case "upvote_ratio":
		return p.UpvoteRatio
	case "num_comments":
		return p.NumComments
	case "url":
		return p.URL
	case "selftext":
		return p.Selftext
	case "is_self":
		return p.IsSelf
	case "permalink":
		return p.Permalink
	case "flair":
		return p.Flair
	case "domain":
		return p.Domain
	case "is_video":
		return p.IsVideo
	case "is_original_content":
		return p.IsOriginalContent
	case "subreddit":
		return p.Subreddit
	}
	return nil
}

func commentField(c domain.Comment, name string) any {
	switch name {
	case "id":
		return c.ID
	case "post_id":
		return c.PostID
	case "parent_id":
		return c.ParentID
	case "author":
		return c.Author
	case "created_utc":
		return c.CreatedUTC
	case "score":
		return c.Score
	case "body":
		return c.Body
	case "permalink":
		return c.Permalink
	case "depth":
		return c.Depth
	case "is_submitter":
		return c.IsSubmitter
	case "subreddit":
		return c.Subreddit
	}
	return nil
}

// MatchPost reports whether p satisfies every entry of f. The filter must
// be validated first; unknown keys simply never match here.
func MatchPost(p domain.Post, f Filter) bool {
	for key, want := range f {
		if !equalValues(postField(p, key), want) {
			return false
		}
	}
	return true
}

// MatchComment is the comment counterpart of MatchPost.
func MatchComment(c domain.Comment, f Filter) bool {
	for key, want := range f {
		if !equalValues(commentField(c, key), want) {
			return false
		}
	}
	return true
}

func equalValues(got, want any) bool {
	if gt, ok := got.(time.Time); ok {
		wt, ok := want.(time.Time)
		return ok && gt.Equal(wt)
	}
	return got == want
}

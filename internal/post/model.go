// Package post provides the content item model and candidate stores
// consumed by the feed ranking engine.
package post

import (
	"time"
)

// Flag classifies a post's voting regime. A post is either unflagged
// ("tea") and counted by likes, or carries a red/green flag and is
// counted by red/green votes. The two regimes are mutually exclusive.
type Flag string

// Flag values.
const (
	FlagNone  Flag = ""
	FlagRed   Flag = "red"
	FlagGreen Flag = "green"
)

// ModerationStatus is the moderation state of a post.
type ModerationStatus string

// Moderation states. Soft-suppressed and escalated posts are subject
// to the suppression predicate; ok posts are always eligible.
const (
	ModerationOK        ModerationStatus = "ok"
	ModerationSoft      ModerationStatus = "soft"
	ModerationEscalated ModerationStatus = "esc"
)

// Post represents a content item with its denormalized engagement
// counters. Counters are maintained by the persistence layer on write;
// the ranking engine treats them as read-only point-in-time snapshots.
type Post struct {
	ID           string `json:"id"`
	AuthorID     string `json:"author_id"`
	UniversityID string `json:"university_id,omitempty"`

	// ParentID is nil for top-level posts. Replies are never feed
	// candidates.
	ParentID *string `json:"parent_id,omitempty"`

	Flag Flag   `json:"flag,omitempty"`
	Text string `json:"text"`

	// LikeCount is meaningful only when Flag is FlagNone.
	LikeCount int `json:"like_count"`

	// RedVoteCount and GreenVoteCount are meaningful only when Flag
	// is FlagRed or FlagGreen.
	RedVoteCount   int `json:"red_vote_count"`
	GreenVoteCount int `json:"green_vote_count"`

	ReplyCount  int `json:"reply_count"`
	RepostCount int `json:"repost_count"`

	// ViewCount is a unique-viewer approximation refreshed
	// asynchronously. Monotonically non-decreasing, never
	// authoritative.
	ViewCount int `json:"view_count"`

	ModerationStatus ModerationStatus `json:"moderation_status,omitempty"`
	ModerationUntil  *time.Time       `json:"moderation_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsTopLevel reports whether the post is a top-level item rather than
// a reply.
func (p *Post) IsTopLevel() bool {
	return p.ParentID == nil
}

// Flagged reports whether the post uses the red/green voting regime.
func (p *Post) Flagged() bool {
	return p.Flag == FlagRed || p.Flag == FlagGreen
}

// ActivelySuppressed reports whether the post is under active
// moderation action at the given instant. Suppression with no expiry
// is indefinite; suppression with an expiry lapses automatically once
// now passes it, so reads never depend on a background job clearing
// the flag.
func (p *Post) ActivelySuppressed(now time.Time) bool {
	if p.ModerationStatus == ModerationOK || p.ModerationStatus == "" {
		return false
	}
	if p.ModerationUntil == nil {
		return true
	}
	return p.ModerationUntil.After(now)
}

// VoteScore returns the post's net vote value under its voting
// regime: green minus red votes for flagged posts, likes otherwise.
func (p *Post) VoteScore() int {
	if p.Flagged() {
		return p.GreenVoteCount - p.RedVoteCount
	}
	return p.LikeCount
}

// Engagement returns the raw interaction total under the post's
// voting regime: total voting activity for flagged posts, likes
// otherwise.
func (p *Post) Engagement() int {
	if p.Flagged() {
		return p.GreenVoteCount + p.RedVoteCount
	}
	return p.LikeCount
}

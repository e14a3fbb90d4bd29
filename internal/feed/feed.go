// Package feed assembles personalized and trending feed pages on top
// of the ranking orchestrator, with keyset pagination and a
// session-stable freshness watermark.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/spilleu/feedengine/internal/post"
	"github.com/spilleu/feedengine/internal/ranking"
	"github.com/spilleu/feedengine/internal/seen"
	"github.com/spilleu/feedengine/internal/viewer"
)

// Candidate windows. The for-you window bounds which posts can be
// ranking candidates at all; posts older than it are simply not
// eligible, distinct from the in-score staleness penalty which still
// applies within the window.
const (
	CandidateWindow = 3 * 24 * time.Hour
	TrendingWindow  = 24 * time.Hour
)

// Page is one feed response: the ranked posts, the cursor to resume
// with, and whether more items remain.
type Page struct {
	Posts      []*post.Post `json:"posts"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

// Service assembles feed pages. Stateless apart from its
// collaborators; every call is independent and re-entrant.
type Service struct {
	posts    post.CandidateStore
	seen     seen.Store
	tunables *ranking.Tunables
	metrics  *Metrics

	// now is the clock, overridable in tests.
	now func() time.Time
}

// NewService creates a feed service. Tunables and metrics may be nil
// (defaults, no instrumentation).
func NewService(posts post.CandidateStore, seenStore seen.Store, tunables *ranking.Tunables, metrics *Metrics) *Service {
	return &Service{
		posts:    posts,
		seen:     seenStore,
		tunables: tunables,
		metrics:  metrics,
		now:      time.Now,
	}
}

// ForYou assembles one page of the personalized feed.
//
// Candidates are top-level posts created within the last three days,
// capped at the session's freshness watermark and with actively
// suppressed posts excluded. Supply is two-phase: unseen posts are
// exhausted first in keyset order, then seen posts backfill short
// pages, so the viewer never gets a repeat while a novel post
// remains. The supplied page is then score-ranked for presentation;
// the cursor tracks the keyset position of the supply, not the
// presentation order, which keeps the paged traversal free of
// duplicates and omissions under concurrent inserts.
func (s *Service) ForYou(ctx context.Context, v *viewer.Context, cursorToken string, limit int) (Page, error) {
	if limit <= 0 {
		limit = ranking.FeedPageLimit
	}
	now := s.now()

	cur := DecodeCursor(cursorToken)
	watermark := cur.Watermark
	if watermark.IsZero() {
		// First page of the session fixes the horizon.
		watermark = now
	}

	q := post.CandidateQuery{
		Scope:             post.ScopeForYou,
		TopLevelOnly:      true,
		Since:             now.Add(-CandidateWindow),
		Until:             watermark,
		ExcludeSuppressed: true,
		Now:               now,
	}
	candidates, err := s.posts.ListCandidates(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list candidates: %w", err)
	}
	if err := s.overlayViewCounts(ctx, candidates); err != nil {
		return Page{}, err
	}

	var seenSet map[string]struct{}
	if v != nil {
		seenSet, err = s.seen.SeenSet(ctx, v.UserID)
		if err != nil {
			return Page{}, fmt.Errorf("seen set: %w", err)
		}
	}

	// Partition preserving the store's keyset order.
	var unseenPosts, seenPosts []*post.Post
	for _, p := range candidates {
		if _, ok := seenSet[p.ID]; ok {
			seenPosts = append(seenPosts, p)
		} else {
			unseenPosts = append(unseenPosts, p)
		}
	}

	// Phase supply. The unseen phase is skipped entirely once a
	// cursor has crossed into the seen phase.
	var unseenPool, seenPool []*post.Post
	if cur.Mode == ModeSeen {
		seenPool = applyKeyset(seenPosts, cur.LastCreatedAt, cur.LastID)
	} else {
		unseenPool = applyKeyset(unseenPosts, cur.LastCreatedAt, cur.LastID)
		seenPool = seenPosts
	}

	supply := make([]*post.Post, 0, limit)
	nextMode := cur.Mode
	if nextMode == "" {
		nextMode = ModeUnseen
	}
	var last *post.Post

	take := min(limit, len(unseenPool))
	if take > 0 {
		supply = append(supply, unseenPool[:take]...)
		last = unseenPool[take-1]
	}

	backfill := 0
	if len(supply) < limit && take == len(unseenPool) {
		backfill = min(limit-len(supply), len(seenPool))
		if backfill > 0 {
			supply = append(supply, seenPool[:backfill]...)
			last = seenPool[backfill-1]
			nextMode = ModeSeen
			if s.metrics != nil {
				s.metrics.IncSeenBackfill()
			}
		}
	}

	hasMore := take < len(unseenPool) || backfill < len(seenPool)

	var nextCursor string
	if hasMore && last != nil {
		nextCursor = EncodeCursor(Cursor{
			Mode:          nextMode,
			LastCreatedAt: last.CreatedAt,
			LastID:        last.ID,
			Watermark:     watermark,
		})
	}

	ranked := ranking.Rank(supply, v, now, ranking.Options{
		Limit:       limit,
		Suppression: ranking.SuppressExclude,
		Tunables:    s.tunables,
	})

	if s.metrics != nil {
		s.metrics.ObserveRequest("for_you", len(candidates))
	}

	return Page{Posts: ranked, NextCursor: nextCursor, HasMore: hasMore}, nil
}

// Recent assembles one page of a scope-filtered recency feed:
// keyset-ordered, no score ranking. Used by the following and
// same-university tabs.
func (s *Service) Recent(ctx context.Context, v *viewer.Context, scope post.Scope, cursorToken string, limit int) (Page, error) {
	if limit <= 0 {
		limit = ranking.FeedPageLimit
	}
	now := s.now()

	cur := DecodeCursor(cursorToken)
	watermark := cur.Watermark
	if watermark.IsZero() {
		watermark = now
	}

	q := post.CandidateQuery{
		Scope:             scope,
		TopLevelOnly:      true,
		Until:             watermark,
		ExcludeSuppressed: true,
		Now:               now,
	}
	if v != nil {
		q.HomeUniversityID = v.UniversityID
		q.FollowedUniversityIDs = v.FollowedIDs()
	}
	candidates, err := s.posts.ListCandidates(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list candidates: %w", err)
	}

	pool := applyKeyset(candidates, cur.LastCreatedAt, cur.LastID)
	take := min(limit, len(pool))
	page := pool[:take]
	hasMore := take < len(pool)

	var nextCursor string
	if hasMore {
		last := page[take-1]
		nextCursor = EncodeCursor(Cursor{
			LastCreatedAt: last.CreatedAt,
			LastID:        last.ID,
			Watermark:     watermark,
		})
	}

	if s.metrics != nil {
		s.metrics.ObserveRequest(string(scope), len(candidates))
	}

	return Page{Posts: page, NextCursor: nextCursor, HasMore: hasMore}, nil
}

// Trending returns the globally top-ranked posts of the last day,
// scored anonymously.
func (s *Service) Trending(ctx context.Context, limit int) ([]*post.Post, error) {
	if limit <= 0 {
		limit = ranking.TrendingLimit
	}
	now := s.now()

	candidates, err := s.posts.ListCandidates(ctx, post.CandidateQuery{
		Scope:             post.ScopeForYou,
		TopLevelOnly:      true,
		Since:             now.Add(-TrendingWindow),
		ExcludeSuppressed: true,
		Now:               now,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if err := s.overlayViewCounts(ctx, candidates); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveRequest("trending", len(candidates))
	}

	return ranking.Rank(candidates, nil, now, ranking.Options{
		Limit:       limit,
		Suppression: ranking.SuppressExclude,
		Tunables:    s.tunables,
	}), nil
}

// overlayViewCounts refreshes candidate view counters from the view
// log before scoring, so the engagement rate and the zero-engagement
// penalty see the unique viewers recorded since the row was written.
// The stored column is kept as a floor: a log that lags behind it
// never lowers a count.
func (s *Service) overlayViewCounts(ctx context.Context, candidates []*post.Post) error {
	if len(candidates) == 0 {
		return nil
	}
	ids := make([]string, len(candidates))
	for i, p := range candidates {
		ids[i] = p.ID
	}
	counts, err := s.seen.ViewCounts(ctx, ids)
	if err != nil {
		return fmt.Errorf("view counts: %w", err)
	}
	for _, p := range candidates {
		if n := counts[p.ID]; n > p.ViewCount {
			p.ViewCount = n
		}
	}
	return nil
}

// applyKeyset returns the items strictly after the (createdAt, id)
// position in descending keyset order: createdAt < last OR
// (createdAt = last AND id < lastID). Input must already be in
// (created_at DESC, id DESC) order; output preserves it.
func applyKeyset(posts []*post.Post, lastCreatedAt time.Time, lastID string) []*post.Post {
	if lastCreatedAt.IsZero() && lastID == "" {
		return posts
	}
	out := make([]*post.Post, 0, len(posts))
	for _, p := range posts {
		if p.CreatedAt.Before(lastCreatedAt) || (p.CreatedAt.Equal(lastCreatedAt) && p.ID < lastID) {
			out = append(out, p)
		}
	}
	return out
}

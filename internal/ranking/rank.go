package ranking

import (
	"sort"
	"time"

	"github.com/spilleu/feedengine/internal/post"
	"github.com/spilleu/feedengine/internal/viewer"
)

// SuppressionMode selects how the orchestrator treats actively
// suppressed posts.
type SuppressionMode int

const (
	// SuppressExclude removes suppressed posts from the output
	// entirely. Used by feed, trending and search queries.
	SuppressExclude SuppressionMode = iota

	// SuppressBury keeps suppressed posts in the output but forces an
	// extreme negative score so they sort last. Used by callers that
	// want visibility into bury-not-delete decisions.
	SuppressBury
)

// BuryScore is the score assigned to suppressed posts under
// SuppressBury. Low enough that no organic score sorts below it.
const BuryScore = -1e9

// Default result limits per caller type.
const (
	// DefaultLimit applies to generic ranking calls.
	DefaultLimit = 50

	// FeedPageLimit applies to the personalized feed entry point.
	FeedPageLimit = 20

	// TrendingLimit applies to trending and search buckets.
	TrendingLimit = 10
)

// Options controls one ranking pass.
type Options struct {
	// Limit truncates the result. Zero or negative means
	// DefaultLimit.
	Limit int

	// Suppression selects exclude-or-bury handling of actively
	// suppressed posts.
	Suppression SuppressionMode

	// Tunables overrides the scoring constants. Nil means defaults.
	Tunables *Tunables
}

// scored is the ephemeral (score, post) pair built during a pass.
type scored struct {
	score float64
	post  *post.Post
}

// Rank scores, sorts, deduplicates and truncates a candidate set. The
// viewer may be nil for anonymous ranking. Candidate order matters:
// the sort is stable, so posts with exactly equal scores keep their
// supplier order. Duplicate IDs (as produced by overlapping source
// queries) are collapsed to the first occurrence in ranked order. An
// empty candidate set yields an empty slice, never an error.
func Rank(candidates []*post.Post, v *viewer.Context, now time.Time, opts Options) []*post.Post {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	scoredPosts := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		if p == nil {
			continue
		}
		if p.ActivelySuppressed(now) {
			if opts.Suppression == SuppressExclude {
				continue
			}
			scoredPosts = append(scoredPosts, scored{score: BuryScore, post: p})
			continue
		}
		scoredPosts = append(scoredPosts, scored{score: Score(p, v, now, opts.Tunables), post: p})
	}

	// Stable: exact score ties keep supplier order.
	sort.SliceStable(scoredPosts, func(i, j int) bool {
		return scoredPosts[i].score > scoredPosts[j].score
	})

	result := make([]*post.Post, 0, min(limit, len(scoredPosts)))
	seen := make(map[string]struct{}, len(scoredPosts))
	for _, sp := range scoredPosts {
		if _, dup := seen[sp.post.ID]; dup {
			continue
		}
		seen[sp.post.ID] = struct{}{}
		result = append(result, sp.post)
		if len(result) >= limit {
			break
		}
	}

	return result
}

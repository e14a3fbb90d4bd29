package ranking

import (
	"math"
	"time"

	"github.com/spilleu/feedengine/internal/post"
	"github.com/spilleu/feedengine/internal/viewer"
)

// Score computes the rank score for one post as seen by one viewer at
// the given instant. Deterministic and side-effect free; exact float
// ties are broken later by the orchestrator's stable sort, not here.
//
// A nil viewer context skips the affinity terms, which is how
// anonymous ranking (global trending) works. A nil Tunables falls
// back to the defaults. Counters on the post default to zero, so a
// missing view-count snapshot never needs special handling.
func Score(p *post.Post, v *viewer.Context, now time.Time, t *Tunables) float64 {
	if t == nil {
		t = DefaultTunables()
	}

	replies := float64(p.ReplyCount)
	reposts := float64(p.RepostCount)
	views := float64(p.ViewCount)

	// Engagement-mode selection: flagged posts count red/green votes,
	// unflagged posts count likes. Exactly one regime applies.
	voteScore := float64(p.VoteScore())
	engagement := float64(p.Engagement())

	score := t.VoteWeight*voteScore + t.ReplyWeight*replies + t.RepostWeight*reposts

	// Bayesian-smoothed engagement rate. The prior keeps low-view
	// posts from being judged on raw counts alone and makes the
	// zero-view case well-defined.
	totalEngagement := engagement + t.ReplyEngagement*replies + t.RepostEngagement*reposts
	rate := (totalEngagement + t.PriorViews*t.BaselineRate) / (math.Max(1.0, views) + t.PriorViews)
	score += t.RateWeight * (rate - t.BaselineRate)

	// Capped penalty for posts with many views and zero engagement.
	if totalEngagement == 0 && views >= t.ZeroEngMinViews {
		penalty := math.Min(t.ZeroEngCap, t.ZeroEngSlope*math.Sqrt(math.Max(0.0, views-t.ZeroEngMinViews))*100.0)
		score -= penalty
	}

	// Smooth time decay favoring recent posts without a hard cliff.
	hoursSince := now.Sub(p.CreatedAt).Hours()
	if hoursSince < 0 {
		hoursSince = 0
	}
	score += t.DecayWeight / math.Sqrt(hoursSince+t.DecayOffsetHours)

	// Viewer affinity: home university outranks a followed one.
	if v != nil {
		if p.UniversityID != "" && p.UniversityID == v.UniversityID {
			score += t.HomeUniversityBonus
		} else if v.Follows(p.UniversityID) {
			score += t.FollowedUniversityBonus
		}
		if v.PreferredFlag != post.FlagNone && v.PreferredFlag == p.Flag {
			score += t.FlagAffinityBonus
		}
	}

	// Flat staleness demotion. Keeps old posts ordered rather than
	// filtered.
	if hoursSince > t.StaleAfterHours {
		score -= t.StalePenalty
	}

	return score
}

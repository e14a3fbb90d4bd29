// Package ranking implements post scoring and ranking for feeds,
// trending and search, with calibration support for the scoring
// constants.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	tunables, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default tunables", "error", err)
//	}
//
//	// Rank a candidate set for a viewer
//	ranked := ranking.Rank(candidates, viewerCtx, time.Now(), ranking.Options{
//		Limit:       ranking.FeedPageLimit,
//		Suppression: ranking.SuppressExclude,
//		Tunables:    tunables,
//	})
//
// Scoring:
//
// Score combines, in fixed order: the base weighted vote/reply/repost
// sum, a Bayesian-smoothed engagement rate, a capped zero-engagement
// penalty, smooth time decay, viewer affinity bonuses, and a flat
// staleness demotion. The function is deterministic and total over
// all posts; exact float ties are broken by Rank's stable sort using
// the candidate supplier's order.
//
// Suppression:
//
// Posts under active moderation action are either excluded from the
// output or buried with BuryScore, selected per call via
// Options.Suppression. The suppression predicate itself lives on the
// post model and is re-evaluated on every read, so time-bounded
// suppression lapses without a background job.
//
// Calibration:
//
// The calibration system allows deploy-time tuning of scoring
// constants via a JSON file loaded at startup. Partial files override
// individual constants and merge with the defaults. Changing the file
// requires a restart to pick up.
package ranking

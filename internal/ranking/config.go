package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Tunables holds the policy constants of the scoring function. These
// are the primary lever for ranking behavior and are deployable via a
// JSON calibration file; none of them are structural.
type Tunables struct {
	// Base weighted sum.
	VoteWeight   float64 `json:"vote_weight"`   // Weight for net votes/likes (default: 3.0)
	ReplyWeight  float64 `json:"reply_weight"`  // Weight for reply count (default: 2.0)
	RepostWeight float64 `json:"repost_weight"` // Weight for repost count (default: 2.0)

	// Bayesian-smoothed engagement rate.
	ReplyEngagement  float64 `json:"reply_engagement"`  // Reply share of total engagement (default: 0.6)
	RepostEngagement float64 `json:"repost_engagement"` // Repost share of total engagement (default: 0.8)
	PriorViews       float64 `json:"prior_views"`       // Pseudo-views prior (default: 30.0)
	BaselineRate     float64 `json:"baseline_rate"`     // Expected engagement rate (default: 0.015)
	RateWeight       float64 `json:"rate_weight"`       // Weight for rate deviation (default: 25.0)

	// Zero-engagement penalty for posts that accumulate views without
	// any interaction.
	ZeroEngMinViews float64 `json:"zero_eng_min_views"` // Views before penalty applies (default: 100)
	ZeroEngSlope    float64 `json:"zero_eng_slope"`     // Penalty slope per sqrt-view (default: 0.01)
	ZeroEngCap      float64 `json:"zero_eng_cap"`       // Penalty ceiling (default: 10.0)

	// Time decay.
	DecayWeight      float64 `json:"decay_weight"`       // Recency boost numerator (default: 4.0)
	DecayOffsetHours float64 `json:"decay_offset_hours"` // Decay denominator offset (default: 2.0)

	// Viewer affinity.
	HomeUniversityBonus     float64 `json:"home_university_bonus"`     // Same institution as viewer (default: 2.0)
	FollowedUniversityBonus float64 `json:"followed_university_bonus"` // Followed institution (default: 1.5)
	FlagAffinityBonus       float64 `json:"flag_affinity_bonus"`       // Preferred flag type match (default: 1.0)

	// Staleness cutoff. A flat penalty rather than a hard filter so
	// the score remains a total order over all posts.
	StaleAfterHours float64 `json:"stale_after_hours"` // Age threshold (default: 168)
	StalePenalty    float64 `json:"stale_penalty"`     // Flat demotion (default: 100.0)
}

// CalibrationConfig is the JSON shape of the calibration file.
type CalibrationConfig struct {
	Version  string   `json:"version"`  // Config version for future compatibility
	Tunables Tunables `json:"tunables"` // Tunable overrides
}

// DefaultTunables returns the production scoring constants. The
// zero-engagement and staleness values are empirically tuned and
// carried as fixed contractual defaults.
func DefaultTunables() *Tunables {
	return &Tunables{
		VoteWeight:   3.0,
		ReplyWeight:  2.0,
		RepostWeight: 2.0,

		ReplyEngagement:  0.6,
		RepostEngagement: 0.8,
		PriorViews:       30.0,
		BaselineRate:     0.015,
		RateWeight:       25.0,

		ZeroEngMinViews: 100.0,
		ZeroEngSlope:    0.01,
		ZeroEngCap:      10.0,

		DecayWeight:      4.0,
		DecayOffsetHours: 2.0,

		HomeUniversityBonus:     2.0,
		FollowedUniversityBonus: 1.5,
		FlagAffinityBonus:       1.0,

		StaleAfterHours: 24.0 * 7.0,
		StalePenalty:    100.0,
	}
}

// LoadCalibration loads scoring tunables from a JSON calibration
// file. Partial configurations are merged with defaults so a file can
// override a single constant. On any error it returns the defaults
// alongside the error, so callers degrade gracefully.
func LoadCalibration(filePath string) (*Tunables, error) {
	if filePath == "" {
		return DefaultTunables(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultTunables(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultTunables(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultTunables()
	merged := MergeCalibration(defaults, &config.Tunables)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override tunables into base. Only non-zero
// override values are applied, which allows partial calibration
// files. Zero is not a meaningful value for any tunable, so the
// convention loses nothing.
func MergeCalibration(base *Tunables, override *Tunables) *Tunables {
	if base == nil {
		return DefaultTunables()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	for _, f := range tunableFields(&result, override) {
		if *f.override != 0 {
			*f.merged = *f.override
		}
	}

	return &result
}

// tunableField pairs the same tunable across two Tunables values.
type tunableField struct {
	name     string
	merged   *float64
	override *float64
}

// tunableFields enumerates every tunable by name. Field order here
// fixes the order of override log lines.
func tunableFields(a, b *Tunables) []tunableField {
	return []tunableField{
		{"vote_weight", &a.VoteWeight, &b.VoteWeight},
		{"reply_weight", &a.ReplyWeight, &b.ReplyWeight},
		{"repost_weight", &a.RepostWeight, &b.RepostWeight},
		{"reply_engagement", &a.ReplyEngagement, &b.ReplyEngagement},
		{"repost_engagement", &a.RepostEngagement, &b.RepostEngagement},
		{"prior_views", &a.PriorViews, &b.PriorViews},
		{"baseline_rate", &a.BaselineRate, &b.BaselineRate},
		{"rate_weight", &a.RateWeight, &b.RateWeight},
		{"zero_eng_min_views", &a.ZeroEngMinViews, &b.ZeroEngMinViews},
		{"zero_eng_slope", &a.ZeroEngSlope, &b.ZeroEngSlope},
		{"zero_eng_cap", &a.ZeroEngCap, &b.ZeroEngCap},
		{"decay_weight", &a.DecayWeight, &b.DecayWeight},
		{"decay_offset_hours", &a.DecayOffsetHours, &b.DecayOffsetHours},
		{"home_university_bonus", &a.HomeUniversityBonus, &b.HomeUniversityBonus},
		{"followed_university_bonus", &a.FollowedUniversityBonus, &b.FollowedUniversityBonus},
		{"flag_affinity_bonus", &a.FlagAffinityBonus, &b.FlagAffinityBonus},
		{"stale_after_hours", &a.StaleAfterHours, &b.StaleAfterHours},
		{"stale_penalty", &a.StalePenalty, &b.StalePenalty},
	}
}

// logCalibrationOverrides logs which tunables differ from defaults.
func logCalibrationOverrides(defaults *Tunables, loaded *Tunables) {
	var overrides []string

	for _, f := range tunableFields(defaults, loaded) {
		if *f.merged != *f.override {
			overrides = append(overrides, fmt.Sprintf("%s: %g -> %g", f.name, *f.merged, *f.override))
		}
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}

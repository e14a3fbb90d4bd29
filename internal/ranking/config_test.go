package ranking

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTunables(t *testing.T) {
	d := DefaultTunables()

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"vote_weight", d.VoteWeight, 3.0},
		{"reply_weight", d.ReplyWeight, 2.0},
		{"repost_weight", d.RepostWeight, 2.0},
		{"reply_engagement", d.ReplyEngagement, 0.6},
		{"repost_engagement", d.RepostEngagement, 0.8},
		{"prior_views", d.PriorViews, 30.0},
		{"baseline_rate", d.BaselineRate, 0.015},
		{"rate_weight", d.RateWeight, 25.0},
		{"zero_eng_min_views", d.ZeroEngMinViews, 100.0},
		{"zero_eng_slope", d.ZeroEngSlope, 0.01},
		{"zero_eng_cap", d.ZeroEngCap, 10.0},
		{"decay_weight", d.DecayWeight, 4.0},
		{"decay_offset_hours", d.DecayOffsetHours, 2.0},
		{"home_university_bonus", d.HomeUniversityBonus, 2.0},
		{"followed_university_bonus", d.FollowedUniversityBonus, 1.5},
		{"flag_affinity_bonus", d.FlagAffinityBonus, 1.0},
		{"stale_after_hours", d.StaleAfterHours, 168.0},
		{"stale_penalty", d.StalePenalty, 100.0},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadCalibration_EmptyPath(t *testing.T) {
	got, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != *DefaultTunables() {
		t.Errorf("empty path should yield defaults, got %+v", got)
	}
}

func TestLoadCalibration_MissingFile(t *testing.T) {
	got, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if got == nil || *got != *DefaultTunables() {
		t.Errorf("missing file should fall back to defaults, got %+v", got)
	}
}

func TestLoadCalibration_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCalibration(path)
	if err == nil {
		t.Error("expected an error for malformed JSON")
	}
	if got == nil || *got != *DefaultTunables() {
		t.Errorf("malformed file should fall back to defaults, got %+v", got)
	}
}

func TestLoadCalibration_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	body := `{
		"version": "2025-06",
		"tunables": {
			"vote_weight": 4.5,
			"stale_penalty": 50
		}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.VoteWeight != 4.5 {
		t.Errorf("VoteWeight = %v, want 4.5", got.VoteWeight)
	}
	if got.StalePenalty != 50 {
		t.Errorf("StalePenalty = %v, want 50", got.StalePenalty)
	}
	// Everything omitted keeps its default.
	if got.ReplyWeight != 2.0 || got.BaselineRate != 0.015 {
		t.Errorf("unset tunables changed: %+v", got)
	}
}

func TestMergeCalibration(t *testing.T) {
	base := DefaultTunables()

	t.Run("nil base yields defaults", func(t *testing.T) {
		got := MergeCalibration(nil, &Tunables{VoteWeight: 9})
		if *got != *DefaultTunables() {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("nil override copies base", func(t *testing.T) {
		got := MergeCalibration(base, nil)
		if *got != *base {
			t.Errorf("got %+v", got)
		}
		if got == base {
			t.Error("merge must not alias base")
		}
	})

	t.Run("zero override values ignored", func(t *testing.T) {
		got := MergeCalibration(base, &Tunables{RateWeight: 30})
		if got.RateWeight != 30 {
			t.Errorf("RateWeight = %v, want 30", got.RateWeight)
		}
		if got.VoteWeight != base.VoteWeight {
			t.Errorf("VoteWeight = %v, want %v", got.VoteWeight, base.VoteWeight)
		}
	})

	t.Run("base never mutated", func(t *testing.T) {
		before := *base
		MergeCalibration(base, &Tunables{VoteWeight: 7})
		if *base != before {
			t.Errorf("base mutated: %+v", base)
		}
	})
}

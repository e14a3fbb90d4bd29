package post

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestPost_ActivelySuppressed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status ModerationStatus
		until  *time.Time
		want   bool
	}{
		{name: "ok", status: ModerationOK, want: false},
		{name: "empty status treated as ok", status: "", want: false},
		{name: "soft indefinite", status: ModerationSoft, want: true},
		{name: "soft with future expiry", status: ModerationSoft, until: timePtr(now.Add(time.Hour)), want: true},
		{name: "soft with lapsed expiry", status: ModerationSoft, until: timePtr(now.Add(-time.Hour)), want: false},
		{name: "escalated indefinite", status: ModerationEscalated, want: true},
		{name: "escalated with lapsed expiry", status: ModerationEscalated, until: timePtr(now.Add(-time.Second)), want: false},
		{name: "ok ignores expiry", status: ModerationOK, until: timePtr(now.Add(time.Hour)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{ModerationStatus: tt.status, ModerationUntil: tt.until}
			if got := p.ActivelySuppressed(now); got != tt.want {
				t.Errorf("ActivelySuppressed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPost_VotingRegime(t *testing.T) {
	tests := []struct {
		name           string
		flag           Flag
		likes          int
		red            int
		green          int
		wantVoteScore  int
		wantEngagement int
	}{
		{name: "unflagged counts likes", flag: FlagNone, likes: 7, red: 3, green: 9, wantVoteScore: 7, wantEngagement: 7},
		{name: "red flag counts votes", flag: FlagRed, likes: 7, red: 3, green: 9, wantVoteScore: 6, wantEngagement: 12},
		{name: "green flag counts votes", flag: FlagGreen, likes: 7, red: 10, green: 4, wantVoteScore: -6, wantEngagement: 14},
		{name: "zero everything", flag: FlagNone, wantVoteScore: 0, wantEngagement: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{
				Flag:           tt.flag,
				LikeCount:      tt.likes,
				RedVoteCount:   tt.red,
				GreenVoteCount: tt.green,
			}
			if got := p.VoteScore(); got != tt.wantVoteScore {
				t.Errorf("VoteScore() = %d, want %d", got, tt.wantVoteScore)
			}
			if got := p.Engagement(); got != tt.wantEngagement {
				t.Errorf("Engagement() = %d, want %d", got, tt.wantEngagement)
			}
		})
	}
}

func TestPost_IsTopLevel(t *testing.T) {
	parent := "parent-id"

	if p := (&Post{}); !p.IsTopLevel() {
		t.Error("post without parent should be top-level")
	}
	if p := (&Post{ParentID: &parent}); p.IsTopLevel() {
		t.Error("reply should not be top-level")
	}
}

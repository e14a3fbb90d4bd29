package post

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestScope_Valid(t *testing.T) {
	valid := []Scope{ScopeForYou, ScopeFollowing, ScopeMyUni}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("Scope(%q).Valid() = false, want true", s)
		}
	}
	for _, s := range []Scope{"", "global", "FOR_YOU"} {
		if s.Valid() {
			t.Errorf("Scope(%q).Valid() = true, want false", s)
		}
	}
}

func TestInMemoryStore_Create(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	p := &Post{AuthorID: "a1", Text: "hello"}
	if err := store.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	if p.ID == "" {
		t.Error("Create did not assign an ID")
	}
	if p.CreatedAt.IsZero() {
		t.Error("Create did not assign a creation time")
	}
	if p.ModerationStatus != ModerationOK {
		t.Errorf("ModerationStatus = %q, want %q", p.ModerationStatus, ModerationOK)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "hello" {
		t.Errorf("Text = %q, want %q", got.Text, "hello")
	}
}

func TestInMemoryStore_GetByID_NotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	p := &Post{ID: "p1", Text: "original", CreatedAt: time.Now()}
	if err := store.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	got.Text = "mutated"

	again, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Text != "original" {
		t.Error("mutating a returned post leaked into the store")
	}
}

func TestInMemoryStore_ListCandidates_Scopes(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	posts := []*Post{
		{ID: "home", UniversityID: "uni-1", CreatedAt: now.Add(-1 * time.Minute)},
		{ID: "followed-a", UniversityID: "uni-2", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "followed-b", UniversityID: "uni-3", CreatedAt: now.Add(-3 * time.Minute)},
		{ID: "stranger", UniversityID: "uni-4", CreatedAt: now.Add(-4 * time.Minute)},
		{ID: "nowhere", CreatedAt: now.Add(-5 * time.Minute)},
	}
	for _, p := range posts {
		if err := store.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		q    CandidateQuery
		want []string
	}{
		{
			name: "for_you returns everything",
			q:    CandidateQuery{Scope: ScopeForYou},
			want: []string{"home", "followed-a", "followed-b", "stranger", "nowhere"},
		},
		{
			name: "following filters to followed universities",
			q: CandidateQuery{
				Scope:                 ScopeFollowing,
				FollowedUniversityIDs: []string{"uni-2", "uni-3"},
			},
			want: []string{"followed-a", "followed-b"},
		},
		{
			name: "following with nothing followed",
			q:    CandidateQuery{Scope: ScopeFollowing},
			want: nil,
		},
		{
			name: "my_uni filters to home university",
			q:    CandidateQuery{Scope: ScopeMyUni, HomeUniversityID: "uni-1"},
			want: []string{"home"},
		},
		{
			name: "my_uni with no home university",
			q:    CandidateQuery{Scope: ScopeMyUni},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListCandidates(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("candidates = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestInMemoryStore_ListCandidates_Filters(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parent := "parent"
	lapsed := now.Add(-time.Hour)

	posts := []*Post{
		{ID: "recent", CreatedAt: now.Add(-time.Hour)},
		{ID: "old", CreatedAt: now.Add(-100 * time.Hour)},
		{ID: "future", CreatedAt: now.Add(time.Hour)},
		{ID: "reply", ParentID: &parent, CreatedAt: now.Add(-time.Hour)},
		{ID: "suppressed", ModerationStatus: ModerationSoft, CreatedAt: now.Add(-time.Hour)},
		{ID: "was-suppressed", ModerationStatus: ModerationSoft, ModerationUntil: &lapsed, CreatedAt: now.Add(-2 * time.Hour)},
	}
	for _, p := range posts {
		if err := store.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListCandidates(ctx, CandidateQuery{
		Scope:             ScopeForYou,
		TopLevelOnly:      true,
		Since:             now.Add(-72 * time.Hour),
		Until:             now,
		ExcludeSuppressed: true,
		Now:               now,
	})
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if fmt.Sprint(ids) != fmt.Sprint([]string{"recent", "was-suppressed"}) {
		t.Errorf("candidates = %v, want [recent was-suppressed]", ids)
	}
}

func TestSortByCreatedDesc(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	posts := []*Post{
		{ID: "b", CreatedAt: t1},
		{ID: "a", CreatedAt: t2},
		{ID: "c", CreatedAt: t1},
		{ID: "d", CreatedAt: t2},
	}
	SortByCreatedDesc(posts)

	var ids []string
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	// Newest first; within a shared timestamp, ID descending.
	if fmt.Sprint(ids) != fmt.Sprint([]string{"d", "a", "c", "b"}) {
		t.Errorf("order = %v, want [d a c b]", ids)
	}
}

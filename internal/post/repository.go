package post

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for post operations.
var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidScope = errors.New("invalid feed scope")
)

// Scope selects which posts are eligible candidates for a feed query.
type Scope string

// Feed scopes.
const (
	// ScopeForYou is the global candidate pool.
	ScopeForYou Scope = "for_you"

	// ScopeFollowing restricts candidates to universities the viewer
	// follows.
	ScopeFollowing Scope = "following"

	// ScopeMyUni restricts candidates to the viewer's own university.
	ScopeMyUni Scope = "my_uni"
)

// Valid reports whether s is a recognized feed scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeForYou, ScopeFollowing, ScopeMyUni:
		return true
	}
	return false
}

// CandidateQuery describes one candidate-set fetch. Zero-value time
// bounds are unbounded.
type CandidateQuery struct {
	Scope Scope

	// HomeUniversityID and FollowedUniversityIDs drive the
	// following/my_uni scopes. Ignored for ScopeForYou.
	HomeUniversityID      string
	FollowedUniversityIDs []string

	// TopLevelOnly excludes replies from the candidate set.
	TopLevelOnly bool

	// Since bounds eligibility to posts created at or after it.
	Since time.Time

	// Until is the freshness watermark: only posts created at or
	// before it are eligible. Keeps an in-progress pagination session
	// stable under concurrent inserts.
	Until time.Time

	// ExcludeSuppressed drops posts that are actively suppressed at
	// Now instead of leaving them for the orchestrator to bury.
	ExcludeSuppressed bool

	// Now is the evaluation instant for suppression expiry.
	Now time.Time
}

// CandidateStore supplies candidate posts with counter snapshots
// attached. Implementations must return candidates ordered by
// (created_at DESC, id DESC); that ordering is part of the ranking
// contract because the orchestrator's stable sort breaks exact score
// ties by supplier order.
type CandidateStore interface {
	// Create inserts a new post, assigning a UUID if none is set.
	Create(ctx context.Context, p *Post) error

	// GetByID retrieves a post by its UUID.
	GetByID(ctx context.Context, id string) (*Post, error)

	// ListCandidates returns the posts matching the query, ordered by
	// (created_at DESC, id DESC).
	ListCandidates(ctx context.Context, q CandidateQuery) ([]*Post, error)
}

// InMemoryStore is an in-memory CandidateStore. Thread-safe via
// RWMutex. Used in tests and as the fallback when no database is
// configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

// NewInMemoryStore creates an empty in-memory candidate store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		posts: make(map[string]*Post),
	}
}

// Create inserts a new post, assigning a UUID if none is set.
func (s *InMemoryStore) Create(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ModerationStatus == "" {
		p.ModerationStatus = ModerationOK
	}

	postCopy := *p
	s.posts[p.ID] = &postCopy
	return nil
}

// GetByID retrieves a post by its UUID.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	postCopy := *p
	return &postCopy, nil
}

// ListCandidates returns the posts matching the query, ordered by
// (created_at DESC, id DESC).
func (s *InMemoryStore) ListCandidates(ctx context.Context, q CandidateQuery) ([]*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	followed := make(map[string]struct{}, len(q.FollowedUniversityIDs))
	for _, id := range q.FollowedUniversityIDs {
		followed[id] = struct{}{}
	}

	var candidates []*Post
	for _, p := range s.posts {
		if !matchesScope(p, q.Scope, q.HomeUniversityID, followed) {
			continue
		}
		if q.TopLevelOnly && !p.IsTopLevel() {
			continue
		}
		if !q.Since.IsZero() && p.CreatedAt.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && p.CreatedAt.After(q.Until) {
			continue
		}
		if q.ExcludeSuppressed && p.ActivelySuppressed(q.Now) {
			continue
		}
		postCopy := *p
		candidates = append(candidates, &postCopy)
	}

	SortByCreatedDesc(candidates)
	return candidates, nil
}

// matchesScope applies the feed scope filter to a single post.
func matchesScope(p *Post, scope Scope, homeUniversityID string, followed map[string]struct{}) bool {
	switch scope {
	case ScopeForYou, "":
		return true
	case ScopeFollowing:
		_, ok := followed[p.UniversityID]
		return ok
	case ScopeMyUni:
		return homeUniversityID != "" && p.UniversityID == homeUniversityID
	}
	return false
}

// SortByCreatedDesc sorts posts by created_at DESC, then by ID DESC
// for tie-breaking. This is the keyset ordering used for feed
// pagination: timestamps have second resolution in practice, so the
// ID tie-breaker is required for a total order.
func SortByCreatedDesc(posts []*Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.After(posts[j].CreatedAt) {
			return true
		}
		if posts[i].CreatedAt.Before(posts[j].CreatedAt) {
			return false
		}
		return posts[i].ID > posts[j].ID
	})
}

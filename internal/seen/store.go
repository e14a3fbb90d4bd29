// Package seen provides the per-viewer view log used for unique view
// counts and seen/unseen feed partitioning.
package seen

import (
	"context"
	"sync"
)

// Store records which viewers have seen which posts. View counts
// derived from it are unique-viewer approximations; the feed service
// reads them per batch before scoring.
type Store interface {
	// MarkSeen records that the viewer has seen the post. Idempotent.
	MarkSeen(ctx context.Context, viewerID, postID string) error

	// SeenSet returns the set of post IDs the viewer has seen.
	SeenSet(ctx context.Context, viewerID string) (map[string]struct{}, error)

	// ViewCount returns the number of unique viewers who have seen
	// the post. Unknown posts count zero.
	ViewCount(ctx context.Context, postID string) (int, error)

	// ViewCounts returns unique-viewer counts for a batch of posts in
	// one call. Unknown posts count zero. Used on the read path to
	// refresh candidate view counters before scoring.
	ViewCounts(ctx context.Context, postIDs []string) (map[string]int, error)
}

// InMemoryStore is an in-memory view log. Thread-safe via RWMutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	byViewer map[string]map[string]struct{}
	byPost   map[string]map[string]struct{}
}

// NewInMemoryStore creates an empty in-memory view log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byViewer: make(map[string]map[string]struct{}),
		byPost:   make(map[string]map[string]struct{}),
	}
}

// MarkSeen records that the viewer has seen the post.
func (s *InMemoryStore) MarkSeen(ctx context.Context, viewerID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byViewer[viewerID] == nil {
		s.byViewer[viewerID] = make(map[string]struct{})
	}
	s.byViewer[viewerID][postID] = struct{}{}

	if s.byPost[postID] == nil {
		s.byPost[postID] = make(map[string]struct{})
	}
	s.byPost[postID][viewerID] = struct{}{}

	return nil
}

// SeenSet returns the set of post IDs the viewer has seen.
func (s *InMemoryStore) SeenSet(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byViewer[viewerID]
	result := make(map[string]struct{}, len(stored))
	for id := range stored {
		result[id] = struct{}{}
	}
	return result, nil
}

// ViewCount returns the number of unique viewers who have seen the
// post.
func (s *InMemoryStore) ViewCount(ctx context.Context, postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPost[postID]), nil
}

// ViewCounts returns unique-viewer counts for a batch of posts.
func (s *InMemoryStore) ViewCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(postIDs))
	for _, id := range postIDs {
		counts[id] = len(s.byPost[id])
	}
	return counts, nil
}

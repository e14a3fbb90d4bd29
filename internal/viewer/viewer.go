// Package viewer provides the viewer context consumed by the ranking
// engine and the affinity lookup that builds it.
package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/spilleu/feedengine/internal/post"
)

// ErrViewerNotFound is returned when no affinity record exists for a
// viewer.
var ErrViewerNotFound = errors.New("viewer not found")

// Context is the requesting identity for one ranking pass. A nil
// *Context means anonymous ranking: all affinity terms are skipped.
type Context struct {
	UserID string

	// UniversityID is the viewer's home institution.
	UniversityID string

	// FollowedUniversityIDs is the set of institutions the viewer
	// follows (home institution not implied).
	FollowedUniversityIDs map[string]struct{}

	// PreferredFlag is the viewer's optional flag-type affinity.
	// FlagNone means no preference.
	PreferredFlag post.Flag
}

// Follows reports whether the viewer follows the given university.
// Safe on a nil Context.
func (c *Context) Follows(universityID string) bool {
	if c == nil || universityID == "" {
		return false
	}
	_, ok := c.FollowedUniversityIDs[universityID]
	return ok
}

// FollowedIDs returns the followed-university set as a slice, for
// store queries. Safe on a nil Context.
func (c *Context) FollowedIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.FollowedUniversityIDs))
	for id := range c.FollowedUniversityIDs {
		ids = append(ids, id)
	}
	return ids
}

// Lookup resolves a viewer id to its affinity context.
type Lookup interface {
	// AffinityFor returns the viewer's context: home university,
	// followed-university set, and optional preferred flag type.
	AffinityFor(ctx context.Context, viewerID string) (*Context, error)
}

// record holds the stored affinity state for one viewer.
type record struct {
	universityID  string
	preferredFlag post.Flag
	follows       map[string]struct{}
}

// InMemoryLookup is an in-memory Lookup. Thread-safe via RWMutex.
type InMemoryLookup struct {
	mu      sync.RWMutex
	viewers map[string]*record
}

// NewInMemoryLookup creates an empty in-memory affinity lookup.
func NewInMemoryLookup() *InMemoryLookup {
	return &InMemoryLookup{
		viewers: make(map[string]*record),
	}
}

// SetViewer registers a viewer with their home university, creating
// the record if needed.
func (l *InMemoryLookup) SetViewer(viewerID, universityID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(viewerID).universityID = universityID
}

// SetPreferredFlag records the viewer's flag-type affinity.
func (l *InMemoryLookup) SetPreferredFlag(viewerID string, flag post.Flag) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(viewerID).preferredFlag = flag
}

// Follow adds a university to the viewer's followed set.
func (l *InMemoryLookup) Follow(viewerID, universityID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensure(viewerID).follows[universityID] = struct{}{}
}

// Unfollow removes a university from the viewer's followed set.
func (l *InMemoryLookup) Unfollow(viewerID, universityID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.viewers[viewerID]; ok {
		delete(r.follows, universityID)
	}
}

// AffinityFor returns the viewer's affinity context.
func (l *InMemoryLookup) AffinityFor(ctx context.Context, viewerID string) (*Context, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.viewers[viewerID]
	if !ok {
		return nil, ErrViewerNotFound
	}

	followed := make(map[string]struct{}, len(r.follows))
	for id := range r.follows {
		followed[id] = struct{}{}
	}

	return &Context{
		UserID:                viewerID,
		UniversityID:          r.universityID,
		FollowedUniversityIDs: followed,
		PreferredFlag:         r.preferredFlag,
	}, nil
}

// ensure returns the record for viewerID, creating it if absent.
// Callers must hold the write lock.
func (l *InMemoryLookup) ensure(viewerID string) *record {
	r, ok := l.viewers[viewerID]
	if !ok {
		r = &record{follows: make(map[string]struct{})}
		l.viewers[viewerID] = r
	}
	return r
}

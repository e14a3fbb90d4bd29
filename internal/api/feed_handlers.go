package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/spilleu/feedengine/internal/feed"
	"github.com/spilleu/feedengine/internal/middleware"
	"github.com/spilleu/feedengine/internal/post"
	"github.com/spilleu/feedengine/internal/ranking"
	"github.com/spilleu/feedengine/internal/seen"
	"github.com/spilleu/feedengine/internal/viewer"
)

// MaxPageLimit caps client-requested page sizes.
const MaxPageLimit = 100

// FeedHandlers holds dependencies for feed HTTP handlers.
type FeedHandlers struct {
	svc     *feed.Service
	viewers viewer.Lookup
	seen    seen.Store
}

// NewFeedHandlers creates a FeedHandlers instance.
func NewFeedHandlers(svc *feed.Service, viewers viewer.Lookup, seenStore seen.Store) *FeedHandlers {
	return &FeedHandlers{
		svc:     svc,
		viewers: viewers,
		seen:    seenStore,
	}
}

// parseLimit reads the limit query parameter, clamped to
// [1, MaxPageLimit]. Zero means "use the endpoint default".
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > MaxPageLimit {
		return MaxPageLimit
	}
	return n
}

// resolveViewer builds the viewer context for the request, or nil
// for anonymous requests. An unknown viewer ID degrades to an
// anonymous context rather than failing the request.
func (h *FeedHandlers) resolveViewer(r *http.Request) *viewer.Context {
	viewerID := middleware.GetViewerID(r.Context())
	if viewerID == "" {
		return nil
	}
	vctx, err := h.viewers.AffinityFor(r.Context(), viewerID)
	if err != nil {
		if !errors.Is(err, viewer.ErrViewerNotFound) {
			slog.WarnContext(r.Context(), "viewer affinity lookup failed",
				"viewer_id", viewerID,
				"error", err)
		}
		return &viewer.Context{UserID: viewerID}
	}
	return vctx
}

// GetFeed handles GET /feed - one page of the personalized for-you
// feed. Requires a viewer identity.
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	vctx := h.resolveViewer(r)
	if vctx == nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeMissingViewer,
			"A viewer identity is required for the personalized feed")
		return
	}

	limit := parseLimit(r, ranking.FeedPageLimit)
	cursor := r.URL.Query().Get("cursor")

	page, err := h.svc.ForYou(r.Context(), vctx, cursor, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "feed assembly failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Failed to assemble feed")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, page)
}

// GetRecent handles GET /recent?scope= - a scope-filtered recency
// feed (following or my_uni).
func (h *FeedHandlers) GetRecent(w http.ResponseWriter, r *http.Request) {
	scope := post.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = post.ScopeForYou
	}
	if !scope.Valid() {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidScope,
			"Scope must be one of for_you, following, my_uni")
		return
	}

	vctx := h.resolveViewer(r)
	if vctx == nil && scope != post.ScopeForYou {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeMissingViewer,
			"A viewer identity is required for scoped feeds")
		return
	}

	limit := parseLimit(r, ranking.FeedPageLimit)
	cursor := r.URL.Query().Get("cursor")

	page, err := h.svc.Recent(r.Context(), vctx, scope, cursor, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "recent feed failed", "scope", scope, "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Failed to assemble feed")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, page)
}

// TrendingResponse is the response body for GET /trending.
type TrendingResponse struct {
	Posts []*post.Post `json:"posts"`
}

// GetTrending handles GET /trending - globally top-ranked posts of
// the last day. Anonymous access is fine.
func (h *FeedHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, ranking.TrendingLimit)

	posts, err := h.svc.Trending(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "trending failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Failed to compute trending posts")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, TrendingResponse{Posts: posts})
}

// MarkSeen handles POST /posts/{id}/seen - records that the viewer
// has seen a post. Idempotent.
func (h *FeedHandlers) MarkSeen(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())
	if viewerID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeMissingViewer,
			"A viewer identity is required to record views")
		return
	}

	postID := r.PathValue("id")
	if postID == "" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound,
			"The requested resource was not found")
		return
	}

	if err := h.seen.MarkSeen(r.Context(), viewerID, postID); err != nil {
		slog.ErrorContext(r.Context(), "mark seen failed", "post_id", postID, "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Failed to record view")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/essay-site/internal/model"
)

// EngagementService is what the like and review endpoints need.
// *service.EngagementService implements it.
type EngagementService interface {
	Like(ctx context.Context, essayID, anonID string) (int64, error)
	LikeCount(ctx context.Context, essayID string) (int64, error)
	SubmitReview(ctx context.Context, essayID, text, anonID string) (*model.Review, error)
	ListReviews(ctx context.Context, essayID string) ([]model.Review, error)
}

// EngagementHandler serves likes and reviews for one essay at a time.
type EngagementHandler struct {
	svc    EngagementService
	logger *slog.Logger
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(svc EngagementService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{svc: svc, logger: logger}
}

// likeRequest uses pointers so "missing" and "wrong type" are distinguishable
// from an empty string: a number for anonId fails decoding outright.
type likeRequest struct {
	AnonID *string `json:"anonId"`
}

type reviewRequest struct {
	Review *string `json:"review"`
	AnonID *string `json:"anonId"`
}

type reviewsResponse struct {
	EssayID string         `json:"essayId"`
	Reviews []model.Review `json:"reviews"`
}

type submitReviewResponse struct {
	Success bool          `json:"success"`
	Review  *model.Review `json:"review"`
}

// essayIDParam reads the {id} path segment, trimmed the same way the service
// trims it before using it as a key, so responses echo the stored id.
func essayIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleGetLikes returns the like count.
//
// HTTP: GET /essays/{id}/likes → 200 {"essayId": "...", "count": 3}
func (h *EngagementHandler) HandleGetLikes(w http.ResponseWriter, r *http.Request) {
	essayID := essayIDParam(r)

	count, err := h.svc.LikeCount(r.Context(), essayID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.LikeSummary{EssayID: essayID, Count: count})
}

// HandleLike records a like and returns the resulting count. Liking twice
// is not an error; the second call just reports the unchanged count.
//
// HTTP: POST /essays/{id}/likes
// REQUEST BODY: {"anonId": "c9a1..."}
func (h *EngagementHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	essayID := essayIDParam(r)

	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid like request", slog.String("essay_id", essayID))
		writeError(w, err)
		return
	}

	count, err := h.svc.Like(r.Context(), essayID, deref(req.AnonID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.LikeSummary{EssayID: essayID, Count: count})
}

// HandleListReviews returns every review, newest first.
//
// HTTP: GET /essays/{id}/reviews
func (h *EngagementHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	essayID := essayIDParam(r)

	reviews, err := h.svc.ListReviews(r.Context(), essayID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewsResponse{EssayID: essayID, Reviews: reviews})
}

// HandleSubmitReview stores a review under the visitor's pseudonym.
//
// HTTP: POST /essays/{id}/reviews
// REQUEST BODY: {"review": "Loved it", "anonId": "c9a1..."}
// RESPONSE: 201 {"success": true, "review": {...}}
func (h *EngagementHandler) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	essayID := essayIDParam(r)

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid review request", slog.String("essay_id", essayID))
		writeError(w, err)
		return
	}

	review, err := h.svc.SubmitReview(r.Context(), essayID, deref(req.Review), deref(req.AnonID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitReviewResponse{Success: true, Review: review})
}

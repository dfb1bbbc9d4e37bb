package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/api/responses"
	"github.com/ahtisham774/spectech-backend/api/validators"
	"github.com/ahtisham774/spectech-backend/internal/bookmarks"
	"github.com/ahtisham774/spectech-backend/internal/follows"
	"github.com/ahtisham774/spectech-backend/internal/reviews"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type FollowService interface {
	Toggle(ctx context.Context, userID, businessID uuid.UUID) (*follows.ToggleResult, error)
	ListFollowed(ctx context.Context, userID uuid.UUID) ([]models.Business, error)
}

type BookmarkService interface {
	Toggle(ctx context.Context, userID, businessID uuid.UUID) (*bookmarks.ToggleResult, error)
	ListSaved(ctx context.Context, userID uuid.UUID) ([]models.Business, error)
}

type ReviewService interface {
	Submit(ctx context.Context, userID, businessID uuid.UUID, input reviews.Input) (*models.Review, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]models.Review, error)
}

type submitReviewRequest struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Title  *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body   *string `json:"body,omitempty" validate:"omitempty,max=5000"`
}

type reviewView struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Rating     int       `json:"rating"`
	Title      *string   `json:"title,omitempty"`
	Body       *string   `json:"body,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toReviewView(review *models.Review) *reviewView {
	if review == nil {
		return nil
	}
	return &reviewView{
		ID:         review.ID.String(),
		BusinessID: review.BusinessID.String(),
		Rating:     review.Rating,
		Title:      review.Title,
		Body:       review.Body,
		CreatedAt:  review.CreatedAt,
	}
}

// ToggleFollow follows or unfollows a business for the caller.
func ToggleFollow(svc FollowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Toggle(r.Context(), userID, businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListFollowedBusinesses returns the businesses the caller follows.
func ListFollowedBusinesses(svc FollowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListFollowed(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessViews(rows))
	}
}

// ToggleBookmark saves or removes a business from the caller's bookmarks.
func ToggleBookmark(svc BookmarkService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookmark service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Toggle(r.Context(), userID, businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListBookmarkedBusinesses returns the caller's saved businesses.
func ListBookmarkedBusinesses(svc BookmarkService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookmark service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListSaved(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessViews(rows))
	}
}

// SubmitReview creates or updates the caller's review of a business.
func SubmitReview(svc ReviewService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req submitReviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Submit(r.Context(), userID, businessID, reviews.Input{
			Rating: req.Rating,
			Title:  req.Title,
			Body:   req.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toReviewView(review))
	}
}

// ListBusinessReviews returns a page of reviews for a business.
func ListBusinessReviews(svc ReviewService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, offset := 0, 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = value
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offset must be a non-negative integer"))
				return
			}
			offset = value
		}

		rows, err := svc.ListByBusiness(r.Context(), businessID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]*reviewView, 0, len(rows))
		for i := range rows {
			views = append(views, toReviewView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

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
	"github.com/ahtisham774/spectech-backend/internal/businesses"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

type BusinessService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input businesses.CreateInput) (*models.Business, error)
	Update(ctx context.Context, ownerID, businessID uuid.UUID, input businesses.UpdateInput) (*models.Business, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Business, error)
	ListPublic(ctx context.Context, category string, limit, offset int) ([]models.Business, error)
	SetStatus(ctx context.Context, ownerID, businessID uuid.UUID, status enums.BusinessStatus) (*models.Business, error)
	Approve(ctx context.Context, adminID, businessID uuid.UUID) (*models.Business, error)
	Reject(ctx context.Context, adminID, businessID uuid.UUID, reason string) (*models.Business, error)
}

type createBusinessRequest struct {
	Name        string         `json:"name" validate:"required,min=2,max=200"`
	Description *string        `json:"description,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty" validate:"omitempty,email"`
	Website     *string        `json:"website,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
}

type updateBusinessRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string        `json:"description,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty" validate:"omitempty,email"`
	Website     *string        `json:"website,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
}

type setBusinessStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

type rejectBusinessRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

type businessView struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     *string        `json:"description,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	Email           *string        `json:"email,omitempty"`
	Website         *string        `json:"website,omitempty"`
	Categories      []string       `json:"categories,omitempty"`
	Address         *types.Address `json:"address,omitempty"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"paymentStatus"`
	IsApproved      bool           `json:"isApproved"`
	RejectionReason *string        `json:"rejectionReason,omitempty"`
	RatingAverage   float64        `json:"ratingAverage"`
	RatingCount     int            `json:"ratingCount"`
	FollowerCount   int            `json:"followerCount"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toBusinessView(b *models.Business) *businessView {
	if b == nil {
		return nil
	}
	view := &businessView{
		ID:              b.ID.String(),
		Name:            b.Name,
		Description:     b.Description,
		Phone:           b.Phone,
		Email:           b.Email,
		Website:         b.Website,
		Categories:      b.Categories,
		Status:          string(b.Status),
		PaymentStatus:   string(b.PaymentStatus),
		IsApproved:      b.IsApproved,
		RejectionReason: b.RejectionReason,
		RatingAverage:   b.RatingAverage,
		RatingCount:     b.RatingCount,
		FollowerCount:   b.FollowerCount,
		CreatedAt:       b.CreatedAt,
	}
	if b.Address != (types.Address{}) {
		address := b.Address
		view.Address = &address
	}
	return view
}

func toBusinessViews(rows []models.Business) []*businessView {
	views := make([]*businessView, 0, len(rows))
	for i := range rows {
		views = append(views, toBusinessView(&rows[i]))
	}
	return views
}

// CreateBusiness registers a new business for the caller.
func CreateBusiness(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBusinessRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := businesses.CreateInput{
			Name:        req.Name,
			Description: req.Description,
			Phone:       req.Phone,
			Email:       req.Email,
			Website:     req.Website,
			Categories:  req.Categories,
		}
		if req.Address != nil {
			input.Address = *req.Address
		}

		business, err := svc.Create(r.Context(), ownerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBusinessView(business))
	}
}

// UpdateBusiness applies owner edits.
func UpdateBusiness(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateBusinessRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		business, err := svc.Update(r.Context(), ownerID, businessID, businesses.UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Phone:       req.Phone,
			Email:       req.Email,
			Website:     req.Website,
			Categories:  req.Categories,
			Address:     req.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessView(business))
	}
}

// GetBusiness returns one business profile.
func GetBusiness(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		business, err := svc.Get(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessView(business))
	}
}

// ListPublicBusinesses returns the public directory page.
func ListPublicBusinesses(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = value
		}
		offset := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offset must be a non-negative integer"))
				return
			}
			offset = value
		}
		category := strings.TrimSpace(r.URL.Query().Get("category"))

		rows, err := svc.ListPublic(r.Context(), category, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessViews(rows))
	}
}

// ListMyBusinesses returns the caller's businesses in any state.
func ListMyBusinesses(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMine(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessViews(rows))
	}
}

// SetBusinessStatus moves owner-controlled visibility.
func SetBusinessStatus(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setBusinessStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseBusinessStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		business, err := svc.SetStatus(r.Context(), ownerID, businessID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessView(business))
	}
}

// ApproveBusiness marks a paid business as approved. Admin only.
func ApproveBusiness(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		business, err := svc.Approve(r.Context(), adminID, businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessView(business))
	}
}

// RejectBusiness records an admin rejection with a reason. Admin only.
func RejectBusiness(svc BusinessService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "business service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(strings.TrimSpace(chi.URLParam(r, "businessId")), "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req rejectBusinessRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		business, err := svc.Reject(r.Context(), adminID, businessID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBusinessView(business))
	}
}

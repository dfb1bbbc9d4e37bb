package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/api/responses"
	"github.com/ahtisham774/spectech-backend/api/validators"
	"github.com/ahtisham774/spectech-backend/internal/payments"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

const codeBusinessAlreadyPaid = "BUSINESS_ALREADY_PAID"

type PaymentService interface {
	CreateIntent(ctx context.Context, userID, businessID uuid.UUID) (*payments.IntentResult, error)
	Confirm(ctx context.Context, userID uuid.UUID, intentID string) (*models.Payment, error)
	GetStatus(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
}

type createIntentRequest struct {
	BusinessID string `json:"businessId" validate:"required,uuid"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

type paymentView struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"businessId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	AmountCents     int64     `json:"amountCents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	FailureReason   *string   `json:"failureReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type createIntentResponse struct {
	Code         string       `json:"code,omitempty"`
	ClientSecret string       `json:"clientSecret,omitempty"`
	Payment      *paymentView `json:"payment,omitempty"`
}

func toPaymentView(p *models.Payment) *paymentView {
	if p == nil {
		return nil
	}
	return &paymentView{
		ID:              p.ID.String(),
		BusinessID:      p.BusinessID.String(),
		PaymentIntentID: p.StripePaymentIntentID,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		Status:          string(p.Status),
		FailureReason:   p.FailureReason,
		CreatedAt:       p.CreatedAt,
	}
}

// CreatePaymentIntent opens a payment attempt for the listing fee.
func CreatePaymentIntent(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		businessID, err := pathID(req.BusinessID, "business id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateIntent(r.Context(), userID, businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.AlreadyPaid {
			responses.WriteSuccess(w, createIntentResponse{Code: codeBusinessAlreadyPaid})
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, createIntentResponse{
			ClientSecret: result.ClientSecret,
			Payment:      toPaymentView(result.Payment),
		})
	}
}

// ConfirmPayment re-reads the intent from the gateway after a client-side
// confirmation and reconciles the observed status.
func ConfirmPayment(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.Confirm(r.Context(), userID, req.PaymentIntentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPaymentView(payment))
	}
}

// GetPaymentStatus returns the reconciled status of one payment.
func GetPaymentStatus(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentID, err := pathID(strings.TrimSpace(chi.URLParam(r, "paymentId")), "payment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.GetStatus(r.Context(), userID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPaymentView(payment))
	}
}

// ListPayments returns the caller's payment history.
func ListPayments(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]*paymentView, 0, len(rows))
		for i := range rows {
			views = append(views, toPaymentView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/api/responses"
	"github.com/ahtisham774/spectech-backend/pkg/db/models"
	pkgerrors "github.com/ahtisham774/spectech-backend/pkg/errors"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/types"
)

type OrderService interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type orderView struct {
	ID            string           `json:"id"`
	OrderNumber   string           `json:"orderNumber"`
	BusinessID    string           `json:"businessId"`
	PaymentID     string           `json:"paymentId"`
	Items         types.OrderItems `json:"items"`
	SubtotalCents int64            `json:"subtotalCents"`
	TaxCents      int64            `json:"taxCents"`
	TotalCents    int64            `json:"totalCents"`
	Currency      string           `json:"currency"`
	Status        string           `json:"status"`
	BillingName   string           `json:"billingName"`
	BillingEmail  string           `json:"billingEmail"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func toOrderView(o *models.Order) *orderView {
	if o == nil {
		return nil
	}
	return &orderView{
		ID:            o.ID.String(),
		OrderNumber:   o.OrderNumber,
		BusinessID:    o.BusinessID.String(),
		PaymentID:     o.PaymentID.String(),
		Items:         o.Items,
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		Status:        string(o.Status),
		BillingName:   o.BillingName,
		BillingEmail:  o.BillingEmail,
		CreatedAt:     o.CreatedAt,
	}
}

// GetOrder returns one of the caller's orders.
func GetOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathID(strings.TrimSpace(chi.URLParam(r, "orderId")), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

// ListOrders returns the caller's order history.
func ListOrders(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]*orderView, 0, len(rows))
		for i := range rows {
			views = append(views, toOrderView(&rows[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

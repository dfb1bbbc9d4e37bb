package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/ahtisham774/spectech-backend/pkg/metrics"
	pkgstripe "github.com/ahtisham774/spectech-backend/pkg/stripe"
)

// Gateway exposes the subset of Stripe operations required by the payment engine.
type Gateway interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	EnsureCustomer(ctx context.Context, email, name string) (string, error)
}

type stripeGateway struct {
	client  *pkgstripe.Client
	metrics *metrics.PaymentMetrics
}

// NewGateway wraps the shared Stripe client so the payment engine can be tested.
func NewGateway(client *pkgstripe.Client, m *metrics.PaymentMetrics) Gateway {
	if client == nil {
		return nil
	}
	return &stripeGateway{client: client, metrics: m}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()
	if params != nil {
		params.Context = callCtx
	}
	defer g.observe("payment_intent_create", time.Now())
	return paymentintent.New(params)
}

func (g *stripeGateway) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()
	params := &stripe.PaymentIntentParams{}
	params.Context = callCtx
	defer g.observe("payment_intent_get", time.Now())
	return paymentintent.Get(id, params)
}

// EnsureCustomer finds an existing Stripe customer by email or creates one.
func (g *stripeGateway) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	callCtx, cancel := g.client.CallContext(ctx)
	defer cancel()
	defer g.observe("customer_ensure", time.Now())

	searchParams := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   fmt.Sprintf("email:%q", email),
			Context: callCtx,
		},
	}
	iter := customer.Search(searchParams)
	for iter.Next() {
		if existing, ok := iter.Current().(*stripe.Customer); ok && existing != nil {
			return existing.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("searching stripe customer: %w", err)
	}

	created, err := customer.New(&stripe.CustomerParams{
		Params: stripe.Params{Context: callCtx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("creating stripe customer: %w", err)
	}
	return created.ID, nil
}

func (g *stripeGateway) observe(call string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.ObserveGatewayCall(call, time.Since(start))
}

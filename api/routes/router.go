package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahtisham774/spectech-backend/api/controllers"
	webhookcontrollers "github.com/ahtisham774/spectech-backend/api/controllers/webhooks"
	"github.com/ahtisham774/spectech-backend/api/middleware"
	"github.com/ahtisham774/spectech-backend/internal/bookmarks"
	"github.com/ahtisham774/spectech-backend/internal/businesses"
	"github.com/ahtisham774/spectech-backend/internal/follows"
	"github.com/ahtisham774/spectech-backend/internal/notifications"
	"github.com/ahtisham774/spectech-backend/internal/orders"
	"github.com/ahtisham774/spectech-backend/internal/payments"
	"github.com/ahtisham774/spectech-backend/internal/products"
	"github.com/ahtisham774/spectech-backend/internal/reviews"
	stripewebhook "github.com/ahtisham774/spectech-backend/internal/webhooks/stripe"
	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
	"github.com/ahtisham774/spectech-backend/pkg/redis"
	pkgstripe "github.com/ahtisham774/spectech-backend/pkg/stripe"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisClient *redis.Client,
	brokerP pinger,
	registry *prometheus.Registry,
	paymentService *payments.Service,
	orderService *orders.Service,
	businessService *businesses.Service,
	productService *products.Service,
	followService *follows.Service,
	bookmarkService *bookmarks.Service,
	reviewService *reviews.Service,
	notificationService *notifications.Service,
	stripeClient *pkgstripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, controllers.ReadinessDeps(dbP, redisClient, brokerP)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Stripe calls the webhook directly; authenticity comes from the
		// signature check, not a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit("webhook", cfg.RateLimit.WebhookLimit, cfg.RateLimit.WebhookWindow, redisClient, logg))
			r.Post("/payments/webhook", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
		})

		// Public directory surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit("public", cfg.RateLimit.PublicLimit, cfg.RateLimit.PublicWindow, redisClient, logg))
			r.Get("/businesses", controllers.ListPublicBusinesses(businessService, logg))
			r.Get("/businesses/{businessId}", controllers.GetBusiness(businessService, logg))
			r.Get("/businesses/{businessId}/products", controllers.ListBusinessProducts(productService, logg))
			r.Get("/businesses/{businessId}/reviews", controllers.ListBusinessReviews(reviewService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/payments/create-intent", controllers.CreatePaymentIntent(paymentService, logg))
			r.Post("/payments/confirm", controllers.ConfirmPayment(paymentService, logg))
			r.Get("/payments", controllers.ListPayments(paymentService, logg))
			r.Get("/payments/{paymentId}/status", controllers.GetPaymentStatus(paymentService, logg))

			r.Post("/businesses", controllers.CreateBusiness(businessService, logg))
			r.Get("/businesses/mine", controllers.ListMyBusinesses(businessService, logg))
			r.Put("/businesses/{businessId}", controllers.UpdateBusiness(businessService, logg))
			r.Post("/businesses/{businessId}/status", controllers.SetBusinessStatus(businessService, logg))

			r.Post("/businesses/{businessId}/products", controllers.CreateProduct(productService, logg))
			r.Patch("/products/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/products/{productId}", controllers.DeleteProduct(productService, logg))

			r.Post("/businesses/{businessId}/follow", controllers.ToggleFollow(followService, logg))
			r.Post("/businesses/{businessId}/bookmark", controllers.ToggleBookmark(bookmarkService, logg))
			r.Post("/businesses/{businessId}/reviews", controllers.SubmitReview(reviewService, logg))
			r.Get("/follows", controllers.ListFollowedBusinesses(followService, logg))
			r.Get("/bookmarks", controllers.ListBookmarkedBusinesses(bookmarkService, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationService, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(notificationService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(orderService, logg))
				r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Post("/businesses/{businessId}/approve", controllers.ApproveBusiness(businessService, logg))
		r.Post("/businesses/{businessId}/reject", controllers.RejectBusiness(businessService, logg))
	})

	return r
}

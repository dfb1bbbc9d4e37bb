package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

// The env/key pairing is validated at boot so a live key can never ship
// into a test deployment or vice versa.
var keyPrefixesByEnv = map[string][]string{
	testEnv: {"sk_test", "rk_test"},
	liveEnv: {"sk_live", "rk_live"},
}

// Client bundles the Stripe API client with the webhook signing secret
// and the per-call timeout.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
	callTimeout   time.Duration
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	apiKey := strings.TrimSpace(cfg.APIKey)
	signingSecret := strings.TrimSpace(cfg.Secret)

	switch {
	case env != testEnv && env != liveEnv:
		return nil, fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	case apiKey == "":
		return nil, fmt.Errorf("stripe api key is required")
	case !keyMatchesEnv(env, apiKey):
		return nil, fmt.Errorf("stripe environment %q requires a matching secret key (%s)",
			env, strings.Join(keyPrefixesByEnv[env], "/"))
	case signingSecret == "":
		return nil, fmt.Errorf("stripe webhook secret is required")
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}
	return &Client{
		api:           api,
		environment:   env,
		signingSecret: signingSecret,
		callTimeout:   cfg.CallTimeout,
	}, nil
}

func keyMatchesEnv(env, key string) bool {
	for _, prefix := range keyPrefixesByEnv[env] {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// CallContext bounds one Stripe API call by the configured timeout.
func (c *Client) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c == nil || c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

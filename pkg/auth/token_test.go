package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ahtisham774/spectech-backend/pkg/config"
	"github.com/ahtisham774/spectech-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "spectech",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	payload := AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "owner@example.com",
		Role:   enums.RoleOwner,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != payload.UserID {
		t.Fatalf("expected user_id %s, got %s", payload.UserID, claims.UserID)
	}
	if claims.Email != payload.Email {
		t.Fatalf("expected email %s, got %s", payload.Email, claims.Email)
	}
	if claims.Role != enums.RoleOwner {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	wantExp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	if gap := claims.ExpiresAt.Sub(wantExp).Abs(); gap >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (gap %v)", wantExp.UTC(), claims.ExpiresAt.UTC(), gap)
	}
}

func TestParseAccessTokenRejectsTamperedSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, err := MintAccessToken(cfg, issuedAt, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	base := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.RoleOwner}

	cases := []struct {
		name    string
		mutate  func(*config.JWTConfig, *AccessTokenPayload)
		message string
	}{
		{"missing secret", func(c *config.JWTConfig, _ *AccessTokenPayload) { c.Secret = "" }, "secret"},
		{"missing issuer", func(c *config.JWTConfig, _ *AccessTokenPayload) { c.Issuer = "" }, "issuer"},
		{"zero ttl", func(c *config.JWTConfig, _ *AccessTokenPayload) { c.ExpirationMinutes = 0 }, "expiration"},
		{"invalid role", func(_ *config.JWTConfig, p *AccessTokenPayload) { p.Role = "" }, "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, p := base, payload
			tc.mutate(&cfg, &p)
			_, err := MintAccessToken(cfg, time.Now(), p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error mentioning %q, got %v", tc.message, err)
			}
		})
	}
}

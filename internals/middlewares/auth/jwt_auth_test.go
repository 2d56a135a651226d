package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "studioku_backend/internals/helpers/auth"
	featuresMiddleware "studioku_backend/internals/middlewares/features"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newTestApp(opts AuthJWTOpts, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{AuthJWT(opts)}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		uid, _ := helperAuth.GetUserID(c)
		cid, _ := helperAuth.GetClientID(c)
		return c.JSON(fiber.Map{
			"user_id":   uid.String(),
			"client_id": cid.String(),
			"role":      helperAuth.GetRole(c),
			"staff":     helperAuth.IsStaff(c),
			"scope":     helperAuth.GetSedeScope(c),
		})
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthJWT_HydratesLocals(t *testing.T) {
	userID, clientID := uuid.New(), uuid.New()
	raw := signToken(t, jwt.MapClaims{
		"id":        userID.String(),
		"role":      "Client",
		"client_id": clientID.String(),
		"typ":       "access",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	app := newTestApp(AuthJWTOpts{Secret: testSecret})
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthJWT_Rejects(t *testing.T) {
	valid := jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	expired := jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	refresh := jwt.MapClaims{
		"id":  uuid.NewString(),
		"typ": "refresh",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	cases := []struct {
		name   string
		header string
		opts   AuthJWTOpts
	}{
		{"missing token", "", AuthJWTOpts{Secret: testSecret}},
		{"wrong secret", "Bearer " + signToken(t, valid, "other"), AuthJWTOpts{Secret: testSecret}},
		{"expired", "Bearer " + signToken(t, expired, testSecret), AuthJWTOpts{Secret: testSecret}},
		{"refresh token used as access", "Bearer " + signToken(t, refresh, testSecret), AuthJWTOpts{Secret: testSecret}},
		{"blacklisted", "Bearer " + signToken(t, valid, testSecret), AuthJWTOpts{
			Secret: testSecret,
			BlacklistChecker: func(ctx context.Context, raw string) (bool, error) {
				return true, nil
			},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(tc.opts)
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSedeScope_HeaderMustBeInsideToken(t *testing.T) {
	allowed, other := uuid.New(), uuid.New()
	raw := signToken(t, jwt.MapClaims{
		"id":       uuid.NewString(),
		"role":     "instructor",
		"sede_ids": []string{allowed.String()},
		"exp":      time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	app := newTestApp(AuthJWTOpts{Secret: testSecret}, featuresMiddleware.UseSedeScope(), featuresMiddleware.IsStaff())

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	req.Header.Set("X-Sede-ID", allowed.String())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	req.Header.Set("X-Sede-ID", other.String())
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestIsStaff_RejectsClients(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"id":   uuid.NewString(),
		"role": "client",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	app := newTestApp(AuthJWTOpts{Secret: testSecret}, featuresMiddleware.IsStaff())
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

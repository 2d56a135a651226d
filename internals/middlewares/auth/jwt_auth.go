package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "studioku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(ctx context.Context, rawToken string) (bool, error) // true = revoked
	AllowCookieFallback bool                                                     // read cookie access_token when no Bearer
}

// AuthJWT verifies an HMAC access token and hydrates the auth locals
// (user_id, role, client_id, sede_ids).
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		if o.BlacklistChecker != nil {
			if revoked, err := o.BlacklistChecker(c.UserContext(), raw); err == nil && revoked {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		if typ := strClaim(claims, "typ"); typ != "" && typ != "access" {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token type")
		}

		userID := strClaim(claims, "id")
		if userID == "" {
			userID = strClaim(claims, "sub")
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
		}

		c.Locals("jwt_claims", claims)
		c.Locals(helperAuth.LocUserID, uid)
		c.Locals(helperAuth.LocRole, strings.ToLower(strClaim(claims, "role")))

		if cid := strClaim(claims, "client_id"); cid != "" {
			if id, err := uuid.Parse(cid); err == nil {
				c.Locals(helperAuth.LocClientID, id)
			}
		}

		sedeIDs := make([]uuid.UUID, 0)
		for _, s := range readStringSlice(claims["sede_ids"]) {
			if id, err := uuid.Parse(s); err == nil {
				sedeIDs = append(sedeIDs, id)
			}
		}
		c.Locals(helperAuth.LocSedeIDs, sedeIDs)

		return c.Next()
	}
}

func strClaim(m jwt.MapClaims, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// readStringSlice accepts []string or []any (what json decoding produces).
func readStringSlice(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

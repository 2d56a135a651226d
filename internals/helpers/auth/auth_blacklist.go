package helper

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

/*
   =========================================================
   Access-token blacklist (token_blacklist: token TEXT unique, expired_at)
   Tokens are stored as HMAC-SHA256 hex, never raw.
   =========================================================
*/

func hmacHex(msg, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// GetRawAccessToken reads "Authorization: Bearer ..." or the access_token cookie.
func GetRawAccessToken(c *fiber.Ctx) string {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Cookies("access_token"))
}

// AddToBlacklist stores the token until its own expiry.
func AddToBlacklist(ctx context.Context, db *gorm.DB, rawAccessToken, jwtSecret string, expiresAt time.Time) error {
	if db == nil || strings.TrimSpace(rawAccessToken) == "" || strings.TrimSpace(jwtSecret) == "" {
		return nil
	}
	return db.WithContext(ctx).Exec(`
		INSERT INTO token_blacklist (token, expired_at, created_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (token) DO UPDATE
		SET expired_at = EXCLUDED.expired_at,
		    deleted_at = NULL
	`, hmacHex(rawAccessToken, jwtSecret), expiresAt).Error
}

func IsBlacklisted(ctx context.Context, db *gorm.DB, rawAccessToken, jwtSecret string) (bool, error) {
	if db == nil || strings.TrimSpace(rawAccessToken) == "" || strings.TrimSpace(jwtSecret) == "" {
		return false, nil
	}
	var exists bool
	err := db.WithContext(ctx).Raw(`
		SELECT EXISTS (
		  SELECT 1
		  FROM token_blacklist
		  WHERE token = ?
		    AND deleted_at IS NULL
		    AND expired_at > NOW()
		)
	`, hmacHex(rawAccessToken, jwtSecret)).Scan(&exists).Error
	return exists, err
}

// BlacklistChecker adapts IsBlacklisted to the AuthJWT option.
func BlacklistChecker(db *gorm.DB, jwtSecret string) func(ctx context.Context, raw string) (bool, error) {
	return func(ctx context.Context, raw string) (bool, error) {
		return IsBlacklisted(ctx, db, raw, jwtSecret)
	}
}

// PurgeExpired hard-deletes blacklist rows past expiry and returns the count.
func PurgeExpired(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	if db == nil {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(`DELETE FROM token_blacklist WHERE expired_at <= ?`, before)
	return res.RowsAffected, res.Error
}

package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	authModel "studioku_backend/internals/features/users/auth/model"
	authRepo "studioku_backend/internals/features/users/auth/repository"
	userModel "studioku_backend/internals/features/users/user/model"
)

const (
	accessTTLDefault  = 24 * time.Hour
	refreshTTLDefault = 7 * 24 * time.Hour
)

var (
	ErrInvalidRefresh  = errors.New("refresh token invalid")
	ErrAccountDisabled = errors.New("account is disabled")
)

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  configs.JWTSecret,
		RefreshSecret: configs.JWTRefreshSecret,
		AccessTTL:     time.Duration(configs.GetEnvInt("JWT_ACCESS_TTL_MINUTES", int(accessTTLDefault/time.Minute))) * time.Minute,
		RefreshTTL:    time.Duration(configs.GetEnvInt("JWT_REFRESH_TTL_HOURS", int(refreshTTLDefault/time.Hour))) * time.Hour,
	}
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"-"`
}

// Session describes where a refresh token was issued.
type Session struct {
	UserAgent string
	IP        string
}

func nowUTC() time.Time { return time.Now().UTC() }

func BuildAccessClaims(u userModel.UserModel, now time.Time, ttl time.Duration) jwt.MapClaims {
	sedeIDs := make([]string, 0, len(u.SedeIDs))
	for _, id := range u.SedeUUIDs() {
		sedeIDs = append(sedeIDs, id.String())
	}
	claims := jwt.MapClaims{
		"typ":      "access",
		"id":       u.ID.String(),
		"sub":      u.ID.String(),
		"role":     u.Role,
		"email":    u.Email,
		"sede_ids": sedeIDs,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	if u.ClientID != nil {
		claims["client_id"] = u.ClientID.String()
	}
	return claims
}

func BuildRefreshClaims(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"typ": "refresh",
		"sub": userID.String(),
		"jti": randomHex(16),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
}

// RefreshHash is what refresh_tokens.token stores.
func RefreshHash(token, secret string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(token))
	return m.Sum(nil)
}

// IssueTokens signs an access/refresh pair and persists the refresh hash.
func IssueTokens(ctx context.Context, db *gorm.DB, u userModel.UserModel, cfg TokenConfig, s Session) (*TokenPair, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt secrets are not configured")
	}
	now := nowUTC()
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, BuildAccessClaims(u, now, cfg.AccessTTL)).
		SignedString([]byte(cfg.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access: %w", err)
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, BuildRefreshClaims(u.ID, now, cfg.RefreshTTL)).
		SignedString([]byte(cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh: %w", err)
	}

	if err := authRepo.CreateRefreshToken(ctx, db, &authModel.RefreshTokenModel{
		UserID:    u.ID,
		Token:     RefreshHash(refresh, cfg.RefreshSecret),
		ExpiresAt: now.Add(cfg.RefreshTTL),
		UserAgent: strptr(s.UserAgent),
		IP:        strptr(s.IP),
	}); err != nil {
		return nil, fmt.Errorf("store refresh: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresAt:        now.Add(cfg.AccessTTL),
		RefreshExpiresAt: now.Add(cfg.RefreshTTL),
	}, nil
}

// ParseRefresh verifies signature, expiry and typ, returning the subject.
func ParseRefresh(raw, secret string) (uuid.UUID, error) {
	tok, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidRefresh
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, ErrInvalidRefresh
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidRefresh
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return uuid.Nil, ErrInvalidRefresh
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidRefresh
	}
	return id, nil
}

// RotateRefresh revokes the presented refresh token and issues a new pair.
// A token that was already rotated is rejected.
func RotateRefresh(ctx context.Context, db *gorm.DB, raw string, cfg TokenConfig, s Session) (*TokenPair, *userModel.UserModel, error) {
	userID, err := ParseRefresh(raw, cfg.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}
	var (
		pair *TokenPair
		user *userModel.UserModel
	)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := authRepo.FindActiveRefreshToken(ctx, tx, RefreshHash(raw, cfg.RefreshSecret))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if rt.UserID != userID {
			return ErrInvalidRefresh
		}
		if err := authRepo.RevokeRefreshToken(ctx, tx, rt.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		user, err = authRepo.FindUserByID(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !user.IsActive {
			return ErrAccountDisabled
		}
		pair, err = IssueTokens(ctx, tx, *user, cfg, s)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func strptr(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

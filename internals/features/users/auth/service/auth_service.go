package service

import (
	"errors"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	clientService "studioku_backend/internals/features/studio/clients/service"
	"studioku_backend/internals/features/users/auth/dto"
	authRepo "studioku_backend/internals/features/users/auth/repository"
	userModel "studioku_backend/internals/features/users/user/model"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
)

var validate = helper.NewValidator()

func sessionOf(c *fiber.Ctx) Session {
	return Session{UserAgent: c.Get(fiber.HeaderUserAgent), IP: c.IP()}
}

func bind(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return false, helper.ValidationError(c, err)
	}
	return true, nil
}

/* ==========================
   REGISTER (client self-signup)
========================== */

// Register creates the login account and its client profile in one tx.
func Register(db *gorm.DB, c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	email, err := clientService.NormalizeEmail(in.Email)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	phone, err := clientService.NormalizePtr(in.Phone, clientService.NormalizePhone)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Password hashing failed")
	}

	client := clientModel.ClientModel{
		ClientSedeID:    in.SedeID,
		ClientFirstName: strings.TrimSpace(in.FirstName),
		ClientLastName:  strings.TrimSpace(in.LastName),
		ClientEmail:     &email,
		ClientPhone:     phone,
		ClientStatus:    clientModel.ClientStatusInactive,
	}
	user := userModel.UserModel{
		UserName: userNameFor(client.FullName(), email),
		Email:    email,
		Password: hash,
		Role:     userModel.RoleClient,
		IsActive: true,
	}

	err = db.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		user.ClientID = &client.ClientID
		return authRepo.CreateUser(c.Context(), tx, &user)
	})
	if err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "Email already registered")
		}
		return helper.WriteDBError(c, err)
	}

	log.Info().Str("user_id", user.ID.String()).Str("client_id", client.ClientID.String()).Msg("client registered")
	return helper.JsonCreated(c, "Registration successful", dto.MeResponse{User: dto.FromUser(user), Client: &client})
}

/* ==========================
   LOGIN
========================== */

func Login(db *gorm.DB, c *fiber.Ctx) error {
	var in dto.LoginRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	user, err := authRepo.FindUserByEmail(c.Context(), db, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return helper.WriteDBError(c, err)
	}
	if !CheckPassword(user.Password, in.Password) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	return issueAndRespond(db, c, *user, "Login successful")
}

/* ==========================
   LOGIN GOOGLE
========================== */

// LoginGoogle finds the user by google id, then by email (linking the google
// id), and otherwise signs up a new client.
func LoginGoogle(db *gorm.DB, c *fiber.Ctx) error {
	if strings.TrimSpace(configs.GoogleClientID) == "" {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "Google login is not configured")
	}
	var in dto.GoogleLoginRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(in.IDToken, []string{configs.GoogleClientID}); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid Google ID Token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(in.IDToken)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Failed to decode ID Token")
	}
	email := strings.ToLower(strings.TrimSpace(claimSet.Email))
	googleID := claimSet.Sub
	ctx := c.Context()

	user, err := authRepo.FindUserByGoogleID(ctx, db, googleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.WriteDBError(c, err)
	}
	if user == nil && email != "" {
		user, err = authRepo.FindUserByEmail(ctx, db, email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.WriteDBError(c, err)
		}
		if user != nil {
			if err := authRepo.LinkGoogleID(ctx, db, user.ID, googleID); err != nil {
				return helper.WriteDBError(c, err)
			}
		}
	}
	if user == nil {
		if email == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Google account has no email")
		}
		first, last := splitName(claimSet.Name)
		client := clientModel.ClientModel{
			ClientFirstName: first,
			ClientLastName:  last,
			ClientEmail:     &email,
			ClientStatus:    clientModel.ClientStatusInactive,
		}
		newUser := userModel.UserModel{
			UserName: userNameFor(claimSet.Name, email),
			Email:    email,
			Password: "!google:" + randomHex(16), // never matches a bcrypt hash
			GoogleID: &googleID,
			Role:     userModel.RoleClient,
			IsActive: true,
		}
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&client).Error; err != nil {
				return err
			}
			newUser.ClientID = &client.ClientID
			return authRepo.CreateUser(ctx, tx, &newUser)
		})
		if err != nil {
			if helper.IsUniqueViolation(err) {
				return helper.JsonError(c, fiber.StatusConflict, "Email already registered")
			}
			return helper.WriteDBError(c, err)
		}
		user = &newUser
	}

	return issueAndRespond(db, c, *user, "Login successful")
}

func issueAndRespond(db *gorm.DB, c *fiber.Ctx, user userModel.UserModel, msg string) error {
	if !user.IsActive {
		return helper.JsonError(c, fiber.StatusForbidden, "Account is disabled")
	}
	pair, err := IssueTokens(c.Context(), db, user, DefaultTokenConfig(), sessionOf(c))
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("issue tokens failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to issue tokens")
	}
	setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return helper.JsonOK(c, msg, fiber.Map{
		"user":   dto.FromUser(user),
		"tokens": pair,
	})
}

/* ==========================
   REFRESH (rotation)
========================== */

func RefreshToken(db *gorm.DB, c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Cookies("refresh_token"))
	if raw == "" {
		var in dto.RefreshRequest
		_ = c.BodyParser(&in)
		raw = strings.TrimSpace(in.RefreshToken)
	}
	if raw == "" {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Refresh token missing")
	}

	pair, user, err := RotateRefresh(c.Context(), db, raw, DefaultTokenConfig(), sessionOf(c))
	switch {
	case errors.Is(err, ErrInvalidRefresh):
		return helper.JsonError(c, fiber.StatusUnauthorized, "Refresh token invalid")
	case errors.Is(err, ErrAccountDisabled):
		return helper.JsonError(c, fiber.StatusForbidden, "Account is disabled")
	case err != nil:
		log.Error().Err(err).Msg("refresh rotation failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to refresh token")
	}
	setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	return helper.JsonOK(c, "Token refreshed", fiber.Map{
		"user":   dto.FromUser(*user),
		"tokens": pair,
	})
}

/* ==========================
   LOGOUT
========================== */

// Logout blacklists the access token until its expiry and revokes the
// refresh token. Idempotent.
func Logout(db *gorm.DB, c *fiber.Ctx) error {
	ctx := c.Context()
	cfg := DefaultTokenConfig()

	if access := helperAuth.GetRawAccessToken(c); access != "" {
		if err := helperAuth.AddToBlacklist(ctx, db, access, cfg.AccessSecret, accessExpiry(access, cfg)); err != nil {
			log.Warn().Err(err).Msg("failed to blacklist access token")
		}
	}

	raw := strings.TrimSpace(c.Cookies("refresh_token"))
	if raw == "" {
		var in dto.RefreshRequest
		_ = c.BodyParser(&in)
		raw = strings.TrimSpace(in.RefreshToken)
	}
	if raw != "" {
		if err := authRepo.RevokeRefreshTokenByHash(ctx, db, RefreshHash(raw, cfg.RefreshSecret)); err != nil {
			log.Warn().Err(err).Msg("failed to revoke refresh token")
		}
	}

	clearRefreshCookie(c)
	return helper.JsonOK(c, "Logout successful", nil)
}

// accessExpiry reads exp without verifying; the route is already behind AuthJWT.
func accessExpiry(raw string, cfg TokenConfig) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			return time.Unix(int64(exp), 0).UTC()
		}
	}
	return nowUTC().Add(cfg.AccessTTL)
}

/* ==========================
   ME / CHANGE PASSWORD
========================== */

func Me(db *gorm.DB, c *fiber.Ctx) error {
	uid, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	user, err := authRepo.FindUserByID(c.Context(), db, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "User not found")
		}
		return helper.WriteDBError(c, err)
	}

	out := dto.MeResponse{User: dto.FromUser(*user)}
	if user.ClientID != nil {
		var client clientModel.ClientModel
		if err := db.WithContext(c.Context()).First(&client, "client_id = ?", *user.ClientID).Error; err == nil {
			out.Client = &client
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.WriteDBError(c, err)
		}
	}
	return helper.JsonOK(c, "ok", out)
}

func ChangePassword(db *gorm.DB, c *fiber.Ctx) error {
	uid, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	var in dto.ChangePasswordRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	if err := ValidatePassword(in.NewPassword); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	user, err := authRepo.FindUserByID(c.Context(), db, uid)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}
	if !CheckPassword(user.Password, in.CurrentPassword) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Current password incorrect")
	}
	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash new password")
	}
	if err := authRepo.UpdateUserPassword(c.Context(), db, uid, hash); err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "Password changed successfully", nil)
}

/* ==========================
   Small helpers
========================== */

func setRefreshCookie(c *fiber.Ctx, token string, exp time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/api/auth",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   configs.GetEnvBool("COOKIE_SECURE", true),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth",
		Expires:  nowUTC().Add(-time.Hour),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   configs.GetEnvBool("COOKIE_SECURE", true),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func userNameFor(name, email string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		if at := strings.Index(email, "@"); at > 0 {
			n = email[:at]
		}
	}
	if len(n) > 50 {
		n = n[:50]
	}
	return n
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Client", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

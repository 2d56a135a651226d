// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authModel "studioku_backend/internals/features/users/auth/model"
	userModel "studioku_backend/internals/features/users/user/model"
)

/* ====================== USER ====================== */

func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByGoogleID(ctx context.Context, db *gorm.DB, googleID string) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*userModel.UserModel, error) {
	var user userModel.UserModel
	if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, db *gorm.DB, user *userModel.UserModel) error {
	user.SetDefaultValues()
	return db.WithContext(ctx).Create(user).Error
}

func LinkGoogleID(ctx context.Context, db *gorm.DB, userID uuid.UUID, googleID string) error {
	return db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Update("google_id", googleID).Error
}

func UpdateUserPassword(ctx context.Context, db *gorm.DB, userID uuid.UUID, hash string) error {
	return db.WithContext(ctx).Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}

/* ====================== REFRESH TOKEN ====================== */

func CreateRefreshToken(ctx context.Context, db *gorm.DB, rt *authModel.RefreshTokenModel) error {
	return db.WithContext(ctx).Create(rt).Error
}

// FindActiveRefreshToken: not revoked, not expired.
func FindActiveRefreshToken(ctx context.Context, db *gorm.DB, hash []byte) (*authModel.RefreshTokenModel, error) {
	var rt authModel.RefreshTokenModel
	if err := db.WithContext(ctx).
		Where("token = ? AND revoked_at IS NULL AND expires_at > ?", hash, time.Now().UTC()).
		First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken: gorm.ErrRecordNotFound when already revoked.
func RevokeRefreshToken(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	res := db.WithContext(ctx).Model(&authModel.RefreshTokenModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func RevokeRefreshTokenByHash(ctx context.Context, db *gorm.DB, hash []byte) error {
	return db.WithContext(ctx).Model(&authModel.RefreshTokenModel{}).
		Where("token = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", time.Now().UTC()).Error
}

// PurgeRefreshTokens deletes tokens expired or revoked before cutoff.
func PurgeRefreshTokens(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&authModel.RefreshTokenModel{})
	return res.RowsAffected, res.Error
}

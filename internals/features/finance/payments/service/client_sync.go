package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studioku_backend/internals/features/finance/payments/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
)

// ActivePayment returns the latest paid plan payment covering today, or nil.
// The booking engine resolves quota through the same model.ActivePlanOn rule.
func ActivePayment(ctx context.Context, db *gorm.DB, clientID uuid.UUID, today time.Time) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := db.WithContext(ctx).
		Model(&model.PaymentModel{}).
		Scopes(model.ActivePlanOn(clientID, today)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active payment: %w", err)
	}
	return &p, nil
}

// SyncClientMembership recomputes client_status and current_membership from
// ActivePayment. Run it after a payment is recorded or deleted.
func SyncClientMembership(ctx context.Context, db *gorm.DB, clientID uuid.UUID, today time.Time) error {
	p, err := ActivePayment(ctx, db, clientID, today)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"client_status":                clientModel.ClientStatusInactive,
		"client_current_membership_id": nil,
	}
	if p != nil {
		updates["client_status"] = clientModel.ClientStatusActive
		updates["client_current_membership_id"] = p.PaymentMembershipID
	}

	if err := db.WithContext(ctx).
		Model(&clientModel.ClientModel{}).
		Where("client_id = ?", clientID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update client membership: %w", err)
	}
	return nil
}

// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"studioku_backend/internals/configs"
	bookingModel "studioku_backend/internals/features/booking/bookings/model"
	bookingService "studioku_backend/internals/features/booking/bookings/service"
	membershipModel "studioku_backend/internals/features/finance/memberships/model"
	dto "studioku_backend/internals/features/finance/payments/dto"
	model "studioku_backend/internals/features/finance/payments/model"
	svc "studioku_backend/internals/features/finance/payments/service"
	promotionModel "studioku_backend/internals/features/finance/promotions/model"
	clientModel "studioku_backend/internals/features/studio/clients/model"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
	"studioku_backend/internals/helpers/dbtime"
)

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	DB                *gorm.DB
	Validator         *validator.Validate
	Bookings          *bookingService.Service
	MidtransServerKey string // verifies webhook signatures
}

func NewPaymentController(db *gorm.DB, bookings *bookingService.Service, midtransServerKey string) *PaymentController {
	return &PaymentController{
		DB:                db,
		Validator:         helper.NewValidator(),
		Bookings:          bookings,
		MidtransServerKey: midtransServerKey,
	}
}

/* =======================================================================
   Handlers (staff)
======================================================================= */

// POST /api/a/payments
func (h *PaymentController) RecordPayment(c *fiber.Ctx) error {
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	ctx := c.Context()
	today := dbtime.Today(dbtime.GetStudioLocation(c))

	var client clientModel.ClientModel
	if err := h.DB.WithContext(ctx).First(&client, "client_id = ?", req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeClientNotFound), "client not found")
		}
		return helper.WriteDBError(c, err)
	}
	if !helperAuth.InSedeScope(c, client.ClientSedeID) {
		return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeClientNotFound), "client not found")
	}

	var membership membershipModel.MembershipModel
	if err := h.DB.WithContext(ctx).First(&membership, "membership_id = ?", req.MembershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeMembershipNotFound), "membership not found")
		}
		return helper.WriteDBError(c, err)
	}

	if req.PromotionID != nil {
		var n int64
		if err := h.DB.WithContext(ctx).Model(&promotionModel.PromotionModel{}).
			Where("promotion_id = ?", *req.PromotionID).Count(&n).Error; err != nil {
			return helper.WriteDBError(c, err)
		}
		if n == 0 {
			return helper.JsonError(c, fiber.StatusNotFound, "promotion not found")
		}
	}

	paid, from, until, err := req.Dates(today)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid date: "+err.Error())
	}
	validity := configs.Policy.PaymentValidityDays
	if membership.MembershipValidityDays != nil && *membership.MembershipValidityDays > 0 {
		validity = *membership.MembershipValidityDays
	}
	vf, vu, err := svc.NormalizeWindow(paid, from, until, validity)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	m := req.ToModel()
	m.PaymentDatePaid = dbtime.DateOf(paid, nil)
	m.PaymentValidFrom = vf
	m.PaymentValidUntil = vu
	if uid, err := helperAuth.GetUserID(c); err == nil {
		m.PaymentRecordedBy = &uid
	}

	if req.BookingID != nil {
		return h.settleDeposit(c, m, &membership)
	}

	now := dbtime.DateOf(paid, nil)
	m.PaymentPaidAt = &now
	if err := h.DB.WithContext(ctx).Create(m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	if err := svc.SyncClientMembership(ctx, h.DB, m.PaymentClientID, today); err != nil {
		log.Error().Err(err).Str("client_id", m.PaymentClientID.String()).Msg("sync client membership failed")
	}
	return helper.JsonCreated(c, "payment recorded", dto.FromModel(m))
}

// settleDeposit records a desk payment for a pending individual booking and
// activates the booking through the admission engine.
func (h *PaymentController) settleDeposit(c *fiber.Ctx, m *model.PaymentModel, membership *membershipModel.MembershipModel) error {
	ctx := c.Context()
	if !membership.IsIndividual() {
		return helper.JsonError(c, fiber.StatusBadRequest, "booking_id is only valid with an individual membership")
	}

	var b bookingModel.BookingModel
	if err := h.DB.WithContext(ctx).First(&b, "booking_id = ?", *m.PaymentBookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeBookingNotFound), "booking not found")
		}
		return helper.WriteDBError(c, err)
	}
	if b.BookingClientID != m.PaymentClientID {
		return helper.JsonError(c, fiber.StatusBadRequest, "booking belongs to another client")
	}
	if b.BookingStatus != bookingModel.BookingStatusPending {
		return helper.JsonErrorCode(c, fiber.StatusConflict, string(bookingService.CodeBookingNotActive), "booking is not waiting for a deposit")
	}

	m.PaymentStatus = model.PaymentStatusPending
	if err := h.DB.WithContext(ctx).Create(m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}

	res, err := h.Bookings.ConfirmDeposit(ctx, bookingService.DepositUpdate{
		PaymentID: m.PaymentID,
		Status:    model.PaymentStatusPaid,
	})
	if err != nil {
		return writeEngineError(c, err)
	}

	out := fiber.Map{
		"payment":           dto.FromModel(res.Payment),
		"capacity_conflict": res.CapacityConflict,
	}
	if res.Booking != nil {
		out["booking_id"] = res.Booking.BookingID
		out["booking_status"] = res.Booking.BookingStatus
	}
	out["refund_required"] = res.RefundRequired
	msg := "deposit recorded, booking confirmed"
	switch {
	case res.RefundRequired:
		msg = "deposit recorded, but the booking was already cancelled; refund required"
	case res.CapacityConflict:
		msg = "deposit recorded, but the class is full; booking stays pending"
	}
	return helper.JsonCreated(c, msg, out)
}

// GET /api/a/clients/:id/payments
func (h *PaymentController) ListClientPayments(c *fiber.Ctx) error {
	clientID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var client clientModel.ClientModel
	if err := h.DB.WithContext(c.Context()).
		Select("client_id", "client_sede_id").
		First(&client, "client_id = ?", clientID).Error; err != nil || !helperAuth.InSedeScope(c, client.ClientSedeID) {
		return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeClientNotFound), "client not found")
	}
	return h.listPayments(c, clientID)
}

// GET /api/u/payments
func (h *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	return h.listPayments(c, clientID)
}

func (h *PaymentController) listPayments(c *fiber.Ctx, clientID uuid.UUID) error {
	p := helper.ResolvePaging(c, 20, 100)

	q := h.DB.WithContext(c.Context()).
		Model(&model.PaymentModel{}).
		Where("payment_client_id = ?", clientID)
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		q = q.Where("payment_status = ?", strings.ToLower(s))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	var rows []model.PaymentModel
	if err := q.Order("payment_date_paid DESC, payment_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}

	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage, len(rows))
	return helper.JsonList(c, "ok", dto.FromModels(rows), &pg)
}

// DELETE /api/a/payments/:id
func (h *PaymentController) DeletePayment(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Context()

	var p model.PaymentModel
	if err := h.DB.WithContext(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodePaymentNotFound), "payment not found")
		}
		return helper.WriteDBError(c, err)
	}
	if err := h.DB.WithContext(ctx).Delete(&p).Error; err != nil {
		return helper.WriteDBError(c, err)
	}

	today := dbtime.Today(dbtime.GetStudioLocation(c))
	if err := svc.SyncClientMembership(ctx, h.DB, p.PaymentClientID, today); err != nil {
		log.Error().Err(err).Str("client_id", p.PaymentClientID.String()).Msg("sync client membership failed")
	}
	return helper.JsonDeleted(c, "payment deleted", fiber.Map{"payment_id": p.PaymentID})
}

/* =======================================================================
   Webhook Midtrans
======================================================================= */

// POST /api/public/payments/midtrans/webhook
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	var notif dto.MidtransNotification
	if err := c.BodyParser(&notif); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid payload: "+err.Error())
	}

	if !svc.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, h.MidtransServerKey, notif.SignatureKey) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	}

	ctx := c.Context()
	var p model.PaymentModel
	if err := h.DB.WithContext(ctx).
		First(&p, "payment_external_id = ?", notif.OrderID).Error; err != nil {
		// 200 so Midtrans stops retrying an order we never issued
		log.Warn().Str("order_id", notif.OrderID).Msg("midtrans webhook for unknown order")
		return c.JSON(fiber.Map{"status": "ignored", "reason": "payment not found"})
	}

	status, ok := svc.MapMidtransStatus(notif.TransactionStatus, notif.FraudStatus)
	if !ok {
		return c.JSON(fiber.Map{
			"status":             "ignored",
			"payment_id":         p.PaymentID,
			"transaction_status": notif.TransactionStatus,
		})
	}

	res, err := h.Bookings.ConfirmDeposit(ctx, bookingService.DepositUpdate{
		PaymentID:        p.PaymentID,
		Status:           status,
		GatewayReference: notif.TransactionID,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", notif.OrderID).Msg("apply midtrans notification failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "update payment failed")
	}
	if res.CapacityConflict {
		log.Warn().Str("payment_id", p.PaymentID.String()).Msg("deposit paid but class is full, booking left pending")
	}
	if status == model.PaymentStatusPaid && p.PaymentBookingID == nil {
		today := dbtime.Today(dbtime.DefaultLocation())
		if err := svc.SyncClientMembership(ctx, h.DB, p.PaymentClientID, today); err != nil {
			log.Error().Err(err).Str("client_id", p.PaymentClientID.String()).Msg("sync client membership failed")
		}
	}

	out := fiber.Map{
		"status":             "ok",
		"payment_id":         res.Payment.PaymentID,
		"payment_status":     res.Payment.PaymentStatus,
		"transaction_status": notif.TransactionStatus,
		"already_settled":    res.AlreadySettled,
		"capacity_conflict":  res.CapacityConflict,
		"refund_required":    res.RefundRequired,
	}
	if res.Booking != nil {
		out["booking_status"] = res.Booking.BookingStatus
	}
	return c.JSON(out)
}

/* =======================================================================
   Helpers
======================================================================= */

func writeEngineError(c *fiber.Ctx, err error) error {
	if ae, ok := bookingService.AsAdmissionError(err); ok {
		return helper.JsonErrorCode(c, ae.Status, string(ae.Code), ae.Message)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("booking engine failure")
	return helper.JsonErrorCode(c, fiber.StatusInternalServerError, string(bookingService.CodeInternal), "internal error")
}

// file: internals/features/booking/bookings/controller/booking_controller.go
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
	dto "studioku_backend/internals/features/booking/bookings/dto"
	model "studioku_backend/internals/features/booking/bookings/model"
	"studioku_backend/internals/features/booking/bookings/service"
	paymentService "studioku_backend/internals/features/finance/payments/service"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
	"studioku_backend/internals/helpers/dbtime"
)

type BookingController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Svc       *service.Service
}

func NewBookingController(db *gorm.DB, svc *service.Service) *BookingController {
	return &BookingController{DB: db, Validator: helper.NewValidator(), Svc: svc}
}

/* =========================================================
   Shared
========================================================= */

func actorOf(c *fiber.Ctx) (service.Actor, error) {
	uid, err := helperAuth.GetUserID(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: uid, Role: helperAuth.GetRole(c)}, nil
}

// writeError maps engine rejections to their status/code; anything else is
// logged and reported as 500.
func writeError(c *fiber.Ctx, err error) error {
	if ae, ok := service.AsAdmissionError(err); ok {
		return helper.JsonErrorCode(c, ae.Status, string(ae.Code), ae.Message)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("booking request failed")
	return helper.JsonErrorCode(c, fiber.StatusInternalServerError, string(service.CodeInternal), "internal error")
}

// parse decodes and validates the body. ok=false means the error response
// has already been written and err is what the handler returns.
func (h *BookingController) parse(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(out); err != nil {
		return false, helper.ValidationError(c, err)
	}
	return true, nil
}

/* =========================================================
   Create (single)
========================================================= */

// POST /api/a/bookings
func (h *BookingController) CreateBooking(c *fiber.Ctx) error {
	var req dto.CreateBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	if req.ClientID == uuid.Nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "client_id is required")
	}
	return h.admit(c, req, helperAuth.GetSedeScope(c))
}

func (h *BookingController) admit(c *fiber.Ctx, req dto.CreateBookingRequest, scope []uuid.UUID) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	classDate, err := dbtime.ParseDate(req.ClassDate)
	if err != nil {
		return writeError(c, service.ErrInvalidDate)
	}

	adm, err := h.Svc.Admit(c.Context(), service.AdmitRequest{
		ClientID:      req.ClientID,
		ScheduleID:    req.ScheduleID,
		ClassDate:     classDate,
		MembershipID:  req.MembershipID,
		ManualCheckin: req.ManualCheckin,
		Actor:         actor,
		SedeScope:     scope,
	})
	if err != nil {
		return writeError(c, err)
	}

	out := dto.FromAdmission(adm)
	if _, ok := adm.Mode.(service.IndividualPaid); ok {
		h.attachCheckout(c, adm, actor, &out)
	}
	return helper.JsonCreated(c, adm.Message, out)
}

// attachCheckout opens a gateway deposit for a pending individual booking.
// A gateway failure leaves the booking pending for a desk payment.
func (h *BookingController) attachCheckout(c *fiber.Ctx, adm *service.Admission, actor service.Actor, out *dto.AdmissionResponse) {
	if !paymentService.GatewayEnabled() || adm.Membership == nil {
		return
	}
	amount := paymentService.DepositAmount(adm.Membership.MembershipPrice, configs.Policy.DepositPercent)
	if amount <= 0 {
		return
	}
	uid := actor.UserID
	p, err := paymentService.CreateDepositCheckout(c.Context(), h.DB, paymentService.DepositCheckoutInput{
		ClientID:     adm.Client.ClientID,
		MembershipID: adm.Membership.MembershipID,
		BookingID:    adm.Booking.BookingID,
		Amount:       amount,
		ValidityDays: configs.Policy.PaymentValidityDays,
		Today:        dbtime.Today(dbtime.GetStudioLocation(c)),
		RecordedBy:   &uid,
		Description:  adm.Membership.MembershipName + " " + dbtime.FormatDate(adm.Booking.BookingClassDate),
		Customer: paymentService.CustomerInput{
			FirstName: adm.Client.ClientFirstName,
			LastName:  adm.Client.ClientLastName,
			Email:     adm.Client.EmailOrEmpty(),
			Phone:     deref(adm.Client.ClientPhone),
		},
	})
	if p != nil {
		out.PaymentID = &p.PaymentID
		out.CheckoutURL = p.PaymentCheckoutURL
	}
	if err != nil {
		log.Warn().Err(err).Str("booking_id", adm.Booking.BookingID.String()).Msg("deposit checkout failed")
	}
}

/* =========================================================
   Bulk
========================================================= */

// POST /api/a/bookings/bulk
func (h *BookingController) CreateBulk(c *fiber.Ctx) error {
	var req dto.BulkBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	if req.ClientID == uuid.Nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "client_id is required")
	}
	return h.bulk(c, req, helperAuth.GetSedeScope(c))
}

func (h *BookingController) bulk(c *fiber.Ctx, req dto.BulkBookingRequest, scope []uuid.UUID) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	items, err := req.ToItems()
	if err != nil {
		return writeError(c, service.ErrInvalidDate)
	}
	res, err := h.Svc.AdmitBatch(c.Context(), service.BulkRequest{
		ClientID:      req.ClientID,
		Items:         items,
		MembershipID:  req.MembershipID,
		NumberOfSlots: req.NumberOfSlots,
		Actor:         actor,
		SedeScope:     scope,
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "bulk booking "+string(res.Status), res)
}

// GET /api/a/bookings/bulk/:id
func (h *BookingController) GetBulk(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return h.bulkDetail(c, id, nil)
}

func (h *BookingController) bulkDetail(c *fiber.Ctx, id uuid.UUID, owner *uuid.UUID) error {
	var bulk model.BulkBookingModel
	q := h.DB.WithContext(c.Context()).Where("bulk_booking_id = ?", id)
	if owner != nil {
		q = q.Where("bulk_booking_client_id = ?", *owner)
	}
	if err := q.First(&bulk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "bulk booking not found")
		}
		return helper.WriteDBError(c, err)
	}

	var rows []model.BookingModel
	if err := h.scoped(c, helperAuth.GetSedeScope(c)).
		Where("bookings.booking_bulk_booking_id = ?", id).
		Select("bookings.*").
		Order("bookings.booking_class_date ASC").
		Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.BulkBookingDetail{Bulk: &bulk, Bookings: dto.FromModels(rows)})
}

/* =========================================================
   Read
========================================================= */

// scoped restricts bookings to schedules inside the sede scope.
func (h *BookingController) scoped(c *fiber.Ctx, scope []uuid.UUID) *gorm.DB {
	q := h.DB.WithContext(c.Context()).Model(&model.BookingModel{})
	if scope != nil {
		q = q.Joins("JOIN schedules s ON s.schedule_id = bookings.booking_schedule_id").
			Where("s.schedule_sede_id IN ?", scope)
	}
	return q
}

// GET /api/a/bookings?client_id=&schedule_id=&date_from=&date_to=&status=&attendance_status=
func (h *BookingController) ListBookings(c *fiber.Ctx) error {
	clientID, err := helper.ParseUUIDQuery(c, "client_id")
	if err != nil {
		return err
	}
	return h.list(c, clientID, helperAuth.GetSedeScope(c))
}

func (h *BookingController) list(c *fiber.Ctx, clientID *uuid.UUID, scope []uuid.UUID) error {
	p := helper.ResolvePaging(c, 20, 200)

	q := h.scoped(c, scope)
	if clientID != nil {
		q = q.Where("bookings.booking_client_id = ?", *clientID)
	}
	scheduleID, err := helper.ParseUUIDQuery(c, "schedule_id")
	if err != nil {
		return err
	}
	if scheduleID != nil {
		q = q.Where("bookings.booking_schedule_id = ?", *scheduleID)
	}
	if s := strings.TrimSpace(c.Query("date_from")); s != "" {
		d, err := dbtime.ParseDate(s)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		q = q.Where("bookings.booking_class_date >= ?", d)
	}
	if s := strings.TrimSpace(c.Query("date_to")); s != "" {
		d, err := dbtime.ParseDate(s)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		q = q.Where("bookings.booking_class_date <= ?", d)
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("status"))); s != "" {
		q = q.Where("bookings.booking_status = ?", s)
	}
	if s := strings.ToLower(strings.TrimSpace(c.Query("attendance_status"))); s != "" {
		q = q.Where("bookings.booking_attendance_status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	var rows []model.BookingModel
	if err := q.Select("bookings.*").
		Order("bookings.booking_class_date DESC, bookings.booking_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}

	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage, len(rows))
	return helper.JsonList(c, "ok", dto.FromModels(rows), &pg)
}

// GET /api/a/bookings/:id
func (h *BookingController) GetBooking(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return h.get(c, id, nil, helperAuth.GetSedeScope(c))
}

func (h *BookingController) get(c *fiber.Ctx, id uuid.UUID, owner *uuid.UUID, scope []uuid.UUID) error {
	q := h.scoped(c, scope).Where("bookings.booking_id = ?", id)
	if owner != nil {
		q = q.Where("bookings.booking_client_id = ?", *owner)
	}
	var b model.BookingModel
	if err := q.Select("bookings.*").First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return writeError(c, service.ErrBookingNotFound)
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(&b))
}

// GET /api/a/bookings/capacity?schedule_id=&date=
func (h *BookingController) Capacity(c *fiber.Ctx) error {
	scheduleID, err := helper.ParseUUIDQuery(c, "schedule_id")
	if err != nil {
		return err
	}
	if scheduleID == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "schedule_id is required")
	}
	d, err := dbtime.ParseDate(c.Query("date"))
	if err != nil {
		return writeError(c, service.ErrInvalidDate)
	}
	snap, err := h.Svc.Capacity(c.Context(), *scheduleID, d, helperAuth.GetSedeScope(c))
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", snap)
}

/* =========================================================
   Lifecycle
========================================================= */

// POST /api/a/bookings/:id/cancel
func (h *BookingController) CancelBooking(c *fiber.Ctx) error {
	return h.cancel(c, service.Ownership{SedeScope: helperAuth.GetSedeScope(c)})
}

func (h *BookingController) cancel(c *fiber.Ctx, own service.Ownership) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.CancelBookingRequest
	if len(c.Body()) > 0 {
		if ok, err := h.parse(c, &req); !ok {
			return err
		}
	}
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	by := model.CancellationType(req.CancelledBy)
	if by == "" {
		by = defaultCancelledBy(actor.Role)
	}
	b, err := h.Svc.Cancel(c.Context(), service.CancelRequest{
		BookingID:   id,
		Reason:      req.Reason,
		CancelledBy: by,
		Actor:       actor,
		Ownership:   own,
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "booking cancelled", dto.FromModel(b))
}

func defaultCancelledBy(role string) model.CancellationType {
	switch role {
	case helperAuth.RoleAdmin:
		return model.CancelledByAdmin
	case helperAuth.RoleInstructor:
		return model.CancelledByInstructor
	}
	return model.CancelledByClient
}

// POST /api/a/bookings/:id/reschedule
func (h *BookingController) RescheduleBooking(c *fiber.Ctx) error {
	return h.reschedule(c, service.Ownership{SedeScope: helperAuth.GetSedeScope(c)})
}

func (h *BookingController) reschedule(c *fiber.Ctx, own service.Ownership) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.RescheduleBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	d, err := dbtime.ParseDate(req.ClassDate)
	if err != nil {
		return writeError(c, service.ErrInvalidDate)
	}

	b, err := h.Svc.Reschedule(c.Context(), service.RescheduleRequest{
		BookingID:  id,
		ScheduleID: req.ScheduleID,
		ClassDate:  d,
		Actor:      actor,
		Ownership:  own,
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "booking rescheduled", dto.FromModel(b))
}

// PATCH /api/a/bookings/:id/attendance
func (h *BookingController) RecordAttendance(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	b, err := h.Svc.RecordAttendance(c.Context(), service.AttendanceRequest{
		BookingID: id,
		Status:    model.AttendanceStatus(req.AttendanceStatus),
		Actor:     actor,
		Ownership: service.Ownership{SedeScope: helperAuth.GetSedeScope(c)},
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "attendance recorded", dto.FromModel(b))
}

/* =========================================================
   Entitlement (staff view)
========================================================= */

// GET /api/a/clients/:id/entitlement
func (h *BookingController) ClientEntitlement(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	sum, err := h.Svc.Entitlement(c.Context(), id, helperAuth.GetSedeScope(c))
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", sum)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingRepo "studioku_backend/internals/features/booking/bookings/repository"
	bookingService "studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/features/studio/schedules/dto"
	"studioku_backend/internals/features/studio/schedules/model"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
	"studioku_backend/internals/helpers/dbtime"
)

type ScheduleController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Bookings  *bookingService.Service
}

func NewScheduleController(db *gorm.DB, bookings *bookingService.Service) *ScheduleController {
	return &ScheduleController{DB: db, Validator: helper.NewValidator(), Bookings: bookings}
}

func scheduleNotFound(c *fiber.Ctx) error {
	return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeScheduleNotFound), "schedule not found")
}

func (h *ScheduleController) load(c *fiber.Ctx, id uuid.UUID) (*model.ScheduleModel, error) {
	var m model.ScheduleModel
	if err := h.DB.WithContext(c.Context()).First(&m, "schedule_id = ?", id).Error; err != nil {
		return nil, err
	}
	sid := m.ScheduleSedeID
	if !helperAuth.InSedeScope(c, &sid) {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

// GET /schedules?sede_id=&day=&date=&class_type=&include_inactive=
// With ?date= only templates for that weekday are returned, annotated with
// occupied/remaining seats.
func (h *ScheduleController) ListSchedules(c *fiber.Ctx) error {
	q := h.DB.WithContext(c.Context()).Model(&model.ScheduleModel{})

	sedeID, err := helper.ParseUUIDQuery(c, "sede_id")
	if err != nil {
		return err
	}
	if sedeID != nil {
		q = q.Where("schedule_sede_id = ?", *sedeID)
	}
	if scope := helperAuth.GetSedeScope(c); scope != nil {
		q = q.Where("schedule_sede_id IN ?", scope)
	}

	var date *string
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := dbtime.ParseDate(raw)
		if err != nil {
			return helper.JsonErrorCode(c, fiber.StatusBadRequest, string(bookingService.CodeInvalidDate), "date must be YYYY-MM-DD")
		}
		s := dbtime.FormatDate(d)
		date = &s
		q = q.Where("schedule_day_of_week = ?", dbtime.ISOWeekday(d))
	} else if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 1 || day > 7 {
			return helper.JsonError(c, fiber.StatusBadRequest, "day must be 1 (Mon) .. 7 (Sun)")
		}
		q = q.Where("schedule_day_of_week = ?", day)
	}
	if ct := strings.TrimSpace(c.Query("class_type")); ct != "" {
		q = q.Where("schedule_class_type = ?", strings.ToLower(ct))
	}
	if !(strings.EqualFold(c.Query("include_inactive"), "true") && helperAuth.IsStaff(c)) {
		q = q.Where("schedule_is_active = ?", true)
	}

	var rows []model.ScheduleModel
	if err := q.Order("schedule_day_of_week ASC, schedule_start_time ASC").Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}

	out := make([]dto.ScheduleResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.FromModel(m))
	}
	if date == nil {
		return helper.JsonOK(c, "ok", out)
	}

	d, _ := dbtime.ParseDate(*date)
	ids := make([]uuid.UUID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.ScheduleID)
	}
	occ, err := bookingRepo.OccupiedBySchedule(h.DB.WithContext(c.Context()), d, ids)
	if err != nil {
		return helper.WriteDBError(c, err)
	}
	for i := range out {
		n := occ[out[i].ScheduleID]
		r := bookingService.Remaining(out[i].ScheduleCapacity, n)
		out[i].ClassDate = date
		out[i].Occupied = &n
		out[i].Remaining = &r
	}
	return helper.JsonOK(c, "ok", out)
}

// GET /schedules/:id
func (h *ScheduleController) GetSchedule(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scheduleNotFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(*m))
}

// GET /schedules/:id/capacity?date=YYYY-MM-DD
func (h *ScheduleController) GetCapacity(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	d, err := dbtime.ParseDate(c.Query("date"))
	if err != nil {
		return helper.JsonErrorCode(c, fiber.StatusBadRequest, string(bookingService.CodeInvalidDate), "date must be YYYY-MM-DD")
	}
	snap, err := h.Bookings.Capacity(c.Context(), id, d, helperAuth.GetSedeScope(c))
	if err != nil {
		if ae, ok := bookingService.AsAdmissionError(err); ok {
			return helper.JsonErrorCode(c, ae.Status, string(ae.Code), ae.Message)
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to read capacity")
	}
	return helper.JsonOK(c, "ok", snap)
}

// POST /api/a/schedules
func (h *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req dto.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if !helperAuth.InSedeScope(c, &req.ScheduleSedeID) {
		return helper.JsonError(c, fiber.StatusForbidden, "sede is outside your scope")
	}
	m, err := req.ToModel()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonCreated(c, "schedule created", dto.FromModel(m))
}

// PATCH /api/a/schedules/:id
func (h *ScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scheduleNotFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	if err := req.Apply(m); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Save(m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "schedule updated", dto.FromModel(*m))
}

// DELETE /api/a/schedules/:id
// Templates are deactivated, not removed; existing bookings keep their slot.
func (h *ScheduleController) DeactivateSchedule(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scheduleNotFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	if err := h.DB.WithContext(c.Context()).Model(m).
		Update("schedule_is_active", false).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonDeleted(c, "schedule deactivated", fiber.Map{"schedule_id": id})
}

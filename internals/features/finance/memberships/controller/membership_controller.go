package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookingService "studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/features/finance/memberships/dto"
	"studioku_backend/internals/features/finance/memberships/model"
	helper "studioku_backend/internals/helpers"
)

type MembershipController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewMembershipController(db *gorm.DB) *MembershipController {
	return &MembershipController{DB: db, Validator: helper.NewValidator()}
}

func membershipNotFound(c *fiber.Ctx) error {
	return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeMembershipNotFound), "membership not found")
}

// GET /memberships?kind=&sede_id=&include_inactive=
// A sede filter also returns global memberships.
func (h *MembershipController) ListMemberships(c *fiber.Ctx) error {
	q := h.DB.WithContext(c.Context()).Model(&model.MembershipModel{})
	if k := strings.TrimSpace(c.Query("kind")); k != "" {
		q = q.Where("membership_kind = ?", strings.ToLower(k))
	}
	sedeID, err := helper.ParseUUIDQuery(c, "sede_id")
	if err != nil {
		return err
	}
	if sedeID != nil {
		q = q.Where("membership_scope = ? OR membership_sede_id = ?", model.MembershipScopeGlobal, *sedeID)
	}
	if !strings.EqualFold(c.Query("include_inactive"), "true") {
		q = q.Where("membership_is_active = ?", true)
	}

	var rows []model.MembershipModel
	if err := q.Order("membership_price ASC, membership_name ASC").Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /memberships/:id
func (h *MembershipController) GetMembership(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var m model.MembershipModel
	if err := h.DB.WithContext(c.Context()).First(&m, "membership_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return membershipNotFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/a/memberships
func (h *MembershipController) CreateMembership(c *fiber.Ctx) error {
	var req dto.CreateMembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	m, err := req.ToModel()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonCreated(c, "membership created", m)
}

// PATCH /api/a/memberships/:id
func (h *MembershipController) UpdateMembership(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateMembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var m model.MembershipModel
	if err := h.DB.WithContext(c.Context()).First(&m, "membership_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return membershipNotFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	if err := req.Apply(&m); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "membership updated", m)
}

// DELETE /api/a/memberships/:id (soft; payments keep their reference)
func (h *MembershipController) DeleteMembership(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.MembershipModel{}, "membership_id = ?", id)
	if res.Error != nil {
		return helper.WriteDBError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return membershipNotFound(c)
	}
	return helper.JsonDeleted(c, "membership deleted", fiber.Map{"membership_id": id})
}

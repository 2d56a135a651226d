package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"studioku_backend/internals/features/studio/sedes/dto"
	"studioku_backend/internals/features/studio/sedes/model"
	helper "studioku_backend/internals/helpers"
)

type SedeController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewSedeController(db *gorm.DB) *SedeController {
	return &SedeController{DB: db, Validator: helper.NewValidator()}
}

// GET /api/public/sedes (?include_inactive=true for staff listings)
func (h *SedeController) ListSedes(c *fiber.Ctx) error {
	q := h.DB.WithContext(c.Context()).Model(&model.SedeModel{})
	if !strings.EqualFold(c.Query("include_inactive"), "true") {
		q = q.Where("sede_is_active = ?", true)
	}

	var rows []model.SedeModel
	if err := q.Order("sede_name ASC").Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// GET /api/public/sedes/:id
func (h *SedeController) GetSede(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var m model.SedeModel
	if err := h.DB.WithContext(c.Context()).First(&m, "sede_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "sede not found")
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/a/sedes
func (h *SedeController) CreateSede(c *fiber.Ctx) error {
	var req dto.CreateSedeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := req.ToModel()
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonCreated(c, "sede created", m)
}

// PATCH /api/a/sedes/:id
func (h *SedeController) UpdateSede(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateSedeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var m model.SedeModel
	if err := h.DB.WithContext(c.Context()).First(&m, "sede_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "sede not found")
		}
		return helper.WriteDBError(c, err)
	}
	req.Apply(&m)
	if err := h.DB.WithContext(c.Context()).Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "sede updated", m)
}

// DELETE /api/a/sedes/:id (soft)
func (h *SedeController) DeleteSede(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.SedeModel{}, "sede_id = ?", id)
	if res.Error != nil {
		return helper.WriteDBError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "sede not found")
	}
	return helper.JsonDeleted(c, "sede deleted", fiber.Map{"sede_id": id})
}

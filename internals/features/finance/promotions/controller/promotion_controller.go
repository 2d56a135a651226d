package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingService "studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/features/finance/promotions/dto"
	"studioku_backend/internals/features/finance/promotions/model"
	helper "studioku_backend/internals/helpers"
)

type PromotionController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewPromotionController(db *gorm.DB) *PromotionController {
	return &PromotionController{DB: db, Validator: helper.NewValidator()}
}

func (h *PromotionController) bind(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(out); err != nil {
		return false, helper.ValidationError(c, err)
	}
	return true, nil
}

func dbNotFound(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if what == "promotion instance" {
			return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeInvalidPromotionInstance), what+" not found")
		}
		return helper.JsonError(c, fiber.StatusNotFound, what+" not found")
	}
	return helper.WriteDBError(c, err)
}

/* ===================== Promotions ===================== */

// GET /api/a/promotions?active=true
func (h *PromotionController) ListPromotions(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	q := h.DB.WithContext(c.Context()).Model(&model.PromotionModel{})
	if strings.EqualFold(c.Query("active"), "true") {
		q = q.Where("promotion_is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	var rows []model.PromotionModel
	if err := q.Order("promotion_start_date DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage, len(rows))
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /api/a/promotions/:id
func (h *PromotionController) GetPromotion(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var m model.PromotionModel
	if err := h.DB.WithContext(c.Context()).First(&m, "promotion_id = ?", id).Error; err != nil {
		return dbNotFound(c, err, "promotion")
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/a/promotions
func (h *PromotionController) CreatePromotion(c *fiber.Ctx) error {
	var req dto.CreatePromotionRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	m, err := req.ToModel()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonCreated(c, "promotion created", m)
}

// PATCH /api/a/promotions/:id
func (h *PromotionController) UpdatePromotion(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePromotionRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	var m model.PromotionModel
	if err := h.DB.WithContext(c.Context()).First(&m, "promotion_id = ?", id).Error; err != nil {
		return dbNotFound(c, err, "promotion")
	}
	if err := req.Apply(&m); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "promotion updated", m)
}

// DELETE /api/a/promotions/:id (soft, instances included)
func (h *PromotionController) DeletePromotion(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	err = h.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.PromotionModel{}, "promotion_id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.PromotionInstanceModel{}, "promotion_instance_promotion_id = ?", id).Error
	})
	if err != nil {
		return dbNotFound(c, err, "promotion")
	}
	return helper.JsonDeleted(c, "promotion deleted", fiber.Map{"promotion_id": id})
}

/* ===================== Instances ===================== */

// GET /api/a/promotions/:id/instances
func (h *PromotionController) ListInstances(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var rows []model.PromotionInstanceModel
	if err := h.DB.WithContext(c.Context()).
		Where("promotion_instance_promotion_id = ?", id).
		Order("promotion_instance_start_date DESC").
		Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", rows)
}

// POST /api/a/promotions/:id/instances
func (h *PromotionController) CreateInstance(c *fiber.Ctx) error {
	promotionID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateInstanceRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	inst, err := req.ToModel(promotionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	err = h.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		var promo model.PromotionModel
		if err := tx.First(&promo, "promotion_id = ?", promotionID).Error; err != nil {
			return err
		}
		if err := tx.Create(&inst).Error; err != nil {
			return err
		}
		return addClients(tx, inst.PromotionInstanceID, req.ClientIDs)
	})
	if err != nil {
		return dbNotFound(c, err, "promotion")
	}
	return helper.JsonCreated(c, "promotion instance created", dto.InstanceDetail{
		PromotionInstanceModel: inst,
		ClientIDs:              nonNil(req.ClientIDs),
	})
}

// GET /api/a/promotion-instances/:id
func (h *PromotionController) GetInstance(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var inst model.PromotionInstanceModel
	if err := h.DB.WithContext(c.Context()).First(&inst, "promotion_instance_id = ?", id).Error; err != nil {
		return dbNotFound(c, err, "promotion instance")
	}
	ids, err := h.instanceClients(c, id)
	if err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.InstanceDetail{PromotionInstanceModel: inst, ClientIDs: ids})
}

// PATCH /api/a/promotion-instances/:id
func (h *PromotionController) UpdateInstance(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateInstanceRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	var inst model.PromotionInstanceModel
	if err := h.DB.WithContext(c.Context()).First(&inst, "promotion_instance_id = ?", id).Error; err != nil {
		return dbNotFound(c, err, "promotion instance")
	}
	if err := req.Apply(&inst); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.DB.WithContext(c.Context()).Save(&inst).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "promotion instance updated", inst)
}

// DELETE /api/a/promotion-instances/:id
func (h *PromotionController) DeleteInstance(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.PromotionInstanceModel{}, "promotion_instance_id = ?", id)
	if res.Error != nil {
		return helper.WriteDBError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return dbNotFound(c, gorm.ErrRecordNotFound, "promotion instance")
	}
	return helper.JsonDeleted(c, "promotion instance deleted", fiber.Map{"promotion_instance_id": id})
}

/* ===================== Instance clients ===================== */

// POST /api/a/promotion-instances/:id/clients {client_ids:[...]}
func (h *PromotionController) AddInstanceClients(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.InstanceClientsRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	var n int64
	if err := h.DB.WithContext(c.Context()).Model(&model.PromotionInstanceModel{}).
		Where("promotion_instance_id = ?", id).Count(&n).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	if n == 0 {
		return dbNotFound(c, gorm.ErrRecordNotFound, "promotion instance")
	}
	if err := addClients(h.DB.WithContext(c.Context()), id, req.ClientIDs); err != nil {
		return helper.WriteDBError(c, err)
	}
	ids, err := h.instanceClients(c, id)
	if err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "clients added", fiber.Map{"promotion_instance_id": id, "client_ids": ids})
}

// DELETE /api/a/promotion-instances/:id/clients/:client_id
func (h *PromotionController) RemoveInstanceClient(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	clientID, err := helper.ParseUUIDParam(c, "client_id")
	if err != nil {
		return err
	}
	res := h.DB.WithContext(c.Context()).Delete(&model.PromotionInstanceClientModel{},
		"promotion_instance_client_instance_id = ? AND promotion_instance_client_client_id = ?", id, clientID)
	if res.Error != nil {
		return helper.WriteDBError(c, res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "client is not part of this promotion instance")
	}
	return helper.JsonDeleted(c, "client removed", fiber.Map{"promotion_instance_id": id, "client_id": clientID})
}

func (h *PromotionController) instanceClients(c *fiber.Ctx, instanceID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := h.DB.WithContext(c.Context()).Model(&model.PromotionInstanceClientModel{}).
		Where("promotion_instance_client_instance_id = ?", instanceID).
		Order("promotion_instance_client_created_at ASC").
		Pluck("promotion_instance_client_client_id", &ids).Error
	return ids, err
}

// addClients is idempotent per (instance, client).
func addClients(db *gorm.DB, instanceID uuid.UUID, clientIDs []uuid.UUID) error {
	if len(clientIDs) == 0 {
		return nil
	}
	rows := make([]model.PromotionInstanceClientModel, 0, len(clientIDs))
	for _, cid := range clientIDs {
		rows = append(rows, model.PromotionInstanceClientModel{
			PromotionInstanceClientInstanceID: instanceID,
			PromotionInstanceClientClientID:   cid,
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

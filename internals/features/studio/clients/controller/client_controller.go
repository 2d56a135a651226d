// file: internals/features/studio/clients/controller/client_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	bookingService "studioku_backend/internals/features/booking/bookings/service"
	"studioku_backend/internals/features/studio/clients/dto"
	"studioku_backend/internals/features/studio/clients/model"
	"studioku_backend/internals/features/studio/clients/service"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
	"studioku_backend/internals/helpers/dbtime"
	helperOSS "studioku_backend/internals/helpers/oss"
)

type ClientController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Storage   *helperOSS.OSSService // nil when object storage is not configured
}

func NewClientController(db *gorm.DB, storage *helperOSS.OSSService) *ClientController {
	return &ClientController{DB: db, Validator: helper.NewValidator(), Storage: storage}
}

func notFound(c *fiber.Ctx) error {
	return helper.JsonErrorCode(c, fiber.StatusNotFound, string(bookingService.CodeClientNotFound), "client not found")
}

// load fetches a client visible in the caller's sede scope.
func (h *ClientController) load(c *fiber.Ctx, id uuid.UUID) (*model.ClientModel, error) {
	var m model.ClientModel
	if err := h.DB.WithContext(c.Context()).First(&m, "client_id = ?", id).Error; err != nil {
		return nil, err
	}
	if !helperAuth.InSedeScope(c, m.ClientSedeID) {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

// GET /api/a/clients?q=&status=
func (h *ClientController) ListClients(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	q := h.DB.WithContext(c.Context()).Model(&model.ClientModel{})
	if scope := helperAuth.GetSedeScope(c); scope != nil {
		q = q.Where("client_sede_id IN ? OR client_sede_id IS NULL", scope)
	}
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(`LOWER(client_first_name || ' ' || client_last_name) LIKE ?
			OR LOWER(COALESCE(client_email, '')) LIKE ?
			OR COALESCE(client_phone, '') LIKE ?`, like, like, "%"+s+"%")
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		q = q.Where("client_status = ?", strings.ToLower(s))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	var rows []model.ClientModel
	if err := q.Order("client_first_name ASC, client_last_name ASC").
		Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage, len(rows))
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /api/a/clients/:id
func (h *ClientController) GetClient(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// GET /api/a/clients/:id/summary
func (h *ClientController) GetClientSummary(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	today := dbtime.Today(dbtime.GetStudioLocation(c))

	sum, err := service.LoadSummary(c.Context(), h.DB, id, today)
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			return notFound(c)
		}
		log.Error().Err(err).Str("client_id", id.String()).Msg("client summary failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load client summary")
	}
	if !helperAuth.InSedeScope(c, sum.Client.ClientSedeID) {
		return notFound(c)
	}
	return helper.JsonOK(c, "ok", sum)
}

// POST /api/a/clients
func (h *ClientController) CreateClient(c *fiber.Ctx) error {
	var req dto.CreateClientRequest
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

	// Single-sede staff create clients in their own sede.
	scope := helperAuth.GetSedeScope(c)
	if m.ClientSedeID == nil && len(scope) == 1 {
		sid := scope[0]
		m.ClientSedeID = &sid
	}
	if !helperAuth.InSedeScope(c, m.ClientSedeID) {
		return helper.JsonError(c, fiber.StatusForbidden, "sede is outside your scope")
	}

	if err := h.DB.WithContext(c.Context()).Create(&m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "email already registered")
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonCreated(c, "client created", m)
}

// PATCH /api/a/clients/:id
func (h *ClientController) UpdateClient(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	if err := req.Apply(m); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if !helperAuth.InSedeScope(c, m.ClientSedeID) {
		return helper.JsonError(c, fiber.StatusForbidden, "sede is outside your scope")
	}
	if err := h.DB.WithContext(c.Context()).Save(m).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "email already registered")
		}
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "client updated", m)
}

// DELETE /api/a/clients/:id (soft)
func (h *ClientController) DeleteClient(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	if err := h.DB.WithContext(c.Context()).Delete(m).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonDeleted(c, "client deleted", fiber.Map{"client_id": id})
}

// POST /api/a/clients/:id/avatar (multipart, field "avatar")
func (h *ClientController) UploadAvatar(c *fiber.Ctx) error {
	if h.Storage == nil {
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "avatar storage is not configured")
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	m, err := h.load(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c)
		}
		return helper.WriteDBError(c, err)
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "avatar file is required")
	}

	url, err := h.Storage.UploadAsWebP(c.Context(), fh, "clients/"+id.String(), helperOSS.AvatarWebPOptions())
	if err != nil {
		if errors.Is(err, helperOSS.ErrUnsupportedImage) {
			return helper.JsonError(c, fiber.StatusUnsupportedMediaType, err.Error())
		}
		log.Error().Err(err).Str("client_id", id.String()).Msg("avatar upload failed")
		return helper.JsonError(c, fiber.StatusBadGateway, "failed to store avatar")
	}

	old := m.ClientAvatarURL
	if err := h.DB.WithContext(c.Context()).Model(m).
		Update("client_avatar_url", url).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	if old != nil && *old != "" && *old != url {
		if err := h.Storage.DeleteByPublicURL(c.Context(), *old); err != nil {
			log.Warn().Err(err).Str("url", *old).Msg("old avatar not removed")
		}
	}
	m.ClientAvatarURL = &url
	return helper.JsonUpdated(c, "avatar updated", m)
}

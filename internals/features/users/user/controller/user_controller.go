package controller

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	authService "studioku_backend/internals/features/users/auth/service"
	"studioku_backend/internals/features/users/user/dto"
	"studioku_backend/internals/features/users/user/model"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
)

type UserController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db, Validator: helper.NewValidator()}
}

// GET /api/a/users?role=&q=
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	q := uc.DB.WithContext(c.Context()).Model(&model.UserModel{})
	if r := strings.TrimSpace(c.Query("role")); r != "" {
		q = q.Where("role = ?", strings.ToLower(r))
	}
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		q = q.Where("user_name ILIKE ? OR email ILIKE ?", "%"+s+"%", "%"+s+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	var users []model.UserModel
	if err := q.Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage, len(users))
	return helper.JsonList(c, "ok", users, &pg)
}

// POST /api/a/users
func (uc *UserController) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := uc.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if err := authService.ValidatePassword(req.Password); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	hash, err := authService.HashPassword(req.Password)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "password hashing failed")
	}

	u := req.ToModel(hash)
	if err := uc.DB.WithContext(c.Context()).Create(&u).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "email already registered")
		}
		return helper.WriteDBError(c, err)
	}
	log.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("staff account created")
	return helper.JsonCreated(c, "user created", u)
}

// PATCH /api/a/users/:id
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := uc.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if me, err := helperAuth.GetUserID(c); err == nil && me == id && (req.Role != nil || req.IsActive != nil) {
		return helper.JsonError(c, fiber.StatusForbidden, "you cannot change your own role or status")
	}

	var u model.UserModel
	if err := uc.DB.WithContext(c.Context()).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "user not found")
		}
		return helper.WriteDBError(c, err)
	}
	req.Apply(&u)
	if u.Role == model.RoleClient && u.ClientID == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "client accounts need a linked client profile")
	}
	if err := uc.DB.WithContext(c.Context()).Save(&u).Error; err != nil {
		return helper.WriteDBError(c, err)
	}
	return helper.JsonUpdated(c, "user updated", u)
}

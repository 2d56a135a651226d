package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys hydrated by the AuthJWT / sede scope middlewares.
const (
	LocUserID    = "user_id"
	LocRole      = "role"
	LocClientID  = "client_id"
	LocSedeIDs   = "sede_ids"   // []uuid.UUID from the token; empty = every sede
	LocSedeScope = "sede_scope" // []uuid.UUID effective scope for this request; nil = every sede
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleClient     = "client"
)

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	return localUUID(c, LocUserID)
}

// GetClientID returns the client profile bound to the caller's account.
func GetClientID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := localUUID(c, LocClientID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "account is not linked to a client profile")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	if s, ok := c.Locals(LocRole).(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return ""
}

func IsAdmin(c *fiber.Ctx) bool { return GetRole(c) == RoleAdmin }

// IsStaff: admin or instructor.
func IsStaff(c *fiber.Ctx) bool {
	r := GetRole(c)
	return r == RoleAdmin || r == RoleInstructor
}

// GetSedeScope returns the sede ids the caller may see. nil means all.
func GetSedeScope(c *fiber.Ctx) []uuid.UUID {
	if v, ok := c.Locals(LocSedeScope).([]uuid.UUID); ok && len(v) > 0 {
		return v
	}
	return nil
}

// GetTokenSedeIDs returns the sede ids granted in the token. nil means all.
func GetTokenSedeIDs(c *fiber.Ctx) []uuid.UUID {
	if v, ok := c.Locals(LocSedeIDs).([]uuid.UUID); ok && len(v) > 0 {
		return v
	}
	return nil
}

func localUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	switch v := c.Locals(key).(type) {
	case uuid.UUID:
		if v != uuid.Nil {
			return v, nil
		}
	case string:
		if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
}

// InSedeScope reports whether a record owned by sedeID is visible to the
// caller. Records without a sede are visible to everyone.
func InSedeScope(c *fiber.Ctx, sedeID *uuid.UUID) bool {
	scope := GetSedeScope(c)
	if scope == nil || sedeID == nil {
		return true
	}
	for _, id := range scope {
		if id == *sedeID {
			return true
		}
	}
	return false
}

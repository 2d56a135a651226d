package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helperAuth "studioku_backend/internals/helpers/auth"
)

// UseSedeScope resolves which sedes the caller may see.
// Token sede_ids narrow the scope (empty = all sedes); an X-Sede-ID header
// (or ?sede_id=) selects one sede inside that scope.
func UseSedeScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		granted := helperAuth.GetTokenSedeIDs(c)

		selected := strings.TrimSpace(c.Get("X-Sede-ID"))
		if selected == "" {
			selected = strings.TrimSpace(c.Query("sede_id"))
		}
		if selected == "" {
			c.Locals(helperAuth.LocSedeScope, granted)
			return c.Next()
		}

		id, err := uuid.Parse(selected)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "X-Sede-ID is not a valid uuid")
		}
		if len(granted) > 0 && !containsUUID(granted, id) {
			return fiber.NewError(fiber.StatusForbidden, "sede is outside your scope")
		}
		c.Locals(helperAuth.LocSedeScope, []uuid.UUID{id})
		return c.Next()
	}
}

func containsUUID(list []uuid.UUID, id uuid.UUID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

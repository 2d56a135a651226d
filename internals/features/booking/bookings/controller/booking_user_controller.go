package controller

import (
	"github.com/gofiber/fiber/v2"

	dto "studioku_backend/internals/features/booking/bookings/dto"
	"studioku_backend/internals/features/booking/bookings/service"
	helper "studioku_backend/internals/helpers"
	helperAuth "studioku_backend/internals/helpers/auth"
)

/* =========================================================
   Self-service (/api/u): every handler is bound to the caller's own
   client profile. Sede scope does not apply to clients.
========================================================= */

// GET /api/u/bookings
func (h *BookingController) ListMyBookings(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	return h.list(c, &clientID, nil)
}

// GET /api/u/bookings/:id
func (h *BookingController) GetMyBooking(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return h.get(c, id, &clientID, nil)
}

// POST /api/u/bookings
func (h *BookingController) CreateMyBooking(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	req.ClientID = clientID
	req.ManualCheckin = false
	return h.admit(c, req, nil)
}

// POST /api/u/bookings/bulk
func (h *BookingController) CreateMyBulk(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	var req dto.BulkBookingRequest
	if ok, err := h.parse(c, &req); !ok {
		return err
	}
	req.ClientID = clientID
	return h.bulk(c, req, nil)
}

// GET /api/u/bookings/bulk/:id
func (h *BookingController) GetMyBulk(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	return h.bulkDetail(c, id, &clientID)
}

// POST /api/u/bookings/:id/cancel
func (h *BookingController) CancelMyBooking(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	return h.cancel(c, service.Ownership{ClientID: &clientID})
}

// POST /api/u/bookings/:id/reschedule
func (h *BookingController) RescheduleMyBooking(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	return h.reschedule(c, service.Ownership{ClientID: &clientID})
}

// GET /api/u/entitlement
func (h *BookingController) MyEntitlement(c *fiber.Ctx) error {
	clientID, err := helperAuth.GetClientID(c)
	if err != nil {
		return err
	}
	sum, err := h.Svc.Entitlement(c.Context(), clientID, nil)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "ok", sum)
}

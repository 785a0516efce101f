package pickup

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/pickup"
	"courier-booking/types"
	pickupTypes "courier-booking/types/pickup"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// PickupController handles pickup-request HTTP requests
type PickupController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *pickup.PickupService
}

// NewPickupController creates a new pickup controller
func NewPickupController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *PickupController {
	return &PickupController{
		DB:      db,
		Logger:  asyncLogger,
		service: pickup.NewPickupService(db),
	}
}

func (pc *PickupController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if pc.Logger != nil {
		pc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

func (pc *PickupController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Pickup request failed", err)
	}
	return pc.respond(c, status, apperrors.Message(err), nil)
}

func (pc *PickupController) pickupID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid pickup request id")
	}
	return uint(id), nil
}

// Store raises a pickup request for a booked consignment.
func (pc *PickupController) Store(c *fiber.Ctx) error {
	var req pickupTypes.PickupCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return pc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	requester, err := utils.CurrentUser(c)
	if err != nil {
		return pc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	p, err := pc.service.Create(requester, &req)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusCreated, "Pickup request created successfully", p)
}

// Cancel withdraws a pickup request; only the requester or an administrator
// may cancel.
func (pc *PickupController) Cancel(c *fiber.Ctx) error {
	id, err := pc.pickupID(c)
	if err != nil {
		return pc.fail(c, err)
	}

	actor, err := utils.CurrentUser(c)
	if err != nil {
		return pc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	p, err := pc.service.Cancel(id, actor)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Pickup request cancelled successfully", p)
}

// UpdateStatus assigns a rider or marks the pickup as collected.
func (pc *PickupController) UpdateStatus(c *fiber.Ctx) error {
	id, err := pc.pickupID(c)
	if err != nil {
		return pc.fail(c, err)
	}

	var req pickupTypes.PickupUpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return pc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	actor, err := utils.CurrentUser(c)
	if err != nil {
		return pc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	p, err := pc.service.UpdateStatus(id, &req, actor)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Pickup request updated successfully", p)
}

// Show returns one pickup request with its relations.
func (pc *PickupController) Show(c *fiber.Ctx) error {
	id, err := pc.pickupID(c)
	if err != nil {
		return pc.fail(c, err)
	}

	p, err := pc.service.Get(id)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Pickup request retrieved successfully", p)
}

// Mine lists the caller's own pickup requests.
func (pc *PickupController) Mine(c *fiber.Ctx) error {
	requester, err := utils.CurrentUser(c)
	if err != nil {
		return pc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	pickups, err := pc.service.ListMine(requester.ID)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Pickup requests retrieved successfully", pickups)
}

// Index lists all pickup requests, optionally filtered by status.
func (pc *PickupController) Index(c *fiber.Ctx) error {
	pickups, err := pc.service.ListAll(c.Query("status"))
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Pickup requests retrieved successfully", pickups)
}

// Eligible lists the caller's bookings a new pickup can be raised for.
func (pc *PickupController) Eligible(c *fiber.Ctx) error {
	requester, err := utils.CurrentUser(c)
	if err != nil {
		return pc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	bookings, err := pc.service.EligibleBookings(requester.ID)
	if err != nil {
		return pc.fail(c, err)
	}
	return pc.respond(c, fiber.StatusOK, "Eligible bookings retrieved successfully", bookings)
}

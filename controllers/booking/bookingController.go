package booking

import (
	"strconv"
	"time"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/booking"
	"courier-booking/types"
	bookingTypes "courier-booking/types/booking"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *booking.BookingService
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *BookingController {
	return &BookingController{
		DB:      db,
		Logger:  asyncLogger,
		service: booking.NewBookingService(db),
	}
}

func (bc *BookingController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if bc.Logger != nil {
		bc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

func (bc *BookingController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Booking request failed", err)
	}
	return bc.respond(c, status, apperrors.Message(err), nil)
}

func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid %s", name)
	}
	return uint(id), nil
}

// Store books a new consignment into the operator's active batch.
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return bc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	operator, err := utils.CurrentUser(c)
	if err != nil {
		return bc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	created, err := bc.service.Create(operator, &req)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusCreated, "Booking created successfully", created)
}

// Approve confirms a pending booking and assigns its CN number.
func (bc *BookingController) Approve(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	b, err := bc.service.Approve(id, utils.ActorName(c))
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking approved successfully", b)
}

// Update edits booking detail fields while the booking is still editable.
func (bc *BookingController) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	var req bookingTypes.BookingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return bc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	b, err := bc.service.Update(id, &req, utils.ActorName(c))
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking updated successfully", b)
}

// Cancel withdraws a booking before approval.
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	var req bookingTypes.CancelRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return bc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	b, err := bc.service.Cancel(id, utils.ActorName(c), req.Remarks)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking cancelled successfully", b)
}

// Void writes off a consignment; the reason is mandatory.
func (bc *BookingController) Void(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	var req bookingTypes.VoidRequest
	if err := c.BodyParser(&req); err != nil {
		return bc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	b, err := bc.service.Void(id, utils.ActorName(c), req.Reason)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking voided successfully", b)
}

// UpdateStatus applies a single status transition from the scan screens.
func (bc *BookingController) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	var req bookingTypes.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return bc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	b, err := bc.service.UpdateStatus(id, &req, utils.ActorName(c))
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking status updated successfully", b)
}

// Show returns one booking with its relations.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	b, err := bc.service.Get(id)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking retrieved successfully", b)
}

// History returns the audit trail for one booking.
func (bc *BookingController) History(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return bc.fail(c, err)
	}

	history, err := bc.service.History(id)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Booking history retrieved successfully", history)
}

// Index lists bookings filtered by the query string.
func (bc *BookingController) Index(c *fiber.Ctx) error {
	filter := booking.ListFilter{
		Status: c.Query("status"),
	}
	if batchID, err := strconv.ParseUint(c.Query("batch_id"), 10, 32); err == nil {
		filter.BatchID = uint(batchID)
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		filter.UserID = uint(userID)
	}
	if day := c.Query("day"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return bc.fail(c, apperrors.Validation("day must be formatted YYYY-MM-DD"))
		}
		filter.Day = &parsed
	}

	bookings, err := bc.service.List(filter)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Bookings retrieved successfully", bookings)
}

// Track is the public tracking lookup by CN number.
func (bc *BookingController) Track(c *fiber.Ctx) error {
	cn := c.Params("cn")

	b, history, err := bc.service.TrackByCn(cn)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Tracking information retrieved successfully", fiber.Map{
		"booking": b,
		"history": history,
	})
}

package arrival_scan

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/arrival_scan"
	"courier-booking/types"
	arrivalScanTypes "courier-booking/types/arrival_scan"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ArrivalScanController handles arrival-scan HTTP requests
type ArrivalScanController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *arrival_scan.ArrivalScanService
}

// NewArrivalScanController creates a new arrival scan controller
func NewArrivalScanController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ArrivalScanController {
	return &ArrivalScanController{
		DB:      db,
		Logger:  asyncLogger,
		service: arrival_scan.NewArrivalScanService(db),
	}
}

func (ac *ArrivalScanController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if ac.Logger != nil {
		ac.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

func (ac *ArrivalScanController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Arrival scan request failed", err)
	}
	return ac.respond(c, status, apperrors.Message(err), nil)
}

func (ac *ArrivalScanController) scanID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid arrival scan id")
	}
	return uint(id), nil
}

// Store creates a scan session over a CN list, all-or-nothing.
func (ac *ArrivalScanController) Store(c *fiber.Ctx) error {
	var req arrivalScanTypes.ArrivalScanCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return ac.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	scan, err := ac.service.Create(&req, utils.ActorName(c))
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusCreated, "Arrival scan created successfully", scan)
}

// AddShipments appends CNs to an open scan session.
func (ac *ArrivalScanController) AddShipments(c *fiber.Ctx) error {
	id, err := ac.scanID(c)
	if err != nil {
		return ac.fail(c, err)
	}

	var req arrivalScanTypes.AddShipmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return ac.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	scan, err := ac.service.AddShipments(id, &req, utils.ActorName(c))
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusOK, "Shipments added successfully", scan)
}

// Complete closes the session and heals any member not yet at the hub.
func (ac *ArrivalScanController) Complete(c *fiber.Ctx) error {
	id, err := ac.scanID(c)
	if err != nil {
		return ac.fail(c, err)
	}

	scan, err := ac.service.Complete(id, utils.ActorName(c))
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusOK, "Arrival scan completed successfully", scan)
}

// RemoveShipment detaches one CN from the session.
func (ac *ArrivalScanController) RemoveShipment(c *fiber.Ctx) error {
	id, err := ac.scanID(c)
	if err != nil {
		return ac.fail(c, err)
	}

	scan, err := ac.service.RemoveShipment(id, c.Params("cn"), utils.ActorName(c))
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusOK, "Shipment removed successfully", scan)
}

// Show returns one scan session with its shipments.
func (ac *ArrivalScanController) Show(c *fiber.Ctx) error {
	id, err := ac.scanID(c)
	if err != nil {
		return ac.fail(c, err)
	}

	scan, err := ac.service.Get(id)
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusOK, "Arrival scan retrieved successfully", scan)
}

// Index lists scan sessions, optionally filtered by status.
func (ac *ArrivalScanController) Index(c *fiber.Ctx) error {
	scans, err := ac.service.List(c.Query("status"))
	if err != nil {
		return ac.fail(c, err)
	}
	return ac.respond(c, fiber.StatusOK, "Arrival scans retrieved successfully", scans)
}

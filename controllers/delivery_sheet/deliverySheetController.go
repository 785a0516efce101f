package delivery_sheet

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/delivery_sheet"
	"courier-booking/types"
	deliverySheetTypes "courier-booking/types/delivery_sheet"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DeliverySheetController handles delivery-sheet HTTP requests
type DeliverySheetController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *delivery_sheet.DeliverySheetService
}

// NewDeliverySheetController creates a new delivery sheet controller
func NewDeliverySheetController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *DeliverySheetController {
	return &DeliverySheetController{
		DB:      db,
		Logger:  asyncLogger,
		service: delivery_sheet.NewDeliverySheetService(db),
	}
}

func (dc *DeliverySheetController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if dc.Logger != nil {
		dc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

func (dc *DeliverySheetController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Delivery sheet request failed", err)
	}
	return dc.respond(c, status, apperrors.Message(err), nil)
}

func (dc *DeliverySheetController) sheetID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid delivery sheet id")
	}
	return uint(id), nil
}

// Store creates a delivery sheet over a CN list, all-or-nothing.
func (dc *DeliverySheetController) Store(c *fiber.Ctx) error {
	var req deliverySheetTypes.DeliverySheetCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return dc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	sheet, err := dc.service.Create(&req, utils.ActorName(c))
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusCreated, "Delivery sheet created successfully", sheet)
}

// AddShipments appends CNs to an open sheet.
func (dc *DeliverySheetController) AddShipments(c *fiber.Ctx) error {
	id, err := dc.sheetID(c)
	if err != nil {
		return dc.fail(c, err)
	}

	var req deliverySheetTypes.AddShipmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return dc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	sheet, err := dc.service.AddShipments(id, &req, utils.ActorName(c))
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusOK, "Shipments added successfully", sheet)
}

// Complete closes the sheet and heals any member not yet out for delivery.
func (dc *DeliverySheetController) Complete(c *fiber.Ctx) error {
	id, err := dc.sheetID(c)
	if err != nil {
		return dc.fail(c, err)
	}

	sheet, err := dc.service.Complete(id, utils.ActorName(c))
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusOK, "Delivery sheet completed successfully", sheet)
}

// RemoveShipment detaches one CN from the sheet.
func (dc *DeliverySheetController) RemoveShipment(c *fiber.Ctx) error {
	id, err := dc.sheetID(c)
	if err != nil {
		return dc.fail(c, err)
	}

	sheet, err := dc.service.RemoveShipment(id, c.Params("cn"), utils.ActorName(c))
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusOK, "Shipment removed successfully", sheet)
}

// Show returns one sheet with its rider and shipments.
func (dc *DeliverySheetController) Show(c *fiber.Ctx) error {
	id, err := dc.sheetID(c)
	if err != nil {
		return dc.fail(c, err)
	}

	sheet, err := dc.service.Get(id)
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusOK, "Delivery sheet retrieved successfully", sheet)
}

// Index lists sheets, optionally filtered by status or rider.
func (dc *DeliverySheetController) Index(c *fiber.Ctx) error {
	var riderID uint
	if raw := c.Query("rider_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return dc.fail(c, apperrors.Validation("invalid rider_id"))
		}
		riderID = uint(parsed)
	}

	sheets, err := dc.service.List(c.Query("status"), riderID)
	if err != nil {
		return dc.fail(c, err)
	}
	return dc.respond(c, fiber.StatusOK, "Delivery sheets retrieved successfully", sheets)
}

package manifest

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/manifest"
	"courier-booking/types"
	manifestTypes "courier-booking/types/manifest"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ManifestController handles manifest HTTP requests
type ManifestController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *manifest.ManifestService
}

// NewManifestController creates a new manifest controller
func NewManifestController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ManifestController {
	return &ManifestController{
		DB:      db,
		Logger:  asyncLogger,
		service: manifest.NewManifestService(db),
	}
}

func (mc *ManifestController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if mc.Logger != nil {
		mc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

func (mc *ManifestController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Manifest request failed", err)
	}
	return mc.respond(c, status, apperrors.Message(err), nil)
}

func (mc *ManifestController) manifestID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid manifest id")
	}
	return uint(id), nil
}

// Store creates a manifest over a CN list, all-or-nothing.
func (mc *ManifestController) Store(c *fiber.Ctx) error {
	var req manifestTypes.ManifestCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return mc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	m, err := mc.service.Create(&req, utils.ActorName(c))
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusCreated, "Manifest created successfully", m)
}

// AddShipments appends CNs to an open manifest.
func (mc *ManifestController) AddShipments(c *fiber.Ctx) error {
	id, err := mc.manifestID(c)
	if err != nil {
		return mc.fail(c, err)
	}

	var req manifestTypes.AddShipmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return mc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	m, err := mc.service.AddShipments(id, &req, utils.ActorName(c))
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusOK, "Shipments added successfully", m)
}

// Complete closes the manifest and heals any member not yet in transit.
func (mc *ManifestController) Complete(c *fiber.Ctx) error {
	id, err := mc.manifestID(c)
	if err != nil {
		return mc.fail(c, err)
	}

	m, err := mc.service.Complete(id, utils.ActorName(c))
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusOK, "Manifest completed successfully", m)
}

// RemoveShipment detaches one CN from the manifest.
func (mc *ManifestController) RemoveShipment(c *fiber.Ctx) error {
	id, err := mc.manifestID(c)
	if err != nil {
		return mc.fail(c, err)
	}

	m, err := mc.service.RemoveShipment(id, c.Params("cn"), utils.ActorName(c))
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusOK, "Shipment removed successfully", m)
}

// Show returns one manifest with its shipments.
func (mc *ManifestController) Show(c *fiber.Ctx) error {
	id, err := mc.manifestID(c)
	if err != nil {
		return mc.fail(c, err)
	}

	m, err := mc.service.Get(id)
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusOK, "Manifest retrieved successfully", m)
}

// Index lists manifests, optionally filtered by status.
func (mc *ManifestController) Index(c *fiber.Ctx) error {
	manifests, err := mc.service.List(c.Query("status"))
	if err != nil {
		return mc.fail(c, err)
	}
	return mc.respond(c, fiber.StatusOK, "Manifests retrieved successfully", manifests)
}

package batch

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	"courier-booking/services/batch"
	"courier-booking/services/sequence"
	"courier-booking/types"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BatchController handles shift-batch HTTP requests
type BatchController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	service *batch.BatchService
}

// NewBatchController creates a new batch controller
func NewBatchController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *BatchController {
	return &BatchController{
		DB:      db,
		Logger:  asyncLogger,
		service: batch.NewBatchService(db, sequence.NewSequenceService()),
	}
}

func (bc *BatchController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
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

func (bc *BatchController) fail(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("Batch request failed", err)
	}
	return bc.respond(c, status, apperrors.Message(err), nil)
}

// EnsureActive returns the caller's ACTIVE batch, opening one if none exists.
func (bc *BatchController) EnsureActive(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return bc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	b, err := bc.service.EnsureActiveBatch(owner)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Active batch ready", b)
}

// Close ends a batch.
func (bc *BatchController) Close(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return bc.fail(c, apperrors.Validation("invalid batch id"))
	}

	b, err := bc.service.CloseBatch(uint(id), utils.ActorName(c))
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Batch closed successfully", b)
}

// SetActive reactivates a batch, demoting any other ACTIVE batch of the owner.
func (bc *BatchController) SetActive(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return bc.fail(c, apperrors.Validation("invalid batch id"))
	}

	b, err := bc.service.SetActive(uint(id), utils.ActorName(c))
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Batch activated successfully", b)
}

// Latest returns the caller's most recent batch.
func (bc *BatchController) Latest(c *fiber.Ctx) error {
	owner, err := utils.CurrentUser(c)
	if err != nil {
		return bc.respond(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	b, err := bc.service.Latest(owner.ID)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Batch retrieved successfully", b)
}

// Index lists batches; staff see their own, the staff_id query selects others.
func (bc *BatchController) Index(c *fiber.Ctx) error {
	var staffID *uint
	if raw := c.Query("staff_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return bc.fail(c, apperrors.Validation("invalid staff_id"))
		}
		id := uint(parsed)
		staffID = &id
	}

	batches, err := bc.service.List(staffID)
	if err != nil {
		return bc.fail(c, err)
	}
	return bc.respond(c, fiber.StatusOK, "Batches retrieved successfully", batches)
}

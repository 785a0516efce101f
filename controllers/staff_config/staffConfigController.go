package staff_config

import (
	"strconv"

	"courier-booking/logger"
	staffconfigModel "courier-booking/models/staffconfig"
	"courier-booking/types"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StaffConfigController manages the per-user numbering configuration that
// supervisory batch codes are built from.
type StaffConfigController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewStaffConfigController creates a new staff config controller
func NewStaffConfigController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *StaffConfigController {
	return &StaffConfigController{DB: db, Logger: asyncLogger}
}

func (sc *StaffConfigController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if sc.Logger != nil {
		sc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

type staffConfigRequest struct {
	UserID      uint   `json:"user_id"`
	StationCode string `json:"station_code"`
	StaffCode   string `json:"staff_code"`
	RouteCode   string `json:"route_code,omitempty"`
}

// Upsert creates or replaces the configuration for one user.
func (sc *StaffConfigController) Upsert(c *fiber.Ctx) error {
	var req staffConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return sc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.UserID == 0 || req.StationCode == "" || req.StaffCode == "" {
		return sc.respond(c, fiber.StatusBadRequest, "user_id, station_code and staff_code are required", nil)
	}

	var cfg staffconfigModel.StaffConfig
	err := sc.DB.Where("user_id = ?", req.UserID).First(&cfg).Error
	switch err {
	case nil:
		cfg.StationCode = req.StationCode
		cfg.StaffCode = req.StaffCode
		cfg.RouteCode = req.RouteCode
		if err := sc.DB.Save(&cfg).Error; err != nil {
			logger.Error("Failed to update staff config", err)
			return sc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
		}
		return sc.respond(c, fiber.StatusOK, "Staff configuration updated successfully", cfg)

	case gorm.ErrRecordNotFound:
		cfg = staffconfigModel.StaffConfig{
			UserID:      req.UserID,
			StationCode: req.StationCode,
			StaffCode:   req.StaffCode,
			RouteCode:   req.RouteCode,
		}
		if err := sc.DB.Create(&cfg).Error; err != nil {
			logger.Error("Failed to create staff config", err)
			return sc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
		}
		return sc.respond(c, fiber.StatusCreated, "Staff configuration created successfully", cfg)

	default:
		logger.Error("Failed to load staff config", err)
		return sc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
}

// Show returns the configuration for one user.
func (sc *StaffConfigController) Show(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil || userID == 0 {
		return sc.respond(c, fiber.StatusBadRequest, "invalid user id", nil)
	}

	var cfg staffconfigModel.StaffConfig
	if err := sc.DB.Preload("User").Where("user_id = ?", uint(userID)).First(&cfg).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return sc.respond(c, fiber.StatusNotFound, "No staff configuration for that user", nil)
		}
		logger.Error("Failed to load staff config", err)
		return sc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
	return sc.respond(c, fiber.StatusOK, "Staff configuration retrieved successfully", cfg)
}

package city

import (
	"strconv"

	"courier-booking/apperrors"
	"courier-booking/logger"
	cityModel "courier-booking/models/city"
	"courier-booking/types"
	"courier-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CityController manages the station/city reference data.
type CityController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewCityController creates a new city controller
func NewCityController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *CityController {
	return &CityController{DB: db, Logger: asyncLogger}
}

func (cc *CityController) respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	err := c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
	if cc.Logger != nil {
		cc.Logger.Log(utils.CreateSanitizedLogEntry(c))
	}
	return err
}

type cityRequest struct {
	Name        string `json:"name"`
	StationCode string `json:"station_code"`
	Active      *bool  `json:"active,omitempty"`
}

// Store creates a city.
func (cc *CityController) Store(c *fiber.Ctx) error {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return cc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if req.Name == "" || req.StationCode == "" {
		return cc.respond(c, fiber.StatusBadRequest, "name and station_code are required", nil)
	}

	city := cityModel.City{
		Name:        req.Name,
		StationCode: req.StationCode,
		Active:      true,
	}
	if req.Active != nil {
		city.Active = *req.Active
	}

	var existing int64
	if err := cc.DB.Model(&cityModel.City{}).
		Where("name = ? OR station_code = ?", req.Name, req.StationCode).
		Count(&existing).Error; err != nil {
		logger.Error("Failed to check city uniqueness", err)
		return cc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
	if existing > 0 {
		return cc.respond(c, fiber.StatusConflict, "A city with that name or station code already exists", nil)
	}

	if err := cc.DB.Create(&city).Error; err != nil {
		logger.Error("Failed to create city", err)
		return cc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
	return cc.respond(c, fiber.StatusCreated, "City created successfully", city)
}

// Update edits a city's name, station code or active flag.
func (cc *CityController) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return cc.respond(c, fiber.StatusBadRequest, "invalid city id", nil)
	}

	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return cc.respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	var city cityModel.City
	if err := cc.DB.First(&city, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return cc.respond(c, fiber.StatusNotFound, apperrors.Message(
				apperrors.NotFound("city %d not found", id)), nil)
		}
		logger.Error("Failed to load city", err)
		return cc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}

	if req.Name != "" {
		city.Name = req.Name
	}
	if req.StationCode != "" {
		city.StationCode = req.StationCode
	}
	if req.Active != nil {
		city.Active = *req.Active
	}

	if err := cc.DB.Save(&city).Error; err != nil {
		logger.Error("Failed to update city", err)
		return cc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
	return cc.respond(c, fiber.StatusOK, "City updated successfully", city)
}

// Index lists cities; pass active=true to hide retired stations.
func (cc *CityController) Index(c *fiber.Ctx) error {
	q := cc.DB.Order("name ASC")
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var cities []cityModel.City
	if err := q.Find(&cities).Error; err != nil {
		logger.Error("Failed to list cities", err)
		return cc.respond(c, fiber.StatusInternalServerError, "Internal server error", nil)
	}
	return cc.respond(c, fiber.StatusOK, "Cities retrieved successfully", cities)
}

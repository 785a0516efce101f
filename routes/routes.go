package routes

import (
	"courier-booking/constants"
	arrivalScanController "courier-booking/controllers/arrival_scan"
	batchController "courier-booking/controllers/batch"
	bookingController "courier-booking/controllers/booking"
	cityController "courier-booking/controllers/city"
	deliverySheetController "courier-booking/controllers/delivery_sheet"
	manifestController "courier-booking/controllers/manifest"
	pickupController "courier-booking/controllers/pickup"
	staffConfigController "courier-booking/controllers/staff_config"
	"courier-booking/logger"
	"courier-booking/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)

	bookings := bookingController.NewBookingController(db, asyncLogger)
	batches := batchController.NewBatchController(db, asyncLogger)
	manifests := manifestController.NewManifestController(db, asyncLogger)
	arrivalScans := arrivalScanController.NewArrivalScanController(db, asyncLogger)
	deliverySheets := deliverySheetController.NewDeliverySheetController(db, asyncLogger)
	pickups := pickupController.NewPickupController(db, asyncLogger)
	cities := cityController.NewCityController(db, asyncLogger)
	staffConfigs := staffConfigController.NewStaffConfigController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Get("/track/:cn", bookings.Track)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/booking")
	bookingGroup.Post("/create", middleware.RequirePermissions(
		constants.PermOperatorFull,
		constants.PermSupervisorFull,
		constants.PermAdminFull,
	), bookings.Store)
	bookingGroup.Post("/:id/approve", middleware.RequirePermissions(
		constants.PermSupervisorFull,
		constants.PermAdminFull,
	), bookings.Approve)
	bookingGroup.Put("/:id", middleware.RequireAuthentication(), bookings.Update)
	bookingGroup.Post("/:id/cancel", middleware.RequireAuthentication(), bookings.Cancel)
	bookingGroup.Post("/:id/void", middleware.RequirePermissions(
		constants.PermSupervisorFull,
		constants.PermAdminFull,
	), bookings.Void)
	bookingGroup.Post("/:id/status", middleware.RequireAuthentication(), bookings.UpdateStatus)
	bookingGroup.Get("/:id/history", middleware.RequireAuthentication(), bookings.History)
	bookingGroup.Get("/:id", middleware.RequireAuthentication(), bookings.Show)
	bookingGroup.Get("/", middleware.RequireAuthentication(), bookings.Index)

	/*=============================================================================
	| Batch Routes
	===============================================================================*/
	batchGroup := api.Group("/batch").Use(middleware.RequireAuthentication())
	batchGroup.Post("/ensure-active", batches.EnsureActive)
	batchGroup.Post("/:id/close", batches.Close)
	batchGroup.Post("/:id/set-active", batches.SetActive)
	batchGroup.Get("/latest", batches.Latest)
	batchGroup.Get("/", batches.Index)

	/*=============================================================================
	| Manifest Routes
	===============================================================================*/
	manifestGroup := api.Group("/manifest").Use(middleware.RequirePermissions(
		constants.PermOperatorFull,
		constants.PermSupervisorFull,
		constants.PermAdminFull,
	))
	manifestGroup.Post("/create", manifests.Store)
	manifestGroup.Post("/:id/shipments", manifests.AddShipments)
	manifestGroup.Post("/:id/complete", manifests.Complete)
	manifestGroup.Delete("/:id/shipments/:cn", manifests.RemoveShipment)
	manifestGroup.Get("/:id", manifests.Show)
	manifestGroup.Get("/", manifests.Index)

	/*=============================================================================
	| Arrival Scan Routes
	===============================================================================*/
	arrivalGroup := api.Group("/arrival-scan").Use(middleware.RequirePermissions(
		constants.PermOperatorFull,
		constants.PermSupervisorFull,
		constants.PermAdminFull,
	))
	arrivalGroup.Post("/create", arrivalScans.Store)
	arrivalGroup.Post("/:id/shipments", arrivalScans.AddShipments)
	arrivalGroup.Post("/:id/complete", arrivalScans.Complete)
	arrivalGroup.Delete("/:id/shipments/:cn", arrivalScans.RemoveShipment)
	arrivalGroup.Get("/:id", arrivalScans.Show)
	arrivalGroup.Get("/", arrivalScans.Index)

	/*=============================================================================
	| Delivery Sheet Routes
	===============================================================================*/
	sheetGroup := api.Group("/delivery-sheet").Use(middleware.RequirePermissions(
		constants.PermOperatorFull,
		constants.PermSupervisorFull,
		constants.PermAdminFull,
		constants.PermRiderFull,
	))
	sheetGroup.Post("/create", deliverySheets.Store)
	sheetGroup.Post("/:id/shipments", deliverySheets.AddShipments)
	sheetGroup.Post("/:id/complete", deliverySheets.Complete)
	sheetGroup.Delete("/:id/shipments/:cn", deliverySheets.RemoveShipment)
	sheetGroup.Get("/:id", deliverySheets.Show)
	sheetGroup.Get("/", deliverySheets.Index)

	/*=============================================================================
	| Pickup Routes
	===============================================================================*/
	pickupGroup := api.Group("/pickup").Use(middleware.RequireAuthentication())
	pickupGroup.Post("/create", pickups.Store)
	pickupGroup.Post("/:id/cancel", pickups.Cancel)
	pickupGroup.Post("/:id/status", pickups.UpdateStatus)
	pickupGroup.Get("/mine", pickups.Mine)
	pickupGroup.Get("/eligible-bookings", pickups.Eligible)
	pickupGroup.Get("/:id", pickups.Show)
	pickupGroup.Get("/", pickups.Index)

	/*=============================================================================
	| Reference Data Routes
	===============================================================================*/
	cityGroup := api.Group("/city")
	cityGroup.Get("/", middleware.RequireAuthentication(), cities.Index)
	cityGroup.Post("/create", middleware.RequirePermissions(
		constants.PermAdminFull,
	), cities.Store)
	cityGroup.Put("/:id", middleware.RequirePermissions(
		constants.PermAdminFull,
	), cities.Update)

	staffConfigGroup := api.Group("/staff-config").Use(middleware.RequirePermissions(
		constants.PermAdminFull,
		constants.PermSupervisorFull,
	))
	staffConfigGroup.Post("/", staffConfigs.Upsert)
	staffConfigGroup.Get("/:userId", staffConfigs.Show)
}

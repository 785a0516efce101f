// Package delivery_sheet implements the last-mile dispatch aggregator. A
// sheet is created over a list of CN numbers all-or-nothing and carries its
// bookings to OUT_FOR_DELIVERY; completion idempotently heals stragglers.
package delivery_sheet

import (
	"time"

	"courier-booking/apperrors"
	bookingModel "courier-booking/models/booking"
	deliverysheetModel "courier-booking/models/deliverysheet"
	userModel "courier-booking/models/user"
	"courier-booking/services/booking_status"
	"courier-booking/services/sequence"
	deliverySheetTypes "courier-booking/types/delivery_sheet"

	"gorm.io/gorm"
)

type DeliverySheetService struct {
	db        *gorm.DB
	statuses  *booking_status.StatusService
	sequences *sequence.Service
}

func NewDeliverySheetService(db *gorm.DB) *DeliverySheetService {
	return &DeliverySheetService{
		db:        db,
		statuses:  booking_status.NewStatusService(db),
		sequences: sequence.NewSequenceService(),
	}
}

// Create opens a delivery sheet over the requested CN numbers. Every CN must
// resolve to a booking that can legally move to OUT_FOR_DELIVERY; any failure
// rolls the whole sheet back.
func (s *DeliverySheetService) Create(req *deliverySheetTypes.DeliverySheetCreateRequest, actor string) (*deliverysheetModel.DeliverySheet, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	if dup := firstDuplicate(req.CnNumbers); dup != "" {
		return nil, apperrors.Validation("duplicate cn_number %s in request", dup)
	}

	var sheet deliverysheetModel.DeliverySheet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.RiderID != 0 {
			var rider userModel.User
			if err := tx.First(&rider, req.RiderID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return apperrors.NotFound("rider %d not found", req.RiderID)
				}
				return err
			}
		}

		code, err := s.sequences.Generate(tx, sequence.ForDeliverySheetCode(time.Now()))
		if err != nil {
			return err
		}

		sheet = deliverysheetModel.DeliverySheet{
			SheetCode: code,
			Status:    deliverysheetModel.DeliverySheetStatusPending,
			TotalCns:  len(req.CnNumbers),
			CreatedBy: actor,
		}
		if req.RiderID != 0 {
			riderID := req.RiderID
			sheet.RiderID = &riderID
		}
		if req.VehicleNumber != "" {
			sheet.VehicleNumber = &req.VehicleNumber
		}
		if err := tx.Create(&sheet).Error; err != nil {
			return err
		}

		for _, cn := range req.CnNumbers {
			b, err := findBookingByCn(tx, cn)
			if err != nil {
				return err
			}
			if err := s.statuses.Transition(tx, b, bookingModel.BookingStatusOutForDelivery,
				"out_for_delivery", actor, "delivery sheet "+code); err != nil {
				return err
			}
			shipment := deliverysheetModel.DeliverySheetShipment{
				DeliverySheetID: sheet.ID,
				BookingID:       b.ID,
				CnNumber:        cn,
			}
			if err := tx.Create(&shipment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(sheet.ID)
}

// AddShipments appends CNs to an open sheet; re-adding a member is a no-op.
// New members are transitioned by the next Complete.
func (s *DeliverySheetService) AddShipments(sheetID uint, req *deliverySheetTypes.AddShipmentsRequest, actor string) (*deliverysheetModel.DeliverySheet, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sheet deliverysheetModel.DeliverySheet
		if err := tx.First(&sheet, sheetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("delivery sheet %d not found", sheetID)
			}
			return err
		}
		if sheet.Status == deliverysheetModel.DeliverySheetStatusCompleted {
			return apperrors.Conflict("delivery sheet %s is already completed", sheet.SheetCode)
		}

		added := 0
		for _, cn := range req.CnNumbers {
			var existing int64
			if err := tx.Model(&deliverysheetModel.DeliverySheetShipment{}).
				Where("delivery_sheet_id = ? AND cn_number = ?", sheet.ID, cn).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}

			b, err := findBookingByCn(tx, cn)
			if err != nil {
				return err
			}
			shipment := deliverysheetModel.DeliverySheetShipment{
				DeliverySheetID: sheet.ID,
				BookingID:       b.ID,
				CnNumber:        cn,
			}
			if err := tx.Create(&shipment).Error; err != nil {
				return err
			}
			added++
		}

		if added == 0 {
			return nil
		}
		return tx.Model(&sheet).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns + ?", added),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(sheetID)
}

// Complete closes the sheet. Members not yet OUT_FOR_DELIVERY are
// transitioned now; members already there and terminal members (delivered,
// returned, voided) are skipped, so the operation is safe to re-run. A live
// member that cannot legally reach OUT_FOR_DELIVERY aborts the completion.
func (s *DeliverySheetService) Complete(sheetID uint, actor string) (*deliverysheetModel.DeliverySheet, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sheet deliverysheetModel.DeliverySheet
		if err := tx.Preload("Shipments").First(&sheet, sheetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("delivery sheet %d not found", sheetID)
			}
			return err
		}

		for _, shipment := range sheet.Shipments {
			var b bookingModel.Booking
			if err := tx.First(&b, shipment.BookingID).Error; err != nil {
				return err
			}
			if b.Status == bookingModel.BookingStatusOutForDelivery || b.Status.IsTerminal() {
				continue
			}
			if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusOutForDelivery,
				"out_for_delivery", actor, "delivery sheet "+sheet.SheetCode); err != nil {
				return err
			}
		}

		if sheet.Status == deliverysheetModel.DeliverySheetStatusCompleted {
			return nil
		}
		return tx.Model(&sheet).Updates(map[string]interface{}{
			"status":     deliverysheetModel.DeliverySheetStatusCompleted,
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(sheetID)
}

// RemoveShipment detaches one CN from the sheet without touching the
// booking's status.
func (s *DeliverySheetService) RemoveShipment(sheetID uint, cnNumber string, actor string) (*deliverysheetModel.DeliverySheet, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sheet deliverysheetModel.DeliverySheet
		if err := tx.First(&sheet, sheetID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("delivery sheet %d not found", sheetID)
			}
			return err
		}

		res := tx.Where("delivery_sheet_id = ? AND cn_number = ?", sheet.ID, cnNumber).
			Delete(&deliverysheetModel.DeliverySheetShipment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("CN %s is not on delivery sheet %s", cnNumber, sheet.SheetCode)
		}

		return tx.Model(&sheet).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns - ?", res.RowsAffected),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(sheetID)
}

// Get loads a sheet with its rider, shipments and their bookings.
func (s *DeliverySheetService) Get(sheetID uint) (*deliverysheetModel.DeliverySheet, error) {
	var sheet deliverysheetModel.DeliverySheet
	err := s.db.Preload("Rider").Preload("Shipments.Booking").First(&sheet, sheetID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("delivery sheet %d not found", sheetID)
	}
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

// List returns sheets newest first, optionally filtered by status or rider.
func (s *DeliverySheetService) List(status string, riderID uint) ([]deliverysheetModel.DeliverySheet, error) {
	q := s.db.Preload("Rider").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if riderID != 0 {
		q = q.Where("rider_id = ?", riderID)
	}
	var sheets []deliverysheetModel.DeliverySheet
	if err := q.Find(&sheets).Error; err != nil {
		return nil, err
	}
	return sheets, nil
}

func findBookingByCn(tx *gorm.DB, cn string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := tx.Where("cn_number = ?", cn).First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("no booking found for CN %s", cn)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func firstDuplicate(cns []string) string {
	seen := make(map[string]bool, len(cns))
	for _, cn := range cns {
		if seen[cn] {
			return cn
		}
		seen[cn] = true
	}
	return ""
}

// Package arrival_scan implements the station receiving aggregator. A scan
// session is created over a list of CN numbers all-or-nothing and carries its
// bookings to AT_HUB; completion idempotently heals any member that has not
// reached the target.
package arrival_scan

import (
	"time"

	"courier-booking/apperrors"
	arrivalscanModel "courier-booking/models/arrivalscan"
	bookingModel "courier-booking/models/booking"
	"courier-booking/services/booking_status"
	"courier-booking/services/sequence"
	arrivalScanTypes "courier-booking/types/arrival_scan"

	"gorm.io/gorm"
)

type ArrivalScanService struct {
	db        *gorm.DB
	statuses  *booking_status.StatusService
	sequences *sequence.Service
}

func NewArrivalScanService(db *gorm.DB) *ArrivalScanService {
	return &ArrivalScanService{
		db:        db,
		statuses:  booking_status.NewStatusService(db),
		sequences: sequence.NewSequenceService(),
	}
}

// Create opens a scan session over the requested CN numbers. Every CN must
// resolve to a booking that can legally move to AT_HUB; any failure rolls the
// whole session back.
func (s *ArrivalScanService) Create(req *arrivalScanTypes.ArrivalScanCreateRequest, actor string) (*arrivalscanModel.ArrivalScan, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	if dup := firstDuplicate(req.CnNumbers); dup != "" {
		return nil, apperrors.Validation("duplicate cn_number %s in request", dup)
	}

	var scan arrivalscanModel.ArrivalScan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := s.sequences.Generate(tx, sequence.ForArrivalScanCode(time.Now()))
		if err != nil {
			return err
		}

		scan = arrivalscanModel.ArrivalScan{
			ScanCode:      code,
			Status:        arrivalscanModel.ArrivalScanStatusPending,
			StationCityID: req.StationCityID,
			TotalCns:      len(req.CnNumbers),
			CreatedBy:     actor,
		}
		if err := tx.Create(&scan).Error; err != nil {
			return err
		}

		for _, cn := range req.CnNumbers {
			b, err := findBookingByCn(tx, cn)
			if err != nil {
				return err
			}
			if err := s.statuses.Transition(tx, b, bookingModel.BookingStatusAtHub,
				"arrival_scanned", actor, "arrival scan "+code); err != nil {
				return err
			}
			shipment := arrivalscanModel.ArrivalScanShipment{
				ArrivalScanID: scan.ID,
				BookingID:     b.ID,
				CnNumber:      cn,
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
	return s.Get(scan.ID)
}

// AddShipments appends CNs to an open scan session; re-adding a member is a
// no-op. New members are transitioned by the next Complete.
func (s *ArrivalScanService) AddShipments(scanID uint, req *arrivalScanTypes.AddShipmentsRequest, actor string) (*arrivalscanModel.ArrivalScan, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var scan arrivalscanModel.ArrivalScan
		if err := tx.First(&scan, scanID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("arrival scan %d not found", scanID)
			}
			return err
		}
		if scan.Status == arrivalscanModel.ArrivalScanStatusCompleted {
			return apperrors.Conflict("arrival scan %s is already completed", scan.ScanCode)
		}

		added := 0
		for _, cn := range req.CnNumbers {
			var existing int64
			if err := tx.Model(&arrivalscanModel.ArrivalScanShipment{}).
				Where("arrival_scan_id = ? AND cn_number = ?", scan.ID, cn).
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
			shipment := arrivalscanModel.ArrivalScanShipment{
				ArrivalScanID: scan.ID,
				BookingID:     b.ID,
				CnNumber:      cn,
			}
			if err := tx.Create(&shipment).Error; err != nil {
				return err
			}
			added++
		}

		if added == 0 {
			return nil
		}
		return tx.Model(&scan).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns + ?", added),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(scanID)
}

// Complete closes the session. Members not yet AT_HUB are transitioned now;
// members already there and terminal members are skipped, so a re-run after
// partial failure heals without duplicate history rows. A live member that
// cannot legally reach AT_HUB aborts the whole completion.
func (s *ArrivalScanService) Complete(scanID uint, actor string) (*arrivalscanModel.ArrivalScan, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var scan arrivalscanModel.ArrivalScan
		if err := tx.Preload("Shipments").First(&scan, scanID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("arrival scan %d not found", scanID)
			}
			return err
		}

		for _, shipment := range scan.Shipments {
			var b bookingModel.Booking
			if err := tx.First(&b, shipment.BookingID).Error; err != nil {
				return err
			}
			if b.Status == bookingModel.BookingStatusAtHub || b.Status.IsTerminal() {
				continue
			}
			if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusAtHub,
				"arrival_scanned", actor, "arrival scan "+scan.ScanCode); err != nil {
				return err
			}
		}

		if scan.Status == arrivalscanModel.ArrivalScanStatusCompleted {
			return nil
		}
		return tx.Model(&scan).Updates(map[string]interface{}{
			"status":     arrivalscanModel.ArrivalScanStatusCompleted,
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(scanID)
}

// RemoveShipment detaches one CN from the session without touching the
// booking's status.
func (s *ArrivalScanService) RemoveShipment(scanID uint, cnNumber string, actor string) (*arrivalscanModel.ArrivalScan, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var scan arrivalscanModel.ArrivalScan
		if err := tx.First(&scan, scanID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("arrival scan %d not found", scanID)
			}
			return err
		}

		res := tx.Where("arrival_scan_id = ? AND cn_number = ?", scan.ID, cnNumber).
			Delete(&arrivalscanModel.ArrivalScanShipment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("CN %s is not on arrival scan %s", cnNumber, scan.ScanCode)
		}

		return tx.Model(&scan).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns - ?", res.RowsAffected),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(scanID)
}

// Get loads a scan session with its shipments and their bookings.
func (s *ArrivalScanService) Get(scanID uint) (*arrivalscanModel.ArrivalScan, error) {
	var scan arrivalscanModel.ArrivalScan
	err := s.db.Preload("Shipments.Booking").First(&scan, scanID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("arrival scan %d not found", scanID)
	}
	if err != nil {
		return nil, err
	}
	return &scan, nil
}

// List returns scan sessions newest first, optionally filtered by status.
func (s *ArrivalScanService) List(status string) ([]arrivalscanModel.ArrivalScan, error) {
	q := s.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var scans []arrivalscanModel.ArrivalScan
	if err := q.Find(&scans).Error; err != nil {
		return nil, err
	}
	return scans, nil
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

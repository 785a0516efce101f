// Package manifest implements the trip-level dispatch aggregator. A manifest
// is created over a list of CN numbers all-or-nothing, carries its bookings to
// IN_TRANSIT, and is completed idempotently: completion transitions only the
// members that have not reached the target yet.
package manifest

import (
	"time"

	"courier-booking/apperrors"
	bookingModel "courier-booking/models/booking"
	manifestModel "courier-booking/models/manifest"
	"courier-booking/services/booking_status"
	"courier-booking/services/sequence"
	manifestTypes "courier-booking/types/manifest"

	"gorm.io/gorm"
)

type ManifestService struct {
	db        *gorm.DB
	statuses  *booking_status.StatusService
	sequences *sequence.Service
}

func NewManifestService(db *gorm.DB) *ManifestService {
	return &ManifestService{
		db:        db,
		statuses:  booking_status.NewStatusService(db),
		sequences: sequence.NewSequenceService(),
	}
}

// Create opens a manifest over the requested CN numbers. Every CN must
// resolve to a booking that can legally move to IN_TRANSIT; the first failure
// rolls back the entire manifest, no partial header or membership survives.
func (s *ManifestService) Create(req *manifestTypes.ManifestCreateRequest, actor string) (*manifestModel.Manifest, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	if dup := firstDuplicate(req.CnNumbers); dup != "" {
		return nil, apperrors.Validation("duplicate cn_number %s in request", dup)
	}

	var m manifestModel.Manifest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		code, err := s.sequences.Generate(tx, sequence.ForManifestCode(time.Now()))
		if err != nil {
			return err
		}

		m = manifestModel.Manifest{
			ManifestCode: code,
			Status:       manifestModel.ManifestStatusPending,
			FromCityID:   req.FromCityID,
			ToCityID:     req.ToCityID,
			TotalCns:     len(req.CnNumbers),
			CreatedBy:    actor,
		}
		if req.VehicleNumber != "" {
			m.VehicleNumber = &req.VehicleNumber
		}
		if req.DriverName != "" {
			m.DriverName = &req.DriverName
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		for _, cn := range req.CnNumbers {
			b, err := findBookingByCn(tx, cn)
			if err != nil {
				return err
			}
			if err := s.statuses.Transition(tx, b, bookingModel.BookingStatusInTransit,
				"manifested", actor, "manifest "+code); err != nil {
				return err
			}
			if err := tx.Model(b).Update("manifest_id", m.ID).Error; err != nil {
				return err
			}
			shipment := manifestModel.ManifestShipment{
				ManifestID: m.ID,
				BookingID:  b.ID,
				CnNumber:   cn,
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
	return s.Get(m.ID)
}

// AddShipments appends CNs to an open manifest. Re-adding a CN that is
// already a member is a no-op; newly added members are transitioned by the
// next Complete, not here.
func (s *ManifestService) AddShipments(manifestID uint, req *manifestTypes.AddShipmentsRequest, actor string) (*manifestModel.Manifest, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var m manifestModel.Manifest
		if err := tx.First(&m, manifestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("manifest %d not found", manifestID)
			}
			return err
		}
		if m.Status == manifestModel.ManifestStatusCompleted {
			return apperrors.Conflict("manifest %s is already completed", m.ManifestCode)
		}

		added := 0
		for _, cn := range req.CnNumbers {
			var existing int64
			if err := tx.Model(&manifestModel.ManifestShipment{}).
				Where("manifest_id = ? AND cn_number = ?", m.ID, cn).
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
			if err := tx.Model(b).Update("manifest_id", m.ID).Error; err != nil {
				return err
			}
			shipment := manifestModel.ManifestShipment{
				ManifestID: m.ID,
				BookingID:  b.ID,
				CnNumber:   cn,
			}
			if err := tx.Create(&shipment).Error; err != nil {
				return err
			}
			added++
		}

		if added == 0 {
			return nil
		}
		return tx.Model(&m).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns + ?", added),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(manifestID)
}

// Complete closes the manifest. Members not yet IN_TRANSIT are transitioned
// now, members already there and members in a terminal state (voided en route,
// returned) are skipped, so re-running Complete after a partial failure heals
// the stragglers without double-writing history. A live member that cannot
// legally reach IN_TRANSIT aborts the whole completion.
func (s *ManifestService) Complete(manifestID uint, actor string) (*manifestModel.Manifest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var m manifestModel.Manifest
		if err := tx.Preload("Shipments").First(&m, manifestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("manifest %d not found", manifestID)
			}
			return err
		}

		for _, shipment := range m.Shipments {
			var b bookingModel.Booking
			if err := tx.First(&b, shipment.BookingID).Error; err != nil {
				return err
			}
			if b.Status == bookingModel.BookingStatusInTransit || b.Status.IsTerminal() {
				continue
			}
			if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusInTransit,
				"manifested", actor, "manifest "+m.ManifestCode); err != nil {
				return err
			}
		}

		if m.Status == manifestModel.ManifestStatusCompleted {
			return nil
		}
		return tx.Model(&m).Updates(map[string]interface{}{
			"status":     manifestModel.ManifestStatusCompleted,
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(manifestID)
}

// RemoveShipment detaches one CN from the manifest. The booking keeps
// whatever status it has reached and keeps its manifest reference; removal is
// a membership change, never a status rollback.
func (s *ManifestService) RemoveShipment(manifestID uint, cnNumber string, actor string) (*manifestModel.Manifest, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var m manifestModel.Manifest
		if err := tx.First(&m, manifestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("manifest %d not found", manifestID)
			}
			return err
		}

		res := tx.Where("manifest_id = ? AND cn_number = ?", m.ID, cnNumber).
			Delete(&manifestModel.ManifestShipment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("CN %s is not on manifest %s", cnNumber, m.ManifestCode)
		}

		return tx.Model(&m).Updates(map[string]interface{}{
			"total_cns":  gorm.Expr("total_cns - ?", res.RowsAffected),
			"updated_by": actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(manifestID)
}

// Get loads a manifest with its shipments and their bookings.
func (s *ManifestService) Get(manifestID uint) (*manifestModel.Manifest, error) {
	var m manifestModel.Manifest
	err := s.db.Preload("Shipments.Booking").First(&m, manifestID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("manifest %d not found", manifestID)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns manifests newest first, optionally filtered by status.
func (s *ManifestService) List(status string) ([]manifestModel.Manifest, error) {
	q := s.db.Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var manifests []manifestModel.Manifest
	if err := q.Find(&manifests).Error; err != nil {
		return nil, err
	}
	return manifests, nil
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

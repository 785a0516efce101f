// Package booking implements the consignment lifecycle around the status
// engine: intake into the operator's active batch, approval with CN
// assignment, detail edits under the editable-state guard, and the
// cancel/void exits.
package booking

import (
	"time"

	"courier-booking/apperrors"
	bookingModel "courier-booking/models/booking"
	userModel "courier-booking/models/user"
	"courier-booking/services/batch"
	"courier-booking/services/booking_status"
	"courier-booking/services/sequence"
	bookingTypes "courier-booking/types/booking"
	"courier-booking/utils"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type BookingService struct {
	db        *gorm.DB
	batches   *batch.BatchService
	statuses  *booking_status.StatusService
	sequences *sequence.Service
}

func NewBookingService(db *gorm.DB) *BookingService {
	sequences := sequence.NewSequenceService()
	return &BookingService{
		db:        db,
		batches:   batch.NewBatchService(db, sequences),
		statuses:  booking_status.NewStatusService(db),
		sequences: sequences,
	}
}

// Create books a consignment into the operator's ACTIVE batch, opening one if
// needed. The batch lookup/creation and the booking insert share a
// transaction so a failed insert never leaves a stray batch reservation.
// The new booking is PENDING and has no CN number yet.
func (s *BookingService) Create(operator *userModel.User, req *bookingTypes.BookingCreateRequest) (*bookingModel.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	for _, phone := range []string{req.ShipperPhone, req.ConsigneePhone} {
		if !utils.ValidatePhoneNumber(phone) {
			return nil, apperrors.Validation("%s is not a valid mobile number", phone)
		}
	}

	var created bookingModel.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		activeBatch, err := s.batches.EnsureActiveBatchTx(tx, operator)
		if err != nil {
			return err
		}

		created = bookingModel.Booking{
			Uuid:              uuid.NewString(),
			Status:            bookingModel.BookingStatusPending,
			BatchID:           activeBatch.ID,
			OriginCityID:      req.OriginCityID,
			DestinationCityID: req.DestinationCityID,
			Weight:            req.Weight,
			Pieces:            req.Pieces,
			PaymentMode:       req.PaymentMode,
			Rate:              req.Rate,
			OtherAmount:       req.OtherAmount,
			Total:             req.Rate + req.OtherAmount,
			CodAmount:         req.CodAmount,
			DeclaredValue:     req.DeclaredValue,
			ShipperName:       req.ShipperName,
			ShipperPhone:      req.ShipperPhone,
			ShipperAddress:    req.ShipperAddress,
			ConsigneeName:     req.ConsigneeName,
			ConsigneePhone:    req.ConsigneePhone,
			ConsigneeAddress:  req.ConsigneeAddress,
			UserID:            operator.ID,
			CreatedBy:         operator.Username,
		}
		if req.Remarks != "" {
			created.Remarks = &req.Remarks
		}
		if req.DocumentURL != "" {
			created.DocumentURL = &req.DocumentURL
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		initial := bookingModel.BookingHistory{
			BookingID:   created.ID,
			Action:      "booking_created",
			OldStatus:   "",
			NewStatus:   bookingModel.BookingStatusPending,
			PerformedBy: operator.Username,
		}
		return tx.Create(&initial).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Approve moves a PENDING booking to BOOKED and assigns its CN number. The
// number generation, the stamp and the status transition run in one
// transaction: if any step fails the number is never consumed.
func (s *BookingService) Approve(bookingID uint, actor string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("booking %d not found", bookingID)
			}
			return err
		}
		if b.CnNumber != nil {
			return apperrors.Conflict("booking %d already has CN number %s", b.ID, *b.CnNumber)
		}

		cn, err := s.sequences.Generate(tx, sequence.ForCnNumber(time.Now()))
		if err != nil {
			return err
		}
		if err := tx.Model(&b).Update("cn_number", cn).Error; err != nil {
			return err
		}
		b.CnNumber = &cn

		return s.statuses.Transition(tx, &b, bookingModel.BookingStatusBooked, "booking_approved", actor, "")
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Update changes booking detail fields. Rejected with BookingLocked once the
// consignment has left the editable states; the status itself never changes
// here.
func (s *BookingService) Update(bookingID uint, req *bookingTypes.BookingUpdateRequest, actor string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("booking %d not found", bookingID)
			}
			return err
		}
		if err := s.statuses.EnsureEditable(&b); err != nil {
			return err
		}

		applyBookingUpdate(&b, req)
		b.Total = b.Rate + b.OtherAmount
		b.UpdatedBy = actor
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func applyBookingUpdate(b *bookingModel.Booking, req *bookingTypes.BookingUpdateRequest) {
	if req.OriginCityID != nil {
		b.OriginCityID = *req.OriginCityID
	}
	if req.DestinationCityID != nil {
		b.DestinationCityID = *req.DestinationCityID
	}
	if req.Weight != nil {
		b.Weight = *req.Weight
	}
	if req.Pieces != nil {
		b.Pieces = *req.Pieces
	}
	if req.Rate != nil {
		b.Rate = *req.Rate
	}
	if req.OtherAmount != nil {
		b.OtherAmount = *req.OtherAmount
	}
	if req.CodAmount != nil {
		b.CodAmount = *req.CodAmount
	}
	if req.DeclaredValue != nil {
		b.DeclaredValue = *req.DeclaredValue
	}
	if req.ShipperName != nil {
		b.ShipperName = *req.ShipperName
	}
	if req.ShipperPhone != nil {
		b.ShipperPhone = *req.ShipperPhone
	}
	if req.ShipperAddress != nil {
		b.ShipperAddress = *req.ShipperAddress
	}
	if req.ConsigneeName != nil {
		b.ConsigneeName = *req.ConsigneeName
	}
	if req.ConsigneePhone != nil {
		b.ConsigneePhone = *req.ConsigneePhone
	}
	if req.ConsigneeAddress != nil {
		b.ConsigneeAddress = *req.ConsigneeAddress
	}
	if req.Remarks != nil {
		b.Remarks = req.Remarks
	}
}

// Cancel ends a booking before approval. Only PENDING bookings can be
// cancelled; the transition table turns everything else into
// IllegalTransition.
func (s *BookingService) Cancel(bookingID uint, actor, remarks string) (*bookingModel.Booking, error) {
	return s.statuses.TransitionByID(bookingID, bookingModel.BookingStatusCancelled, "booking_cancelled", actor, remarks)
}

// Void writes off a consignment from any non-terminal state. The reason is
// mandatory and is stored on the booking as well as in the history row.
func (s *BookingService) Void(bookingID uint, actor, reason string) (*bookingModel.Booking, error) {
	if reason == "" {
		return nil, apperrors.Validation("a void reason is required")
	}

	var b bookingModel.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("booking %d not found", bookingID)
			}
			return err
		}
		if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusVoided, "booking_voided", actor, reason); err != nil {
			return err
		}
		b.VoidReason = &reason
		return tx.Model(&b).Update("void_reason", reason).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus is the generic status endpoint behind the scan screens. It
// accepts only values of the closed enumeration and delegates legality to the
// transition engine. VOIDED must go through Void so the reason is captured.
func (s *BookingService) UpdateStatus(bookingID uint, req *bookingTypes.UpdateStatusRequest, actor string) (*bookingModel.Booking, error) {
	newStatus := bookingModel.BookingStatus(req.Status)
	if !newStatus.IsValid() {
		return nil, apperrors.Validation("unknown booking status %q", req.Status)
	}
	if newStatus == bookingModel.BookingStatusVoided {
		return s.Void(bookingID, actor, req.Remarks)
	}
	return s.statuses.TransitionByID(bookingID, newStatus, "status_updated", actor, req.Remarks)
}

// Get loads a booking with its city and operator relations.
func (s *BookingService) Get(bookingID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := s.db.
		Preload("OriginCity").
		Preload("DestinationCity").
		Preload("User").
		First(&b, bookingID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// TrackByCn returns the booking and its full history for a CN number. This is
// the public tracking lookup.
func (s *BookingService) TrackByCn(cnNumber string) (*bookingModel.Booking, []bookingModel.BookingHistory, error) {
	if cnNumber == "" {
		return nil, nil, apperrors.Validation("cn_number is required")
	}

	var b bookingModel.Booking
	err := s.db.
		Preload("OriginCity").
		Preload("DestinationCity").
		Where("cn_number = ?", cnNumber).
		First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, apperrors.NotFound("no booking found for CN %s", cnNumber)
	}
	if err != nil {
		return nil, nil, err
	}

	var history []bookingModel.BookingHistory
	if err := s.db.Where("booking_id = ?", b.ID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, nil, err
	}
	return &b, history, nil
}

// ListFilter narrows List. A zero filter returns everything, newest first.
type ListFilter struct {
	Status  string
	BatchID uint
	UserID  uint
	// Day limits results to bookings created within that calendar day.
	Day *time.Time
}

// List returns bookings for the list screens.
func (s *BookingService) List(filter ListFilter) ([]bookingModel.Booking, error) {
	q := s.db.
		Preload("OriginCity").
		Preload("DestinationCity").
		Order("created_at DESC")

	if filter.Status != "" {
		status := bookingModel.BookingStatus(filter.Status)
		if !status.IsValid() {
			return nil, apperrors.Validation("unknown booking status %q", filter.Status)
		}
		q = q.Where("status = ?", status)
	}
	if filter.BatchID != 0 {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Day != nil {
		dayStart := now.With(*filter.Day).BeginningOfDay()
		dayEnd := now.With(*filter.Day).EndOfDay()
		q = q.Where("created_at BETWEEN ? AND ?", dayStart, dayEnd)
	}

	var bookings []bookingModel.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// History returns the append-only audit trail for one booking.
func (s *BookingService) History(bookingID uint) ([]bookingModel.BookingHistory, error) {
	var count int64
	if err := s.db.Model(&bookingModel.Booking{}).
		Where("id = ?", bookingID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperrors.NotFound("booking %d not found", bookingID)
	}

	var history []bookingModel.BookingHistory
	if err := s.db.Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// Package pickup implements shipment collection requests. A booking carries
// at most one live (non-CANCELLED) pickup request at a time; requesting,
// cancelling and completing a pickup keep the booking's own status in step.
package pickup

import (
	"time"

	"courier-booking/apperrors"
	"courier-booking/constants"
	bookingModel "courier-booking/models/booking"
	pickupModel "courier-booking/models/pickup"
	userModel "courier-booking/models/user"
	"courier-booking/services/booking_status"
	pickupTypes "courier-booking/types/pickup"
	"courier-booking/utils"

	"gorm.io/gorm"
)

type PickupService struct {
	db       *gorm.DB
	statuses *booking_status.StatusService
}

func NewPickupService(db *gorm.DB) *PickupService {
	return &PickupService{
		db:       db,
		statuses: booking_status.NewStatusService(db),
	}
}

// Create opens a pickup request for a booking and moves the booking to
// PICKUP_REQUESTED. A second live request for the same booking is rejected
// with Conflict regardless of who asks.
func (s *PickupService) Create(requester *userModel.User, req *pickupTypes.PickupCreateRequest) (*pickupModel.PickupRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	if !utils.ValidatePhoneNumber(req.ContactPhone) {
		return nil, apperrors.Validation("%s is not a valid mobile number", req.ContactPhone)
	}

	var created pickupModel.PickupRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b bookingModel.Booking
		if err := tx.First(&b, req.BookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("booking %d not found", req.BookingID)
			}
			return err
		}

		var live int64
		if err := tx.Model(&pickupModel.PickupRequest{}).
			Where("booking_id = ? AND status <> ?", b.ID, pickupModel.PickupStatusCancelled).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return apperrors.Conflict("booking %d already has a live pickup request", b.ID)
		}

		if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusPickupRequested,
			"pickup_requested", requester.Username, ""); err != nil {
			return err
		}

		created = pickupModel.PickupRequest{
			BookingID:     b.ID,
			Status:        pickupModel.PickupStatusRequested,
			PickupAddress: req.PickupAddress,
			ContactPhone:  req.ContactPhone,
			RequestedByID: requester.ID,
		}
		if req.Remarks != "" {
			created.Remarks = &req.Remarks
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Cancel withdraws a pickup request. Only the requester or an administrative
// role may cancel; everyone else gets Forbidden. The booking drops back to
// BOOKED so it can be routed again.
func (s *PickupService) Cancel(pickupID uint, actor *userModel.User) (*pickupModel.PickupRequest, error) {
	var p pickupModel.PickupRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, pickupID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("pickup request %d not found", pickupID)
			}
			return err
		}

		if p.RequestedByID != actor.ID && !constants.IsAdministrativeRole(actor.Role) {
			return apperrors.Forbidden(
				"user %s may not cancel pickup request %d", actor.Username, p.ID)
		}
		if p.Status == pickupModel.PickupStatusCancelled {
			return apperrors.Conflict("pickup request %d is already cancelled", p.ID)
		}
		if p.Status == pickupModel.PickupStatusPicked {
			return apperrors.Conflict("pickup request %d is already picked up", p.ID)
		}

		var b bookingModel.Booking
		if err := tx.First(&b, p.BookingID).Error; err != nil {
			return err
		}
		if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusBooked,
			"pickup_cancelled", actor.Username, ""); err != nil {
			return err
		}

		nowTime := time.Now()
		p.Status = pickupModel.PickupStatusCancelled
		p.CancelledAt = &nowTime
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus advances the pickup lifecycle: REQUESTED -> ASSIGNED (rider
// required) -> PICKED. Marking PICKED moves the booking to AT_HUB.
func (s *PickupService) UpdateStatus(pickupID uint, req *pickupTypes.PickupUpdateStatusRequest, actor *userModel.User) (*pickupModel.PickupRequest, error) {
	newStatus := pickupModel.PickupStatus(req.Status)

	var p pickupModel.PickupRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, pickupID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("pickup request %d not found", pickupID)
			}
			return err
		}

		switch newStatus {
		case pickupModel.PickupStatusAssigned:
			if p.Status != pickupModel.PickupStatusRequested {
				return apperrors.IllegalTransition(
					"pickup request %d cannot move from %s to %s", p.ID, p.Status, newStatus)
			}
			if req.RiderID == 0 {
				return apperrors.Validation("rider_id is required to assign a pickup")
			}
			var rider userModel.User
			if err := tx.First(&rider, req.RiderID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return apperrors.NotFound("rider %d not found", req.RiderID)
				}
				return err
			}
			riderID := req.RiderID
			p.Status = pickupModel.PickupStatusAssigned
			p.RiderID = &riderID
			return tx.Save(&p).Error

		case pickupModel.PickupStatusPicked:
			if p.Status != pickupModel.PickupStatusAssigned {
				return apperrors.IllegalTransition(
					"pickup request %d cannot move from %s to %s", p.ID, p.Status, newStatus)
			}

			var b bookingModel.Booking
			if err := tx.First(&b, p.BookingID).Error; err != nil {
				return err
			}
			if err := s.statuses.Transition(tx, &b, bookingModel.BookingStatusAtHub,
				"picked_up", actor.Username, req.Remarks); err != nil {
				return err
			}

			nowTime := time.Now()
			p.Status = pickupModel.PickupStatusPicked
			p.PickedAt = &nowTime
			return tx.Save(&p).Error

		default:
			return apperrors.Validation(
				"status must be ASSIGNED or PICKED, cancellation has its own endpoint")
		}
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get loads a pickup request with its booking and rider.
func (s *PickupService) Get(pickupID uint) (*pickupModel.PickupRequest, error) {
	var p pickupModel.PickupRequest
	err := s.db.Preload("Booking").Preload("Rider").Preload("RequestedBy").
		First(&p, pickupID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("pickup request %d not found", pickupID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMine returns the requests created by one user, newest first.
func (s *PickupService) ListMine(userID uint) ([]pickupModel.PickupRequest, error) {
	var pickups []pickupModel.PickupRequest
	err := s.db.Preload("Booking").
		Where("requested_by_id = ?", userID).
		Order("created_at DESC").
		Find(&pickups).Error
	if err != nil {
		return nil, err
	}
	return pickups, nil
}

// ListAll returns all requests, optionally filtered by status.
func (s *PickupService) ListAll(status string) ([]pickupModel.PickupRequest, error) {
	q := s.db.Preload("Booking").Preload("Rider").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var pickups []pickupModel.PickupRequest
	if err := q.Find(&pickups).Error; err != nil {
		return nil, err
	}
	return pickups, nil
}

// EligibleBookings lists a user's BOOKED consignments with no live pickup
// request, i.e. the ones a new request can be raised for.
func (s *PickupService) EligibleBookings(userID uint) ([]bookingModel.Booking, error) {
	var bookings []bookingModel.Booking
	err := s.db.
		Where("user_id = ? AND status = ?", userID, bookingModel.BookingStatusBooked).
		Where("id NOT IN (?)", s.db.Model(&pickupModel.PickupRequest{}).
			Select("booking_id").
			Where("status <> ?", pickupModel.PickupStatusCancelled)).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

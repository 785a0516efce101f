// Package booking_status is the transition engine for the consignment state
// machine. Every status change in the system, whether from a booking endpoint
// or an operations aggregator, goes through Transition so the legal-successor
// check and the history append can never be skipped.
package booking_status

import (
	"courier-booking/apperrors"
	bookingModel "courier-booking/models/booking"

	"gorm.io/gorm"
)

type StatusService struct {
	db *gorm.DB
}

func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{db: db}
}

// Transition moves a booking to newStatus inside the caller's transaction.
// Rejects with IllegalTransition unless newStatus is a legal successor of the
// current status; on acceptance updates the row and appends exactly one
// BookingHistory entry.
func (s *StatusService) Transition(tx *gorm.DB, b *bookingModel.Booking, newStatus bookingModel.BookingStatus, action, actor, remarks string) error {
	if !newStatus.IsValid() {
		return apperrors.Validation("unknown booking status %q", newStatus)
	}
	if !b.Status.CanTransitionTo(newStatus) {
		return apperrors.IllegalTransition(
			"booking %d cannot move from %s to %s", b.ID, b.Status, newStatus)
	}

	oldStatus := b.Status
	b.Status = newStatus
	b.UpdatedBy = actor

	if err := tx.Model(b).Updates(map[string]interface{}{
		"status":     newStatus,
		"updated_by": actor,
	}).Error; err != nil {
		return err
	}

	history := bookingModel.BookingHistory{
		BookingID:   b.ID,
		Action:      action,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		PerformedBy: actor,
		Remarks:     remarks,
	}
	return tx.Create(&history).Error
}

// TransitionByID loads the booking and applies the transition in a fresh
// transaction. Used by endpoints that change status without any other writes.
func (s *StatusService) TransitionByID(bookingID uint, newStatus bookingModel.BookingStatus, action, actor, remarks string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("booking %d not found", bookingID)
			}
			return err
		}
		return s.Transition(tx, &b, newStatus, action, actor, remarks)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// EnsureEditable is the cross-cutting edit guard: detail fields may only be
// changed while the booking is in the editable subset of states.
func (s *StatusService) EnsureEditable(b *bookingModel.Booking) error {
	if !b.Status.IsEditable() {
		return apperrors.BookingLocked(
			"booking %d is %s and can no longer be edited", b.ID, b.Status)
	}
	return nil
}

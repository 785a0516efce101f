// Package batch manages shift batches: one ACTIVE batch per staff member,
// opened lazily and closed on shift end. The single-ACTIVE invariant lives in
// the batches table and is enforced transactionally, never in process memory.
package batch

import (
	"fmt"
	"time"

	"courier-booking/apperrors"
	"courier-booking/constants"
	batchModel "courier-booking/models/batch"
	staffconfigModel "courier-booking/models/staffconfig"
	userModel "courier-booking/models/user"
	"courier-booking/services/sequence"

	"gorm.io/gorm"
)

type BatchService struct {
	db        *gorm.DB
	sequences *sequence.Service
}

func NewBatchService(db *gorm.DB, sequences *sequence.Service) *BatchService {
	return &BatchService{db: db, sequences: sequences}
}

// EnsureActiveBatch returns the owner's ACTIVE batch, creating one when none
// exists. Calling it twice without an intervening close returns the same
// batch; it never opens a second ACTIVE batch for the same owner.
func (s *BatchService) EnsureActiveBatch(owner *userModel.User) (*batchModel.Batch, error) {
	var result *batchModel.Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		b, err := s.EnsureActiveBatchTx(tx, owner)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EnsureActiveBatchTx is EnsureActiveBatch inside the caller's transaction,
// for flows (booking create) that must stamp the batch and the booking
// atomically.
func (s *BatchService) EnsureActiveBatchTx(tx *gorm.DB, owner *userModel.User) (*batchModel.Batch, error) {
	var existing batchModel.Batch
	err := tx.Where("staff_id = ? AND status = ?", owner.ID, batchModel.BatchStatusActive).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	prefix, err := s.codePrefix(tx, owner, time.Now())
	if err != nil {
		return nil, err
	}

	code, err := s.sequences.Generate(tx, sequence.ForBatchCode(prefix))
	if err != nil {
		return nil, err
	}

	created := batchModel.Batch{
		BatchCode: code,
		Status:    batchModel.BatchStatusActive,
		StaffID:   owner.ID,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// codePrefix resolves the owner's numbering scheme. Plain staff are coded by
// username; supervisory roles require a StaffConfig record and fail with
// ConfigurationMissing when none exists yet.
func (s *BatchService) codePrefix(tx *gorm.DB, owner *userModel.User, date time.Time) (string, error) {
	day := sequence.DatePrefix(date)

	if !constants.IsSupervisoryRole(owner.Role) {
		return fmt.Sprintf("%s-%s-", owner.Username, day), nil
	}

	var cfg staffconfigModel.StaffConfig
	err := tx.Where("user_id = ?", owner.ID).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		return "", apperrors.ConfigurationMissing(
			"no staff configuration found for supervisory user %s", owner.Username)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s-", cfg.StaffCode, cfg.StationCode, day), nil
}

// CloseBatch sets the batch CLOSED and stamps who closed it when. No
// replacement batch is opened; the next EnsureActiveBatch creates one lazily.
func (s *BatchService) CloseBatch(batchID uint, actor string) (*batchModel.Batch, error) {
	var b batchModel.Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, batchID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("batch %d not found", batchID)
			}
			return err
		}
		if b.Status == batchModel.BatchStatusClosed {
			return apperrors.Conflict("batch %s is already closed", b.BatchCode)
		}
		nowTime := time.Now()
		b.Status = batchModel.BatchStatusClosed
		b.ClosedAt = &nowTime
		b.ClosedBy = &actor
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetActive reactivates a batch. Any other ACTIVE batch of the same owner is
// demoted to CLOSED inside the same transaction, so there is no window in
// which two batches are both ACTIVE.
func (s *BatchService) SetActive(batchID uint, actor string) (*batchModel.Batch, error) {
	var b batchModel.Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, batchID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("batch %d not found", batchID)
			}
			return err
		}

		nowTime := time.Now()
		if err := tx.Model(&batchModel.Batch{}).
			Where("staff_id = ? AND status = ? AND id <> ?", b.StaffID, batchModel.BatchStatusActive, b.ID).
			Updates(map[string]interface{}{
				"status":    batchModel.BatchStatusClosed,
				"closed_at": nowTime,
				"closed_by": actor,
			}).Error; err != nil {
			return err
		}

		if b.Status == batchModel.BatchStatusActive {
			return nil
		}
		b.Status = batchModel.BatchStatusActive
		b.ClosedAt = nil
		b.ClosedBy = nil
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Latest returns the owner's most recent batch regardless of status.
func (s *BatchService) Latest(staffID uint) (*batchModel.Batch, error) {
	var b batchModel.Batch
	err := s.db.Where("staff_id = ?", staffID).Order("created_at DESC").First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFound("no batch found for staff %d", staffID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns batches, optionally filtered by owner.
func (s *BatchService) List(staffID *uint) ([]batchModel.Batch, error) {
	var batches []batchModel.Batch
	q := s.db.Order("created_at DESC")
	if staffID != nil {
		q = q.Where("staff_id = ?", *staffID)
	}
	if err := q.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

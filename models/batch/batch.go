package batch

import (
	"time"

	"courier-booking/models/user"
)

type BatchStatus string

const (
	BatchStatusActive BatchStatus = "ACTIVE"
	BatchStatusClosed BatchStatus = "CLOSED"
)

// Batch is a staff member's working shift grouping of bookings. At most one
// ACTIVE batch exists per owner at any time; the invariant is enforced
// transactionally in services/batch, not in memory.
type Batch struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Composite code, <username>-<YYYYMMDD>-<N> for plain staff or
	// <staffCode>-<stationCode>-<YYYYMMDD>-<N> for supervisory roles.
	BatchCode string `gorm:"type:varchar(100);not null;unique" json:"batch_code"`

	Status BatchStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Foreign key for users relationship (batch owner)
	StaffID uint      `gorm:"not null;index" json:"staff_id"`
	Staff   user.User `gorm:"foreignKey:StaffID" json:"staff"`

	ClosedAt *time.Time `json:"closed_at,omitempty"`
	ClosedBy *string    `gorm:"type:varchar(255)" json:"closed_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

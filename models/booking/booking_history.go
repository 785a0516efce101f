package booking

import (
	"time"
)

// BookingHistory is the append-only audit row written once per accepted status
// transition. Rows are never updated or deleted.
type BookingHistory struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for booking relationship
	BookingID uint    `gorm:"not null;index" json:"booking_id"`
	Booking   Booking `gorm:"foreignKey:BookingID" json:"booking"`

	Action      string        `gorm:"type:varchar(100);not null" json:"action"`
	OldStatus   BookingStatus `gorm:"type:varchar(50)" json:"old_status"`
	NewStatus   BookingStatus `gorm:"type:varchar(50);not null" json:"new_status"`
	PerformedBy string        `gorm:"type:varchar(255);not null" json:"performed_by"`
	Remarks     string        `gorm:"type:text" json:"remarks"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the BookingHistory model
func (BookingHistory) TableName() string {
	return "booking_histories"
}

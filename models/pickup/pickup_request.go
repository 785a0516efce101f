package pickup

import (
	"time"

	"courier-booking/models/booking"
	"courier-booking/models/user"
)

type PickupStatus string

const (
	PickupStatusRequested PickupStatus = "REQUESTED"
	PickupStatusAssigned  PickupStatus = "ASSIGNED"
	PickupStatusPicked    PickupStatus = "PICKED"
	PickupStatusCancelled PickupStatus = "CANCELLED"
)

// PickupRequest asks for physical collection of a shipment from the shipper.
// At most one non-CANCELLED request exists per booking at any time.
type PickupRequest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for booking relationship
	BookingID uint            `gorm:"not null;index" json:"booking_id"`
	Booking   booking.Booking `gorm:"foreignKey:BookingID" json:"booking"`

	Status PickupStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	PickupAddress string  `gorm:"type:text;not null" json:"pickup_address"`
	ContactPhone  string  `gorm:"type:varchar(20);not null" json:"contact_phone"`
	Remarks       *string `gorm:"type:text" json:"remarks,omitempty"`

	// Foreign key for users relationship (assigned rider)
	RiderID *uint      `gorm:"index" json:"rider_id,omitempty"`
	Rider   *user.User `gorm:"foreignKey:RiderID" json:"rider,omitempty"`

	RequestedByID uint      `gorm:"not null;index" json:"requested_by_id"`
	RequestedBy   user.User `gorm:"foreignKey:RequestedByID" json:"requested_by"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	PickedAt    *time.Time `json:"picked_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the PickupRequest model
func (PickupRequest) TableName() string {
	return "pickup_requests"
}

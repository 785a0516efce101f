package deliverysheet

import (
	"time"

	"courier-booking/models/booking"
	"courier-booking/models/user"
)

type DeliverySheetStatus string

const (
	DeliverySheetStatusPending   DeliverySheetStatus = "PENDING"
	DeliverySheetStatusCompleted DeliverySheetStatus = "COMPLETED"
)

// DeliverySheet is the last-mile dispatch grouping of consignments assigned to
// a rider/vehicle.
type DeliverySheet struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	SheetCode string              `gorm:"type:varchar(50);not null;unique" json:"sheet_code"`
	Status    DeliverySheetStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Foreign key for users relationship (assigned rider)
	RiderID *uint      `gorm:"index" json:"rider_id,omitempty"`
	Rider   *user.User `gorm:"foreignKey:RiderID" json:"rider,omitempty"`

	VehicleNumber *string `gorm:"type:varchar(30)" json:"vehicle_number,omitempty"`

	TotalCns int `gorm:"not null;default:0" json:"total_cns"`

	Shipments []DeliverySheetShipment `gorm:"foreignKey:DeliverySheetID" json:"shipments,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DeliverySheetShipment links one booking to a delivery sheet.
type DeliverySheetShipment struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	DeliverySheetID uint `gorm:"not null;index" json:"delivery_sheet_id"`

	BookingID uint            `gorm:"not null;index" json:"booking_id"`
	Booking   booking.Booking `gorm:"foreignKey:BookingID" json:"booking"`

	CnNumber string `gorm:"type:varchar(32);not null" json:"cn_number"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the DeliverySheetShipment model
func (DeliverySheetShipment) TableName() string {
	return "delivery_sheet_shipments"
}

package manifest

import (
	"time"

	"courier-booking/models/booking"
)

type ManifestStatus string

const (
	ManifestStatusPending   ManifestStatus = "PENDING"
	ManifestStatusCompleted ManifestStatus = "COMPLETED"
)

// Manifest is a trip-level grouping of consignments dispatched together
// between stations. TotalCns always equals the count of live shipment rows.
type Manifest struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ManifestCode string         `gorm:"type:varchar(50);not null;unique" json:"manifest_code"`
	Status       ManifestStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	FromCityID uint `gorm:"not null" json:"from_city_id"`
	ToCityID   uint `gorm:"not null" json:"to_city_id"`

	VehicleNumber *string `gorm:"type:varchar(30)" json:"vehicle_number,omitempty"`
	DriverName    *string `gorm:"type:varchar(255)" json:"driver_name,omitempty"`

	TotalCns int `gorm:"not null;default:0" json:"total_cns"`

	Shipments []ManifestShipment `gorm:"foreignKey:ManifestID" json:"shipments,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ManifestShipment links one booking to a manifest.
type ManifestShipment struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ManifestID uint `gorm:"not null;index" json:"manifest_id"`

	BookingID uint            `gorm:"not null;index" json:"booking_id"`
	Booking   booking.Booking `gorm:"foreignKey:BookingID" json:"booking"`

	CnNumber string `gorm:"type:varchar(32);not null" json:"cn_number"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the ManifestShipment model
func (ManifestShipment) TableName() string {
	return "manifest_shipments"
}

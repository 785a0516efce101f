package arrivalscan

import (
	"time"

	"courier-booking/models/booking"
)

type ArrivalScanStatus string

const (
	ArrivalScanStatusPending   ArrivalScanStatus = "PENDING"
	ArrivalScanStatusCompleted ArrivalScanStatus = "COMPLETED"
)

// ArrivalScan records the consignments received at a station/hub in one
// scanning session.
type ArrivalScan struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ScanCode string            `gorm:"type:varchar(50);not null;unique" json:"scan_code"`
	Status   ArrivalScanStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	StationCityID uint `gorm:"not null" json:"station_city_id"`

	TotalCns int `gorm:"not null;default:0" json:"total_cns"`

	Shipments []ArrivalScanShipment `gorm:"foreignKey:ArrivalScanID" json:"shipments,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ArrivalScanShipment links one booking to an arrival scan.
type ArrivalScanShipment struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	ArrivalScanID uint `gorm:"not null;index" json:"arrival_scan_id"`

	BookingID uint            `gorm:"not null;index" json:"booking_id"`
	Booking   booking.Booking `gorm:"foreignKey:BookingID" json:"booking"`

	CnNumber string `gorm:"type:varchar(32);not null" json:"cn_number"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the ArrivalScanShipment model
func (ArrivalScanShipment) TableName() string {
	return "arrival_scan_shipments"
}

package booking

import (
	"time"

	"courier-booking/models/city"
	"courier-booking/models/user"
)

// Booking represents a consignment from booking through delivery. The CN number
// is assigned when the booking is approved and is immutable afterwards;
// cancellation and void are statuses, a booking row is never deleted.
type Booking struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid string `gorm:"type:varchar(255);not null;unique" json:"uuid"`

	// Externally visible consignment number, format YYYYMMDDNN.
	CnNumber *string `gorm:"type:varchar(32);unique" json:"cn_number,omitempty"`

	Status BookingStatus `gorm:"type:varchar(50);not null;index" json:"status"`

	// Foreign key for batch relationship (operator's shift batch)
	BatchID uint `gorm:"not null;index" json:"batch_id"`

	// Set when the booking is carried on a manifest; never cleared by
	// remove-shipment (see services/manifest).
	ManifestID *uint `gorm:"index" json:"manifest_id,omitempty"`

	OriginCityID      uint      `gorm:"not null" json:"origin_city_id"`
	OriginCity        city.City `gorm:"foreignKey:OriginCityID" json:"origin_city"`
	DestinationCityID uint      `gorm:"not null" json:"destination_city_id"`
	DestinationCity   city.City `gorm:"foreignKey:DestinationCityID" json:"destination_city"`

	Weight      float64 `gorm:"type:decimal(10,3);not null" json:"weight"`
	Pieces      int     `gorm:"not null;default:1" json:"pieces"`
	PaymentMode string  `gorm:"type:varchar(20);not null" json:"payment_mode"`

	Rate          float64 `gorm:"type:decimal(12,2);not null" json:"rate"`
	OtherAmount   float64 `gorm:"type:decimal(12,2);default:0" json:"other_amount"`
	Total         float64 `gorm:"type:decimal(12,2);not null" json:"total"`
	CodAmount     float64 `gorm:"type:decimal(12,2);default:0" json:"cod_amount"`
	DeclaredValue float64 `gorm:"type:decimal(12,2);default:0" json:"declared_value"`

	// Shipper/consignee snapshot fields, copied at booking time so later
	// customer record edits do not rewrite shipped consignments.
	ShipperName      string  `gorm:"type:varchar(255);not null" json:"shipper_name"`
	ShipperPhone     string  `gorm:"type:varchar(20);not null" json:"shipper_phone"`
	ShipperAddress   string  `gorm:"type:text;not null" json:"shipper_address"`
	ConsigneeName    string  `gorm:"type:varchar(255);not null" json:"consignee_name"`
	ConsigneePhone   string  `gorm:"type:varchar(20);not null" json:"consignee_phone"`
	ConsigneeAddress string  `gorm:"type:text;not null" json:"consignee_address"`
	Remarks          *string `gorm:"type:text" json:"remarks,omitempty"`

	// URL of the uploaded consignment document in object storage. Only the
	// URL string is kept, never the bytes.
	DocumentURL *string `gorm:"type:varchar(2048)" json:"document_url,omitempty"`

	VoidReason *string `gorm:"type:text" json:"void_reason,omitempty"`

	// Foreign key for users relationship (booking operator)
	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

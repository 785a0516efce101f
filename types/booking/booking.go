package booking

import (
	"errors"
	"strings"
)

// BookingCreateRequest is the booking intake payload. Historical clients send
// the payment mode under several field names; Normalize folds the aliases
// into the canonical PaymentMode before the core ever sees the value.
type BookingCreateRequest struct {
	OriginCityID      uint    `json:"origin_city_id"`
	DestinationCityID uint    `json:"destination_city_id"`
	Weight            float64 `json:"weight"`
	Pieces            int     `json:"pieces"`

	PaymentMode string `json:"payment_mode"`
	// Legacy aliases still sent by older portal builds.
	PayMode     string `json:"pay_mode,omitempty"`
	PaymentType string `json:"payment_type,omitempty"`

	Rate          float64 `json:"rate"`
	OtherAmount   float64 `json:"other_amount"`
	CodAmount     float64 `json:"cod_amount"`
	DeclaredValue float64 `json:"declared_value"`

	ShipperName      string `json:"shipper_name"`
	ShipperPhone     string `json:"shipper_phone"`
	ShipperAddress   string `json:"shipper_address"`
	ConsigneeName    string `json:"consignee_name"`
	ConsigneePhone   string `json:"consignee_phone"`
	ConsigneeAddress string `json:"consignee_address"`

	DocumentURL string `json:"document_url,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
}

var validPaymentModes = map[string]bool{
	"CASH":    true,
	"CREDIT":  true,
	"COD":     true,
	"PREPAID": true,
}

// Normalize resolves the payment-mode aliases into PaymentMode.
func (r *BookingCreateRequest) Normalize() {
	if r.PaymentMode == "" {
		if r.PayMode != "" {
			r.PaymentMode = r.PayMode
		} else if r.PaymentType != "" {
			r.PaymentMode = r.PaymentType
		}
	}
	r.PaymentMode = strings.ToUpper(strings.TrimSpace(r.PaymentMode))
}

// Validate checks the payload before any transaction starts.
func (r *BookingCreateRequest) Validate() error {
	if r.OriginCityID == 0 || r.DestinationCityID == 0 {
		return errors.New("origin_city_id and destination_city_id are required")
	}
	if r.Weight <= 0 {
		return errors.New("weight must be greater than zero")
	}
	if r.Pieces < 1 {
		return errors.New("pieces must be at least 1")
	}
	if !validPaymentModes[r.PaymentMode] {
		return errors.New("payment_mode must be one of CASH, CREDIT, COD, PREPAID")
	}
	if r.Rate < 0 || r.OtherAmount < 0 || r.CodAmount < 0 || r.DeclaredValue < 0 {
		return errors.New("monetary fields must not be negative")
	}
	if r.ShipperName == "" || r.ShipperPhone == "" || r.ShipperAddress == "" {
		return errors.New("shipper name, phone and address are required")
	}
	if r.ConsigneeName == "" || r.ConsigneePhone == "" || r.ConsigneeAddress == "" {
		return errors.New("consignee name, phone and address are required")
	}
	return nil
}

// BookingUpdateRequest carries the editable detail fields. Nil pointers leave
// the stored value untouched.
type BookingUpdateRequest struct {
	OriginCityID      *uint    `json:"origin_city_id,omitempty"`
	DestinationCityID *uint    `json:"destination_city_id,omitempty"`
	Weight            *float64 `json:"weight,omitempty"`
	Pieces            *int     `json:"pieces,omitempty"`
	Rate              *float64 `json:"rate,omitempty"`
	OtherAmount       *float64 `json:"other_amount,omitempty"`
	CodAmount         *float64 `json:"cod_amount,omitempty"`
	DeclaredValue     *float64 `json:"declared_value,omitempty"`
	ShipperName       *string  `json:"shipper_name,omitempty"`
	ShipperPhone      *string  `json:"shipper_phone,omitempty"`
	ShipperAddress    *string  `json:"shipper_address,omitempty"`
	ConsigneeName     *string  `json:"consignee_name,omitempty"`
	ConsigneePhone    *string  `json:"consignee_phone,omitempty"`
	ConsigneeAddress  *string  `json:"consignee_address,omitempty"`
	Remarks           *string  `json:"remarks,omitempty"`
}

// UpdateStatusRequest drives the generic status endpoint.
type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks,omitempty"`
}

// VoidRequest voids a booking; the reason is mandatory.
type VoidRequest struct {
	Reason string `json:"reason"`
}

// CancelRequest cancels a pre-approval booking.
type CancelRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

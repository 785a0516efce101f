package pickup

import "errors"

// PickupCreateRequest asks for collection of one booked consignment.
type PickupCreateRequest struct {
	BookingID     uint   `json:"booking_id"`
	PickupAddress string `json:"pickup_address"`
	ContactPhone  string `json:"contact_phone"`
	Remarks       string `json:"remarks,omitempty"`
}

func (r *PickupCreateRequest) Validate() error {
	if r.BookingID == 0 {
		return errors.New("booking_id is required")
	}
	if r.PickupAddress == "" {
		return errors.New("pickup_address is required")
	}
	if r.ContactPhone == "" {
		return errors.New("contact_phone is required")
	}
	return nil
}

// PickupUpdateStatusRequest advances a pickup request through its lifecycle.
type PickupUpdateStatusRequest struct {
	Status  string `json:"status"`
	RiderID uint   `json:"rider_id,omitempty"`
	Remarks string `json:"remarks,omitempty"`
}

package delivery_sheet

import "errors"

// DeliverySheetCreateRequest opens a last-mile run over a list of CN numbers.
type DeliverySheetCreateRequest struct {
	RiderID       uint     `json:"rider_id,omitempty"`
	VehicleNumber string   `json:"vehicle_number,omitempty"`
	CnNumbers     []string `json:"cn_numbers"`
}

func (r *DeliverySheetCreateRequest) Validate() error {
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

// AddShipmentsRequest appends CN numbers to an open delivery sheet.
type AddShipmentsRequest struct {
	CnNumbers []string `json:"cn_numbers"`
}

func (r *AddShipmentsRequest) Validate() error {
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

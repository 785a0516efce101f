package manifest

import "errors"

// ManifestCreateRequest opens a manifest over a list of CN numbers. The whole
// request succeeds or fails together.
type ManifestCreateRequest struct {
	FromCityID    uint     `json:"from_city_id"`
	ToCityID      uint     `json:"to_city_id"`
	VehicleNumber string   `json:"vehicle_number,omitempty"`
	DriverName    string   `json:"driver_name,omitempty"`
	CnNumbers     []string `json:"cn_numbers"`
}

func (r *ManifestCreateRequest) Validate() error {
	if r.FromCityID == 0 || r.ToCityID == 0 {
		return errors.New("from_city_id and to_city_id are required")
	}
	if r.FromCityID == r.ToCityID {
		return errors.New("from_city_id and to_city_id must differ")
	}
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

// AddShipmentsRequest appends CN numbers to an open manifest.
type AddShipmentsRequest struct {
	CnNumbers []string `json:"cn_numbers"`
}

func (r *AddShipmentsRequest) Validate() error {
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

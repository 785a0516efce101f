package arrival_scan

import "errors"

// ArrivalScanCreateRequest opens a receiving session at a station over a list
// of CN numbers. All CNs must resolve or the whole request fails.
type ArrivalScanCreateRequest struct {
	StationCityID uint     `json:"station_city_id"`
	CnNumbers     []string `json:"cn_numbers"`
}

func (r *ArrivalScanCreateRequest) Validate() error {
	if r.StationCityID == 0 {
		return errors.New("station_city_id is required")
	}
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

// AddShipmentsRequest appends CN numbers to an open arrival scan.
type AddShipmentsRequest struct {
	CnNumbers []string `json:"cn_numbers"`
}

func (r *AddShipmentsRequest) Validate() error {
	if len(r.CnNumbers) == 0 {
		return errors.New("cn_numbers must not be empty")
	}
	return nil
}

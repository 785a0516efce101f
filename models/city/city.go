package city

import "time"

// City is a serviceable origin/destination station.
type City struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null;unique" json:"name"`
	StationCode string `gorm:"type:varchar(20);not null;unique" json:"station_code"`
	Active      bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

package staffconfig

import (
	"time"

	"courier-booking/models/user"
)

// StaffConfig supplies the station/staff/route codes a supervisory user needs
// before a batch can be numbered for them. Plain staff do not need one.
type StaffConfig struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for users relationship
	UserID uint      `gorm:"not null;unique" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	StationCode string `gorm:"type:varchar(20);not null" json:"station_code"`
	StaffCode   string `gorm:"type:varchar(20);not null" json:"staff_code"`
	RouteCode   string `gorm:"type:varchar(20);not null" json:"route_code"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

package entity

import (
	"time"
)

// CourierStatus статус курьера
type CourierStatus string

const (
	CourierStatusOnline  CourierStatus = "online"
	CourierStatusOffline CourierStatus = "offline"
)

func (s CourierStatus) Valid() bool {
	return s == CourierStatusOnline || s == CourierStatusOffline
}

// Courier курьер. ID совпадает с ID пользователя.
type Courier struct {
	ID         uint          `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Status     CourierStatus `json:"status" gorm:"type:varchar(16);not null;default:'offline'"`
	CurrentLat *float64      `json:"currentLat"`
	CurrentLng *float64      `json:"currentLng"`
	LastSeenAt *time.Time    `json:"lastSeenAt"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Position последняя известная позиция
func (c *Courier) Position() (Point, bool) {
	if c.CurrentLat == nil || c.CurrentLng == nil {
		return Point{}, false
	}
	return Point{Lat: *c.CurrentLat, Lng: *c.CurrentLng}, true
}

type CourierStatusRequest struct {
	Status CourierStatus `json:"status" binding:"required,oneof=online offline"`
}

// LocationRequest координаты проверяются на наличие в usecase
type LocationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

package entity

import "time"

// WarehouseStatus статус склада
type WarehouseStatus string

const (
	WarehouseStatusActive  WarehouseStatus = "active"
	WarehouseStatusOffline WarehouseStatus = "offline"
)

// Warehouse склад. ID совпадает с ID администратора-оператора.
type Warehouse struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Status    WarehouseStatus `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

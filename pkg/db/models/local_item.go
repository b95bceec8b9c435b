package models

import "time"

// LocalItem backs the database flavour of per-device local storage.
type LocalItem struct {
	DeviceID  string    `gorm:"column:device_id;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalItem) TableName() string { return "local_items" }

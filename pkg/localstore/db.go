package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB keeps one device's items in the local_items table.
type DB struct {
	db       *gorm.DB
	deviceID string
}

func NewDB(db *gorm.DB, deviceID string) (*DB, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrDeviceRequired
	}
	return &DB{db: db, deviceID: deviceID}, nil
}

func (s *DB) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item models.LocalItem
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND key = ?", s.deviceID, key).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get local item %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *DB) SetItem(ctx context.Context, key, value string) error {
	item := models.LocalItem{DeviceID: s.deviceID, Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("set local item %q: %w", key, err)
	}
	return nil
}

func (s *DB) RemoveItem(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND key = ?", s.deviceID, key).
		Delete(&models.LocalItem{}).Error
	if err != nil {
		return fmt.Errorf("remove local item %q: %w", key, err)
	}
	return nil
}

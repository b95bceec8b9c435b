package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistItem links a user to a saved course.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:wishlist_user_id_idx;uniqueIndex:wishlist_user_course_key" json:"user_id"`
	CourseID  uuid.UUID `gorm:"column:course_id;type:uuid;not null;uniqueIndex:wishlist_user_course_key" json:"course_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Course    *Course   `gorm:"foreignKey:CourseID;references:ID" json:"courses,omitempty"`
}

func (WishlistItem) TableName() string { return "wishlist" }

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

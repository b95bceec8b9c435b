package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is immutable once written. Profile carries the reviewer's display name.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"column:course_id;type:uuid;not null;index:reviews_course_id_idx" json:"course_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Comment   string    `gorm:"column:comment;not null" json:"comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;references:ID" json:"profiles,omitempty"`
}

func (Review) TableName() string { return "reviews" }

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

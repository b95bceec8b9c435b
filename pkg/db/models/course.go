package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
)

// Course is a purchasable catalog entry. search_vector is generated in the
// database and never mapped.
type Course struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string            `gorm:"column:title;not null" json:"title"`
	Description     string            `gorm:"column:description;not null" json:"description"`
	Price           decimal.Decimal   `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Thumbnail       string            `gorm:"column:thumbnail;not null" json:"thumbnail"`
	Instructor      string            `gorm:"column:instructor;not null" json:"instructor"`
	Duration        string            `gorm:"column:duration;not null" json:"duration"`
	Lessons         int               `gorm:"column:lessons;not null" json:"lessons"`
	Level           enums.CourseLevel `gorm:"column:level;type:text;not null" json:"level"`
	Category        string            `gorm:"column:category;not null" json:"category"`
	Rating          float64           `gorm:"column:rating;type:numeric(2,1);not null" json:"rating"`
	Students        int               `gorm:"column:students;not null" json:"students"`
	Features        pq.StringArray    `gorm:"column:features;type:text[];not null" json:"features"`
	PreviewVideoURL *string           `gorm:"column:preview_video_url" json:"preview_video_url,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Features == nil {
		c.Features = pq.StringArray{}
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/skillhunter-backend/pkg/db/types"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
)

// Order is a committed purchase. Courses is resolved from CourseIDs after load.
type Order struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx" json:"user_id"`
	CourseIDs dbtypes.UUIDArray `gorm:"column:course_ids;type:uuid[];not null" json:"course_ids"`
	Total     decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Courses   []Course          `gorm:"-" json:"courses"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CourseIDs == nil {
		o.CourseIDs = dbtypes.UUIDArray{}
	}
	return nil
}

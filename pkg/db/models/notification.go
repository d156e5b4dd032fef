package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/servio-app/servio-backend/pkg/enums"
)

// Notification is a stored in-app message for a user, vendor, or admin.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID   uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null"`
	RecipientType enums.RecipientType    `gorm:"column:recipient_type;not null"`
	Kind          enums.NotificationKind `gorm:"column:kind;not null"`
	Title         string                 `gorm:"column:title;not null"`
	Body          string                 `gorm:"column:body;not null"`
	Data          datatypes.JSON         `gorm:"column:data"`
	ReadAt        *time.Time             `gorm:"column:read_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}

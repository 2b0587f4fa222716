package model

import (
	"time"

	"gorm.io/gorm"
)

// Event 校园活动表 对应 events
type Event struct {
	ID        string    `gorm:"type:uuid;primaryKey"              json:"id"`
	Name      string    `gorm:"type:varchar(200);not null"        json:"name"`
	EventDate time.Time `gorm:"not null;index:idx_events_date"    json:"event_date"`
	CreatedBy *string   `gorm:"type:uuid"                         json:"created_by,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// BeforeCreate 生成主键
func (e *Event) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// SupportMessage 联系支持留言表 对应 support_messages
type SupportMessage struct {
	ID       string `gorm:"type:uuid;primaryKey"          json:"id"`
	Username string `gorm:"type:varchar(50);not null"     json:"username"`
	Email    string `gorm:"type:varchar(255);not null"    json:"email"`
	Message  string `gorm:"type:varchar(1000);not null"   json:"message"`
	IsRead   bool   `gorm:"not null;default:false"        json:"is_read"`
	BaseModel
}

// TableName 指定表名
func (SupportMessage) TableName() string { return "support_messages" }

// BeforeCreate 生成主键
func (m *SupportMessage) BeforeCreate(_ *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Playbook 交易规则模板
type Playbook struct {
	ID          string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID      string                      `gorm:"type:varchar(26);not null;index" json:"user_id"`
	Name        string                      `gorm:"type:varchar(100);not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Rules       datatypes.JSONSlice[string] `json:"rules"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	IsArchived  bool                        `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Playbook) TableName() string {
	return "playbooks"
}

package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OfficeID     string         `gorm:"type:varchar(64);index" json:"office_id"`
	UserID       string         `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Action       string         `gorm:"type:varchar(64);not null;index" json:"action"` // create/update/delete/duplicate/generate/void
	ResourceType string         `gorm:"type:varchar(32);not null" json:"resource_type"` // template/contract
	ResourceID   string         `gorm:"type:varchar(64);not null;index" json:"resource_id"`
	RequestID    string         `gorm:"type:varchar(64);index" json:"request_id,omitempty"`
	IP           string         `gorm:"type:varchar(45)" json:"ip,omitempty"` // IPv4 或 IPv6
	UserAgent    string         `gorm:"type:text" json:"user_agent,omitempty"`
	Details      datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"` // 操作详情
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (alm *AuditLogModel) Validate() error {
	if alm.ID == "" {
		return errors.New("audit log ID is required")
	}
	if alm.UserID == "" {
		return errors.New("user ID is required")
	}
	if alm.Action == "" {
		return errors.New("action is required")
	}
	if alm.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if alm.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}

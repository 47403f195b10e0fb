package model

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// 合同状态
const (
	ContractStatusActive = "active"
	ContractStatusVoid   = "void"
)

// ContractModel 已生成合同的快照
// 正文与取值快照落库后不再修改,作废只改变状态字段。
type ContractModel struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OfficeID        string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_contracts_office_number,priority:1" json:"office_id"`
	TemplateID      string         `gorm:"type:varchar(64);not null;index" json:"template_id"`
	TemplateName    string         `gorm:"type:varchar(255)" json:"template_name"`
	ContractNumber  string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_contracts_office_number,priority:2" json:"contract_number"`
	ContentSnapshot string         `gorm:"type:text;not null" json:"content_snapshot"`
	DataSnapshot    datatypes.JSON `gorm:"type:jsonb;not null" json:"data_snapshot"`
	ContentHash     string         `gorm:"type:varchar(80);not null" json:"content_hash"`
	Gaps            datatypes.JSON `gorm:"type:jsonb" json:"gaps,omitempty"` // 生成时确认过的空白占位符
	ArchiveKey      string         `gorm:"type:varchar(255)" json:"archive_key,omitempty"`
	Status          string         `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	CreatedBy       string         `gorm:"type:varchar(64);not null" json:"created_by"`
	VoidReason      string         `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedBy        string         `gorm:"type:varchar(64)" json:"voided_by,omitempty"`
	VoidedAt        *time.Time     `json:"voided_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ContractModel) TableName() string {
	return "contracts"
}

// Validate 验证合同模型
func (cm *ContractModel) Validate() error {
	if cm.ID == "" {
		return errors.New("contract ID is required")
	}
	if cm.OfficeID == "" {
		return errors.New("office ID is required")
	}
	if cm.TemplateID == "" {
		return errors.New("template ID is required")
	}
	if cm.ContentSnapshot == "" {
		return errors.New("content snapshot is required")
	}
	return nil
}

// IsVoid 是否已作废
func (cm *ContractModel) IsVoid() bool {
	return cm.Status == ContractStatusVoid
}

// ContractSequenceModel 每个公证处每年的合同编号序列
type ContractSequenceModel struct {
	OfficeID  string    `gorm:"primaryKey;type:varchar(64)"`
	Year      int       `gorm:"primaryKey"`
	Value     int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ContractSequenceModel) TableName() string {
	return "contract_sequences"
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mautops/notary-gin/internal/engine"
	"gorm.io/datatypes"
)

// 模板状态
const (
	TemplateStatusDraft  = "draft"
	TemplateStatusActive = "active"
)

// 文书类别
const (
	CategorySale            = "sale"
	CategoryRent            = "rent"
	CategoryPowerOfAttorney = "power_of_attorney"
	CategoryOther           = "other"
)

// ValidCategory 判断文书类别是否合法
func ValidCategory(c string) bool {
	switch c {
	case CategorySale, CategoryRent, CategoryPowerOfAttorney, CategoryOther:
		return true
	}
	return false
}

// ValidTemplateStatus 判断模板状态是否合法
func ValidTemplateStatus(s string) bool {
	return s == TemplateStatusDraft || s == TemplateStatusActive
}

// TemplateModel 合同模板数据模型
type TemplateModel struct {
	ID          string               `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OfficeID    string               `gorm:"type:varchar(64);not null;index" json:"office_id"`
	CreatedBy   string               `gorm:"type:varchar(64)" json:"created_by"`
	Name        string               `gorm:"type:varchar(255);not null" json:"name"`
	Category    string               `gorm:"type:varchar(32);not null;index" json:"category"`
	Description string               `gorm:"type:text" json:"description"`
	Body        string               `gorm:"type:text;not null" json:"body"`
	Status      string               `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	CreatedAt   time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"not null" json:"updated_at"`
	Fields      []TemplateFieldModel `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}

// TableName 指定表名
func (TemplateModel) TableName() string {
	return "templates"
}

// Validate 验证模板模型
func (tm *TemplateModel) Validate() error {
	if tm.ID == "" {
		return errors.New("template ID is required")
	}
	if tm.OfficeID == "" {
		return errors.New("office ID is required")
	}
	if tm.Name == "" {
		return errors.New("template name is required")
	}
	if !ValidCategory(tm.Category) {
		return fmt.Errorf("unsupported template category %q", tm.Category)
	}
	if !ValidTemplateStatus(tm.Status) {
		return fmt.Errorf("unsupported template status %q", tm.Status)
	}
	return nil
}

// Definitions 把持久化的字段转换为引擎字段定义
func (tm *TemplateModel) Definitions() ([]engine.FieldDefinition, error) {
	specs := make([]engine.FieldSpec, 0, len(tm.Fields))
	for i := range tm.Fields {
		spec, err := tm.Fields[i].ToSpec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return engine.BuildDefinitions(specs)
}

// TemplateFieldModel 模板字段定义数据模型
type TemplateFieldModel struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TemplateID  string         `gorm:"type:varchar(64);not null;index" json:"template_id"`
	Label       string         `gorm:"type:varchar(255);not null" json:"label"`
	Key         string         `gorm:"column:field_key;type:varchar(64);not null" json:"key"`
	Type        string         `gorm:"column:field_type;type:varchar(16);not null" json:"type"`
	Source      string         `gorm:"type:varchar(16);not null" json:"source"`
	IsRequired  bool           `gorm:"not null;default:false" json:"is_required"`
	ClientRole  string         `gorm:"type:varchar(16)" json:"client_role,omitempty"`
	ClientField string         `gorm:"type:varchar(64)" json:"client_field,omitempty"`
	SystemValue string         `gorm:"type:varchar(64)" json:"system_value,omitempty"`
	Options     datatypes.JSON `gorm:"type:jsonb" json:"options,omitempty"`
	SortOrder   int            `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}

// TableName 指定表名
func (TemplateFieldModel) TableName() string {
	return "template_fields"
}

// ToSpec 转换为引擎字段描述
func (fm *TemplateFieldModel) ToSpec() (engine.FieldSpec, error) {
	var options []engine.Option
	if len(fm.Options) > 0 && string(fm.Options) != "null" {
		if err := json.Unmarshal(fm.Options, &options); err != nil {
			return engine.FieldSpec{}, fmt.Errorf("field %q: decode options: %w", fm.Key, err)
		}
	}
	return engine.FieldSpec{
		Label:       fm.Label,
		Key:         fm.Key,
		Type:        fm.Type,
		Source:      fm.Source,
		Required:    fm.IsRequired,
		ClientRole:  fm.ClientRole,
		ClientField: fm.ClientField,
		SystemValue: fm.SystemValue,
		Options:     options,
		SortOrder:   fm.SortOrder,
	}, nil
}

// NewTemplateFieldModel 由已校验的字段定义构造数据模型
func NewTemplateFieldModel(id, templateID string, def engine.FieldDefinition) (TemplateFieldModel, error) {
	spec := engine.SpecOf(def)
	fm := TemplateFieldModel{
		ID:          id,
		TemplateID:  templateID,
		Label:       spec.Label,
		Key:         spec.Key,
		Type:        spec.Type,
		Source:      spec.Source,
		IsRequired:  spec.Required,
		ClientRole:  spec.ClientRole,
		ClientField: spec.ClientField,
		SystemValue: spec.SystemValue,
		SortOrder:   spec.SortOrder,
	}
	if len(spec.Options) > 0 {
		raw, err := json.Marshal(spec.Options)
		if err != nil {
			return TemplateFieldModel{}, err
		}
		fm.Options = datatypes.JSON(raw)
	}
	return fm, nil
}

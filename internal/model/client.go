package model

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ClientModel 客户（合同当事人）数据模型
type ClientModel struct {
	ID                 string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OfficeID           string    `gorm:"type:varchar(64);not null;index" json:"office_id"`
	FirstName          string    `gorm:"type:varchar(128)" json:"first_name"`
	LastName           string    `gorm:"type:varchar(128)" json:"last_name"`
	FatherName         string    `gorm:"type:varchar(128)" json:"father_name"`
	MotherName         string    `gorm:"type:varchar(255)" json:"mother_name"`
	FullName           string    `gorm:"type:varchar(255)" json:"full_name"`
	NationalID         string    `gorm:"type:varchar(64);index" json:"national_id"`
	IDCardNumber       string    `gorm:"type:varchar(64)" json:"id_card_number"`
	IDIssueDate        string    `gorm:"type:varchar(32)" json:"id_issue_date"`
	IDIssuingAuthority string    `gorm:"type:varchar(255)" json:"id_issuing_authority"`
	BirthDate          string    `gorm:"type:varchar(32)" json:"birth_date"`
	BirthPlace         string    `gorm:"type:varchar(255)" json:"birth_place"`
	BirthCertificate   string    `gorm:"type:varchar(64)" json:"birth_certificate"`
	MaritalStatus      string    `gorm:"type:varchar(32)" json:"marital_status"`
	Nationality        string    `gorm:"type:varchar(64)" json:"nationality"`
	Profession         string    `gorm:"type:varchar(128)" json:"profession"`
	Address            string    `gorm:"type:text" json:"address"`
	Phone              string    `gorm:"type:varchar(32)" json:"phone"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ClientModel) TableName() string {
	return "clients"
}

// 婚姻状况
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

// ValidMaritalStatus 空值视为未填写
func ValidMaritalStatus(s string) bool {
	switch s {
	case "", MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed:
		return true
	}
	return false
}

// Validate 验证客户模型
func (cm *ClientModel) Validate() error {
	if cm.ID == "" {
		return errors.New("client ID is required")
	}
	if cm.OfficeID == "" {
		return errors.New("office ID is required")
	}
	return nil
}

// DisplayName 全名为空时按 名 + 父名 + 姓 拼接
func (cm *ClientModel) DisplayName() string {
	if name := strings.TrimSpace(cm.FullName); name != "" {
		return name
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{cm.FirstName, cm.FatherName, cm.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// BeforeSave 保存前补全全名
func (cm *ClientModel) BeforeSave(tx *gorm.DB) error {
	cm.FullName = cm.DisplayName()
	return nil
}

// Attributes 模板可引用的客户属性
func (cm *ClientModel) Attributes() map[string]string {
	return map[string]string{
		"first_name":           cm.FirstName,
		"last_name":            cm.LastName,
		"father_name":          cm.FatherName,
		"mother_name":          cm.MotherName,
		"full_name":            cm.DisplayName(),
		"national_id":          cm.NationalID,
		"id_card_number":       cm.IDCardNumber,
		"id_issue_date":        cm.IDIssueDate,
		"id_issuing_authority": cm.IDIssuingAuthority,
		"birth_date":           cm.BirthDate,
		"birth_place":          cm.BirthPlace,
		"birth_certificate":    cm.BirthCertificate,
		"marital_status":       cm.MaritalStatus,
		"nationality":          cm.Nationality,
		"profession":           cm.Profession,
		"address":              cm.Address,
		"phone":                cm.Phone,
	}
}

// OfficeModel 公证处（租户）数据模型
type OfficeModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone      string    `gorm:"type:varchar(32)" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	NotaryName string    `gorm:"type:varchar(255)" json:"notary_name"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (OfficeModel) TableName() string {
	return "offices"
}

// Package engine 合同模板引擎
// 负责字段定义校验、字段取值、占位符扫描与替换。包内不做任何 I/O,
// 所有输入都由调用方一次性准备好,可以在多个 goroutine 中并发调用。
package engine

import "sort"

// ValueType 字段值类型
type ValueType string

const (
	TypeText     ValueType = "text"
	TypeNumber   ValueType = "number"
	TypeDate     ValueType = "date"
	TypeSelect   ValueType = "select"
	TypeTextarea ValueType = "textarea"
)

// Valid 判断值类型是否受支持
func (t ValueType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeSelect, TypeTextarea:
		return true
	}
	return false
}

// SourceKind 字段来源类型
type SourceKind string

const (
	SourceManual SourceKind = "manual"
	SourceClient SourceKind = "client"
	SourceSystem SourceKind = "system"
)

// Role 客户在合同中的角色
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleOther  Role = "other"
)

// Valid 判断角色是否受支持
func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RoleBuyer, RoleOther:
		return true
	}
	return false
}

// Source 字段来源
// 只有 ManualSource、ClientSource、SystemSource 三种实现,
// 每种来源需要的数据由各自的结构体携带。
type Source interface {
	Kind() SourceKind
	isSource()
}

// ManualSource 手工录入
type ManualSource struct{}

// ClientSource 从指定角色的客户记录读取属性
type ClientSource struct {
	Role      Role
	Attribute string
}

// SystemSource 系统计算值
type SystemSource struct {
	Name string
}

func (ManualSource) Kind() SourceKind { return SourceManual }
func (ClientSource) Kind() SourceKind { return SourceClient }
func (SystemSource) Kind() SourceKind { return SourceSystem }

func (ManualSource) isSource() {}
func (ClientSource) isSource() {}
func (SystemSource) isSource() {}

// Option select 类型字段的选项
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FieldDefinition 已校验的字段定义
// 只能通过 BuildDefinitions 构造,保证来源相关属性完整。
type FieldDefinition struct {
	Label     string
	Key       string
	Type      ValueType
	Source    Source
	Required  bool
	SortOrder int
	Options   []Option
}

// HasOption 判断 value 是否是选项之一
func (f FieldDefinition) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// SortDefinitions 按 SortOrder 稳定排序,返回新切片
func SortDefinitions(defs []FieldDefinition) []FieldDefinition {
	sorted := make([]FieldDefinition, len(defs))
	copy(sorted, defs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	return sorted
}

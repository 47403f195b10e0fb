package engine

import (
	"fmt"
	"strings"
)

// DuplicateKeyError 同一模板内字段 key 重复
type DuplicateKeyError struct {
	Key   string
	Index int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("field %d: duplicate key %q", e.Index, e.Key)
}

// InvalidKeyError key 不符合 [a-z_][a-z0-9_]*
type InvalidKeyError struct {
	Key   string
	Index int
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("field %d: invalid key %q, must match [a-z_][a-z0-9_]*", e.Index, e.Key)
}

// IncompleteFieldError 来源相关属性缺失
type IncompleteFieldError struct {
	Key       string
	Attribute string // client_role, client_field, system_value
}

func (e *IncompleteFieldError) Error() string {
	return fmt.Sprintf("field %q: missing %s", e.Key, e.Attribute)
}

// MissingOptionsError select 类型没有选项
type MissingOptionsError struct {
	Key string
}

func (e *MissingOptionsError) Error() string {
	return fmt.Sprintf("field %q: select field requires at least one option", e.Key)
}

// UnsupportedValueError type/source/client_role 取值不在允许集合内
type UnsupportedValueError struct {
	Key       string
	Attribute string
	Value     string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("field %q: unsupported %s %q", e.Key, e.Attribute, e.Value)
}

// DefinitionErrors 保存时的全部字段定义错误
type DefinitionErrors []error

func (e DefinitionErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "invalid field definitions: " + strings.Join(msgs, "; ")
}

// Unwrap 支持 errors.As / errors.Is 逐个匹配
func (e DefinitionErrors) Unwrap() []error {
	return e
}

// ErrorCode 字段错误码
type ErrorCode string

const (
	CodeMissingRequired ErrorCode = "missing_required"
	CodeInvalidValue    ErrorCode = "invalid_value"
)

// MissingRequiredValueError 必填字段没有取到值
type MissingRequiredValueError struct {
	Key string
}

func (e *MissingRequiredValueError) Error() string {
	return fmt.Sprintf("field %q: required value is missing", e.Key)
}

// ValueValidationError 值不满足字段类型约束
type ValueValidationError struct {
	Key    string
	Type   ValueType
	Value  string
	Reason string
}

func (e *ValueValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
}

// FieldError 汇总到编译结果中的单个字段错误
type FieldError struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Code     ErrorCode `json:"code"`
	Required bool      `json:"required"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func newFieldError(def FieldDefinition, err error) *FieldError {
	code := CodeInvalidValue
	if _, ok := err.(*MissingRequiredValueError); ok {
		code = CodeMissingRequired
	}
	return &FieldError{
		Key:      def.Key,
		Label:    def.Label,
		Code:     code,
		Required: def.Required,
		Message:  err.Error(),
		Err:      err,
	}
}

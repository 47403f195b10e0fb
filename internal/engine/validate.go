package engine

import (
	"regexp"
	"strings"
	"time"
)

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// 日期字段接受的格式
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ValidateValue 按字段类型校验值
// 必填且为空失败；可选且为空视为空白,不做格式校验。
func ValidateValue(def FieldDefinition, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if def.Required {
			return &MissingRequiredValueError{Key: def.Key}
		}
		return nil
	}

	switch def.Type {
	case TypeNumber:
		if !numberPattern.MatchString(trimmed) {
			return &ValueValidationError{Key: def.Key, Type: def.Type, Value: value, Reason: "value must be numeric"}
		}
	case TypeDate:
		if !isDate(trimmed) {
			return &ValueValidationError{Key: def.Key, Type: def.Type, Value: value, Reason: "value must be a date"}
		}
	case TypeSelect:
		if !def.HasOption(value) {
			return &ValueValidationError{Key: def.Key, Type: def.Type, Value: value, Reason: "value is not one of the options"}
		}
	}
	return nil
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

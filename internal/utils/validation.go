package utils

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SanitizeString 清理字符串，移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义，防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符（除了换行符和制表符）
	return StripControl(sanitized)
}

// StripControl 移除控制字符,保留换行符和制表符
func StripControl(input string) string {
	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// ValidateTemplateName 验证模板名称
func ValidateTemplateName(name string) error {
	// 1. 检查是否为空或仅包含空白字符
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}

	// 2. 检查长度（最大 255 字符,按字符计,阿拉伯文每个字符占两个字节）
	if utf8.RuneCountInString(trimmed) > 255 {
		return ErrNameTooLong
	}

	// 3. 检查是否包含危险字符
	if containsDangerousChars(trimmed) {
		return ErrDangerousChars
	}

	return nil
}

// ValidateID 验证资源 ID,必须是 UUID
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidateBody 验证模板正文
func ValidateBody(body string, maxLen int) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if maxLen > 0 && utf8.RuneCountInString(body) > maxLen {
		return ErrStringTooLong
	}
	return nil
}

// containsDangerousChars 检查字符串是否包含危险字符
func containsDangerousChars(s string) bool {
	dangerousPatterns := []string{
		"<script",
		"</script>",
		"javascript:",
		"onerror=",
		"onload=",
		"<iframe",
		"<img",
		"<svg",
	}

	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// TrimAndValidate 清理并验证字符串
func TrimAndValidate(s string, maxLen int) (string, error) {
	// 1. 去除首尾空白字符
	trimmed := strings.TrimSpace(s)

	// 2. 检查是否为空
	if trimmed == "" {
		return "", ErrEmptyString
	}

	// 3. 检查长度
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", ErrStringTooLong
	}

	// 4. 清理危险字符
	return SanitizeString(trimmed), nil
}

// 错误定义
var (
	ErrEmptyName       = &ValidationError{Code: "EMPTY_NAME", Message: "name cannot be empty"}
	ErrNameTooLong     = &ValidationError{Code: "NAME_TOO_LONG", Message: "name exceeds maximum length"}
	ErrDangerousChars  = &ValidationError{Code: "DANGEROUS_CHARS", Message: "name contains dangerous characters"}
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id must be a UUID"}
	ErrEmptyBody       = &ValidationError{Code: "EMPTY_BODY", Message: "template body cannot be empty"}
	ErrEmptyString     = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong   = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

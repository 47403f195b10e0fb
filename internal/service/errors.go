package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mautops/notary-gin/internal/engine"
)

var (
	ErrUnauthenticated   = errors.New("missing identity")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrContractNotFound  = errors.New("contract not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrUnknownClient     = errors.New("referenced client does not exist")
	ErrNationalIDTaken   = errors.New("national id already registered")
	ErrTemplateInactive  = errors.New("template is not active")
	ErrContractVoided    = errors.New("contract already voided")
	ErrInvalidInput      = errors.New("invalid input")
	ErrGenerationBlocked = errors.New("contract generation blocked")
	ErrGapsUnconfirmed   = errors.New("blank placeholders must be confirmed")
	ErrNotArchived       = errors.New("contract snapshot is not archived")
)

// ErrInvalidDefinitions 包装 engine.DefinitionErrors,可用 errors.As 取出明细
var ErrInvalidDefinitions = errors.New("invalid field definitions")

// GenerationError 必填字段失败,列出所有阻断和提示
type GenerationError struct {
	Blocking []*engine.FieldError
	Warnings []*engine.FieldError
}

func (e *GenerationError) Error() string {
	keys := make([]string, 0, len(e.Blocking))
	for _, fe := range e.Blocking {
		keys = append(keys, fe.Key)
	}
	return fmt.Sprintf("%s: %s", ErrGenerationBlocked, strings.Join(keys, ", "))
}

func (e *GenerationError) Unwrap() error {
	return ErrGenerationBlocked
}

// GapsError 生成结果中存在空白,需要操作人确认
type GapsError struct {
	Gaps     []string
	Warnings []*engine.FieldError
}

func (e *GapsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrGapsUnconfirmed, strings.Join(e.Gaps, ", "))
}

func (e *GapsError) Unwrap() error {
	return ErrGapsUnconfirmed
}

// invalidDefinitions 字段定义校验失败
func invalidDefinitions(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidDefinitions, err)
}

// invalidInput 包装参数错误
func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

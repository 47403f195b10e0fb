package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/engine"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/sirupsen/logrus"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
	Items   interface{}
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
// 控制器通过 c.Error 上报的错误在这里统一转换为响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			ErrorWithItems(c, apiErr.Code, apiErr.Message, apiErr.Detail, apiErr.Items)
			return
		}
		apiErr = FromServiceError(c, err)
		if apiErr.Code >= http.StatusInternalServerError {
			GetLogger().WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.Request.URL.Path,
			}).WithError(err).Error("request failed")
		}
		ErrorWithItems(c, apiErr.Code, apiErr.Message, apiErr.Detail, apiErr.Items)
	}
}

// FieldErrorItem 返回给前端的字段错误
type FieldErrorItem struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Code     string `json:"code"`
	Required bool   `json:"required"`
	Message  string `json:"message"`
}

// GapsItems 空白占位符需要确认时的明细
type GapsItems struct {
	Gaps     []string         `json:"gaps"`
	Warnings []FieldErrorItem `json:"warnings"`
}

// DefinitionErrorItem 字段定义错误明细,code 区分错误类型
type DefinitionErrorItem struct {
	Code      string `json:"code"`
	Key       string `json:"key"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

// 字段定义错误码
const (
	DefinitionDuplicateKey     = "duplicate_key"
	DefinitionInvalidKey       = "invalid_key"
	DefinitionIncompleteField  = "incomplete_field"
	DefinitionMissingOptions   = "missing_options"
	DefinitionUnsupportedValue = "unsupported_value"
	DefinitionInvalid          = "invalid_definition"
)

func definitionErrorItems(errs engine.DefinitionErrors) []DefinitionErrorItem {
	items := make([]DefinitionErrorItem, 0, len(errs))
	for _, err := range errs {
		item := DefinitionErrorItem{Code: DefinitionInvalid, Message: err.Error()}
		switch e := err.(type) {
		case *engine.DuplicateKeyError:
			item.Code, item.Key = DefinitionDuplicateKey, e.Key
		case *engine.InvalidKeyError:
			item.Code, item.Key = DefinitionInvalidKey, e.Key
		case *engine.IncompleteFieldError:
			item.Code, item.Key, item.Attribute = DefinitionIncompleteField, e.Key, e.Attribute
		case *engine.MissingOptionsError:
			item.Code, item.Key = DefinitionMissingOptions, e.Key
		case *engine.UnsupportedValueError:
			item.Code, item.Key, item.Attribute = DefinitionUnsupportedValue, e.Key, e.Attribute
		}
		items = append(items, item)
	}
	return items
}

// FromServiceError 把服务层错误映射为 HTTP 状态和本地化消息
func FromServiceError(c *gin.Context, err error) *APIError {
	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		return &APIError{
			Code:    http.StatusUnprocessableEntity,
			Message: T(c, "error.generation_blocked"),
			Detail:  err.Error(),
			Items:   fieldErrorItems(c, genErr.Blocking),
		}
	}
	var gapsErr *service.GapsError
	if errors.As(err, &gapsErr) {
		return &APIError{
			Code:    http.StatusConflict,
			Message: T(c, "error.gaps_unconfirmed"),
			Detail:  err.Error(),
			Items: GapsItems{
				Gaps:     gapsErr.Gaps,
				Warnings: fieldErrorItems(c, gapsErr.Warnings),
			},
		}
	}
	var defErrs engine.DefinitionErrors
	if errors.As(err, &defErrs) {
		return &APIError{
			Code:    http.StatusBadRequest,
			Message: T(c, "error.invalid_definitions"),
			Detail:  err.Error(),
			Items:   definitionErrorItems(defErrs),
		}
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return &APIError{Code: http.StatusUnauthorized, Message: T(c, "error.unauthorized")}
	case errors.Is(err, service.ErrTemplateNotFound):
		return &APIError{Code: http.StatusNotFound, Message: T(c, "error.template_not_found")}
	case errors.Is(err, service.ErrContractNotFound):
		return &APIError{Code: http.StatusNotFound, Message: T(c, "error.contract_not_found")}
	case errors.Is(err, service.ErrNotArchived):
		return &APIError{Code: http.StatusNotFound, Message: T(c, "error.not_archived")}
	case errors.Is(err, service.ErrClientNotFound):
		return &APIError{Code: http.StatusNotFound, Message: T(c, "error.client_not_found")}
	case errors.Is(err, service.ErrUnknownClient):
		return &APIError{Code: http.StatusBadRequest, Message: T(c, "error.client_not_found"), Detail: err.Error()}
	case errors.Is(err, service.ErrNationalIDTaken):
		return &APIError{Code: http.StatusConflict, Message: T(c, "error.national_id_taken")}
	case errors.Is(err, service.ErrTemplateInactive):
		return &APIError{Code: http.StatusConflict, Message: T(c, "error.template_inactive")}
	case errors.Is(err, service.ErrContractVoided):
		return &APIError{Code: http.StatusConflict, Message: T(c, "error.contract_voided")}
	case errors.Is(err, service.ErrInvalidInput):
		return &APIError{Code: http.StatusBadRequest, Message: T(c, "error.bad_request"), Detail: err.Error()}
	}
	return &APIError{Code: http.StatusInternalServerError, Message: T(c, "error.internal_error"), Detail: err.Error()}
}

func fieldErrorItems(c *gin.Context, errs []*engine.FieldError) []FieldErrorItem {
	items := make([]FieldErrorItem, 0, len(errs))
	for _, fe := range errs {
		items = append(items, FieldErrorItem{
			Key:      fe.Key,
			Label:    fe.Label,
			Code:     string(fe.Code),
			Required: fe.Required,
			Message:  TField(c, fe),
		})
	}
	return items
}

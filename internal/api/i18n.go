package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mautops/notary-gin/internal/engine"
)

// 支持的语言
const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// I18nManager 国际化管理器
type I18nManager struct {
	mu       sync.RWMutex
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager *I18nManager

func init() {
	defaultI18nManager = NewI18nManager()
	// 加载默认语言资源
	defaultI18nManager.LoadMessages(LangEnglish, map[string]string{
		"error.not_found":           "Resource not found",
		"error.unauthorized":        "Unauthorized",
		"error.bad_request":         "Bad request",
		"error.internal_error":      "Internal server error",
		"error.too_many_requests":   "Too many requests",
		"error.template_not_found":  "Template not found",
		"error.contract_not_found":  "Contract not found",
		"error.client_not_found":    "Client not found",
		"error.national_id_taken":   "A client with this national ID already exists",
		"error.not_archived":        "Contract snapshot is not archived",
		"error.template_inactive":   "Only active templates can generate contracts",
		"error.contract_voided":     "Contract is already void",
		"error.invalid_definitions": "Field definitions are invalid",
		"error.generation_blocked":  "Required fields are missing or invalid",
		"error.gaps_unconfirmed":    "Some placeholders will be blank, confirm to continue",
		"field.missing_required":    "%s is required",
		"field.invalid_value":       "%s has an invalid value",
		"success.created":           "Created successfully",
		"success.updated":           "Updated successfully",
		"success.deleted":           "Deleted successfully",
	})
	// 加载阿拉伯语资源
	defaultI18nManager.LoadMessages(LangArabic, map[string]string{
		"error.not_found":           "المورد غير موجود",
		"error.unauthorized":        "غير مصرح",
		"error.bad_request":         "طلب غير صالح",
		"error.internal_error":      "خطأ داخلي في الخادم",
		"error.too_many_requests":   "طلبات كثيرة جداً",
		"error.template_not_found":  "النموذج غير موجود",
		"error.contract_not_found":  "العقد غير موجود",
		"error.client_not_found":    "العميل غير موجود",
		"error.national_id_taken":   "يوجد عميل مسجل بنفس رقم التعريف الوطني",
		"error.not_archived":        "نسخة العقد غير مؤرشفة",
		"error.template_inactive":   "لا يمكن إنشاء عقد إلا من نموذج مفعّل",
		"error.contract_voided":     "العقد ملغى مسبقاً",
		"error.invalid_definitions": "تعريفات الحقول غير صالحة",
		"error.generation_blocked":  "حقول إلزامية ناقصة أو غير صالحة",
		"error.gaps_unconfirmed":    "بعض الحقول ستبقى فارغة، يرجى التأكيد للمتابعة",
		"field.missing_required":    "الحقل %s إلزامي",
		"field.invalid_value":       "قيمة الحقل %s غير صالحة",
		"success.created":           "تم الإنشاء بنجاح",
		"success.updated":           "تم التحديث بنجاح",
		"success.deleted":           "تم الحذف بنجاح",
	})
}

// NewI18nManager 创建国际化管理器
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// LoadMessages 加载语言消息
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[lang] = messages
}

// Translate 翻译消息
func (m *I18nManager) Translate(lang, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if messages, ok := m.messages[lang]; ok {
		if message, ok := messages[key]; ok {
			return message
		}
	}
	// 如果找不到翻译，尝试使用英文
	if lang != LangEnglish {
		if messages, ok := m.messages[LangEnglish]; ok {
			if message, ok := messages[key]; ok {
				return message
			}
		}
	}
	// 如果还是找不到，返回 key
	return key
}

// I18nMiddleware 国际化中间件
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := LangEnglish // 默认语言

		// 方式 1: 从查询参数获取语言
		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			// 方式 2: 从 Accept-Language 头获取语言
			lang = parseAcceptLanguage(headerLang)
		}

		// 将语言信息存储到上下文
		c.Set("language", lang)

		c.Next()
	}
}

// GetLanguage 从上下文获取语言
func GetLanguage(c *gin.Context) string {
	if lang, exists := c.Get("language"); exists {
		if l, ok := lang.(string); ok {
			return l
		}
	}
	return LangEnglish
}

// T 翻译消息（使用默认管理器）
func T(c *gin.Context, key string) string {
	return defaultI18nManager.Translate(GetLanguage(c), key)
}

// TField 字段错误的本地化描述,标签为空时用 key
func TField(c *gin.Context, fe *engine.FieldError) string {
	name := fe.Label
	if name == "" {
		name = fe.Key
	}
	format := T(c, "field."+string(fe.Code))
	if !strings.Contains(format, "%s") {
		return fe.Message
	}
	return fmt.Sprintf(format, name)
}

// normalizeLanguage 规范化语言代码,不支持的语言回退到英文
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(lang, LangArabic):
		return LangArabic
	case strings.HasPrefix(lang, LangEnglish):
		return LangEnglish
	}
	return LangEnglish
}

// parseAcceptLanguage 解析 Accept-Language 头
func parseAcceptLanguage(header string) string {
	// 解析 Accept-Language: ar-DZ,ar;q=0.9,fr;q=0.8
	parts := strings.Split(header, ",")
	if len(parts) > 0 {
		// 取第一个语言代码
		lang := strings.TrimSpace(parts[0])
		// 移除质量值（如果有）
		if idx := strings.Index(lang, ";"); idx != -1 {
			lang = lang[:idx]
		}
		return normalizeLanguage(lang)
	}
	return LangEnglish
}

package engine

import (
	"strings"
	"time"
)

// ResolvedValueMap 字段 key 到取值的映射,nil 表示未取到值
type ResolvedValueMap map[string]*string

// Get 读取字段值,nil 值返回 ok=false
func (m ResolvedValueMap) Get(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Clone 深拷贝
func (m ResolvedValueMap) Clone() ResolvedValueMap {
	out := make(ResolvedValueMap, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		s := *v
		out[k] = &s
	}
	return out
}

// Result 一次编译的结果
type Result struct {
	Text   string           `json:"text"`
	Values ResolvedValueMap `json:"values"`
	Errors []*FieldError    `json:"errors"`
	// Gaps 被替换为空串的占位符（无定义、未取到值或值为空）
	Gaps []string `json:"gaps"`
	// UnknownSystemValues 不在内置表中、按原名回显的系统值名称
	UnknownSystemValues []string `json:"unknown_system_values,omitempty"`
}

// Blocking 返回必填字段的错误,非空时不能生成合同
func (r *Result) Blocking() []*FieldError {
	var out []*FieldError
	for _, e := range r.Errors {
		if e.Required {
			out = append(out, e)
		}
	}
	return out
}

// Warnings 返回可选字段的错误
func (r *Result) Warnings() []*FieldError {
	var out []*FieldError
	for _, e := range r.Errors {
		if !e.Required {
			out = append(out, e)
		}
	}
	return out
}

// Blocked 是否存在必填字段错误
func (r *Result) Blocked() bool {
	return len(r.Blocking()) > 0
}

// Compiler 模板编译器
type Compiler struct {
	resolver *Resolver
}

// NewCompiler 创建模板编译器
func NewCompiler(opts Options) *Compiler {
	return &Compiler{resolver: NewResolver(opts)}
}

var defaultCompiler = NewCompiler(DefaultOptions())

// Compile 使用默认参数编译
func Compile(body string, defs []FieldDefinition, rc *RuntimeContext) *Result {
	return defaultCompiler.Compile(body, defs, rc)
}

// Compile 按排序顺序计算所有字段值,再单遍替换正文中的占位符
// 编译本身不会失败,字段问题通过 Result.Errors 返回。
func (c *Compiler) Compile(body string, defs []FieldDefinition, rc *RuntimeContext) *Result {
	if rc == nil {
		rc = &RuntimeContext{}
	}
	// 首次编译时固定时间基准,同一上下文之后的编译沿用它
	if rc.Now.IsZero() {
		rc.Now = time.Now()
	}
	result := &Result{Values: make(ResolvedValueMap, len(defs))}
	unknown := make(map[string]bool)

	for _, def := range SortDefinitions(defs) {
		if src, ok := def.Source.(SystemSource); ok && !IsKnownSystemValue(src.Name) && !unknown[src.Name] {
			unknown[src.Name] = true
			result.UnknownSystemValues = append(result.UnknownSystemValues, src.Name)
		}

		value, err := c.resolver.Resolve(def, rc)
		if err != nil {
			result.Values[def.Key] = nil
			result.Errors = append(result.Errors, newFieldError(def, err))
			continue
		}
		result.Values[def.Key] = value
		if value == nil {
			continue
		}
		if err := ValidateValue(def, *value); err != nil {
			result.Errors = append(result.Errors, newFieldError(def, err))
		}
	}

	segments := Scan(body)

	// 没有字段定义、但 key 本身就是系统值名称的占位符,直接按系统值计算
	for _, seg := range segments {
		if !seg.Token {
			continue
		}
		if _, defined := result.Values[seg.Key]; defined {
			continue
		}
		if v, ok := c.resolver.SystemValue(seg.Key, rc); ok {
			result.Values[seg.Key] = &v
		}
	}

	var out strings.Builder
	out.Grow(len(body))
	gapSeen := make(map[string]bool)
	for _, seg := range segments {
		if !seg.Token {
			out.WriteString(seg.Text)
			continue
		}
		v, ok := result.Values.Get(seg.Key)
		if !ok || v == "" {
			if !gapSeen[seg.Key] {
				gapSeen[seg.Key] = true
				result.Gaps = append(result.Gaps, seg.Key)
			}
			continue
		}
		out.WriteString(v)
	}
	result.Text = out.String()

	return result
}

package engine

import (
	"sort"
	"time"
)

const (
	DefaultDateLayout          = "2006-01-02"
	DefaultDateTimeLayout      = "2006-01-02 15:04:05"
	DefaultContractNumberValue = "[سيتم إنشاؤه تلقائياً]"
)

// Options 引擎参数
type Options struct {
	DateLayout     string
	DateTimeLayout string
	// ContractNumberPlaceholder 合同编号在落库前的占位文本,由快照写入方替换
	ContractNumberPlaceholder string
	Location                  *time.Location
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		DateLayout:                DefaultDateLayout,
		DateTimeLayout:            DefaultDateTimeLayout,
		ContractNumberPlaceholder: DefaultContractNumberValue,
		Location:                  time.Local,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DateLayout == "" {
		o.DateLayout = d.DateLayout
	}
	if o.DateTimeLayout == "" {
		o.DateTimeLayout = d.DateTimeLayout
	}
	if o.ContractNumberPlaceholder == "" {
		o.ContractNumberPlaceholder = d.ContractNumberPlaceholder
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	return o
}

type systemFunc func(o Options, rc *RuntimeContext) string

var systemValues = map[string]systemFunc{
	"today": func(o Options, rc *RuntimeContext) string {
		return now(o, rc).Format(o.DateLayout)
	},
	"today_date": func(o Options, rc *RuntimeContext) string {
		return now(o, rc).Format(o.DateLayout)
	},
	"now": func(o Options, rc *RuntimeContext) string {
		return now(o, rc).Format(o.DateTimeLayout)
	},
	"contract_number": func(o Options, _ *RuntimeContext) string {
		return o.ContractNumberPlaceholder
	},
	"office_name":       func(_ Options, rc *RuntimeContext) string { return rc.Office.Name },
	"office_id":         func(_ Options, rc *RuntimeContext) string { return rc.Office.ID },
	"office_phone":      func(_ Options, rc *RuntimeContext) string { return rc.Office.Phone },
	"office_address":    func(_ Options, rc *RuntimeContext) string { return rc.Office.Address },
	"notary_name":       func(_ Options, rc *RuntimeContext) string { return rc.Office.NotaryName },
	"notary_address":    func(_ Options, rc *RuntimeContext) string { return rc.Office.Address },
	"current_user_name": func(_ Options, rc *RuntimeContext) string { return rc.User.Name },
	"current_user_id":   func(_ Options, rc *RuntimeContext) string { return rc.User.ID },
}

func now(o Options, rc *RuntimeContext) time.Time {
	t := rc.Now
	if t.IsZero() {
		t = time.Now()
	}
	return t.In(o.Location)
}

// IsKnownSystemValue 判断系统值名称是否在内置表中
func IsKnownSystemValue(name string) bool {
	_, ok := systemValues[name]
	return ok
}

// SystemValueNames 返回全部内置系统值名称
func SystemValueNames() []string {
	names := make([]string, 0, len(systemValues))
	for name := range systemValues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver 字段取值器
type Resolver struct {
	opts Options
}

// NewResolver 创建字段取值器
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts.withDefaults()}
}

// Resolve 计算字段的值
// 返回 nil 表示未取到值（可选字段）；必填字段缺值返回 *MissingRequiredValueError。
func (r *Resolver) Resolve(def FieldDefinition, rc *RuntimeContext) (*string, error) {
	if rc == nil {
		rc = &RuntimeContext{}
	}

	switch src := def.Source.(type) {
	case ClientSource:
		client := rc.client(src.Role)
		if client == nil {
			return missing(def)
		}
		v, ok := client.Attribute(src.Attribute)
		if !ok {
			// 属性可能是模板创建之后才加到客户记录上的
			return nil, nil
		}
		return &v, nil

	case SystemSource:
		fn, ok := systemValues[src.Name]
		if !ok {
			name := src.Name
			return &name, nil
		}
		v := fn(r.opts, rc)
		return &v, nil

	default:
		v, ok := rc.manual(def.Key)
		if !ok {
			return missing(def)
		}
		return &v, nil
	}
}

// SystemValue 直接按名称计算系统值,名称未知时 ok 为 false
func (r *Resolver) SystemValue(name string, rc *RuntimeContext) (string, bool) {
	fn, ok := systemValues[name]
	if !ok {
		return "", false
	}
	if rc == nil {
		rc = &RuntimeContext{}
	}
	return fn(r.opts, rc), true
}

func missing(def FieldDefinition) (*string, error) {
	if def.Required {
		return nil, &MissingRequiredValueError{Key: def.Key}
	}
	return nil, nil
}

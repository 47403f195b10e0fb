package engine

import (
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// FieldSpec 字段定义的原始输入（请求体或数据库行）
type FieldSpec struct {
	Label       string   `json:"label" yaml:"label"`
	Key         string   `json:"key" yaml:"key"`
	Type        string   `json:"type" yaml:"type"`
	Source      string   `json:"source" yaml:"source"`
	Required    bool     `json:"is_required" yaml:"is_required"`
	ClientRole  string   `json:"client_role,omitempty" yaml:"client_role"`
	ClientField string   `json:"client_field,omitempty" yaml:"client_field"`
	SystemValue string   `json:"system_value,omitempty" yaml:"system_value"`
	Options     []Option `json:"options,omitempty" yaml:"options"`
	SortOrder   int      `json:"sort_order" yaml:"sort_order"`
}

// ValidKey 判断 key 是否合法
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// BuildDefinitions 校验并构造字段定义
// 返回的错误类型为 DefinitionErrors,包含所有字段的全部问题,
// 任何一个错误都意味着整组定义不可保存。
func BuildDefinitions(specs []FieldSpec) ([]FieldDefinition, error) {
	var errs DefinitionErrors
	seen := make(map[string]bool, len(specs))
	defs := make([]FieldDefinition, 0, len(specs))

	for i, spec := range specs {
		key := spec.Key
		if !ValidKey(key) {
			errs = append(errs, &InvalidKeyError{Key: key, Index: i})
		} else if seen[key] {
			errs = append(errs, &DuplicateKeyError{Key: key, Index: i})
		}
		seen[key] = true

		def, fieldErrs := buildDefinition(spec)
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		defs = append(defs, def)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return defs, nil
}

func buildDefinition(spec FieldSpec) (FieldDefinition, []error) {
	var errs []error

	valueType := ValueType(spec.Type)
	if spec.Type == "" {
		valueType = TypeText
	}
	if !valueType.Valid() {
		errs = append(errs, &UnsupportedValueError{Key: spec.Key, Attribute: "type", Value: spec.Type})
	}
	if valueType == TypeSelect && len(spec.Options) == 0 {
		errs = append(errs, &MissingOptionsError{Key: spec.Key})
	}

	var source Source
	switch SourceKind(spec.Source) {
	case SourceManual, "":
		source = ManualSource{}
	case SourceClient:
		role := strings.TrimSpace(spec.ClientRole)
		attr := strings.TrimSpace(spec.ClientField)
		if role == "" {
			errs = append(errs, &IncompleteFieldError{Key: spec.Key, Attribute: "client_role"})
		} else if !Role(role).Valid() {
			errs = append(errs, &UnsupportedValueError{Key: spec.Key, Attribute: "client_role", Value: role})
		}
		if attr == "" {
			errs = append(errs, &IncompleteFieldError{Key: spec.Key, Attribute: "client_field"})
		}
		source = ClientSource{Role: Role(role), Attribute: attr}
	case SourceSystem:
		name := strings.TrimSpace(spec.SystemValue)
		if name == "" {
			errs = append(errs, &IncompleteFieldError{Key: spec.Key, Attribute: "system_value"})
		}
		source = SystemSource{Name: name}
	default:
		errs = append(errs, &UnsupportedValueError{Key: spec.Key, Attribute: "source", Value: spec.Source})
	}

	if len(errs) > 0 {
		return FieldDefinition{}, errs
	}

	return FieldDefinition{
		Label:     spec.Label,
		Key:       spec.Key,
		Type:      valueType,
		Source:    source,
		Required:  spec.Required,
		SortOrder: spec.SortOrder,
		Options:   append([]Option(nil), spec.Options...),
	}, nil
}

// SpecOf 把字段定义还原为原始输入,用于持久化
func SpecOf(def FieldDefinition) FieldSpec {
	spec := FieldSpec{
		Label:     def.Label,
		Key:       def.Key,
		Type:      string(def.Type),
		Required:  def.Required,
		SortOrder: def.SortOrder,
		Options:   append([]Option(nil), def.Options...),
	}
	switch src := def.Source.(type) {
	case ClientSource:
		spec.Source = string(SourceClient)
		spec.ClientRole = string(src.Role)
		spec.ClientField = src.Attribute
	case SystemSource:
		spec.Source = string(SourceSystem)
		spec.SystemValue = src.Name
	default:
		spec.Source = string(SourceManual)
	}
	return spec
}

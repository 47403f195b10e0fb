package engine_test

import (
	"errors"
	"testing"

	"github.com/mautops/notary-gin/internal/engine"
	"github.com/stretchr/testify/assert"
)

// TestValidateValue 测试按类型校验
func TestValidateValue(t *testing.T) {
	maritalOptions := []engine.Option{
		{Label: "أعزب", Value: "single"},
		{Label: "متزوج", Value: "married"},
	}

	tests := []struct {
		name  string
		spec  engine.FieldSpec
		value string
		ok    bool
	}{
		{"required empty", engine.FieldSpec{Key: "a", Required: true}, "", false},
		{"required blank", engine.FieldSpec{Key: "a", Required: true}, "   ", false},
		{"optional empty number", engine.FieldSpec{Key: "a", Type: "number"}, "", true},
		{"text anything", engine.FieldSpec{Key: "a"}, "أي نص", true},
		{"textarea anything", engine.FieldSpec{Key: "a", Type: "textarea"}, "سطر\nسطر", true},
		{"integer", engine.FieldSpec{Key: "a", Type: "number"}, "150", true},
		{"decimal", engine.FieldSpec{Key: "a", Type: "number"}, "750000.00", true},
		{"negative", engine.FieldSpec{Key: "a", Type: "number"}, "-12.5", true},
		{"exponent", engine.FieldSpec{Key: "a", Type: "number"}, "1e3", true},
		{"padded number", engine.FieldSpec{Key: "a", Type: "number"}, " 42 ", true},
		{"not a number", engine.FieldSpec{Key: "a", Type: "number"}, "مئة", false},
		{"nan", engine.FieldSpec{Key: "a", Type: "number"}, "NaN", false},
		{"iso date", engine.FieldSpec{Key: "a", Type: "date"}, "2026-02-14", true},
		{"slash date", engine.FieldSpec{Key: "a", Type: "date"}, "14/02/2026", true},
		{"datetime", engine.FieldSpec{Key: "a", Type: "date"}, "2026-02-14 09:30:00", true},
		{"bad date", engine.FieldSpec{Key: "a", Type: "date"}, "2026-13-45", false},
		{"word date", engine.FieldSpec{Key: "a", Type: "date"}, "غدا", false},
		{"select present", engine.FieldSpec{Key: "a", Type: "select", Options: maritalOptions}, "married", true},
		{"select absent", engine.FieldSpec{Key: "a", Type: "select", Options: maritalOptions}, "unknown", false},
		{"select by label", engine.FieldSpec{Key: "a", Type: "select", Options: maritalOptions}, "أعزب", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := engine.BuildDefinitions([]engine.FieldSpec{tt.spec})
			if !assert.NoError(t, err) {
				return
			}
			err = engine.ValidateValue(defs[0], tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// TestValidateValue_ErrorTypes 测试错误类型
func TestValidateValue_ErrorTypes(t *testing.T) {
	defs, _ := engine.BuildDefinitions([]engine.FieldSpec{
		{Key: "price", Type: "number", Required: true},
	})

	var missing *engine.MissingRequiredValueError
	assert.True(t, errors.As(engine.ValidateValue(defs[0], ""), &missing))

	var invalid *engine.ValueValidationError
	if assert.True(t, errors.As(engine.ValidateValue(defs[0], "abc"), &invalid)) {
		assert.Equal(t, engine.TypeNumber, invalid.Type)
		assert.Equal(t, "abc", invalid.Value)
	}
}

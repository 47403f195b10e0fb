package engine_test

import (
	"testing"
	"time"

	"github.com/mautops/notary-gin/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompiler() *engine.Compiler {
	return engine.NewCompiler(engine.Options{Location: time.UTC})
}

func saleDefinitions(t *testing.T) []engine.FieldDefinition {
	t.Helper()
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{
		{Label: "اسم البائع", Key: "seller_full_name", Source: "client", ClientRole: "seller", ClientField: "full_name", Required: true, SortOrder: 1},
		{Label: "اسم المشتري", Key: "buyer_full_name", Source: "client", ClientRole: "buyer", ClientField: "full_name", SortOrder: 2},
		{Label: "الثمن", Key: "price", Type: "number", Required: true, SortOrder: 3},
		{Label: "المساحة", Key: "area", Type: "number", SortOrder: 4},
	})
	require.NoError(t, err)
	return defs
}

func sellerContext() *engine.RuntimeContext {
	return newContext().WithClient(engine.RoleSeller, &engine.Client{
		ID:         "c-1",
		Attributes: map[string]string{"full_name": "محمد بن أحمد"},
	})
}

// TestCompile_SingleToken 测试单个占位符替换
func TestCompile_SingleToken(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{{Label: "الثمن", Key: "price", Type: "number"}})
	require.NoError(t, err)

	rc := newContext().WithManual(map[string]string{"price": "750000.00"})
	result := newCompiler().Compile("الثمن: {{price}} دج", defs, rc)

	assert.Equal(t, "الثمن: 750000.00 دج", result.Text)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Gaps)
}

// TestCompile_ArabicScenario 测试客户字段与系统日期同时替换
func TestCompile_ArabicScenario(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{
		{Label: "اسم البائع", Key: "seller_full_name", Source: "client", ClientRole: "seller", ClientField: "full_name", Required: true},
	})
	require.NoError(t, err)

	result := newCompiler().Compile("البائع: {{seller_full_name}}, التاريخ: {{today_date}}", defs, sellerContext())

	assert.Equal(t, "البائع: محمد بن أحمد, التاريخ: "+fixedNow.Format("2006-01-02"), result.Text)
	assert.False(t, result.Blocked())
	assert.Empty(t, result.Gaps)
}

// TestCompile_Idempotent 测试同一上下文多次编译结果一致
func TestCompile_Idempotent(t *testing.T) {
	defs := saleDefinitions(t)
	rc := sellerContext().WithManual(map[string]string{"price": "1000"})
	body := "{{seller_full_name}} {{price}} {{now}} {{contract_number}}"

	c := newCompiler()
	first := c.Compile(body, defs, rc)
	second := c.Compile(body, defs, rc)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Values, second.Values)
}

// TestCompile_FixesNowOnZeroContext 测试未设置 Now 的上下文在首次编译时固定时间
func TestCompile_FixesNowOnZeroContext(t *testing.T) {
	c := engine.NewCompiler(engine.Options{Location: time.UTC, DateTimeLayout: time.RFC3339Nano})
	rc := &engine.RuntimeContext{}

	first := c.Compile("{{now}}", nil, rc)
	time.Sleep(time.Millisecond)
	second := c.Compile("{{now}}", nil, rc)

	assert.False(t, rc.Now.IsZero())
	assert.Equal(t, rc.Now.In(time.UTC).Format(time.RFC3339Nano), first.Text)
	assert.Equal(t, first.Text, second.Text)
}

// TestCompile_UnknownToken 测试没有定义的占位符替换为空串
func TestCompile_UnknownToken(t *testing.T) {
	result := newCompiler().Compile("أ{{unknown_key}}ب", nil, newContext())

	assert.Equal(t, "أب", result.Text)
	assert.NotContains(t, result.Text, "{{")
	assert.Equal(t, []string{"unknown_key"}, result.Gaps)
}

// TestCompile_WhitespaceTokenVerbatim 测试带空格的占位符原样保留
func TestCompile_WhitespaceTokenVerbatim(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{{Label: "الثمن", Key: "price"}})
	require.NoError(t, err)

	rc := newContext().WithManual(map[string]string{"price": "10"})
	result := newCompiler().Compile("{{ price }} / {{price}}", defs, rc)

	assert.Equal(t, "{{ price }} / 10", result.Text)
}

// TestCompile_RequiredMissingBlocks 测试必填客户字段缺失
func TestCompile_RequiredMissingBlocks(t *testing.T) {
	defs := saleDefinitions(t)
	rc := newContext().WithManual(map[string]string{"price": "1000"})

	result := newCompiler().Compile("{{seller_full_name}} / {{buyer_full_name}} / {{price}}", defs, rc)

	require.True(t, result.Blocked())
	blocking := result.Blocking()
	require.Len(t, blocking, 1)
	assert.Equal(t, "seller_full_name", blocking[0].Key)
	assert.Equal(t, engine.CodeMissingRequired, blocking[0].Code)

	// 可选的买方未指定,不报错
	assert.Empty(t, result.Warnings())
	assert.Nil(t, result.Values["buyer_full_name"])
	assert.Equal(t, " /  / 1000", result.Text)
	assert.ElementsMatch(t, []string{"seller_full_name", "buyer_full_name"}, result.Gaps)
}

// TestCompile_InvalidValue 测试取到的值不满足类型约束
func TestCompile_InvalidValue(t *testing.T) {
	defs := saleDefinitions(t)
	rc := sellerContext().WithManual(map[string]string{"price": "ألف", "area": "كبير"})

	result := newCompiler().Compile("{{price}} {{area}}", defs, rc)

	require.Len(t, result.Errors, 2)
	require.Len(t, result.Blocking(), 1)
	assert.Equal(t, "price", result.Blocking()[0].Key)
	assert.Equal(t, engine.CodeInvalidValue, result.Blocking()[0].Code)
	require.Len(t, result.Warnings(), 1)
	assert.Equal(t, "area", result.Warnings()[0].Key)
}

// TestCompile_SelectField 测试下拉字段
func TestCompile_SelectField(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{{
		Label: "الحالة العائلية", Key: "marital_status", Type: "select", Required: true,
		Options: []engine.Option{{Label: "أعزب", Value: "single"}, {Label: "متزوج", Value: "married"}},
	}})
	require.NoError(t, err)

	ok := newCompiler().Compile("{{marital_status}}", defs, newContext().WithManual(map[string]string{"marital_status": "married"}))
	assert.Empty(t, ok.Errors)
	assert.Equal(t, "married", ok.Text)

	bad := newCompiler().Compile("{{marital_status}}", defs, newContext().WithManual(map[string]string{"marital_status": "unknown"}))
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, engine.CodeInvalidValue, bad.Errors[0].Code)
}

// TestCompile_NoRecursiveSubstitution 测试值中的占位符不会被再次替换
func TestCompile_NoRecursiveSubstitution(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{
		{Label: "ملاحظة", Key: "note", Type: "textarea"},
		{Label: "الثمن", Key: "price"},
	})
	require.NoError(t, err)

	rc := newContext().WithManual(map[string]string{"note": "انظر {{price}}", "price": "10"})
	result := newCompiler().Compile("{{note}}", defs, rc)

	assert.Equal(t, "انظر {{price}}", result.Text)
}

// TestCompile_UnknownSystemValue 测试未知系统值回显并上报
func TestCompile_UnknownSystemValue(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{
		{Label: "رسم", Key: "fee", Source: "system", SystemValue: "stamp_duty"},
		{Label: "رسم 2", Key: "fee2", Source: "system", SystemValue: "stamp_duty"},
	})
	require.NoError(t, err)

	result := newCompiler().Compile("{{fee}}", defs, newContext())

	assert.Equal(t, "stamp_duty", result.Text)
	assert.Equal(t, []string{"stamp_duty"}, result.UnknownSystemValues)
}

// TestCompile_EmptyValueIsGap 测试空值替换为空串并记入空白
func TestCompile_EmptyValueIsGap(t *testing.T) {
	defs, err := engine.BuildDefinitions([]engine.FieldSpec{{Label: "المساحة", Key: "area"}})
	require.NoError(t, err)

	result := newCompiler().Compile("[{{area}}]", defs, newContext().WithManual(map[string]string{"area": ""}))

	assert.Equal(t, "[]", result.Text)
	assert.Equal(t, []string{"area"}, result.Gaps)
	assert.Empty(t, result.Errors)
}

// TestCompile_DefaultCompiler 测试包级编译函数
func TestCompile_DefaultCompiler(t *testing.T) {
	result := engine.Compile("{{contract_number}}", nil, newContext())
	assert.Equal(t, engine.DefaultContractNumberValue, result.Text)
}

// TestResolvedValueMap_Clone 测试深拷贝
func TestResolvedValueMap_Clone(t *testing.T) {
	v := "1"
	m := engine.ResolvedValueMap{"a": &v, "b": nil}
	c := m.Clone()
	*c["a"] = "2"

	got, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", got)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

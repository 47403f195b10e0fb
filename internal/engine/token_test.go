package engine_test

import (
	"testing"

	"github.com/mautops/notary-gin/internal/engine"
	"github.com/stretchr/testify/assert"
)

// TestScan 测试正文扫描
func TestScan(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []engine.Segment
	}{
		{
			name: "plain text",
			body: "لا توجد حقول",
			want: []engine.Segment{{Text: "لا توجد حقول"}},
		},
		{
			name: "single token",
			body: "البائع: {{seller_full_name}}.",
			want: []engine.Segment{
				{Text: "البائع: "},
				{Key: "seller_full_name", Token: true},
				{Text: "."},
			},
		},
		{
			name: "adjacent tokens",
			body: "{{a}}{{b_2}}",
			want: []engine.Segment{
				{Key: "a", Token: true},
				{Key: "b_2", Token: true},
			},
		},
		{
			name: "whitespace inside delimiters is literal",
			body: "{{ seller_full_name }}",
			want: []engine.Segment{{Text: "{{ seller_full_name }}"}},
		},
		{
			name: "uppercase is literal",
			body: "{{Seller}}",
			want: []engine.Segment{{Text: "{{Seller}}"}},
		},
		{
			name: "empty key is literal",
			body: "{{}}",
			want: []engine.Segment{{Text: "{{}}"}},
		},
		{
			name: "spaced braces are literal",
			body: "{ {key} }",
			want: []engine.Segment{{Text: "{ {key} }"}},
		},
		{
			name: "extra leading brace",
			body: "{{{price}}}",
			want: []engine.Segment{
				{Text: "{"},
				{Key: "price", Token: true},
				{Text: "}"},
			},
		},
		{
			name: "unterminated token",
			body: "{{price} و {{area}}",
			want: []engine.Segment{
				{Text: "{{price} و "},
				{Key: "area", Token: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Scan(tt.body))
		})
	}
}

// TestScan_Empty 测试空正文
func TestScan_Empty(t *testing.T) {
	assert.Empty(t, engine.Scan(""))
}

// TestKeys 测试占位符去重
func TestKeys(t *testing.T) {
	keys := engine.Keys("{{area}} م² ({{area}}) {{price}} {{ bad }}")
	assert.Equal(t, []string{"area", "price"}, keys)
}

// TestToken 测试插入文本与扫描器识别一致
func TestToken(t *testing.T) {
	for _, entry := range engine.Catalog() {
		segs := engine.Scan(entry.Insert())
		if assert.Len(t, segs, 1, entry.Key) {
			assert.True(t, segs[0].Token)
			assert.Equal(t, entry.Key, segs[0].Key)
		}
	}
}

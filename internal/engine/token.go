package engine

import "strings"

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Segment 模板正文扫描结果的一段：文本或占位符
type Segment struct {
	Text  string // 文本段内容
	Key   string // 占位符 key
	Token bool
}

// Token 返回 key 的占位符写法,编辑器插入与扫描器识别使用同一格式
func Token(key string) string {
	return openDelim + key + closeDelim
}

func isKeyByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

// Scan 从左到右扫描正文,拆分为文本段和占位符段
// 占位符严格为 {{ + [a-z0-9_]+ + }},不允许空白,区分大小写。
func Scan(body string) []Segment {
	var segments []Segment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, Segment{Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(body) {
		idx := strings.Index(body[i:], openDelim)
		if idx < 0 {
			literal.WriteString(body[i:])
			break
		}
		start := i + idx
		literal.WriteString(body[i:start])

		j := start + len(openDelim)
		for j < len(body) && isKeyByte(body[j]) {
			j++
		}
		if j > start+len(openDelim) && strings.HasPrefix(body[j:], closeDelim) {
			flush()
			segments = append(segments, Segment{Key: body[start+len(openDelim) : j], Token: true})
			i = j + len(closeDelim)
			continue
		}

		// 不是占位符,只吃掉一个 '{',从下一个字节继续找
		literal.WriteByte(body[start])
		i = start + 1
	}
	flush()

	return segments
}

// Keys 返回正文中出现的占位符 key,去重并保持首次出现顺序
func Keys(body string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, seg := range Scan(body) {
		if seg.Token && !seen[seg.Key] {
			seen[seg.Key] = true
			keys = append(keys, seg.Key)
		}
	}
	return keys
}

package citation

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind 标识原始引用条目的形态。
type Kind int

const (
	// KindOther 表示既不是字符串也不是对象的条目，规范化时丢弃。
	KindOther Kind = iota
	// KindURL 表示裸 URL 字符串。
	KindURL
	// KindObject 表示带有若干可选字段的对象。
	KindObject
)

// Raw 是上游返回的单个引用条目，经过一次类型判别后的结果。
type Raw struct {
	Kind   Kind
	URL    string
	Fields map[string]any
}

// URL 构造字符串形态的引用。
func URL(raw string) Raw {
	return Raw{Kind: KindURL, URL: raw}
}

// Object 构造对象形态的引用。
func Object(fields map[string]any) Raw {
	return Raw{Kind: KindObject, Fields: fields}
}

// Citation 是返回给前端的规范化引用记录。
type Citation struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Snippet string `json:"snippet"`
}

// Decode 对 JSON 解码后的任意值逐项判别类型，保留原始位置。
func Decode(items []any) []Raw {
	if len(items) == 0 {
		return nil
	}

	out := make([]Raw, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, URL(v))
		case map[string]any:
			out = append(out, Object(v))
		default:
			out = append(out, Raw{Kind: KindOther})
		}
	}
	return out
}

// FromURLs 将一组 URL 字符串包装为引用条目。
func FromURLs(urls []string) []Raw {
	if len(urls) == 0 {
		return nil
	}
	out := make([]Raw, 0, len(urls))
	for _, u := range urls {
		out = append(out, URL(u))
	}
	return out
}

// Normalize 把原始引用转换为 {title, url, domain, snippet} 记录，顺序与输入一致。
// 非字符串、非对象的条目被丢弃，但仍占据序号，因此回退标题 "Source N" 使用输入中的位置。
func Normalize(items []Raw) []Citation {
	normalized := make([]Citation, 0, len(items))
	for i, item := range items {
		idx := i + 1
		switch item.Kind {
		case KindURL:
			domain := hostOf(item.URL)
			title := domain
			if title == "" {
				title = fallbackTitle(idx)
			}
			normalized = append(normalized, Citation{
				Title:  title,
				URL:    item.URL,
				Domain: domain,
			})
		case KindObject:
			normalized = append(normalized, normalizeObject(item.Fields, idx))
		}
	}
	return normalized
}

func normalizeObject(fields map[string]any, idx int) Citation {
	link := stringify(firstPresent(fields, "url", "source", "source_url"))

	domain := stringify(firstPresent(fields, "domain"))
	if domain == "" && link != "" {
		domain = hostOf(link)
	}

	var title string
	if raw := firstPresent(fields, "title", "name", "id"); raw != nil {
		title = stringify(raw)
		if s, ok := raw.(string); ok && domain != "" && strings.HasPrefix(strings.ToLower(s), "source #") {
			title = domain
		}
	}
	if title == "" {
		title = domain
	}
	if title == "" {
		title = fallbackTitle(idx)
	}

	return Citation{
		Title:   title,
		URL:     link,
		Domain:  domain,
		Snippet: stringify(firstPresent(fields, "snippet", "description", "text")),
	}
}

func fallbackTitle(idx int) string {
	return fmt.Sprintf("Source %d", idx)
}

// hostOf 返回 URL 的网络位置部分（scheme:// 之后、首个 / ? # 之前，含 userinfo 与端口）。
// 不做百分号解码，路径里的非法转义不影响结果；没有 // 前缀或方括号不成对时返回空字符串。
func hostOf(raw string) string {
	rest := strings.TrimLeftFunc(raw, func(r rune) bool { return r <= ' ' })
	rest = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, rest)

	if i := strings.IndexByte(rest, ':'); i > 0 && isScheme(rest[:i]) {
		rest = rest[i+1:]
	}
	if !strings.HasPrefix(rest, "//") {
		return ""
	}
	rest = rest[2:]
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if strings.Contains(rest, "[") != strings.Contains(rest, "]") {
		return ""
	}
	return rest
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// firstPresent 返回第一个"有值"的字段：非空字符串、非零数字、true、非空集合。
func firstPresent(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		value, ok := fields[key]
		if ok && truthy(value) {
			return value
		}
	}
	return nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

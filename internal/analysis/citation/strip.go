package citation

import (
	"regexp"
	"strings"
)

var (
	// RE2 的 \s 不含 \v，这里统一用 [\s\v]，否则折叠空白后会拼出新的标记。
	// 连续的 [1] [2] / [ab3] / [source #4] 作为一个整体移除，连同前导空白。
	inlineMarkerRe    = regexp.MustCompile(`(?i)([\s\v]*\[[\s\v]*(?:\d+|[a-z]{1,3}\d*|source[\s\v]*#?\d+)[\s\v]*\])+`)
	horizontalSpaceRe = regexp.MustCompile(`[ \t\r\f\v]{2,}`)
	newlineSpaceRe    = regexp.MustCompile(`[\s\v]*\n[\s\v]*`)
	bareURLRe         = regexp.MustCompile(`https?://[^\s)]+`)
)

// StripInline 移除方括号引用标记并整理残留空白，结果幂等。
func StripInline(text string) string {
	if text == "" {
		return ""
	}

	cleaned := text
	for {
		next := inlineMarkerRe.ReplaceAllString(cleaned, "")
		if next == cleaned {
			break
		}
		cleaned = next
	}

	cleaned = horizontalSpaceRe.ReplaceAllString(cleaned, " ")
	cleaned = newlineSpaceRe.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}

// ExtractURLs 提取文本中的 http(s) 链接，按首次出现顺序去重。
func ExtractURLs(text string) []string {
	matches := bareURLRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

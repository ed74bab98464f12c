package upstream

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/sasusavage/SourceScout/internal/analysis/citation"
)

// citationPaths 列出各家上游放引用的位置，优先级从高到低。
var citationPaths = []string{
	"citations",
	"choices.0.citations",
	"choices.0.message.citations",
	"sources",
}

// Completion 是一次成功的上游响应体。
type Completion struct {
	Provider string
	Raw      json.RawMessage
}

// Answer 返回第一个 choice 的消息内容。
func (c *Completion) Answer() string {
	return gjson.GetBytes(c.Raw, "choices.0.message.content").String()
}

// Citations 返回响应中第一个非空的引用列表，没有时改用回答正文里的链接。
func (c *Completion) Citations() []citation.Raw {
	for _, path := range citationPaths {
		result := gjson.GetBytes(c.Raw, path)
		if !result.IsArray() || len(result.Array()) == 0 {
			continue
		}
		items, ok := result.Value().([]any)
		if ok && len(items) > 0 {
			return citation.Decode(items)
		}
	}

	return citation.FromURLs(citation.ExtractURLs(c.Answer()))
}

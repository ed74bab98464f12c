package chat

import (
	"encoding/json"

	"github.com/sasusavage/SourceScout/internal/analysis/citation"
)

// 上游 completion 接口接受的角色取值。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 是对话中的一轮，顺序对模型有意义。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer 是返回给前端的精简结果。
type Answer struct {
	Answer          string              `json:"answer"`
	Citations       []citation.Citation `json:"citations"`
	Personality     string              `json:"personality,omitempty"`
	Mode            string              `json:"mode,omitempty"`
	KnowledgeCutoff string              `json:"knowledge_cutoff,omitempty"`
	Raw             json.RawMessage     `json:"raw,omitempty"`
}

package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/sasusavage/SourceScout/internal/model/chat"
)

// promptSet 组装发往上游的消息序列。
type promptSet struct {
	ask        prompt.ChatTemplate
	askBare    prompt.ChatTemplate
	chat       prompt.ChatTemplate
	chatSearch prompt.ChatTemplate
}

func newPromptSet() promptSet {
	return promptSet{
		ask: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
		askBare: prompt.FromMessages(
			schema.FString,
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{query}"),
		),
		chat: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.MessagesPlaceholder("messages", false),
		),
		// web 模式只发送当前问题
		chatSearch: prompt.FromMessages(
			schema.FString,
			schema.UserMessage("{query}"),
		),
	}
}

// buildAsk 生成 /api/ask 的消息：可选 system、历史、当前问题。
func (p promptSet) buildAsk(ctx context.Context, system string, history []chat.Message, query string) ([]chat.Message, error) {
	tpl := p.askBare
	vars := map[string]any{
		"history": toSchema(history),
		"query":   query,
	}
	if system != "" {
		tpl = p.ask
		vars["system"] = system
	}
	return format(ctx, tpl, vars)
}

func (p promptSet) buildSearch(ctx context.Context, query string) ([]chat.Message, error) {
	return format(ctx, p.chatSearch, map[string]any{"query": query})
}

// buildChat 在调用方消息前插入 system，空 system 表示不插入。
func (p promptSet) buildChat(ctx context.Context, system string, messages []chat.Message) ([]chat.Message, error) {
	if system == "" {
		return append([]chat.Message(nil), messages...), nil
	}
	return format(ctx, p.chat, map[string]any{
		"system":   system,
		"messages": toSchema(messages),
	})
}

func format(ctx context.Context, tpl prompt.ChatTemplate, vars map[string]any) ([]chat.Message, error) {
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	out := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chat.Message{Role: string(m.Role), Content: m.Content})
	}
	return out, nil
}

func toSchema(messages []chat.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
	}
	return out
}

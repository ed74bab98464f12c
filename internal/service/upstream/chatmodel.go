package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator 是这里用到的 eino chat model 子集。
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatModelTransport 把 eino chat model（方舟）接入 Transport 链。
// 模型由配置固定，忽略 Request.Model。
type ChatModelTransport struct {
	name      string
	modelName string
	generator Generator
	timeout   time.Duration
}

// NewChatModelTransport 包装 generator；generator 为 nil 时永远不会被选中。
func NewChatModelTransport(name, modelName string, generator Generator, timeout time.Duration) *ChatModelTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChatModelTransport{
		name:      name,
		modelName: modelName,
		generator: generator,
		timeout:   timeout,
	}
}

func (t *ChatModelTransport) Name() string {
	return t.name
}

func (t *ChatModelTransport) Configured() bool {
	return t.generator != nil
}

func (t *ChatModelTransport) Complete(ctx context.Context, req Request) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	input := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		input = append(input, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
	}

	resp, err := t.generator.Generate(ctx, input,
		model.WithTemperature(float32(req.Temperature)),
		model.WithTopP(float32(req.TopP)),
	)
	if err != nil {
		return nil, &TransportError{Provider: t.name, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{Provider: t.name, Err: fmt.Errorf("empty response")}
	}

	// 统一成 chat completions 的结构，后续抽取逻辑无需区分来源。
	raw, err := json.Marshal(map[string]any{
		"model": t.modelName,
		"choices": []map[string]any{{
			"index": 0,
			"message": map[string]string{
				"role":    string(schema.Assistant),
				"content": resp.Content,
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("upstream %s: encode response: %w", t.name, err)
	}
	return &Completion{Provider: t.name, Raw: raw}, nil
}

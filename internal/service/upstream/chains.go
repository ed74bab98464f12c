package upstream

import (
	"context"

	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/config"
)

// NewChatDispatcher 按 OpenAI → OpenRouter → 方舟 的顺序组装 chat 链。
// 方舟未配置或初始化失败时保留一个永不被选中的占位 transport。
func NewChatDispatcher(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewDispatcher(logger,
		NewOpenAI(cfg.Upstream),
		NewOpenRouter(cfg.Upstream),
		newArkTransport(ctx, cfg, logger),
	)
}

// NewSearchDispatcher 组装 web 模式使用的检索链，目前只有 Perplexity。
func NewSearchDispatcher(cfg config.UpstreamConfig, logger *zap.Logger) *Dispatcher {
	return NewDispatcher(logger, NewPerplexity(cfg))
}

func newArkTransport(ctx context.Context, cfg *config.Config, logger *zap.Logger) *ChatModelTransport {
	if !cfg.AI.Enabled() {
		return NewChatModelTransport("ark", "", nil, cfg.Upstream.ChatTimeout)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		logger.Warn("failed to initialize Ark chat model, continuing without it", zap.Error(err))
		return NewChatModelTransport("ark", "", nil, cfg.Upstream.ChatTimeout)
	}
	logger.Info("Ark fallback model initialized", zap.String("model", cfg.AI.Model))
	return NewChatModelTransport("ark", cfg.AI.Model, chatModel, cfg.Upstream.ChatTimeout)
}

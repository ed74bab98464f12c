package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/analysis/citation"
	"github.com/sasusavage/SourceScout/internal/analysis/cutoff"
	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/metrics"
	"github.com/sasusavage/SourceScout/internal/model/chat"
	"github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/internal/service/upstream"
)

const (
	ModeChat = "chat"
	ModeWeb  = "web"
)

// WebSearchUnavailable 是 web 模式上游失败时返回的固定回答。
const WebSearchUnavailable = "Web search is disabled right now, so I couldn't fetch live results. " +
	"Try again in a bit or switch back to chat mode."

const (
	askTemperature    = 0.65
	askTopP           = 0.9
	searchTemperature = 0.3
	searchTopP        = 0.9

	defaultChatTemperature = 0.7
	defaultChatTopP        = 1.0
)

var (
	// ErrEmptyQuery 表示 /api/ask 的 query 缺失、不是字符串或为空串；纯空白视为有效问题。
	ErrEmptyQuery = errors.New("query is required as a string")
	// ErrNoMessages 表示 /api/chat 的 messages 为空。
	ErrNoMessages = errors.New("provide 'messages' array like [{role, content}]")
)

// Service 负责人格注入、知识截止判断、上游调用与回答规范化。
type Service struct {
	chat     *upstream.Dispatcher
	search   *upstream.Dispatcher
	personas persona.Store
	cfg      config.UpstreamConfig
	prompts  promptSet
	logger   *zap.Logger
}

// NewService 组装 chat、检索两条调度链与人格存储。
func NewService(chatDispatcher, searchDispatcher *upstream.Dispatcher, personas persona.Store, cfg config.UpstreamConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		chat:     chatDispatcher,
		search:   searchDispatcher,
		personas: personas,
		cfg:      cfg,
		prompts:  newPromptSet(),
		logger:   logger,
	}
}

// NormalizeMode 归一化客户端传入的模式名，未知值一律按 chat 处理。
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "web", "web-search", "search", "perplexity":
		return ModeWeb
	default:
		return ModeChat
	}
}

// Ready 检查指定模式是否有可用的上游凭证。
func (s *Service) Ready(mode string) error {
	d := s.chat
	if NormalizeMode(mode) == ModeWeb {
		d = s.search
	}
	if d == nil || !d.Ready() {
		return upstream.ErrNoCredential
	}
	return nil
}

// AskInput 对应 /api/ask 请求。
type AskInput struct {
	Query            string
	History          []chat.Message
	Model            string
	Personality      string
	Mode             string
	WebSearchOptions map[string]any
}

// Ask 回答单个问题，按模式走 chat 链或检索链。
func (s *Service) Ask(ctx context.Context, in AskInput) (*chat.Answer, error) {
	mode := NormalizeMode(in.Mode)
	if err := s.Ready(mode); err != nil {
		return nil, err
	}
	if in.Query == "" {
		return nil, ErrEmptyQuery
	}

	p := s.personas.Resolve(in.Personality)
	if mode == ModeWeb {
		return s.askWeb(ctx, p, in)
	}

	if cutoff.Detect(in.Query) {
		metrics.CutoffShortCircuits.WithLabelValues(p.ID).Inc()
		metrics.Answers.WithLabelValues("ask", mode, "cutoff").Inc()
		s.logger.Info("query references time after knowledge cutoff", zap.String("personality", p.ID))
		return &chat.Answer{
			Answer:          p.CutoffReply,
			Citations:       []citation.Citation{},
			Personality:     p.ID,
			Mode:            mode,
			KnowledgeCutoff: cutoff.Label,
		}, nil
	}

	system := ""
	if s.cfg.InjectSystemPrompt {
		system = p.Prompt
	}
	messages, err := s.prompts.buildAsk(ctx, system, in.History, in.Query)
	if err != nil {
		return nil, err
	}

	completion, err := s.chat.Complete(ctx, upstream.Request{
		Model:       s.modelOrDefault(in.Model),
		Messages:    messages,
		Temperature: askTemperature,
		TopP:        askTopP,
	})
	if err != nil {
		metrics.Answers.WithLabelValues("ask", mode, "error").Inc()
		return nil, err
	}

	metrics.Answers.WithLabelValues("ask", mode, "ok").Inc()
	return s.answer(completion, p.ID, mode, s.cfg.IncludeRaw), nil
}

func (s *Service) askWeb(ctx context.Context, p persona.Persona, in AskInput) (*chat.Answer, error) {
	messages, err := s.prompts.buildSearch(ctx, in.Query)
	if err != nil {
		return nil, err
	}

	req := upstream.Request{
		Model:       s.cfg.SearchModel,
		Messages:    messages,
		Temperature: searchTemperature,
		TopP:        searchTopP,
	}
	if len(in.WebSearchOptions) > 0 {
		req.Extra = map[string]any{"web_search_options": in.WebSearchOptions}
	}

	completion, err := s.search.Complete(ctx, req)
	if err != nil {
		var httpErr *upstream.HTTPError
		var transportErr *upstream.TransportError
		if errors.As(err, &httpErr) || errors.As(err, &transportErr) {
			metrics.WebSearchDegraded.Inc()
			metrics.Answers.WithLabelValues("ask", ModeWeb, "degraded").Inc()
			s.logger.Warn("web search failed, returning fallback answer", zap.Error(err))
			return &chat.Answer{
				Answer:      WebSearchUnavailable,
				Citations:   []citation.Citation{},
				Personality: p.ID,
				Mode:        ModeWeb,
			}, nil
		}
		metrics.Answers.WithLabelValues("ask", ModeWeb, "error").Inc()
		return nil, err
	}

	metrics.Answers.WithLabelValues("ask", ModeWeb, "ok").Inc()
	return s.answer(completion, p.ID, ModeWeb, s.cfg.SearchIncludeRaw), nil
}

// ChatInput 对应 /api/chat 请求，nil 指针字段取默认值。
type ChatInput struct {
	Messages     []chat.Message
	Model        string
	Personality  string
	Temperature  *float64
	TopP         *float64
	InjectSystem *bool
}

// Chat 转发完整对话；首条不是 system 消息时在开头插入人格提示词。
func (s *Service) Chat(ctx context.Context, in ChatInput) (*chat.Answer, error) {
	if err := s.Ready(ModeChat); err != nil {
		return nil, err
	}
	if len(in.Messages) == 0 {
		return nil, ErrNoMessages
	}

	p := s.personas.Resolve(in.Personality)

	system := ""
	inject := in.InjectSystem == nil || *in.InjectSystem
	if s.cfg.InjectSystemPrompt && inject && in.Messages[0].Role != chat.RoleSystem {
		system = p.Prompt
	}
	messages, err := s.prompts.buildChat(ctx, system, in.Messages)
	if err != nil {
		return nil, err
	}

	completion, err := s.chat.Complete(ctx, upstream.Request{
		Model:       s.modelOrDefault(in.Model),
		Messages:    messages,
		Temperature: floatOr(in.Temperature, defaultChatTemperature),
		TopP:        floatOr(in.TopP, defaultChatTopP),
	})
	if err != nil {
		metrics.Answers.WithLabelValues("chat", ModeChat, "error").Inc()
		return nil, err
	}

	metrics.Answers.WithLabelValues("chat", ModeChat, "ok").Inc()
	return s.answer(completion, p.ID, "", s.cfg.IncludeRaw), nil
}

// answer 去掉行内引用标记并规范化引用列表。
func (s *Service) answer(c *upstream.Completion, personality, mode string, includeRaw bool) *chat.Answer {
	out := &chat.Answer{
		Answer:      citation.StripInline(c.Answer()),
		Citations:   citation.Normalize(c.Citations()),
		Personality: personality,
		Mode:        mode,
	}
	if includeRaw {
		out.Raw = c.Raw
	}
	return out
}

func (s *Service) modelOrDefault(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return s.cfg.DefaultModel
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

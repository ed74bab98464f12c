package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/model/chat"
	aiService "github.com/sasusavage/SourceScout/internal/service/ai"
	"github.com/sasusavage/SourceScout/internal/service/upstream"
	"github.com/sasusavage/SourceScout/pkg/utils"
)

// Answerer 是处理器依赖的问答服务。
type Answerer interface {
	Ready(mode string) error
	Ask(ctx context.Context, in aiService.AskInput) (*chat.Answer, error)
	Chat(ctx context.Context, in aiService.ChatInput) (*chat.Answer, error)
}

// Handler 问答接口的HTTP处理器
type Handler struct {
	svc    Answerer
	logger *zap.Logger
}

// New 创建问答处理器
func New(svc Answerer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes 注册问答相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ask", h.handleAsk)
	r.Post("/chat", h.handleChat)
	r.Post("/search", h.handleSearch)
}

// handleAsk 单轮问答：先检查凭证，再校验 query。
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	body := decodeLoose(r)

	mode := aiService.NormalizeMode(stringField(body, "mode"))
	if err := h.svc.Ready(mode); err != nil {
		h.respondServiceError(w, mode, err)
		return
	}

	// 非字符串按空串处理，由服务层统一返回 ErrEmptyQuery
	query, _ := body["query"].(string)
	options, _ := body["web_search_options"].(map[string]any)
	answer, err := h.svc.Ask(r.Context(), aiService.AskInput{
		Query:            query,
		History:          history(body["history"]),
		Model:            stringField(body, "model"),
		Personality:      stringField(body, "personality"),
		Mode:             mode,
		WebSearchOptions: options,
	})
	if err != nil {
		h.respondServiceError(w, mode, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, answer)
}

// handleChat 多轮对话透传。
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	body := decodeLoose(r)

	if err := h.svc.Ready(aiService.ModeChat); err != nil {
		h.respondServiceError(w, aiService.ModeChat, err)
		return
	}

	messages, ok := strictMessages(body["messages"])
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, aiService.ErrNoMessages.Error())
		return
	}

	in := aiService.ChatInput{
		Messages:    messages,
		Model:       stringField(body, "model"),
		Personality: stringField(body, "personality"),
	}
	if v, ok := body["temperature"].(float64); ok {
		in.Temperature = &v
	}
	if v, ok := body["top_p"].(float64); ok {
		in.TopP = &v
	}
	if v, ok := body["inject_system"].(bool); ok {
		in.InjectSystem = &v
	}

	answer, err := h.svc.Chat(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, aiService.ModeChat, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, answer)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	utils.RespondErrorDetails(w, http.StatusNotImplemented,
		"Search endpoint unavailable",
		"The chat completions API does not provide web search results; use /api/ask with mode \"web\".")
}

// respondServiceError 把服务层错误映射为 HTTP 状态码。
func (h *Handler) respondServiceError(w http.ResponseWriter, mode string, err error) {
	var httpErr *upstream.HTTPError
	var transportErr *upstream.TransportError

	switch {
	case errors.Is(err, upstream.ErrNoCredential):
		msg := "Server missing OPENAI_API_KEY or OPENROUTER_API_KEY"
		if mode == aiService.ModeWeb {
			msg = "Server missing PPLX_API_KEY"
		}
		utils.RespondError(w, http.StatusInternalServerError, msg)
	case errors.Is(err, aiService.ErrEmptyQuery):
		utils.RespondError(w, http.StatusBadRequest, "Query is required as a string")
	case errors.Is(err, aiService.ErrNoMessages):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &httpErr):
		utils.RespondErrorDetails(w, httpErr.HTTPStatusCode(), "Chat completion API error", httpErr.Details)
	case errors.As(err, &transportErr):
		utils.RespondErrorDetails(w, http.StatusBadGateway, "Network error", transportErr.Err.Error())
	default:
		h.logger.Error("answer request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeLoose 解析失败时返回空对象，由后续字段校验给出 400。
func decodeLoose(r *http.Request) map[string]any {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		return map[string]any{}
	}
	return body
}

func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}

// history 只保留同时带有字符串 role 与 content 的条目。
func history(raw any) []chat.Message {
	items, _ := raw.([]any)
	out := make([]chat.Message, 0, len(items))
	for _, item := range items {
		if m, ok := toMessage(item); ok {
			out = append(out, m)
		}
	}
	return out
}

// strictMessages 要求非空且每一项都是 {role, content}。
func strictMessages(raw any) ([]chat.Message, bool) {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	out := make([]chat.Message, 0, len(items))
	for _, item := range items {
		m, ok := toMessage(item)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

func toMessage(item any) (chat.Message, bool) {
	fields, ok := item.(map[string]any)
	if !ok {
		return chat.Message{}, false
	}
	role, roleOK := fields["role"].(string)
	content, contentOK := fields["content"].(string)
	if !roleOK || !contentOK {
		return chat.Message{}, false
	}
	return chat.Message{Role: role, Content: content}, true
}

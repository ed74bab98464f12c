package meta

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sasusavage/SourceScout/internal/model/question"
	"github.com/sasusavage/SourceScout/pkg/utils"
)

// Handler 提供健康检查与快捷问题列表。
type Handler struct {
	questions []question.Question
}

func New(questions []question.Question) *Handler {
	return &Handler{questions: questions}
}

// RegisterRoutes 注册 /health。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

// RegisterAPIRoutes 注册 /api 下的 /quick-questions。
func (h *Handler) RegisterAPIRoutes(api chi.Router) {
	api.Get("/quick-questions", h.handleQuickQuestions)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleQuickQuestions(w http.ResponseWriter, r *http.Request) {
	questions := h.questions
	if questions == nil {
		questions = []question.Question{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas persona.Store
}

// New 创建persona处理器
func New(personas persona.Store) *Handler {
	return &Handler{
		personas: personas,
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personalities", h.handleListPersonas)
}

// handleListPersonas 列出所有人格及默认值，提示词本身不对外暴露。
func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"personalities": h.personas.List(),
		"default":       h.personas.DefaultID(),
	})
}

package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/sasusavage/SourceScout/internal/model/feedback"
	feedbackService "github.com/sasusavage/SourceScout/internal/service/feedback"
	"github.com/sasusavage/SourceScout/pkg/utils"
)

// CookieName 保存 csrf 令牌的 http-only cookie。
const CookieName = "feedback_csrf"

// Submitter 是反馈处理器依赖的服务。
type Submitter interface {
	Enabled() bool
	IssueToken() (string, error)
	Submit(ctx context.Context, clientAddr, cookie string, sub model.Submission) (string, error)
}

// Handler 反馈接口的HTTP处理器
type Handler struct {
	svc          Submitter
	cookieSecure bool
	logger       *zap.Logger
}

func New(svc Submitter, cookieSecure bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, cookieSecure: cookieSecure, logger: logger}
}

// RegisterRoutes 注册反馈相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/feedback/csrf", h.handleCSRF)
	r.Post("/feedback", h.handleSubmit)
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Enabled() {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]bool{"enabled": false})
		return
	}

	token, err := h.svc.IssueToken()
	if err != nil {
		h.logger.Error("issue csrf token", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "unable to issue token")
		return
	}

	h.setCookie(w, token)
	utils.RespondJSON(w, http.StatusOK, map[string]any{"enabled": true, "csrf_token": token})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Enabled() {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]bool{"enabled": false})
		return
	}

	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cookie := ""
	if c, err := r.Cookie(CookieName); err == nil {
		cookie = c.Value
	}

	token, err := h.svc.Submit(r.Context(), clientAddr(r), cookie, sub)
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}

	h.setCookie(w, token)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "sent", "csrf_token": token})
}

func (h *Handler) respondSubmitError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	var relayErr *feedbackService.RelayError

	switch {
	case errors.Is(err, feedbackService.ErrInvalidToken):
		utils.RespondError(w, http.StatusBadRequest, "Invalid or expired form token, please reload")
	case errors.As(err, &validationErr):
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.Is(err, feedbackService.ErrDuplicate):
		utils.RespondError(w, http.StatusConflict, "Looks like you already sent this feedback")
	case errors.Is(err, feedbackService.ErrRelayMisconfigured):
		utils.RespondError(w, http.StatusInternalServerError, "Feedback relay is not configured")
	case errors.As(err, &relayErr):
		utils.RespondError(w, http.StatusBadGateway, "Unable to deliver feedback right now")
	default:
		h.logger.Error("feedback submission failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(feedbackService.CSRFMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientAddr 取 RemoteAddr 的主机部分（RealIP 中间件已处理代理头）。
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/handler/chat"
	"github.com/sasusavage/SourceScout/internal/handler/feedback"
	"github.com/sasusavage/SourceScout/internal/handler/meta"
	"github.com/sasusavage/SourceScout/internal/handler/persona"
	"github.com/sasusavage/SourceScout/internal/handler/static"
	middlewarePkg "github.com/sasusavage/SourceScout/internal/middleware"
	personaModel "github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/internal/model/question"
)

// Deps 汇总路由需要的服务。
type Deps struct {
	Config    *config.Config
	Personas  personaModel.Store
	Questions []question.Question
	Answers   chat.Answerer
	Feedback  feedback.Submitter
	Logger    *zap.Logger
}

// NewRouter 把 HTTP 路由挂到各个服务上。
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Config.Server.AllowedOrigins))

	// 静态页面与健康检查
	static.New(deps.Config.Server.FrontendDir).RegisterRoutes(r)
	metaHandler := meta.New(deps.Questions)
	metaHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		metaHandler.RegisterAPIRoutes(api)
		chat.New(deps.Answers, logger).RegisterRoutes(api)
		persona.New(deps.Personas).RegisterRoutes(api)
		feedback.New(deps.Feedback, deps.Config.Feedback.CookieSecure, logger).RegisterRoutes(api)
	})

	return r
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/handler"
	"github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/internal/model/question"
	"github.com/sasusavage/SourceScout/internal/service/ai"
	"github.com/sasusavage/SourceScout/internal/service/feedback"
	"github.com/sasusavage/SourceScout/internal/service/upstream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载 .env 文件
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	// 人格提示词只在启动时读取一次
	personas := persona.Load(persona.Seed(), persona.LoadOptions{
		Paths: map[string]string{
			persona.Pidgin: cfg.Persona.PidginPath,
			persona.Fluent: cfg.Persona.FluentPath,
		},
		SearchDirs: persona.DefaultSearchDirs(),
	}, logger)
	personaStore := persona.NewMemoryStore(personas, cfg.Persona.Default)

	questions, err := question.Load(cfg.QuickQuestionsPath)
	if err != nil {
		logger.Warn("failed to load quick questions, using defaults", zap.Error(err))
		questions = question.Defaults()
	}

	chatDispatcher := upstream.NewChatDispatcher(ctx, cfg, logger)
	searchDispatcher := upstream.NewSearchDispatcher(cfg.Upstream, logger)
	if !chatDispatcher.Ready() {
		logger.Warn("no chat provider configured: set OPENAI_API_KEY, OPENROUTER_API_KEY or ARK_API_KEY + ARK_MODEL")
	}
	if !searchDispatcher.Ready() {
		logger.Warn("PPLX_API_KEY not set, web mode unavailable")
	}

	aiService := ai.NewService(chatDispatcher, searchDispatcher, personaStore, cfg.Upstream, logger)

	feedbackService, closeFeedback, err := newFeedbackService(ctx, cfg.Feedback, logger)
	if err != nil {
		logger.Fatal("failed to initialize feedback relay", zap.Error(err))
	}
	defer closeFeedback()

	router := handler.NewRouter(handler.Deps{
		Config:    cfg,
		Personas:  personaStore,
		Questions: questions,
		Answers:   aiService,
		Feedback:  feedbackService,
		Logger:    logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newFeedbackService(ctx context.Context, cfg config.FeedbackConfig, logger *zap.Logger) (*feedback.Service, func(), error) {
	closeFn := func() {}

	csrf, err := feedback.NewCSRF(cfg.CSRFSecret, logger)
	if err != nil {
		return nil, closeFn, err
	}

	var store feedback.DuplicateStore = feedback.NewMemoryStore()
	if cfg.Enabled && cfg.RedisURL != "" {
		redisStore, err := feedback.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, closeFn, err
		}
		store = redisStore
		closeFn = func() { _ = redisStore.Close() }
		logger.Info("feedback duplicate detection backed by redis")
	}

	relay := feedback.NewTelegramRelay(cfg)
	if cfg.Enabled && !relay.Configured() {
		logger.Warn("ENABLE_TELEGRAM_FEEDBACK is on but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is missing")
	}

	return feedback.NewService(cfg.Enabled, csrf, store, relay, cfg.DuplicateTTL, logger), closeFn, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("SourceScout backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项，启动时构建一次，之后只读。
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	AI       AIConfig
	Persona  PersonaConfig
	Feedback FeedbackConfig

	QuickQuestionsPath string
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	feedback, err := loadFeedbackConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:             server,
		Upstream:           upstream,
		AI:                 ai,
		Persona:            loadPersonaConfig(),
		Feedback:           feedback,
		QuickQuestionsPath: strings.TrimSpace(os.Getenv("QUICK_QUESTIONS_PATH")),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	Debug          bool
	FrontendDir    string
	AllowedOrigins []string
}

// loadServerConfig 解析监听地址、调试开关与静态文件目录。
func loadServerConfig() (ServerConfig, error) {
	host := getEnvOrDefault("APP_HOST", getEnvOrDefault("FLASK_RUN_HOST", "127.0.0.1"))
	port := getEnvOrDefault("APP_PORT", getEnvOrDefault("PORT", "5000"))

	debug, err := parseBoolEnv("APP_DEBUG", false)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		Debug:          debug,
		FrontendDir:    getEnvOrDefault("FRONTEND_DIR", "frontend"),
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":5000" 或 "0.0.0.0:5000"。
		cfg.Addr = port
		return cfg, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid APP_PORT value: %q", port)
	}

	cfg.Addr = net.JoinHostPort(host, port)
	return cfg, nil
}

// UpstreamConfig 描述各个补全服务商的凭证与端点。
type UpstreamConfig struct {
	OpenAI     ProviderConfig
	OpenRouter ProviderConfig
	Perplexity ProviderConfig

	// OpenRouter 要求的附加头。
	OpenRouterSiteURL string
	OpenRouterAppName string

	DefaultModel       string
	SearchModel        string
	InjectSystemPrompt bool
	IncludeRaw         bool
	SearchIncludeRaw   bool
	ChatTimeout        time.Duration
}

// ProviderConfig 是一组凭证与接口地址。
type ProviderConfig struct {
	APIKey string
	URL    string
}

// Configured 表示是否配置了凭证。
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	inject, err := parseBoolEnv("INJECT_SYSTEM_PROMPT", true)
	if err != nil {
		return UpstreamConfig{}, err
	}

	includeRaw, err := parseBoolEnv("OPENAI_INCLUDE_RAW", false)
	if err != nil {
		return UpstreamConfig{}, err
	}

	searchRaw, err := parseBoolEnv("PPLX_INCLUDE_RAW", false)
	if err != nil {
		return UpstreamConfig{}, err
	}

	timeout := 60 * time.Second
	if override, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT_SECONDS"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = time.Duration(*override) * time.Second
	}

	return UpstreamConfig{
		OpenAI: ProviderConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			URL:    getEnvOrDefault("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		},
		OpenRouter: ProviderConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			URL:    getEnvOrDefault("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		},
		Perplexity: ProviderConfig{
			APIKey: strings.TrimSpace(os.Getenv("PPLX_API_KEY")),
			URL:    getEnvOrDefault("PERPLEXITY_API_URL", "https://api.perplexity.ai/chat/completions"),
		},
		OpenRouterSiteURL:  getEnvOrDefault("OPENROUTER_SITE_URL", "https://sourcescout.local"),
		OpenRouterAppName:  getEnvOrDefault("OPENROUTER_APP_NAME", "SourceScout"),
		DefaultModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		SearchModel:        getEnvOrDefault("PPLX_MODEL", "sonar-pro"),
		InjectSystemPrompt: inject,
		IncludeRaw:         includeRaw,
		SearchIncludeRaw:   searchRaw,
		ChatTimeout:        timeout,
	}, nil
}

// AIConfig 描述火山方舟（Ark）兜底模型的配置。
type AIConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
	MaxTokens *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。温度与 top_p 由每次请求传入。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		MaxTokens: maxTokens,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		MaxTokens: maxTokens,
	}, nil
}

// PersonaConfig 描述人格提示词的来源。
type PersonaConfig struct {
	Default    string
	PidginPath string
	FluentPath string
}

func loadPersonaConfig() PersonaConfig {
	return PersonaConfig{
		Default:    strings.ToLower(getEnvOrDefault("DEFAULT_PERSONALITY", "pidgin")),
		PidginPath: getEnvOrDefault("PERSONALITY_PIDGIN_PATH", strings.TrimSpace(os.Getenv("SYSTEM_PROMPT_PATH"))),
		FluentPath: strings.TrimSpace(os.Getenv("PERSONALITY_FLUENT_PATH")),
	}
}

// FeedbackConfig 描述反馈转发（Telegram）配置。
type FeedbackConfig struct {
	Enabled      bool
	BotToken     string
	ChatID       string
	APIURL       string
	CSRFSecret   string
	CookieSecure bool
	DuplicateTTL time.Duration
	RedisURL     string
	Timeout      time.Duration
}

func loadFeedbackConfig() (FeedbackConfig, error) {
	enabled, err := parseBoolEnv("ENABLE_TELEGRAM_FEEDBACK", false)
	if err != nil {
		return FeedbackConfig{}, err
	}

	secure, err := parseBoolEnv("FEEDBACK_COOKIE_SECURE", false)
	if err != nil {
		return FeedbackConfig{}, err
	}

	ttl := 180 * time.Second
	if override, err := parseOptionalIntEnv("FEEDBACK_DUPLICATE_TTL"); err != nil {
		return FeedbackConfig{}, err
	} else if override != nil && *override > 0 {
		ttl = time.Duration(*override) * time.Second
	}

	return FeedbackConfig{
		Enabled:      enabled,
		BotToken:     strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		ChatID:       strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		APIURL:       getEnvOrDefault("TELEGRAM_API_URL", "https://api.telegram.org"),
		CSRFSecret:   getEnvOrDefault("FEEDBACK_CSRF_SECRET", strings.TrimSpace(os.Getenv("SECRET_KEY"))),
		CookieSecure: secure,
		DuplicateTTL: ttl,
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		Timeout:      10 * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseBoolEnv 兼容 1/true/yes/on 与 0/false/no/off。
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return defaultValue, nil
	}

	switch raw {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

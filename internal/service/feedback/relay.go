package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/sasusavage/SourceScout/internal/config"
)

// ErrRelayMisconfigured 表示缺少 bot token 或 chat id。
var ErrRelayMisconfigured = errors.New("feedback relay is not configured")

// RelayError 表示转发请求失败（网络错误或非 2xx 响应）。
type RelayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feedback relay: %v", e.Err)
	}
	return fmt.Sprintf("feedback relay: status %d: %s", e.StatusCode, e.Body)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// Relay 投递渲染好的反馈消息。
type Relay interface {
	Send(ctx context.Context, text string) error
}

// TelegramRelay 通过 Bot API sendMessage 转发反馈。
type TelegramRelay struct {
	apiURL     string
	token      string
	chatID     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewTelegramRelay 创建 Telegram 转发器；Bot API 对同一会话大约限制每秒一条。
func NewTelegramRelay(cfg config.FeedbackConfig) *TelegramRelay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramRelay{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Configured 表示 token 与 chat id 是否都已配置。
func (r *TelegramRelay) Configured() bool {
	return r.token != "" && r.chatID != ""
}

func (r *TelegramRelay) Send(ctx context.Context, text string) error {
	if !r.Configured() {
		return ErrRelayMisconfigured
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return &RelayError{Err: err}
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":                  r.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("encode telegram payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", r.apiURL, r.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &RelayError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RelayError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if ok := gjson.GetBytes(body, "ok"); ok.Exists() && !ok.Bool() {
		return &RelayError{StatusCode: resp.StatusCode, Body: gjson.GetBytes(body, "description").String()}
	}
	return nil
}

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/metrics"
	model "github.com/sasusavage/SourceScout/internal/model/feedback"
)

var (
	// ErrDisabled 表示未开启反馈转发。
	ErrDisabled = errors.New("feedback relay disabled")
	// ErrDuplicate 表示 TTL 内重复提交。
	ErrDuplicate = errors.New("duplicate feedback submission")
)

// Service 校验反馈表单、去重并转发。
type Service struct {
	enabled bool
	csrf    *CSRF
	store   DuplicateStore
	relay   Relay
	ttl     time.Duration
	logger  *zap.Logger
}

// NewService 组装反馈流程，ttl <= 0 时取 180 秒。
func NewService(enabled bool, csrf *CSRF, store DuplicateStore, relay Relay, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 180 * time.Second
	}
	return &Service{
		enabled: enabled,
		csrf:    csrf,
		store:   store,
		relay:   relay,
		ttl:     ttl,
		logger:  logger,
	}
}

func (s *Service) Enabled() bool {
	return s.enabled
}

// IssueToken 返回新的 csrf token。
func (s *Service) IssueToken() (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}
	return s.csrf.Issue()
}

// Submit 校验 csrf、拒绝重复提交并转发消息，成功时返回新的 csrf token。
func (s *Service) Submit(ctx context.Context, clientAddr, cookie string, sub model.Submission) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}

	sub = sub.Normalize()
	if err := s.csrf.Verify(sub.CSRFToken, cookie); err != nil {
		metrics.FeedbackSubmissions.WithLabelValues("invalid_token").Inc()
		return "", err
	}
	if err := sub.Validate(); err != nil {
		metrics.FeedbackSubmissions.WithLabelValues("invalid").Inc()
		return "", err
	}

	key := DuplicateKey(clientAddr, sub.Message)
	fresh, err := s.store.Reserve(ctx, key, s.ttl)
	if err != nil {
		return "", err
	}
	if !fresh {
		metrics.FeedbackSubmissions.WithLabelValues("duplicate").Inc()
		return "", ErrDuplicate
	}

	id := uuid.NewString()
	if err := s.relay.Send(ctx, render(id, clientAddr, sub)); err != nil {
		// 转发失败时释放，允许用户重试
		if releaseErr := s.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			s.logger.Warn("failed to release feedback key", zap.Error(releaseErr))
		}
		metrics.FeedbackSubmissions.WithLabelValues("relay_error").Inc()
		s.logger.Error("feedback relay failed", zap.String("feedback_id", id), zap.Error(err))
		return "", err
	}

	metrics.FeedbackSubmissions.WithLabelValues("sent").Inc()
	s.logger.Info("feedback relayed", zap.String("feedback_id", id))
	return s.csrf.Issue()
}

func render(id, clientAddr string, sub model.Submission) string {
	var b strings.Builder
	b.WriteString("New SourceScout feedback\n")
	fmt.Fprintf(&b, "Name: %s\n", sub.Name)
	if sub.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	}
	fmt.Fprintf(&b, "From: %s\n", clientAddr)
	fmt.Fprintf(&b, "ID: %s\n\n", id)
	b.WriteString(sub.Message)
	return b.String()
}

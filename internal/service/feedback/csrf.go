package feedback

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CSRFMaxAge 是反伪造令牌的有效期。
	CSRFMaxAge = time.Hour

	csrfSubject = "feedback"
)

// ErrInvalidToken 表示令牌缺失、与 cookie 不一致、签名错误或已过期。
var ErrInvalidToken = errors.New("invalid or expired csrf token")

// CSRF 签发并校验 HS256 签名的反伪造令牌。
type CSRF struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCSRF 创建签发器。未配置密钥时使用随机密钥，重启后旧 token 失效。
func NewCSRF(secret string, logger *zap.Logger) (*CSRF, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		if logger != nil {
			logger.Warn("FEEDBACK_CSRF_SECRET not set, using an ephemeral secret")
		}
	}
	return &CSRF{secret: key, maxAge: CSRFMaxAge, now: time.Now}, nil
}

// Issue 签发一个新 token。
func (c *CSRF) Issue() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   csrfSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign csrf token: %w", err)
	}
	return signed, nil
}

// Verify 要求提交的 token 与 cookie 一致、签名有效且未超过最大有效期。
func (c *CSRF) Verify(token, cookie string) error {
	if token == "" || cookie == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(cookie)) != 1 {
		return ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(csrfSubject),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.IssuedAt == nil || c.now().Sub(claims.IssuedAt.Time) > c.maxAge {
		return ErrInvalidToken
	}
	return nil
}

package feedback

import (
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength    = 2
	MinMessageLength = 10
)

// Submission 是前端提交的反馈表单。
type Submission struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Message   string `json:"message"`
	CSRFToken string `json:"csrf_token"`
}

// ValidationError 指出表单中第一个不合法的字段。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Normalize 去掉用户输入字段两端的空白。
func (s Submission) Normalize() Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)
	s.CSRFToken = strings.TrimSpace(s.CSRFToken)
	return s
}

// Validate 校验字段长度与邮箱格式，应在 Normalize 之后调用。
func (s Submission) Validate() error {
	if utf8.RuneCountInString(s.Name) < MinNameLength {
		return &ValidationError{Field: "name", Reason: "must be at least 2 characters"}
	}
	if s.Email != "" && !plausibleEmail(s.Email) {
		return &ValidationError{Field: "email", Reason: "must contain a single @ after the local part"}
	}
	if utf8.RuneCountInString(s.Message) < MinMessageLength {
		return &ValidationError{Field: "message", Reason: "must be at least 10 characters"}
	}
	return nil
}

func plausibleEmail(email string) bool {
	return strings.Count(email, "@") == 1 && strings.Index(email, "@") > 0
}

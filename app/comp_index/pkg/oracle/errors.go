package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType 预言机错误分类
type ErrorType string

const (
	ErrTypeInvalidAPIKey ErrorType = "INVALID_API_KEY"
	ErrTypeAuth          ErrorType = "AUTH_ERROR"
	ErrTypeQuota         ErrorType = "QUOTA_EXCEEDED"
	ErrTypeRateLimit     ErrorType = "RATE_LIMIT"
	ErrTypeNetwork       ErrorType = "NETWORK_ERROR"
	ErrTypeMalformed     ErrorType = "MALFORMED_RESPONSE"
	ErrTypeUnknown       ErrorType = "UNKNOWN"
)

// OracleError 带分类的预言机错误。运行引擎按条目记录它，不会让它中断整个运行。
type OracleError struct {
	Type    ErrorType
	Message string
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewOracleError 构造一个分类错误
func NewOracleError(t ErrorType, format string, args ...any) *OracleError {
	return &OracleError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Classify 把底层调用错误归入错误分类。
// LLM SDK 不暴露结构化错误码，只能按错误文本匹配（与重试判断同一套依据）。
func Classify(err error) *OracleError {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewOracleError(ErrTypeNetwork, "request timed out: %v", err)
	}
	// 主动取消不是网络故障，但分类集合里没有取消一档；
	// 运行引擎在落库前识别取消，这个分支只兜底直连调用方
	if errors.Is(err, context.Canceled) {
		return NewOracleError(ErrTypeNetwork, "request cancelled: %v", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid api key"), strings.Contains(msg, "incorrect api key"), strings.Contains(msg, "401"):
		return NewOracleError(ErrTypeInvalidAPIKey, "%v", err)
	case strings.Contains(msg, "403"), strings.Contains(msg, "permission"), strings.Contains(msg, "unauthorized"):
		return NewOracleError(ErrTypeAuth, "%v", err)
	case strings.Contains(msg, "quota"), strings.Contains(msg, "billing"):
		return NewOracleError(ErrTypeQuota, "%v", err)
	case strings.Contains(msg, "429"), strings.Contains(msg, "too many requests"), strings.Contains(msg, "rate limit"):
		return NewOracleError(ErrTypeRateLimit, "%v", err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection"),
		strings.Contains(msg, "no such host"), strings.Contains(msg, "eof"):
		return NewOracleError(ErrTypeNetwork, "%v", err)
	default:
		return NewOracleError(ErrTypeUnknown, "%v", err)
	}
}

package mtapi

import (
	"context"
	"fmt"
	"time"
)

// Broker MT 数据服务接口，便于替换为其他数据源或测试替身
type Broker interface {
	// Connect 校验凭证并返回账户快照
	Connect(ctx context.Context, cred Credentials) (*AccountSummary, error)
	GetAccountSummary(ctx context.Context, cred Credentials) (*AccountSummary, error)
	// GetHistory 返回 [from, to] 内平仓的成交
	GetHistory(ctx context.Context, cred Credentials, from, to time.Time) ([]*Deal, error)
	SearchServers(ctx context.Context, query string) ([]Server, error)
}

// Error 数据服务返回的错误
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mt api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("mt api error: status %d: %s", e.StatusCode, e.Message)
}

// Rejected 4xx 或 success=false 表示请求被拒绝（如密码错误），其余视为服务不可用
func (e *Error) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

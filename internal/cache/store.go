// Package cache 按用户/账户缓存最近一次同步得到的账户快照，供前端在不请求交易服务器的情况下渲染。
//
// 缓存没有过期和淘汰策略，同一个键并发写入时以最后一次写入为准。
// 读取到损坏的数据时记录日志并按未命中处理。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache: miss")

// Snapshot 单个账户的缓存内容
type Snapshot struct {
	Account     models.Account         `json:"account"`
	Trades      []journal.Trade        `json:"trades"`
	Daily       []journal.DailyResult  `json:"daily"`
	Weekly      []journal.PeriodResult `json:"weekly"`
	Summary     journal.Summary        `json:"summary"`
	GeneratedAt time.Time              `json:"generated_at"`
}

type Store interface {
	// Save 写入快照并把账户加入用户的账户集合
	Save(ctx context.Context, userID string, snapshot *Snapshot) error
	Get(ctx context.Context, userID, accountID string) (*Snapshot, error)
	// GetLastActive 返回 SetLastActive 记录的账户快照
	GetLastActive(ctx context.Context, userID string) (*Snapshot, error)
	// GetUserAccounts 用户全部已缓存的快照，按账户ID排序
	GetUserAccounts(ctx context.Context, userID string) ([]*Snapshot, error)
	SetLastActive(ctx context.Context, userID, accountID string) error
	// Delete 删除快照，若最近激活账户指向它也一并清除
	Delete(ctx context.Context, userID, accountID string) error
}

type keys struct {
	prefix string
}

func (k keys) account(userID, accountID string) string {
	return fmt.Sprintf("%s:user:%s:account:%s", k.prefix, userID, accountID)
}

func (k keys) accounts(userID string) string {
	return fmt.Sprintf("%s:user:%s:accounts", k.prefix, userID)
}

func (k keys) lastActive(userID string) string {
	return fmt.Sprintf("%s:user:%s:last_active", k.prefix, userID)
}

func encode(snapshot *Snapshot) ([]byte, error) {
	if snapshot == nil || snapshot.Account.ID == "" {
		return nil, fmt.Errorf("cache: snapshot without account id")
	}
	return json.Marshal(snapshot)
}

// decode 数据损坏时记录日志并返回 ErrMiss
func decode(logger *zap.Logger, key string, data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, ErrMiss
	}
	return &snapshot, nil
}

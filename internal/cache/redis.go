package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	logger *zap.Logger
	client redis.UniversalClient
	keys   keys
}

func NewRedisStore(logger *zap.Logger, client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		logger: logger,
		client: client,
		keys:   keys{prefix: prefix},
	}
}

func (s *RedisStore) Save(ctx context.Context, userID string, snapshot *Snapshot) error {
	data, err := encode(snapshot)
	if err != nil {
		return err
	}
	accountID := snapshot.Account.ID

	// 快照和账户集合在同一个 MULTI/EXEC 中写入
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keys.account(userID, accountID), data, 0)
		pipe.SAdd(ctx, s.keys.accounts(userID), accountID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID, accountID string) (*Snapshot, error) {
	key := s.keys.account(userID, accountID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return decode(s.logger, key, data)
}

func (s *RedisStore) GetLastActive(ctx context.Context, userID string) (*Snapshot, error) {
	accountID, err := s.client.Get(ctx, s.keys.lastActive(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return s.Get(ctx, userID, accountID)
}

func (s *RedisStore) GetUserAccounts(ctx context.Context, userID string) ([]*Snapshot, error) {
	accountIDs, err := s.client.SMembers(ctx, s.keys.accounts(userID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(accountIDs)

	snapshots := make([]*Snapshot, 0, len(accountIDs))
	if len(accountIDs) == 0 {
		return snapshots, nil
	}

	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, s.keys.account(userID, id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// 集合里有但快照已不存在
			continue
		}
		snapshot, err := decode(s.logger, keys[i], []byte(str))
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s *RedisStore) SetLastActive(ctx context.Context, userID, accountID string) error {
	return s.client.Set(ctx, s.keys.lastActive(userID), accountID, 0).Err()
}

// deleteRetries WATCH 冲突时的最大重试次数
const deleteRetries = 5

func (s *RedisStore) Delete(ctx context.Context, userID, accountID string) error {
	lastActiveKey := s.keys.lastActive(userID)

	// 监视最近账户指针，比较与删除落在同一个乐观事务里
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, lastActiveKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.keys.account(userID, accountID))
			pipe.SRem(ctx, s.keys.accounts(userID), accountID)
			if current == accountID {
				pipe.Del(ctx, lastActiveKey)
			}
			return nil
		})
		return err
	}

	for i := 0; i < deleteRetries; i++ {
		err := s.client.Watch(ctx, txf, lastActiveKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("last active pointer changed during delete, retrying",
			zap.String("user_id", userID), zap.String("account_id", accountID))
	}
	return fmt.Errorf("delete account %s: %w", accountID, redis.TxFailedErr)
}

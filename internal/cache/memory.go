package cache

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore 进程内实现，同样以 JSON 存储，行为与 RedisStore 一致
type MemoryStore struct {
	logger *zap.Logger
	keys   keys

	mu         sync.RWMutex
	blobs      map[string][]byte
	accounts   map[string]map[string]struct{}
	lastActive map[string]string
}

func NewMemoryStore(logger *zap.Logger, prefix string) *MemoryStore {
	return &MemoryStore{
		logger:     logger,
		keys:       keys{prefix: prefix},
		blobs:      make(map[string][]byte),
		accounts:   make(map[string]map[string]struct{}),
		lastActive: make(map[string]string),
	}
}

func (s *MemoryStore) Save(_ context.Context, userID string, snapshot *Snapshot) error {
	data, err := encode(snapshot)
	if err != nil {
		return err
	}
	accountID := snapshot.Account.ID

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[s.keys.account(userID, accountID)] = data
	set, ok := s.accounts[userID]
	if !ok {
		set = make(map[string]struct{})
		s.accounts[userID] = set
	}
	set[accountID] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID, accountID string) (*Snapshot, error) {
	key := s.keys.account(userID, accountID)
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	return decode(s.logger, key, data)
}

func (s *MemoryStore) GetLastActive(ctx context.Context, userID string) (*Snapshot, error) {
	s.mu.RLock()
	accountID, ok := s.lastActive[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	return s.Get(ctx, userID, accountID)
}

func (s *MemoryStore) GetUserAccounts(ctx context.Context, userID string) ([]*Snapshot, error) {
	s.mu.RLock()
	accountIDs := make([]string, 0, len(s.accounts[userID]))
	for id := range s.accounts[userID] {
		accountIDs = append(accountIDs, id)
	}
	s.mu.RUnlock()
	sort.Strings(accountIDs)

	snapshots := make([]*Snapshot, 0, len(accountIDs))
	for _, id := range accountIDs {
		snapshot, err := s.Get(ctx, userID, id)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s *MemoryStore) SetLastActive(_ context.Context, userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive[userID] = accountID
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, s.keys.account(userID, accountID))
	delete(s.accounts[userID], accountID)
	if s.lastActive[userID] == accountID {
		delete(s.lastActive, userID)
	}
	return nil
}

package memory

import (
	"context"
	"sync"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

// ConcurrentStore は Store をラップし、排他制御付きで HistoryStore を実装する。
type ConcurrentStore struct {
	base *Store
	mu   sync.RWMutex
}

// NewConcurrentStore は新しい ConcurrentStore を生成する。base が nil なら空のストアを使う。
func NewConcurrentStore(base *Store) *ConcurrentStore {
	if base == nil {
		base = NewStore()
	}
	return &ConcurrentStore{base: base}
}

func (c *ConcurrentStore) Append(ctx context.Context, room string, res domain.RoundResolution) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.append(room, res)
}

func (c *ConcurrentStore) History(ctx context.Context, room string) ([]domain.RoundResolution, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base.history(room), nil
}

var _ state.HistoryStore = (*ConcurrentStore)(nil)

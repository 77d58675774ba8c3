package store

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"PingUp/module/message/model"
	"PingUp/tools/errs"
)

type memStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Message
	all  []*model.Message // 插入顺序
}

// NewMemory 进程内实现，用于测试与 STORE_DRIVER=memory。
func NewMemory() Store {
	return &memStore{byID: make(map[string]*model.Message)}
}

func (s *memStore) Create(ctx context.Context, m *model.Message) error {
	if m == nil || m.ID == "" {
		return errs.ErrArgs.WrapMsg("message id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[m.ID]; ok {
		return errs.ErrArgs.WrapMsg("duplicate message id", "id", m.ID)
	}
	cp := m.Clone()
	s.byID[cp.ID] = cp
	s.all = append(s.all, cp)
	return nil
}

func (s *memStore) Get(ctx context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "id", id)
	}
	return m.Clone(), nil
}

func between(m *model.Message, a, b string) bool {
	return (m.FromUserID == a && m.ToUserID == b) || (m.FromUserID == b && m.ToUserID == a)
}

func (s *memStore) Conversation(ctx context.Context, userID, otherID string, limit int64) ([]*model.Message, error) {
	s.mu.RLock()
	out := lo.FilterMap(s.all, func(m *model.Message, _ int) (*model.Message, bool) {
		if !between(m, userID, otherID) {
			return nil, false
		}
		return m.Clone(), true
	})
	s.mu.RUnlock()

	sortAsc(out)
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (s *memStore) MarkSeen(ctx context.Context, readerID, senderID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []*model.Message
	now := model.Now()
	for _, m := range s.all {
		if m.FromUserID == senderID && m.ToUserID == readerID && !m.Seen {
			m.Seen = true
			m.UpdatedAt = now
			changed = append(changed, m)
		}
	}
	sortAsc(changed)
	return lo.Map(changed, func(m *model.Message, _ int) string { return m.ID }), nil
}

func (s *memStore) Recent(ctx context.Context, userID string) ([]*model.Message, error) {
	s.mu.RLock()
	latest := make(map[string]*model.Message)
	for _, m := range s.all {
		if m.FromUserID != userID && m.ToUserID != userID {
			continue
		}
		other := m.Counterpart(userID)
		if cur, ok := latest[other]; !ok || model.Less(cur, m) {
			latest[other] = m
		}
	}
	out := lo.MapToSlice(latest, func(_ string, m *model.Message) *model.Message { return m.Clone() })
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return model.Less(out[j], out[i]) })
	return out, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return errs.ErrRecordNotFound.WrapMsg("message not found", "id", id)
	}
	delete(s.byID, id)
	s.all = lo.Reject(s.all, func(m *model.Message, _ int) bool { return m.ID == id })
	return nil
}

func (s *memStore) UnseenByReceiver(ctx context.Context) ([]model.UnseenCount, error) {
	s.mu.RLock()
	counts := lo.CountValuesBy(
		lo.Filter(s.all, func(m *model.Message, _ int) bool { return !m.Seen }),
		func(m *model.Message) string { return m.ToUserID },
	)
	s.mu.RUnlock()

	out := lo.MapToSlice(counts, func(uid string, n int) model.UnseenCount {
		return model.UnseenCount{ToUserID: uid, Count: int64(n)}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ToUserID < out[j].ToUserID })
	return out, nil
}

func sortAsc(list []*model.Message) {
	sort.SliceStable(list, func(i, j int) bool { return model.Less(list[i], list[j]) })
}

package session

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// memoryStore implements Store in process memory. Sessions idle for longer
// than ttl expire, and the least recently used session is evicted once
// maxSessions is exceeded. States are copied on the way in and out.
type memoryStore struct {
	mu sync.Mutex

	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	lru *list.List               // front=MRU
	m   map[string]*list.Element // id -> element(Value=*item)

	closed bool
}

type item struct {
	s        *State
	lastUsed time.Time
}

func newMemoryStore(cfg *storeConfig) *memoryStore {
	return &memoryStore{
		ttl:         cfg.ttl,
		maxSessions: cfg.maxSessions,
		now:         cfg.now,
		lru:         list.New(),
		m:           map[string]*list.Element{},
	}
}

// Create implements Store.
func (st *memoryStore) Create(ctx context.Context, s *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return ErrClosed
	}
	st.evictExpiredLocked(now)
	if _, exists := st.m[s.ID]; exists {
		return ErrAlreadyExists
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	st.m[s.ID] = st.lru.PushFront(&item{s: s.Clone(), lastUsed: now})
	st.evictOverLimitLocked()
	return nil
}

// Get implements Store.
func (st *memoryStore) Get(ctx context.Context, id string) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return nil, ErrClosed
	}
	st.evictExpiredLocked(now)

	e := st.m[id]
	if e == nil {
		return nil, nil
	}
	it := e.Value.(*item)
	it.lastUsed = now
	st.lru.MoveToFront(e)
	return it.s.Clone(), nil
}

// Update implements Store.
func (st *memoryStore) Update(ctx context.Context, s *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return ErrClosed
	}
	st.evictExpiredLocked(now)

	e := st.m[s.ID]
	if e == nil {
		return ErrNotFound
	}
	it := e.Value.(*item)
	if it.s.Version != s.Version {
		return ErrVersionConflict
	}

	s.Version++
	s.UpdatedAt = now

	it.s = s.Clone()
	it.lastUsed = now
	st.lru.MoveToFront(e)
	return nil
}

// Delete implements Store.
func (st *memoryStore) Delete(ctx context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if e := st.m[id]; e != nil {
		st.deleteElemLocked(e)
	}
	return nil
}

// Close implements Store.
func (st *memoryStore) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.closed = true
	st.lru.Init()
	st.m = map[string]*list.Element{}
	return nil
}

// Len reports the number of live sessions.
func (st *memoryStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictExpiredLocked(st.now())
	return st.lru.Len()
}

func (st *memoryStore) evictExpiredLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for e := st.lru.Back(); e != nil; {
		prev := e.Prev()
		if now.Sub(e.Value.(*item).lastUsed) <= st.ttl {
			break
		}
		st.deleteElemLocked(e)
		e = prev
	}
}

func (st *memoryStore) evictOverLimitLocked() {
	if st.maxSessions <= 0 {
		return
	}
	for st.lru.Len() > st.maxSessions {
		e := st.lru.Back()
		if e == nil {
			return
		}
		st.deleteElemLocked(e)
	}
}

func (st *memoryStore) deleteElemLocked(e *list.Element) {
	delete(st.m, e.Value.(*item).s.ID)
	st.lru.Remove(e)
}

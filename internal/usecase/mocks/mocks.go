package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// FakeTransactionManager hands out FakeTransactions and remembers them.
type FakeTransactionManager struct {
	mu  sync.Mutex
	txs []*FakeTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &FakeTransaction{}
	m.txs = append(m.txs, tx)
	return tx, nil
}

// Transactions returns every transaction begun so far.
func (m *FakeTransactionManager) Transactions() []*FakeTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*FakeTransaction(nil), m.txs...)
}

// Committed counts committed transactions.
func (m *FakeTransactionManager) Committed() int {
	n := 0
	for _, tx := range m.Transactions() {
		if tx.Committed {
			n++
		}
	}
	return n
}

// FakeTransaction records whether it was committed or rolled back.
// Rollback after Commit is a no-op, as with pgx.
type FakeTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc func(ctx context.Context) error
}

func (t *FakeTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.Committed = true
	return nil
}

func (t *FakeTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// FakeIDGenerator returns prefix-1, prefix-2, ...
type FakeIDGenerator struct {
	mu     sync.Mutex
	n      int
	Prefix string
}

func NewFakeIDGenerator(prefix string) *FakeIDGenerator {
	return &FakeIDGenerator{Prefix: prefix}
}

func (g *FakeIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n)
}

// FakeRetrier runs the operation up to Attempts times while it fails.
// When Retryable is set, errors it rejects stop the loop at once.
type FakeRetrier struct {
	Retryable func(error) bool
	Attempts  int
	Calls     int
}

func (r *FakeRetrier) Retry(ctx context.Context, operation func() error) error {
	attempts := max(1, r.Attempts)
	var err error
	for i := 0; i < attempts; i++ {
		r.Calls++
		if err = operation(); err == nil {
			return nil
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return err
		}
	}
	return err
}

// FakeCache is an in-memory usecase.Cache without expiry.
type FakeCache struct {
	mu   sync.Mutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, error)
}

func NewFakeCache() *FakeCache {
	return &FakeCache{data: make(map[string][]byte)}
}

func (c *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	return v, nil
}

func (c *FakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *FakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Has reports whether key is cached.
func (c *FakeCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// FakeIdempotencyStore is an in-memory usecase.IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{data: make(map[string][]byte)}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

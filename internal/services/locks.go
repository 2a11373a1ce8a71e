package services

import (
	"context"
	"sync"
	"trip-scheduler-service/internal/domain"
)

// LocalLocker serializes generate runs per cooperative within one process.
// Contention fails fast with domain.ErrLockNotAcquired.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Lock(_ context.Context, cooperativeID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[cooperativeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[cooperativeID] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, domain.ErrLockNotAcquired
	}
	var once sync.Once
	return func() { once.Do(m.Unlock) }, nil
}

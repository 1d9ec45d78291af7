// Package lock serializes stock-changing work per product.
package lock

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotObtained is returned when a lock could not be taken before ctx ended.
var ErrNotObtained = errors.New("could not obtain stock lock")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// ProductKey is the lock key guarding one product's ledger.
func ProductKey(id string) string {
	return "lock:stock:" + id
}

// InvoiceKey is the lock key guarding changes to one invoice.
func InvoiceKey(id string) string {
	return "lock:invoice:" + id
}

// LockAll takes every key in sorted order so two callers with overlapping
// sets cannot deadlock. On failure nothing stays held.
func LockAll(ctx context.Context, l Locker, keys []string) (Unlock, error) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	held := make([]Unlock, 0, len(uniq))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, k := range uniq {
		unlock, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, unlock)
	}
	return once(release), nil
}

func once(f func()) Unlock {
	var o sync.Once
	return func() { o.Do(f) }
}

// Local is an in-process keyed mutex. It only serializes callers inside one process.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return once(func() {
			<-s.ch
			l.release(key, s)
		}), nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, errors.Join(ErrNotObtained, ctx.Err())
	}
}

func (l *Local) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

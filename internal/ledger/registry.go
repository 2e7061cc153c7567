package ledger

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	book     *Book
	lastUsed time.Time
}

// Registry hands out one loaded Book per user. Books that have not been
// handed out for a while are dropped by EvictIdle.
type Registry struct {
	store DealStore
	now   func() time.Time

	mu    sync.Mutex
	books map[int64]*entry
}

func NewRegistry(store DealStore) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
		books: make(map[int64]*entry),
	}
}

// Book returns the user's book, loading it from the store on first use.
func (r *Registry) Book(ctx context.Context, userID int64) (*Book, error) {
	r.mu.Lock()
	e, ok := r.books[userID]
	if !ok {
		e = &entry{book: NewBook(r.store, userID)}
		r.books[userID] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	if err := e.book.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return e.book, nil
}

// Detached returns the user's cached book if there is one, otherwise a freshly
// loaded book that is not kept. It does not count as a use for EvictIdle.
func (r *Registry) Detached(ctx context.Context, userID int64) (*Book, error) {
	r.mu.Lock()
	e, ok := r.books[userID]
	r.mu.Unlock()

	b := NewBook(r.store, userID)
	if ok {
		b = e.book
	}
	if err := b.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Forget drops the user's book; the next access reloads it from the store.
func (r *Registry) Forget(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, userID)
}

// EvictIdle drops every book not handed out within maxIdle and reports how
// many were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.books {
		if e.lastUsed.Before(cutoff) {
			delete(r.books, id)
			evicted++
		}
	}
	return evicted
}

// Len reports how many books are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.books)
}

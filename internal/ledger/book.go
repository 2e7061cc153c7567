// Package ledger keeps each user's deals in memory, applies create and delete
// against the deal store, and re-derives holdings after every change.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
	"github.com/AgusMolinaCode/DCA_Ledger/internal/portfolio"
)

const maxLoadAttempts = 3

// DealStore is the persistence collaborator a Book writes through.
type DealStore interface {
	ListDeals(ctx context.Context, userID int64) ([]models.Deal, error)
	CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error)
	DeleteDeal(ctx context.Context, userID, id int64) error
}

// Book is the in-memory deal collection of one user. The collection is only
// ever replaced wholesale after a store round-trip has succeeded. Each request
// takes a generation number; a load that finishes after a newer request has
// started is discarded with models.ErrStale.
type Book struct {
	store  DealStore
	userID int64
	now    func() time.Time

	// loadMu lets one caller at a time run the initial load.
	loadMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	loaded     bool
	deals      []models.Deal
	holdings   models.Holdings
}

func NewBook(store DealStore, userID int64) *Book {
	return &Book{
		store:    store,
		userID:   userID,
		now:      time.Now,
		deals:    []models.Deal{},
		holdings: models.Holdings{},
	}
}

func (b *Book) UserID() int64 {
	return b.userID
}

// Load replaces the collection with the store's current deals.
func (b *Book) Load(ctx context.Context) error {
	gen := b.begin()

	deals, err := b.store.ListDeals(ctx, b.userID)
	if err != nil {
		return models.Upstream("list deals", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return models.ErrStale
	}
	b.replace(deals)
	b.loaded = true
	return nil
}

// EnsureLoaded loads the book unless it already is. Concurrent callers wait
// for the first load instead of starting their own. A load invalidated by a
// concurrent mutation is retried up to maxLoadAttempts times.
func (b *Book) EnsureLoaded(ctx context.Context) error {
	b.loadMu.Lock()
	defer b.loadMu.Unlock()

	for attempt := 1; !b.Loaded(); attempt++ {
		err := b.Load(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrStale) || attempt >= maxLoadAttempts {
			return err
		}
	}
	return nil
}

// Create validates req, stores the deal and prepends it to the collection.
// Nothing is sent to the store when req is invalid. A load that committed
// while the store call was in flight may already hold the new deal; it is
// not added twice.
func (b *Book) Create(ctx context.Context, req models.DealRequest) (models.Deal, error) {
	if err := req.Validate(); err != nil {
		return models.Deal{}, err
	}

	created, err := b.store.CreateDeal(ctx, req.NewDeal(b.userID, b.now()))
	if err != nil {
		return models.Deal{}, models.Upstream("create deal", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	if b.indexOf(created.ID) >= 0 {
		return created, nil
	}
	next := make([]models.Deal, 0, len(b.deals)+1)
	next = append(next, created)
	next = append(next, b.deals...)
	b.replace(next)
	return created, nil
}

// Delete removes the deal from the store and then from the collection.
func (b *Book) Delete(ctx context.Context, id int64) error {
	if err := b.store.DeleteDeal(ctx, b.userID, id); err != nil {
		return models.Upstream("delete deal", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	next := make([]models.Deal, 0, len(b.deals))
	for _, d := range b.deals {
		if d.ID != id {
			next = append(next, d)
		}
	}
	b.replace(next)
	return nil
}

// Deals returns a copy of the collection, most recent first.
func (b *Book) Deals() []models.Deal {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Deal, len(b.deals))
	copy(out, b.deals)
	return out
}

// Deal looks a deal up by id.
func (b *Book) Deal(id int64) (models.Deal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.deals[i], true
	}
	return models.Deal{}, false
}

// Holdings returns a copy of the current holdings.
func (b *Book) Holdings() models.Holdings {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(models.Holdings, len(b.holdings))
	for id, h := range b.holdings {
		out[id] = h
	}
	return out
}

func (b *Book) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func (b *Book) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

func (b *Book) begin() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	return b.generation
}

// indexOf must be called with mu held.
func (b *Book) indexOf(id int64) int {
	for i, d := range b.deals {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// replace must be called with mu held.
func (b *Book) replace(deals []models.Deal) {
	b.deals = deals
	b.holdings = portfolio.Aggregate(deals)
}

package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeNguyen02/AuctionProduct/internal/models"
)

// MemoryStore is a process-local Store for tests and demo runs without a
// database. Bids on one product serialize on that product's mutex; bids on
// different products never block each other.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	bidSeq   int64
	products map[int64]*productEntry
}

type productEntry struct {
	mu      sync.Mutex
	deleted bool
	product models.Product
	bids    []models.BidRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[int64]*productEntry)}
}

func cloneProduct(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if p.CurrentPrice != nil {
		price := *p.CurrentPrice
		p.CurrentPrice = &price
	}
	if p.CurrentLeader != nil {
		leader := *p.CurrentLeader
		p.CurrentLeader = &leader
	}
	return p
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = &productEntry{product: cloneProduct(*p)}
	return nil
}

func (s *MemoryStore) entry(id int64) (*productEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[id]
	return e, ok
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	entry, ok := s.entry(id)
	if !ok {
		return nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, ErrNotFound
	}
	p := cloneProduct(entry.product)
	return &p, nil
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	entries := make([]*productEntry, 0, len(s.products))
	for _, e := range s.products {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	products := make([]models.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			products = append(products, cloneProduct(e.product))
		}
		e.mu.Unlock()
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, p *models.Product) error {
	entry, ok := s.entry(p.ID)
	if !ok {
		return ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return ErrNotFound
	}
	updated := cloneProduct(*p)
	updated.CreatedAt = entry.product.CreatedAt
	updated.UpdatedAt = time.Now()
	entry.product = updated
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	entry, ok := s.products[id]
	if ok {
		delete(s.products, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	entry.mu.Lock()
	entry.deleted = true
	entry.bids = nil
	entry.mu.Unlock()
	return nil
}

func (s *MemoryStore) ApplyWinningBid(_ context.Context, productID int64, bidderName string, amount decimal.Decimal, at time.Time) (*models.BidRecord, error) {
	entry, ok := s.entry(productID)
	if !ok {
		return nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, ErrNotFound
	}

	floor := entry.product.Floor()
	if amount.LessThanOrEqual(floor) {
		return nil, &BidTooLowError{Floor: floor}
	}

	record := models.BidRecord{
		ID:         atomic.AddInt64(&s.bidSeq, 1),
		ProductID:  productID,
		BidderName: bidderName,
		Amount:     amount,
		Note:       bidNote,
		CreatedAt:  at,
	}
	entry.bids = append(entry.bids, record)

	price := amount
	leader := bidderName
	entry.product.CurrentPrice = &price
	entry.product.CurrentLeader = &leader
	entry.product.UpdatedAt = at
	return &record, nil
}

func (s *MemoryStore) ListBids(_ context.Context, productID int64) ([]models.BidRecord, error) {
	entry, ok := s.entry(productID)
	if !ok {
		return nil, ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, ErrNotFound
	}
	out := make([]models.BidRecord, len(entry.bids))
	for i, b := range entry.bids {
		out[len(entry.bids)-1-i] = b
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

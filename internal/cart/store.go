// Package cart holds a device's pre-purchase course selection in local storage.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/localstore"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// StorageKey is the local storage key holding the serialized item list.
const StorageKey = "skillHunter_cart"

// Item is one cart line. Quantity is always 1.
type Item struct {
	Course   models.Course `json:"course"`
	Quantity int           `json:"quantity"`
}

// Store is safe for concurrent use. Every mutation is written through to storage
// before it returns.
type Store struct {
	storage localstore.Store
	logg    *logger.Logger

	mu    sync.RWMutex
	items []Item
}

func NewStore(storage localstore.Store, logg *logger.Logger) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("local storage is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{storage: storage, logg: logg, items: []Item{}}, nil
}

// Load replaces the in-memory items with the persisted snapshot. A missing or
// unreadable snapshot yields an empty cart.
func (s *Store) Load(ctx context.Context) {
	items := s.read(ctx)
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context) []Item {
	raw, ok, err := s.storage.GetItem(ctx, StorageKey)
	if err != nil {
		s.logg.WarnErr(ctx, "cart.load_failed", err)
		return []Item{}
	}
	if !ok || raw == "" {
		return []Item{}
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logg.WarnErr(ctx, "cart.snapshot_corrupt", err)
		return []Item{}
	}
	return dedupe(items)
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.items...)
}

// Add appends course unless it is already in the cart. It reports whether the
// cart changed.
func (s *Store) Add(ctx context.Context, course models.Course) (bool, error) {
	if course.ID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.items, course.ID) >= 0 {
		return false, nil
	}
	next := append(append(make([]Item, 0, len(s.items)+1), s.items...), Item{Course: course, Quantity: 1})
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.items = next
	return true, nil
}

// Remove drops the line for courseID. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, courseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.items, courseID)
	if idx < 0 {
		return nil
	}
	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, []Item{}); err != nil {
		return err
	}
	s.items = []Item{}
	return nil
}

// Total is Σ price × quantity over the current items.
func (s *Store) Total() decimal.Decimal {
	return Total(s.Items())
}

// ItemCount is Σ quantity over the current items.
func (s *Store) ItemCount() int {
	return ItemCount(s.Items())
}

func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Course.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func ItemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func (s *Store) persist(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.storage.SetItem(ctx, StorageKey, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

func indexOf(items []Item, courseID uuid.UUID) int {
	for i, it := range items {
		if it.Course.ID == courseID {
			return i
		}
	}
	return -1
}

// dedupe keeps the first line per course and pins quantity to 1.
func dedupe(items []Item) []Item {
	out := make([]Item, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if it.Course.ID == uuid.Nil {
			continue
		}
		if _, dup := seen[it.Course.ID]; dup {
			continue
		}
		seen[it.Course.ID] = struct{}{}
		it.Quantity = 1
		out = append(out, it)
	}
	return out
}

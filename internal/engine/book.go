package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/oddsfair/slipexchange/internal/domain"
)

// BookEntry represents a single order resting on a slip's book.
type BookEntry struct {
	Price     int64
	CreatedAt time.Time
	OrderID   string
	Order     *domain.Order
}

// PriceLevel represents an aggregated price level in the book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// buyLess defines ordering for the buy side: price descending, then
// created_at ascending, then order_id ascending. Min() returns the best
// buy (highest price, earliest time).
func buyLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// sellLess defines ordering for the sell side: price ascending, then
// created_at ascending, then order_id ascending. Min() returns the best
// sell (lowest price, earliest time).
func sellLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// Book maintains the buy and sell sides for a single slip using
// B-trees with a secondary index for removal by order ID. Its mutex is
// the slip's exclusion scope: matching, cancellation, and expiry all
// serialize on it.
type Book struct {
	slipID string
	mu     sync.RWMutex
	buys   *btree.BTreeG[BookEntry]
	sells  *btree.BTreeG[BookEntry]
	index  map[string]BookEntry // order_id → entry
}

// NewBook creates an order book for the given slip.
func NewBook(slipID string) *Book {
	const degree = 32
	return &Book{
		slipID: slipID,
		buys:   btree.NewG[BookEntry](degree, buyLess),
		sells:  btree.NewG[BookEntry](degree, sellLess),
		index:  make(map[string]BookEntry),
	}
}

// RLock acquires the read lock on the book.
func (b *Book) RLock() { b.mu.RLock() }

// RUnlock releases the read lock on the book.
func (b *Book) RUnlock() { b.mu.RUnlock() }

// Insert adds an entry to the side matching the order.
func (b *Book) Insert(entry BookEntry) {
	if entry.Order.Side == domain.OrderSideBuy {
		b.buys.ReplaceOrInsert(entry)
	} else {
		b.sells.ReplaceOrInsert(entry)
	}
	b.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the
// secondary index. Delete is a no-op on the side the entry isn't on.
func (b *Book) Remove(orderID string) {
	entry, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	b.buys.Delete(entry)
	b.sells.Delete(entry)
}

// BestBuy returns the highest-priority buy (highest price, earliest time).
func (b *Book) BestBuy() (BookEntry, bool) {
	return b.buys.Min()
}

// BestSell returns the highest-priority sell (lowest price, earliest time).
func (b *Book) BestSell() (BookEntry, bool) {
	return b.sells.Min()
}

// WalkSells iterates sells in priority order (lowest price first). The
// callback returns true to continue, false to stop.
func (b *Book) WalkSells(fn func(BookEntry) bool) {
	b.sells.Ascend(fn)
}

// WalkBuys iterates buys in priority order (highest price first).
func (b *Book) WalkBuys(fn func(BookEntry) bool) {
	b.buys.Ascend(fn)
}

// TopBuys returns up to n aggregated price levels from the buy side,
// ordered by price descending.
func (b *Book) TopBuys(n int) []PriceLevel {
	return topLevels(b.buys, n)
}

// TopSells returns up to n aggregated price levels from the sell side,
// ordered by price ascending.
func (b *Book) TopSells(n int) []PriceLevel {
	return topLevels(b.sells, n)
}

// topLevels iterates the B-tree in order and aggregates entries into at
// most n price levels.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.RemainingQuantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.RemainingQuantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// BuyCount returns the number of individual buy orders on the book.
func (b *Book) BuyCount() int { return b.buys.Len() }

// SellCount returns the number of individual sell orders on the book.
func (b *Book) SellCount() int { return b.sells.Len() }

// BookManager is a thread-safe map of slip → Book.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{books: make(map[string]*Book)}
}

// GetOrCreate returns the book for the given slip, creating one if it
// doesn't already exist.
func (bm *BookManager) GetOrCreate(slipID string) *Book {
	bm.mu.RLock()
	book, ok := bm.books[slipID]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	if book, ok = bm.books[slipID]; ok {
		return book
	}
	book = NewBook(slipID)
	bm.books[slipID] = book
	return book
}

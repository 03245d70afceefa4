package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/oddsfair/slipexchange/internal/domain"
)

func makeOrder(id, trader, slipID string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		OrderID:  id,
		SlipID:   slipID,
		TraderID: trader,
		Side:     domain.OrderSideBuy,
		Status:   status,
	}
}

func TestOrderStore_GetNotFound(t *testing.T) {
	s := NewOrderStore()
	if _, err := s.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_ListBySlipFiltersStatus(t *testing.T) {
	s := NewOrderStore()
	s.Create(makeOrder("o1", "alice", "slip-1", domain.OrderStatusPending))
	s.Create(makeOrder("o2", "bob", "slip-1", domain.OrderStatusFilled))
	s.Create(makeOrder("o3", "alice", "slip-2", domain.OrderStatusPending))

	if got := len(s.ListBySlip("slip-1", nil)); got != 2 {
		t.Errorf("expected 2 orders, got %d", got)
	}

	pending := domain.OrderStatusPending
	filtered := s.ListBySlip("slip-1", &pending)
	if len(filtered) != 1 || filtered[0].OrderID != "o1" {
		t.Errorf("expected [o1], got %v", filtered)
	}
}

func TestOrderStore_ListByTraderPagination(t *testing.T) {
	s := NewOrderStore()
	for i := 0; i < 5; i++ {
		s.Create(makeOrder(fmt.Sprintf("o%d", i), "alice", "slip-1", domain.OrderStatusPending))
	}

	page1, total := s.ListByTrader("alice", nil, 1, 2)
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	// Newest first.
	if len(page1) != 2 || page1[0].OrderID != "o4" || page1[1].OrderID != "o3" {
		t.Errorf("unexpected first page: %v", page1)
	}

	page3, _ := s.ListByTrader("alice", nil, 3, 2)
	if len(page3) != 1 || page3[0].OrderID != "o0" {
		t.Errorf("unexpected last page: %v", page3)
	}

	empty, total := s.ListByTrader("alice", nil, 4, 2)
	if len(empty) != 0 || total != 5 {
		t.Errorf("out-of-range page must be empty with full total, got %v total=%d", empty, total)
	}
}

func TestOrderStore_OpenBySlipSkipsClosedAndFrozen(t *testing.T) {
	s := NewOrderStore()
	open := makeOrder("o1", "alice", "slip-1", domain.OrderStatusPending)
	partial := makeOrder("o2", "bob", "slip-1", domain.OrderStatusPartiallyFilled)
	filled := makeOrder("o3", "carol", "slip-1", domain.OrderStatusFilled)
	frozen := makeOrder("o4", "dave", "slip-1", domain.OrderStatusPending)
	frozen.Frozen = true

	for _, o := range []*domain.Order{open, partial, filled, frozen} {
		s.Create(o)
	}

	got := s.OpenBySlip("slip-1")
	if len(got) != 2 || got[0].OrderID != "o1" || got[1].OrderID != "o2" {
		t.Errorf("expected [o1 o2], got %v", got)
	}
}

package service

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/ledger"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// RegisterSlipRequest represents the input for listing a slip on the
// exchange. ListPrice is the seed acquisition price in cents.
type RegisterSlipRequest struct {
	SlipID    string // optional; generated when empty
	MatchID   string
	OwnerID   string
	ListPrice int64
}

// OwnershipService handles slip listing and ownership operations.
type OwnershipService struct {
	ledger   *ledger.Ledger
	slips    *domain.SlipRegistry
	recorder *Recorder
}

// NewOwnershipService creates a new OwnershipService.
func NewOwnershipService(lg *ledger.Ledger, slips *domain.SlipRegistry, recorder *Recorder) *OwnershipService {
	return &OwnershipService{ledger: lg, slips: slips, recorder: recorder}
}

// RegisterSlip lists a slip and seeds its creator with full ownership.
func (s *OwnershipService) RegisterSlip(req RegisterSlipRequest) (*domain.Slip, *domain.OwnershipRecord, error) {
	if req.SlipID != "" && !idRegex.MatchString(req.SlipID) {
		return nil, nil, &domain.ValidationError{
			Message: "slip_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !idRegex.MatchString(req.MatchID) {
		return nil, nil, &domain.ValidationError{
			Message: "match_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !idRegex.MatchString(req.OwnerID) {
		return nil, nil, &domain.ValidationError{
			Message: "owner_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.ListPrice < 0 {
		return nil, nil, &domain.ValidationError{
			Message: "list_price must not be negative",
		}
	}

	slipID := req.SlipID
	if slipID == "" {
		slipID = uuid.New().String()
	}

	slip := &domain.Slip{
		SlipID:   slipID,
		MatchID:  req.MatchID,
		ListedAt: time.Now(),
	}
	if err := s.slips.Register(slip); err != nil {
		return nil, nil, err
	}

	record, err := s.ledger.Seed(slipID, req.OwnerID, req.ListPrice)
	if err != nil {
		return nil, nil, err
	}

	s.recorder.SlipRegistered(slip)
	return slip, record, nil
}

// GetSlip returns a listed slip.
func (s *OwnershipService) GetSlip(slipID string) (*domain.Slip, error) {
	return s.slips.Get(slipID)
}

// Split divides an owner's full holding into equal fractions.
func (s *OwnershipService) Split(slipID, ownerID string, fractionCount int64) ([]*domain.OwnershipRecord, error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return nil, err
	}
	records, err := s.ledger.Split(slipID, ownerID, fractionCount)
	if err != nil {
		return nil, err
	}
	s.recorder.OwnershipChanged(slipID)
	return records, nil
}

// Merge coalesces an owner's active fragments into one record.
func (s *OwnershipService) Merge(slipID, ownerID string) (*domain.OwnershipRecord, error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return nil, err
	}
	record, err := s.ledger.Merge(slipID, ownerID)
	if err != nil {
		return nil, err
	}
	s.recorder.OwnershipChanged(slipID)
	return record, nil
}

// SlipOwnership returns a slip's active ownership table.
func (s *OwnershipService) SlipOwnership(slipID string) ([]*domain.OwnershipRecord, error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return nil, err
	}
	return s.ledger.ActiveRecords(slipID), nil
}

// TraderOwnership returns one owner's position on a slip: the active
// total, the held amount backing open sells, and the record history.
func (s *OwnershipService) TraderOwnership(slipID, ownerID string) (activeBP, heldBP int64, records []*domain.OwnershipRecord, err error) {
	if _, err := s.slips.Get(slipID); err != nil {
		return 0, 0, nil, err
	}
	return s.ledger.GetActiveOwnership(slipID, ownerID),
		s.ledger.HeldBy(slipID, ownerID),
		s.ledger.RecordsFor(slipID, ownerID),
		nil
}

package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// BankRequestService drives the second-person sign-off gate on bank-settled
// ledger entries. Approving a request settles its entry; rejecting it
// cancels the entry, both within one transaction.
type BankRequestService struct {
	scope     TransactionScope
	identity  acl.IdentityProvider
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewBankRequestService creates a new BankRequestService
func NewBankRequestService(
	scope TransactionScope,
	identity acl.IdentityProvider,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *BankRequestService {
	return &BankRequestService{
		scope:     scope,
		identity:  identity,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// RequestSignOff opens a pending bank transaction request for a bank-settled
// ledger entry. At most one request exists per entry.
func (s *BankRequestService) RequestSignOff(ctx context.Context, entryID, requestedBy uuid.UUID) (*ledger.BankTransactionRequest, error) {
	var request *ledger.BankTransactionRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		entry, err := repos.Entries().FindByID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("failed to load ledger entry: %w", err)
		}
		if entry == nil {
			return shared.NewNotFoundError("UNKNOWN_ENTRY", "Ledger entry does not exist")
		}

		existing, err := repos.BankRequests().FindByLedgerEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("failed to check existing request: %w", err)
		}
		if existing != nil {
			return shared.NewStateConflictError("REQUEST_EXISTS",
				fmt.Sprintf("Ledger entry %s already has a bank transaction request", entryID))
		}

		request, err = ledger.NewBankTransactionRequest(entry, requestedBy, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.BankRequests().Save(ctx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ApproveSignOff approves a pending request and settles its ledger entry.
// The approver must carry the treasury role and differ from the requester.
func (s *BankRequestService) ApproveSignOff(ctx context.Context, requestID, approvedBy uuid.UUID) (*ledger.BankTransactionRequest, error) {
	if err := s.requireTreasury(ctx, approvedBy); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var request *ledger.BankTransactionRequest
	var entry *ledger.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		request, err = repos.BankRequests().FindByID(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to load bank transaction request: %w", err)
		}
		if request == nil {
			return shared.NewNotFoundError("UNKNOWN_REQUEST", "Bank transaction request does not exist")
		}
		if err := request.Approve(approvedBy, now); err != nil {
			return err
		}

		entry, err = repos.Entries().FindByID(ctx, request.LedgerEntryID)
		if err != nil {
			return fmt.Errorf("failed to load ledger entry: %w", err)
		}
		if entry == nil {
			return shared.NewIntegrityError("ORPHAN_REQUEST",
				fmt.Sprintf("Bank transaction request %s references a missing entry", requestID))
		}
		if err := entry.Settle(approvedBy, now); err != nil {
			return err
		}

		if err := repos.BankRequests().Save(ctx, request); err != nil {
			return fmt.Errorf("failed to save bank transaction request: %w", err)
		}
		return repos.Entries().Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, entry)
	return request, nil
}

// RejectSignOff rejects a pending request and cancels its ledger entry.
func (s *BankRequestService) RejectSignOff(ctx context.Context, requestID, rejectedBy uuid.UUID, reason string) (*ledger.BankTransactionRequest, error) {
	if err := s.requireTreasury(ctx, rejectedBy); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var request *ledger.BankTransactionRequest
	var entry *ledger.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		request, err = repos.BankRequests().FindByID(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to load bank transaction request: %w", err)
		}
		if request == nil {
			return shared.NewNotFoundError("UNKNOWN_REQUEST", "Bank transaction request does not exist")
		}
		if err := request.Reject(rejectedBy, reason, now); err != nil {
			return err
		}

		entry, err = repos.Entries().FindByID(ctx, request.LedgerEntryID)
		if err != nil {
			return fmt.Errorf("failed to load ledger entry: %w", err)
		}
		if entry == nil {
			return shared.NewIntegrityError("ORPHAN_REQUEST",
				fmt.Sprintf("Bank transaction request %s references a missing entry", requestID))
		}
		if err := entry.Cancel(now); err != nil {
			return err
		}

		if err := repos.BankRequests().Save(ctx, request); err != nil {
			return fmt.Errorf("failed to save bank transaction request: %w", err)
		}
		return repos.Entries().Save(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, entry)
	return request, nil
}

// ListRequests returns bank transaction requests matching the filter.
func (s *BankRequestService) ListRequests(ctx context.Context, filter ledger.BankRequestFilter) ([]ledger.BankTransactionRequest, error) {
	var requests []ledger.BankTransactionRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		requests, err = repos.BankRequests().FindAll(ctx, filter)
		return err
	})
	return requests, err
}

func (s *BankRequestService) requireTreasury(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.identity.HasRole(ctx, userID, acl.RoleTreasuryApprover)
	if err != nil {
		return fmt.Errorf("failed to resolve roles: %w", err)
	}
	if !ok {
		return shared.NewAuthorizationError("NOT_TREASURY",
			"Deciding bank transaction requests requires the treasury approver role")
	}
	return nil
}

func (s *BankRequestService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("aggregate_id", aggregate.GetID().String()), zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

package cashdesk

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// TransferService drives the token-gated custody hand-over between cashiers.
// Acceptance is a compare-and-swap on the pending status, so exactly one of
// any number of concurrent accepts wins.
type TransferService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	scope TransactionScope,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		scope:     scope,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// InitiateTransfer creates a pending transfer and returns the acceptance
// token. The token is shown to the sender exactly once. Flagging the
// sender's session is best-effort: a failure there is logged and does not
// undo the transfer.
func (s *TransferService) InitiateTransfer(ctx context.Context, req InitiateTransferRequest) (*InitiateTransferResult, error) {
	var transfer *cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = cashdesk.NewCashTransfer(req.CaisseID, req.FromUser, req.ToUser, req.Amount, req.HasProblems, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	if req.SessionID != nil {
		s.flagSenderSession(ctx, *req.SessionID)
	}

	s.publishEvents(ctx, transfer)
	return &InitiateTransferResult{Transfer: transfer, Token: transfer.Token()}, nil
}

// AcceptTransfer accepts a pending transfer with the token. Token expiry,
// token mismatch and already-resolved transfers all fail; a lost
// compare-and-swap race surfaces as a state conflict.
func (s *TransferService) AcceptTransfer(ctx context.Context, req AcceptTransferRequest) (*cashdesk.CashTransfer, error) {
	now := s.clock.Now()
	var transfer *cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, req.TransferID)
		if err != nil {
			return fmt.Errorf("failed to load cash transfer: %w", err)
		}
		if transfer == nil {
			return shared.NewNotFoundError("UNKNOWN_TRANSFER", "Cash transfer does not exist")
		}
		if req.AcceptedBy != transfer.ToUserID {
			return shared.NewAuthorizationError("NOT_RECIPIENT",
				"Only the designated recipient can accept a cash transfer")
		}
		if err := transfer.Accept(req.Token, req.AmountReceived, now); err != nil {
			return err
		}
		return repos.Transfers().SaveAcceptance(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, transfer)
	return transfer, nil
}

// RejectTransfer declines a pending transfer; custody stays with the sender.
func (s *TransferService) RejectTransfer(ctx context.Context, transferID, rejectedBy uuid.UUID) (*cashdesk.CashTransfer, error) {
	var transfer *cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return fmt.Errorf("failed to load cash transfer: %w", err)
		}
		if transfer == nil {
			return shared.NewNotFoundError("UNKNOWN_TRANSFER", "Cash transfer does not exist")
		}
		if rejectedBy != transfer.ToUserID {
			return shared.NewAuthorizationError("NOT_RECIPIENT",
				"Only the designated recipient can reject a cash transfer")
		}
		if err := transfer.Reject(s.clock.Now()); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// MarkTransferred records that the accepted cash physically moved.
func (s *TransferService) MarkTransferred(ctx context.Context, transferID uuid.UUID) (*cashdesk.CashTransfer, error) {
	return s.mutateTransfer(ctx, transferID, func(t *cashdesk.CashTransfer) error {
		return t.MarkTransferred(s.clock.Now())
	})
}

// MarkDone closes out a transferred hand-over after reconciliation.
func (s *TransferService) MarkDone(ctx context.Context, transferID uuid.UUID) (*cashdesk.CashTransfer, error) {
	return s.mutateTransfer(ctx, transferID, func(t *cashdesk.CashTransfer) error {
		return t.MarkDone(s.clock.Now())
	})
}

// GetTransfer loads a single transfer.
func (s *TransferService) GetTransfer(ctx context.Context, transferID uuid.UUID) (*cashdesk.CashTransfer, error) {
	var transfer *cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return fmt.Errorf("failed to load cash transfer: %w", err)
		}
		if transfer == nil {
			return shared.NewNotFoundError("UNKNOWN_TRANSFER", "Cash transfer does not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// ListTransfers returns transfers matching the filter.
func (s *TransferService) ListTransfers(ctx context.Context, filter cashdesk.TransferFilter) ([]cashdesk.CashTransfer, error) {
	var transfers []cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfers, err = repos.Transfers().FindAll(ctx, filter)
		return err
	})
	return transfers, err
}

// SweepExpired flips pending transfers whose token window has elapsed to
// expired. Acceptance already checks expiry at read time; the sweep only
// tidies the listing. Returns the number swept.
func (s *TransferService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	swept := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		expired, err := repos.Transfers().FindPendingExpiredBefore(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to list expired transfers: %w", err)
		}
		for i := range expired {
			transfer := &expired[i]
			if err := transfer.MarkExpired(now); err != nil {
				// Raced with an accept or reject; skip it.
				s.logger.Debug("transfer no longer expirable",
					zap.String("transfer_id", transfer.ID.String()), zap.Error(err))
				continue
			}
			if err := repos.Transfers().Save(ctx, transfer); err != nil {
				return fmt.Errorf("failed to persist expired transfer: %w", err)
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

func (s *TransferService) mutateTransfer(
	ctx context.Context,
	transferID uuid.UUID,
	mutate func(*cashdesk.CashTransfer) error,
) (*cashdesk.CashTransfer, error) {
	var transfer *cashdesk.CashTransfer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transfer, err = repos.Transfers().FindByID(ctx, transferID)
		if err != nil {
			return fmt.Errorf("failed to load cash transfer: %w", err)
		}
		if transfer == nil {
			return shared.NewNotFoundError("UNKNOWN_TRANSFER", "Cash transfer does not exist")
		}
		if err := mutate(transfer); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// flagSenderSession marks the sender's session as having a pending transfer.
// Runs in its own scope after the transfer committed.
func (s *TransferService) flagSenderSession(ctx context.Context, sessionID uuid.UUID) {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		session, err := repos.Sessions().FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return shared.NewNotFoundError("UNKNOWN_SESSION", "Drawer session does not exist")
		}
		session.FlagTransferPending(s.clock.Now())
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		s.logger.Warn("failed to flag transfer-pending on session",
			zap.String("session_id", sessionID.String()), zap.Error(err))
	}
}

func (s *TransferService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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

package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// AuthorizationService manages the refund authorization lifecycle: request,
// supervisor decision, and the background expiry sweep. Consumption happens
// in PaymentService.RecordRefund, atomically with the refund entry.
type AuthorizationService struct {
	scope     TransactionScope
	identity  acl.IdentityProvider
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	scope TransactionScope,
	identity acl.IdentityProvider,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		scope:     scope,
		identity:  identity,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// RequestAuthorization opens a pending refund authorization for later
// supervisor review.
func (s *AuthorizationService) RequestAuthorization(
	ctx context.Context,
	billable ledger.BillableRef,
	amount valueobject.Money,
	requestedBy uuid.UUID,
	reason string,
) (*ledger.RefundAuthorization, error) {
	var auth *ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.BillableItems().Exists(ctx, billable)
		if err != nil {
			return fmt.Errorf("failed to resolve billable item: %w", err)
		}
		if !exists {
			return shared.NewNotFoundError("UNKNOWN_BILLABLE_ITEM", "Referenced billable item does not exist")
		}

		auth, err = ledger.NewRefundAuthorization(billable, amount, requestedBy, s.clock.Now())
		if err != nil {
			return err
		}
		auth.Reason = reason

		return repos.Authorizations().Save(ctx, auth)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, auth)
	return auth, nil
}

// ApproveAuthorization records a supervisor's approval. A nil amount
// approves the full requested amount; a lower amount grants a partial
// authorization.
func (s *AuthorizationService) ApproveAuthorization(
	ctx context.Context,
	authorizationID uuid.UUID,
	approvedBy uuid.UUID,
	amount *decimal.Decimal,
) (*ledger.RefundAuthorization, error) {
	if err := s.requireSupervisor(ctx, approvedBy); err != nil {
		return nil, err
	}

	var auth *ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		auth, err = repos.Authorizations().FindByIDForUpdate(ctx, authorizationID)
		if err != nil {
			return fmt.Errorf("failed to load refund authorization: %w", err)
		}
		if auth == nil {
			return shared.NewNotFoundError("UNKNOWN_AUTHORIZATION", "Refund authorization does not exist")
		}
		if err := auth.Approve(approvedBy, amount, s.clock.Now()); err != nil {
			return err
		}
		return repos.Authorizations().Save(ctx, auth)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, auth)
	return auth, nil
}

// RejectAuthorization records a supervisor's rejection with a reason.
func (s *AuthorizationService) RejectAuthorization(
	ctx context.Context,
	authorizationID uuid.UUID,
	rejectedBy uuid.UUID,
	reason string,
) (*ledger.RefundAuthorization, error) {
	if err := s.requireSupervisor(ctx, rejectedBy); err != nil {
		return nil, err
	}

	var auth *ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		auth, err = repos.Authorizations().FindByIDForUpdate(ctx, authorizationID)
		if err != nil {
			return fmt.Errorf("failed to load refund authorization: %w", err)
		}
		if auth == nil {
			return shared.NewNotFoundError("UNKNOWN_AUTHORIZATION", "Refund authorization does not exist")
		}
		if err := auth.Reject(rejectedBy, reason, s.clock.Now()); err != nil {
			return err
		}
		return repos.Authorizations().Save(ctx, auth)
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// GetAuthorization loads a single authorization. The returned status reflects
// expiry as of now even if the sweep has not run yet.
func (s *AuthorizationService) GetAuthorization(ctx context.Context, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	var auth *ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		auth, err = repos.Authorizations().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load refund authorization: %w", err)
		}
		if auth == nil {
			return shared.NewNotFoundError("UNKNOWN_AUTHORIZATION", "Refund authorization does not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// ListAuthorizations returns authorizations matching the filter.
func (s *AuthorizationService) ListAuthorizations(ctx context.Context, filter ledger.AuthorizationFilter) ([]ledger.RefundAuthorization, error) {
	var auths []ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		auths, err = repos.Authorizations().FindAll(ctx, filter)
		return err
	})
	return auths, err
}

// SweepExpired flips approved authorizations whose validity window has
// elapsed to expired. Correctness does not depend on it running: usability
// checks evaluate expiry at read time. Returns the number swept.
func (s *AuthorizationService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	swept := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		expired, err := repos.Authorizations().FindApprovedExpiredBefore(ctx, now)
		if err != nil {
			return fmt.Errorf("failed to list expired authorizations: %w", err)
		}
		for i := range expired {
			auth := &expired[i]
			if err := auth.MarkExpired(now); err != nil {
				// Raced with a consume; skip it.
				s.logger.Debug("authorization no longer expirable",
					zap.String("authorization_id", auth.ID.String()), zap.Error(err))
				continue
			}
			if err := repos.Authorizations().Save(ctx, auth); err != nil {
				return fmt.Errorf("failed to persist expired authorization: %w", err)
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

func (s *AuthorizationService) requireSupervisor(ctx context.Context, userID uuid.UUID) error {
	ok, err := s.identity.HasRole(ctx, userID, acl.RoleCashSupervisor)
	if err != nil {
		return fmt.Errorf("failed to resolve roles: %w", err)
	}
	if !ok {
		return shared.NewAuthorizationError("NOT_SUPERVISOR",
			"Deciding refund authorizations requires the cash supervisor role")
	}
	return nil
}

func (s *AuthorizationService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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

package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// VaultService manages vault movements and their sign-off. Movements that
// require approval stay pending until a candidate approver resolves them;
// the balance only mutates inside the approving transaction, under the
// vault row lock.
type VaultService struct {
	scope     TransactionScope
	identity  acl.IdentityProvider
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewVaultService creates a new VaultService
func NewVaultService(
	scope TransactionScope,
	identity acl.IdentityProvider,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *VaultService {
	return &VaultService{
		scope:     scope,
		identity:  identity,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// ProposeTransaction proposes a vault movement. Movements that need no
// sign-off (deposits, transfers in, adjustments without a bank destination)
// complete immediately; the rest get a pending approval request whose
// candidate pool is the current set of treasury approvers, minus the
// proposer.
func (s *VaultService) ProposeTransaction(ctx context.Context, req ProposeTransactionRequest) (*ProposeTransactionResult, error) {
	now := s.clock.Now()
	var result ProposeTransactionResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		v, err := repos.Vaults().FindByIDForUpdate(ctx, req.VaultID)
		if err != nil {
			return fmt.Errorf("failed to load vault: %w", err)
		}
		if v == nil {
			return shared.NewNotFoundError("UNKNOWN_VAULT", "Vault does not exist")
		}
		if !v.IsActive {
			return shared.NewStateConflictError("VAULT_INACTIVE",
				fmt.Sprintf("Vault %s is not active", v.ID))
		}

		tx, err := vault.NewVaultTransaction(vault.NewVaultTransactionParams{
			VaultID:            req.VaultID,
			UserID:             req.UserID,
			Type:               req.Type,
			Amount:             req.Amount,
			SourceSessionID:    req.SourceSessionID,
			DestinationBankID:  req.DestinationBankID,
			DestinationVaultID: req.DestinationVaultID,
			Notes:              req.Notes,
		}, now)
		if err != nil {
			return err
		}

		if !tx.RequiresApproval() {
			if err := s.applyBalance(v, tx, now); err != nil {
				return err
			}
			if err := tx.Complete(now); err != nil {
				return err
			}
			if err := repos.Vaults().Save(ctx, v); err != nil {
				return fmt.Errorf("failed to save vault: %w", err)
			}
			if err := repos.Transactions().Save(ctx, tx); err != nil {
				return fmt.Errorf("failed to save vault transaction: %w", err)
			}
			result = ProposeTransactionResult{Transaction: tx}
			return nil
		}

		candidates, err := s.candidatePool(ctx, req.UserID)
		if err != nil {
			return err
		}
		approval, err := vault.NewApprovalRequest(tx.ID, candidates, now)
		if err != nil {
			return err
		}

		if err := repos.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save vault transaction: %w", err)
		}
		if err := repos.Approvals().Save(ctx, approval); err != nil {
			return fmt.Errorf("failed to save approval request: %w", err)
		}
		result = ProposeTransactionResult{Transaction: tx, Approval: approval}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Transaction)
	return &result, nil
}

// ApproveTransaction resolves a pending approval and applies the movement to
// the vault balance. The whole step is one transaction: a balance that
// cannot cover the debit rolls back the approval too.
func (s *VaultService) ApproveTransaction(ctx context.Context, approvalID, approvedBy uuid.UUID) (*ProposeTransactionResult, error) {
	now := s.clock.Now()
	var result ProposeTransactionResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		approval, err := repos.Approvals().FindByIDForUpdate(ctx, approvalID)
		if err != nil {
			return fmt.Errorf("failed to load approval request: %w", err)
		}
		if approval == nil {
			return shared.NewNotFoundError("UNKNOWN_APPROVAL", "Approval request does not exist")
		}
		if err := approval.Approve(approvedBy, now); err != nil {
			return err
		}

		tx, err := repos.Transactions().FindByID(ctx, approval.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to load vault transaction: %w", err)
		}
		if tx == nil {
			return shared.NewIntegrityError("ORPHAN_APPROVAL",
				fmt.Sprintf("Approval request %s references a missing transaction", approvalID))
		}

		v, err := repos.Vaults().FindByIDForUpdate(ctx, tx.VaultID)
		if err != nil {
			return fmt.Errorf("failed to load vault: %w", err)
		}
		if v == nil {
			return shared.NewNotFoundError("UNKNOWN_VAULT", "Vault does not exist")
		}

		if err := s.applyBalance(v, tx, now); err != nil {
			return err
		}
		if err := tx.Complete(now); err != nil {
			return err
		}

		if err := repos.Approvals().Save(ctx, approval); err != nil {
			return fmt.Errorf("failed to save approval request: %w", err)
		}
		if err := repos.Vaults().Save(ctx, v); err != nil {
			return fmt.Errorf("failed to save vault: %w", err)
		}
		if err := repos.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save vault transaction: %w", err)
		}
		result = ProposeTransactionResult{Transaction: tx, Approval: approval}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.Transaction)
	return &result, nil
}

// RejectTransaction resolves a pending approval negatively. The transaction
// terminates and the balance never mutates.
func (s *VaultService) RejectTransaction(ctx context.Context, approvalID, rejectedBy uuid.UUID, reason string) (*ProposeTransactionResult, error) {
	now := s.clock.Now()
	var result ProposeTransactionResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		approval, err := repos.Approvals().FindByIDForUpdate(ctx, approvalID)
		if err != nil {
			return fmt.Errorf("failed to load approval request: %w", err)
		}
		if approval == nil {
			return shared.NewNotFoundError("UNKNOWN_APPROVAL", "Approval request does not exist")
		}
		if err := approval.Reject(rejectedBy, reason, now); err != nil {
			return err
		}

		tx, err := repos.Transactions().FindByID(ctx, approval.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to load vault transaction: %w", err)
		}
		if tx == nil {
			return shared.NewIntegrityError("ORPHAN_APPROVAL",
				fmt.Sprintf("Approval request %s references a missing transaction", approvalID))
		}
		if err := tx.MarkRejected(now); err != nil {
			return err
		}

		if err := repos.Approvals().Save(ctx, approval); err != nil {
			return fmt.Errorf("failed to save approval request: %w", err)
		}
		if err := repos.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save vault transaction: %w", err)
		}
		result = ProposeTransactionResult{Transaction: tx, Approval: approval}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransaction loads a vault transaction with its approval, if any.
func (s *VaultService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*ProposeTransactionResult, error) {
	var result ProposeTransactionResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := repos.Transactions().FindByID(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to load vault transaction: %w", err)
		}
		if tx == nil {
			return shared.NewNotFoundError("UNKNOWN_TRANSACTION", "Vault transaction does not exist")
		}
		approval, err := repos.Approvals().FindByTransaction(ctx, transactionID)
		if err != nil {
			return fmt.Errorf("failed to load approval request: %w", err)
		}
		result = ProposeTransactionResult{Transaction: tx, Approval: approval}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTransactions returns vault transactions matching the filter.
func (s *VaultService) ListTransactions(ctx context.Context, filter vault.TransactionFilter) ([]vault.VaultTransaction, error) {
	var txs []vault.VaultTransaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		txs, err = repos.Transactions().FindAll(ctx, filter)
		return err
	})
	return txs, err
}

// ListPendingApprovals returns unresolved approvals the user may act on.
func (s *VaultService) ListPendingApprovals(ctx context.Context, userID uuid.UUID) ([]vault.ApprovalRequest, error) {
	var approvals []vault.ApprovalRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		approvals, err = repos.Approvals().FindPendingForCandidate(ctx, userID)
		return err
	})
	return approvals, err
}

// GetVault loads a vault with its current balance.
func (s *VaultService) GetVault(ctx context.Context, vaultID uuid.UUID) (*vault.Vault, error) {
	var v *vault.Vault
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		v, err = repos.Vaults().FindByID(ctx, vaultID)
		if err != nil {
			return fmt.Errorf("failed to load vault: %w", err)
		}
		if v == nil {
			return shared.NewNotFoundError("UNKNOWN_VAULT", "Vault does not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// applyBalance applies the movement to the locked vault. Vault-to-vault
// transfers only debit the source here; the counterpart transfer-in is
// proposed against the destination vault once the cash arrives.
func (s *VaultService) applyBalance(v *vault.Vault, tx *vault.VaultTransaction, now time.Time) error {
	if tx.Type.IsCredit() {
		return v.Credit(tx.Amount, now)
	}
	return v.Debit(tx.Amount, now)
}

// candidatePool resolves the current treasury approvers, excluding the
// proposer so no movement is self-approved.
func (s *VaultService) candidatePool(ctx context.Context, proposer uuid.UUID) (vault.CandidateSet, error) {
	approvers, err := s.identity.UsersWithRole(ctx, acl.RoleTreasuryApprover)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approver pool: %w", err)
	}
	pool := make([]uuid.UUID, 0, len(approvers))
	for _, id := range approvers {
		if id != proposer {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return nil, shared.NewStateConflictError("EMPTY_CANDIDATE_POOL",
			"No eligible approver exists for this movement")
	}
	return vault.NewCandidateSet(pool...), nil
}

func (s *VaultService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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

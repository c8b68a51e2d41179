package vault

import (
	"context"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// TransactionScope provides transactional access to the vault repositories.
// Balance adjustments take the vault row lock inside this scope so the
// insufficient-balance check and the debit are one atomic step.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the vault repositories
// within a transaction.
type TransactionalRepositories interface {
	// Vaults returns the vault repository scoped to the current transaction
	Vaults() vault.VaultRepository
	// Transactions returns the vault transaction repository scoped to the current transaction
	Transactions() vault.VaultTransactionRepository
	// Approvals returns the approval request repository scoped to the current transaction
	Approvals() vault.ApprovalRequestRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	VaultRepo       vault.VaultRepository
	TransactionRepo vault.VaultTransactionRepository
	ApprovalRepo    vault.ApprovalRequestRepository
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Vaults returns the vault repository
func (s *NoOpTransactionScope) Vaults() vault.VaultRepository { return s.VaultRepo }

// Transactions returns the vault transaction repository
func (s *NoOpTransactionScope) Transactions() vault.VaultTransactionRepository {
	return s.TransactionRepo
}

// Approvals returns the approval request repository
func (s *NoOpTransactionScope) Approvals() vault.ApprovalRequestRepository { return s.ApprovalRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

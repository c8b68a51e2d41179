package persistence

import (
	"context"

	"gorm.io/gorm"

	appvault "github.com/hodaifayahia/HIS-sub012/internal/application/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// GormVaultTransactionScope implements the vault TransactionScope using GORM
// transactions.
type GormVaultTransactionScope struct {
	db *gorm.DB
}

// NewGormVaultTransactionScope creates a new GormVaultTransactionScope.
func NewGormVaultTransactionScope(db *gorm.DB) *GormVaultTransactionScope {
	return &GormVaultTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormVaultTransactionScope) Execute(ctx context.Context, fn func(repos appvault.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormVaultRepositories{tx: tx}
		return fn(repos)
	})
}

// gormVaultRepositories provides access to the vault repositories within a transaction.
type gormVaultRepositories struct {
	tx *gorm.DB
}

// Vaults returns the vault repository scoped to the current transaction.
func (r *gormVaultRepositories) Vaults() vault.VaultRepository {
	return NewGormVaultRepository(r.tx)
}

// Transactions returns the vault transaction repository scoped to the current transaction.
func (r *gormVaultRepositories) Transactions() vault.VaultTransactionRepository {
	return NewGormVaultTransactionRepository(r.tx)
}

// Approvals returns the approval request repository scoped to the current transaction.
func (r *gormVaultRepositories) Approvals() vault.ApprovalRequestRepository {
	return NewGormApprovalRequestRepository(r.tx)
}

// Ensure GormVaultTransactionScope implements TransactionScope
var _ appvault.TransactionScope = (*GormVaultTransactionScope)(nil)

// Ensure gormVaultRepositories implements TransactionalRepositories
var _ appvault.TransactionalRepositories = (*gormVaultRepositories)(nil)

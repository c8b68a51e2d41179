package persistence

import (
	"context"

	"gorm.io/gorm"

	appledger "github.com/hodaifayahia/HIS-sub012/internal/application/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
)

// GormLedgerTransactionScope implements the ledger TransactionScope using
// GORM transactions. It provides atomic execution of multiple repository
// operations.
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope.
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormLedgerRepositories{tx: tx}
		return fn(repos)
	})
}

// gormLedgerRepositories provides access to the ledger repositories within a transaction.
type gormLedgerRepositories struct {
	tx *gorm.DB
}

// Entries returns the ledger entry repository scoped to the current transaction.
func (r *gormLedgerRepositories) Entries() ledger.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Authorizations returns the refund authorization repository scoped to the current transaction.
func (r *gormLedgerRepositories) Authorizations() ledger.RefundAuthorizationRepository {
	return NewGormRefundAuthorizationRepository(r.tx)
}

// BankRequests returns the bank transaction request repository scoped to the current transaction.
func (r *gormLedgerRepositories) BankRequests() ledger.BankTransactionRequestRepository {
	return NewGormBankTransactionRequestRepository(r.tx)
}

// BillableItems returns the billable-item provider scoped to the current transaction.
func (r *gormLedgerRepositories) BillableItems() acl.BillableItemProvider {
	return NewGormBillableItemProvider(r.tx)
}

// Ensure GormLedgerTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormLedgerTransactionScope)(nil)

// Ensure gormLedgerRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormLedgerRepositories)(nil)

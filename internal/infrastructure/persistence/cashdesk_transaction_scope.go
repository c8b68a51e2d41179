package persistence

import (
	"context"

	"gorm.io/gorm"

	appcashdesk "github.com/hodaifayahia/HIS-sub012/internal/application/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
)

// GormCashdeskTransactionScope implements the cash-desk TransactionScope
// using GORM transactions.
type GormCashdeskTransactionScope struct {
	db *gorm.DB
}

// NewGormCashdeskTransactionScope creates a new GormCashdeskTransactionScope.
func NewGormCashdeskTransactionScope(db *gorm.DB) *GormCashdeskTransactionScope {
	return &GormCashdeskTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormCashdeskTransactionScope) Execute(ctx context.Context, fn func(repos appcashdesk.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormCashdeskRepositories{tx: tx}
		return fn(repos)
	})
}

// gormCashdeskRepositories provides access to the cash-desk repositories within a transaction.
type gormCashdeskRepositories struct {
	tx *gorm.DB
}

// Sessions returns the drawer session repository scoped to the current transaction.
func (r *gormCashdeskRepositories) Sessions() cashdesk.DrawerSessionRepository {
	return NewGormDrawerSessionRepository(r.tx)
}

// Transfers returns the cash transfer repository scoped to the current transaction.
func (r *gormCashdeskRepositories) Transfers() cashdesk.CashTransferRepository {
	return NewGormCashTransferRepository(r.tx)
}

// Ensure GormCashdeskTransactionScope implements TransactionScope
var _ appcashdesk.TransactionScope = (*GormCashdeskTransactionScope)(nil)

// Ensure gormCashdeskRepositories implements TransactionalRepositories
var _ appcashdesk.TransactionalRepositories = (*gormCashdeskRepositories)(nil)

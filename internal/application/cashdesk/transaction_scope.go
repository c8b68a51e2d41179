package cashdesk

import (
	"context"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
)

// TransactionScope provides transactional access to the cash-desk
// repositories. Session opens take a row lock on the caisse's active
// session inside this scope so duplicate opens serialize.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the cash-desk repositories
// within a transaction.
type TransactionalRepositories interface {
	// Sessions returns the drawer session repository scoped to the current transaction
	Sessions() cashdesk.DrawerSessionRepository
	// Transfers returns the cash transfer repository scoped to the current transaction
	Transfers() cashdesk.CashTransferRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	SessionRepo  cashdesk.DrawerSessionRepository
	TransferRepo cashdesk.CashTransferRepository
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Sessions returns the drawer session repository
func (s *NoOpTransactionScope) Sessions() cashdesk.DrawerSessionRepository { return s.SessionRepo }

// Transfers returns the cash transfer repository
func (s *NoOpTransactionScope) Transfers() cashdesk.CashTransferRepository { return s.TransferRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

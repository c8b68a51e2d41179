package ledger

import (
	"context"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository and
// billable-item operations are part of the same database transaction and
// commit or roll back atomically. Partial application (ledger write without
// the item balance update, or an authorization consumed without its refund
// entry) is the principal correctness risk in this domain.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories
// within a transaction. The billable-item provider participates so that the
// cached remaining-amount refresh commits with the entry that caused it.
type TransactionalRepositories interface {
	// Entries returns the ledger entry repository scoped to the current transaction
	Entries() ledger.LedgerEntryRepository
	// Authorizations returns the refund authorization repository scoped to the current transaction
	Authorizations() ledger.RefundAuthorizationRepository
	// BankRequests returns the bank transaction request repository scoped to the current transaction
	BankRequests() ledger.BankTransactionRequestRepository
	// BillableItems returns the billable-item provider scoped to the current transaction
	BillableItems() acl.BillableItemProvider
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	EntryRepo    ledger.LedgerEntryRepository
	AuthRepo     ledger.RefundAuthorizationRepository
	BankRepo     ledger.BankTransactionRequestRepository
	BillableRepo acl.BillableItemProvider
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.LedgerEntryRepository { return s.EntryRepo }

// Authorizations returns the refund authorization repository
func (s *NoOpTransactionScope) Authorizations() ledger.RefundAuthorizationRepository {
	return s.AuthRepo
}

// BankRequests returns the bank transaction request repository
func (s *NoOpTransactionScope) BankRequests() ledger.BankTransactionRequestRepository {
	return s.BankRepo
}

// BillableItems returns the billable-item provider
func (s *NoOpTransactionScope) BillableItems() acl.BillableItemProvider { return s.BillableRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

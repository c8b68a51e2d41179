package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// EntryFilter defines filtering options for ledger entry queries
type EntryFilter struct {
	shared.Filter
	PatientID *uuid.UUID
	CashierID *uuid.UUID
	SessionID *uuid.UUID
	Kind      *EntryKind
	Method    *PaymentMethod
	Status    *EntryStatus
	FromDate  *time.Time
	ToDate    *time.Time
}

// LedgerEntryRepository defines the interface for ledger entry persistence
type LedgerEntryRepository interface {
	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)

	// FindByBillable finds all entries recorded against a billable reference,
	// oldest first
	FindByBillable(ctx context.Context, ref BillableRef) ([]LedgerEntry, error)

	// FindByBillableForUpdate behaves like FindByBillable but takes a
	// row-level lock on the matched entries, serializing concurrent balance
	// recomputation for the same item
	FindByBillableForUpdate(ctx context.Context, ref BillableRef) ([]LedgerEntry, error)

	// FindAll finds entries with filtering
	FindAll(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error)

	// Save creates or updates an entry
	Save(ctx context.Context, entry *LedgerEntry) error

	// Count counts entries matching the filter
	Count(ctx context.Context, filter EntryFilter) (int64, error)
}

// AuthorizationFilter defines filtering options for refund authorization queries
type AuthorizationFilter struct {
	shared.Filter
	Status      *AuthorizationStatus
	RequestedBy *uuid.UUID
	FromDate    *time.Time
	ToDate      *time.Time
}

// RefundAuthorizationRepository defines the interface for refund authorization persistence
type RefundAuthorizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RefundAuthorization, error)

	// FindByIDForUpdate locks the row so that exactly one refund can consume
	// the authorization
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RefundAuthorization, error)

	FindAll(ctx context.Context, filter AuthorizationFilter) ([]RefundAuthorization, error)

	// FindApprovedExpiredBefore returns approved authorizations whose expiry
	// has passed, for the cleanup sweep
	FindApprovedExpiredBefore(ctx context.Context, cutoff time.Time) ([]RefundAuthorization, error)

	Save(ctx context.Context, authorization *RefundAuthorization) error
}

// BankRequestFilter defines filtering options for bank transaction request queries
type BankRequestFilter struct {
	shared.Filter
	Status      *BankRequestStatus
	RequestedBy *uuid.UUID
}

// BankTransactionRequestRepository defines the interface for bank request persistence
type BankTransactionRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankTransactionRequest, error)
	FindByLedgerEntry(ctx context.Context, entryID uuid.UUID) (*BankTransactionRequest, error)
	FindAll(ctx context.Context, filter BankRequestFilter) ([]BankTransactionRequest, error)
	Save(ctx context.Context, request *BankTransactionRequest) error
}

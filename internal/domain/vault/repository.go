package vault

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// TransactionFilter defines filtering options for vault transaction queries
type TransactionFilter struct {
	shared.Filter
	VaultID  *uuid.UUID
	UserID   *uuid.UUID
	Type     *TransactionType
	Status   *TransactionStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// VaultRepository defines the interface for vault persistence
type VaultRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vault, error)

	// FindByIDForUpdate locks the vault row so balance adjustments serialize
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Vault, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Vault, error)

	Save(ctx context.Context, vault *Vault) error
}

// VaultTransactionRepository defines the interface for vault transaction persistence
type VaultTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VaultTransaction, error)
	FindAll(ctx context.Context, filter TransactionFilter) ([]VaultTransaction, error)
	Save(ctx context.Context, transaction *VaultTransaction) error
	Count(ctx context.Context, filter TransactionFilter) (int64, error)
}

// ApprovalRequestRepository defines the interface for approval request persistence
type ApprovalRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)

	// FindByIDForUpdate locks the request row so concurrent resolutions
	// serialize
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)

	FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*ApprovalRequest, error)

	// FindPendingForCandidate lists unresolved requests a user may act on
	FindPendingForCandidate(ctx context.Context, userID uuid.UUID) ([]ApprovalRequest, error)

	Save(ctx context.Context, request *ApprovalRequest) error
}

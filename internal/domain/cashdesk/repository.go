package cashdesk

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// SessionFilter defines filtering options for drawer session queries
type SessionFilter struct {
	shared.Filter
	CaisseID *uuid.UUID
	UserID   *uuid.UUID
	Status   *SessionStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// DrawerSessionRepository defines the interface for drawer session persistence
type DrawerSessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DrawerSession, error)

	// FindActiveByCaisse returns the open or suspended session for a caisse,
	// or nil. Called under the caisse lock when opening.
	FindActiveByCaisse(ctx context.Context, caisseID uuid.UUID) (*DrawerSession, error)

	// FindActiveByCaisseForUpdate locks the active-session row (or gap) so
	// concurrent opens on the same caisse serialize
	FindActiveByCaisseForUpdate(ctx context.Context, caisseID uuid.UUID) (*DrawerSession, error)

	FindAll(ctx context.Context, filter SessionFilter) ([]DrawerSession, error)

	Save(ctx context.Context, session *DrawerSession) error

	Count(ctx context.Context, filter SessionFilter) (int64, error)
}

// TransferFilter defines filtering options for cash transfer queries
type TransferFilter struct {
	shared.Filter
	CaisseID *uuid.UUID
	FromUser *uuid.UUID
	ToUser   *uuid.UUID
	Status   *TransferStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// CashTransferRepository defines the interface for cash transfer persistence
type CashTransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CashTransfer, error)

	FindAll(ctx context.Context, filter TransferFilter) ([]CashTransfer, error)

	// FindPendingExpiredBefore returns pending transfers whose token window
	// has passed, for the cleanup sweep
	FindPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]CashTransfer, error)

	Save(ctx context.Context, transfer *CashTransfer) error

	// SaveAcceptance persists an accepted transfer with a compare-and-swap
	// on status: the update only applies if the stored status is still
	// pending. Returns shared.ErrConcurrencyConflict-kind error when another
	// accept won the race.
	SaveAcceptance(ctx context.Context, transfer *CashTransfer) error
}

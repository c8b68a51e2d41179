package acl

import (
	"context"

	"github.com/google/uuid"
)

// BankAccountProvider is the ledger's view of the treasury configuration
// context. Referential integrity is checked at entry creation; an inactive
// account is still a valid reference here, rejecting it is caller policy.
type BankAccountProvider interface {
	// Exists reports whether the bank account reference is known
	Exists(ctx context.Context, accountID uuid.UUID) (bool, error)

	// IsActive reports the account's active flag
	IsActive(ctx context.Context, accountID uuid.UUID) (bool, error)
}

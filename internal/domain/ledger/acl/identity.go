package acl

import (
	"context"

	"github.com/google/uuid"
)

// Role is a permission role resolved by the identity context
type Role string

const (
	// RoleCashSupervisor may override drawer-session ownership checks and
	// approve refund authorizations
	RoleCashSupervisor Role = "cash_supervisor"
	// RoleTreasuryApprover may approve bank transaction requests and sits in
	// the vault approval candidate pool
	RoleTreasuryApprover Role = "treasury_approver"
)

// IdentityProvider is the cash-custody contexts' view of the identity and
// authorization context.
type IdentityProvider interface {
	// Exists reports whether the user reference is known
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)

	// HasRole reports whether the user carries the given role
	HasRole(ctx context.Context, userID uuid.UUID, role Role) (bool, error)

	// UsersWithRole resolves the user ids carrying a role, used to build
	// candidate approver pools
	UsersWithRole(ctx context.Context, role Role) ([]uuid.UUID, error)
}

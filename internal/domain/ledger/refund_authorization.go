package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// AuthorizationValidity is how long an approved refund authorization stays usable.
const AuthorizationValidity = 7 * 24 * time.Hour

// AuthorizationStatus represents the status of a refund authorization
type AuthorizationStatus string

const (
	AuthorizationStatusPending  AuthorizationStatus = "PENDING"
	AuthorizationStatusApproved AuthorizationStatus = "APPROVED"
	AuthorizationStatusRejected AuthorizationStatus = "REJECTED"
	AuthorizationStatusExpired  AuthorizationStatus = "EXPIRED"
	AuthorizationStatusUsed     AuthorizationStatus = "USED"
)

// IsValid checks if the status is a valid AuthorizationStatus
func (s AuthorizationStatus) IsValid() bool {
	switch s {
	case AuthorizationStatusPending, AuthorizationStatusApproved, AuthorizationStatusRejected,
		AuthorizationStatusExpired, AuthorizationStatusUsed:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is possible
func (s AuthorizationStatus) IsTerminal() bool {
	return s == AuthorizationStatusRejected || s == AuthorizationStatusExpired || s == AuthorizationStatusUsed
}

// String returns the string representation of AuthorizationStatus
func (s AuthorizationStatus) String() string {
	return string(s)
}

// RefundAuthorization is the pre-approval gate that must exist and be
// unexpired before a refund ledger entry above the risk threshold is
// created. It is consumed by exactly one refund.
type RefundAuthorization struct {
	shared.BaseAggregateRoot

	Billable         BillableRef      `json:"billable"`
	RequestedAmount  decimal.Decimal  `json:"requested_amount"`
	AuthorizedAmount *decimal.Decimal `json:"authorized_amount,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	Status           AuthorizationStatus `json:"status"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	RequestedBy      uuid.UUID        `json:"requested_by"`
	AuthorizedBy     *uuid.UUID       `json:"authorized_by,omitempty"`
	RejectReason     string           `json:"reject_reason,omitempty"`
	ConsumedByEntry  *uuid.UUID       `json:"consumed_by_entry,omitempty"`
}

// NewRefundAuthorization creates a pending refund authorization request
func NewRefundAuthorization(billable BillableRef, amount valueobject.Money, requestedBy uuid.UUID, now time.Time) (*RefundAuthorization, error) {
	if err := billable.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Requested amount must be positive")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_REQUESTER", "Requester cannot be empty")
	}

	ra := &RefundAuthorization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Billable:          billable,
		RequestedAmount:   amount.Amount(),
		Status:            AuthorizationStatusPending,
		RequestedBy:       requestedBy,
	}

	ra.AddDomainEvent(NewRefundAuthorizationRequestedEvent(ra, now))

	return ra, nil
}

// CanBeApproved reports whether the authorization is still awaiting a decision
func (a *RefundAuthorization) CanBeApproved() bool {
	return a.Status == AuthorizationStatusPending
}

// Approve grants the authorization. The authorized amount defaults to the
// requested amount when not overridden. Expiry is set relative to now.
func (a *RefundAuthorization) Approve(by uuid.UUID, amount *decimal.Decimal, now time.Time) error {
	if !a.CanBeApproved() {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot approve refund authorization %s in %s status", a.ID, a.Status))
	}
	if by == uuid.Nil {
		return shared.NewValidationError("INVALID_APPROVER", "Approver cannot be empty")
	}

	authorized := a.RequestedAmount
	if amount != nil {
		if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(a.RequestedAmount) {
			return shared.NewValidationError("INVALID_AMOUNT",
				"Authorized amount must be positive and not exceed the requested amount")
		}
		authorized = *amount
	}

	expires := now.Add(AuthorizationValidity)
	a.Status = AuthorizationStatusApproved
	a.AuthorizedAmount = &authorized
	a.AuthorizedBy = &by
	a.ExpiresAt = &expires
	a.UpdatedAt = now

	a.AddDomainEvent(NewRefundAuthorizationApprovedEvent(a, now))

	return nil
}

// Reject refuses the authorization. A reason is required.
func (a *RefundAuthorization) Reject(by uuid.UUID, reason string, now time.Time) error {
	if !a.CanBeApproved() {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot reject refund authorization %s in %s status", a.ID, a.Status))
	}
	if reason == "" {
		return shared.NewValidationError("MISSING_REASON", "Rejection requires a reason")
	}

	a.Status = AuthorizationStatusRejected
	a.AuthorizedBy = &by
	a.RejectReason = reason
	a.UpdatedAt = now

	return nil
}

// IsExpired reports whether an approved authorization has passed its expiry.
// Expiry is a read-time derived condition, not a scheduled transition.
func (a *RefundAuthorization) IsExpired(now time.Time) bool {
	return a.Status == AuthorizationStatusApproved && a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// EffectiveStatus resolves the read-time status, folding in expiry
func (a *RefundAuthorization) EffectiveStatus(now time.Time) AuthorizationStatus {
	if a.IsExpired(now) {
		return AuthorizationStatusExpired
	}
	return a.Status
}

// IsUsable reports whether a refund can consume this authorization now
func (a *RefundAuthorization) IsUsable(now time.Time) bool {
	return a.Status == AuthorizationStatusApproved && !a.IsExpired(now)
}

// Consume transitions the authorization to used. It must happen atomically
// with the creation of the consuming refund entry (exactly once).
func (a *RefundAuthorization) Consume(entryID uuid.UUID, now time.Time) error {
	if !a.IsUsable(now) {
		return shared.NewStateConflictError("AUTHORIZATION_NOT_USABLE",
			fmt.Sprintf("Refund authorization %s is %s and cannot be consumed", a.ID, a.EffectiveStatus(now)))
	}
	a.Status = AuthorizationStatusUsed
	a.ConsumedByEntry = &entryID
	a.UpdatedAt = now

	a.AddDomainEvent(NewRefundAuthorizationConsumedEvent(a, now))

	return nil
}

// MarkExpired persists the derived expired state. Used by cleanup sweeps
// only; correctness never depends on it running.
func (a *RefundAuthorization) MarkExpired(now time.Time) error {
	if !a.IsExpired(now) {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Refund authorization %s is not expired", a.ID))
	}
	a.Status = AuthorizationStatusExpired
	a.UpdatedAt = now
	return nil
}

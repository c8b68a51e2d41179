package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// RefundAuthorizationRequestedEvent is raised when a refund authorization is requested
type RefundAuthorizationRequestedEvent struct {
	shared.BaseDomainEvent
	Billable        BillableRef     `json:"billable"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	RequestedBy     uuid.UUID       `json:"requested_by"`
}

// EventType returns the event type name
func (e *RefundAuthorizationRequestedEvent) EventType() string {
	return "RefundAuthorizationRequested"
}

// NewRefundAuthorizationRequestedEvent creates a new RefundAuthorizationRequestedEvent
func NewRefundAuthorizationRequestedEvent(a *RefundAuthorization, now time.Time) *RefundAuthorizationRequestedEvent {
	return &RefundAuthorizationRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundAuthorizationRequested", "RefundAuthorization", a.ID, now),
		Billable:        a.Billable,
		RequestedAmount: a.RequestedAmount,
		RequestedBy:     a.RequestedBy,
	}
}

// RefundAuthorizationApprovedEvent is raised when a refund authorization is approved
type RefundAuthorizationApprovedEvent struct {
	shared.BaseDomainEvent
	AuthorizedAmount decimal.Decimal `json:"authorized_amount"`
	AuthorizedBy     uuid.UUID       `json:"authorized_by"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// EventType returns the event type name
func (e *RefundAuthorizationApprovedEvent) EventType() string {
	return "RefundAuthorizationApproved"
}

// NewRefundAuthorizationApprovedEvent creates a new RefundAuthorizationApprovedEvent
func NewRefundAuthorizationApprovedEvent(a *RefundAuthorization, now time.Time) *RefundAuthorizationApprovedEvent {
	e := &RefundAuthorizationApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundAuthorizationApproved", "RefundAuthorization", a.ID, now),
	}
	if a.AuthorizedAmount != nil {
		e.AuthorizedAmount = *a.AuthorizedAmount
	}
	if a.AuthorizedBy != nil {
		e.AuthorizedBy = *a.AuthorizedBy
	}
	if a.ExpiresAt != nil {
		e.ExpiresAt = *a.ExpiresAt
	}
	return e
}

// RefundAuthorizationConsumedEvent is raised when a refund consumes its authorization
type RefundAuthorizationConsumedEvent struct {
	shared.BaseDomainEvent
	ConsumedByEntry uuid.UUID `json:"consumed_by_entry"`
}

// EventType returns the event type name
func (e *RefundAuthorizationConsumedEvent) EventType() string {
	return "RefundAuthorizationConsumed"
}

// NewRefundAuthorizationConsumedEvent creates a new RefundAuthorizationConsumedEvent
func NewRefundAuthorizationConsumedEvent(a *RefundAuthorization, now time.Time) *RefundAuthorizationConsumedEvent {
	e := &RefundAuthorizationConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RefundAuthorizationConsumed", "RefundAuthorization", a.ID, now),
	}
	if a.ConsumedByEntry != nil {
		e.ConsumedByEntry = *a.ConsumedByEntry
	}
	return e
}

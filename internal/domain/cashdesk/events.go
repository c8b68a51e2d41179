package cashdesk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// DrawerSessionOpenedEvent is raised when a drawer session opens
type DrawerSessionOpenedEvent struct {
	shared.BaseDomainEvent
	CaisseID      uuid.UUID       `json:"caisse_id"`
	UserID        uuid.UUID       `json:"user_id"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

// EventType returns the event type name
func (e *DrawerSessionOpenedEvent) EventType() string {
	return "DrawerSessionOpened"
}

// NewDrawerSessionOpenedEvent creates a new DrawerSessionOpenedEvent
func NewDrawerSessionOpenedEvent(s *DrawerSession, now time.Time) *DrawerSessionOpenedEvent {
	return &DrawerSessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DrawerSessionOpened", "DrawerSession", s.ID, now),
		CaisseID:        s.CaisseID,
		UserID:          s.UserID,
		OpeningAmount:   s.OpeningAmount,
	}
}

// DrawerSessionClosedEvent is raised when a drawer session closes. Variance
// is carried so listeners can flag discrepancies without recomputing.
type DrawerSessionClosedEvent struct {
	shared.BaseDomainEvent
	CaisseID         uuid.UUID       `json:"caisse_id"`
	UserID           uuid.UUID       `json:"user_id"`
	TotalCashCounted decimal.Decimal `json:"total_cash_counted"`
	CashDifference   decimal.Decimal `json:"cash_difference"`
	Variance         decimal.Decimal `json:"variance"`
}

// EventType returns the event type name
func (e *DrawerSessionClosedEvent) EventType() string {
	return "DrawerSessionClosed"
}

// NewDrawerSessionClosedEvent creates a new DrawerSessionClosedEvent
func NewDrawerSessionClosedEvent(s *DrawerSession, variance decimal.Decimal, now time.Time) *DrawerSessionClosedEvent {
	e := &DrawerSessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DrawerSessionClosed", "DrawerSession", s.ID, now),
		CaisseID:        s.CaisseID,
		UserID:          s.UserID,
		Variance:        variance,
	}
	if s.TotalCashCounted != nil {
		e.TotalCashCounted = *s.TotalCashCounted
	}
	if s.CashDifference != nil {
		e.CashDifference = *s.CashDifference
	}
	return e
}

// CashTransferInitiatedEvent is raised when a cash transfer is initiated.
// The token itself is never carried on events.
type CashTransferInitiatedEvent struct {
	shared.BaseDomainEvent
	CaisseID   uuid.UUID       `json:"caisse_id"`
	FromUserID uuid.UUID       `json:"from_user_id"`
	ToUserID   uuid.UUID       `json:"to_user_id"`
	AmountSent decimal.Decimal `json:"amount_sent"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// EventType returns the event type name
func (e *CashTransferInitiatedEvent) EventType() string {
	return "CashTransferInitiated"
}

// NewCashTransferInitiatedEvent creates a new CashTransferInitiatedEvent
func NewCashTransferInitiatedEvent(t *CashTransfer, now time.Time) *CashTransferInitiatedEvent {
	return &CashTransferInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashTransferInitiated", "CashTransfer", t.ID, now),
		CaisseID:        t.CaisseID,
		FromUserID:      t.FromUserID,
		ToUserID:        t.ToUserID,
		AmountSent:      t.AmountSent,
		ExpiresAt:       t.TokenExpiresAt,
	}
}

// CashTransferAcceptedEvent is raised when the receiver accepts a transfer
type CashTransferAcceptedEvent struct {
	shared.BaseDomainEvent
	FromUserID     uuid.UUID       `json:"from_user_id"`
	ToUserID       uuid.UUID       `json:"to_user_id"`
	AmountSent     decimal.Decimal `json:"amount_sent"`
	AmountReceived decimal.Decimal `json:"amount_received"`
}

// EventType returns the event type name
func (e *CashTransferAcceptedEvent) EventType() string {
	return "CashTransferAccepted"
}

// NewCashTransferAcceptedEvent creates a new CashTransferAcceptedEvent
func NewCashTransferAcceptedEvent(t *CashTransfer, now time.Time) *CashTransferAcceptedEvent {
	e := &CashTransferAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashTransferAccepted", "CashTransfer", t.ID, now),
		FromUserID:      t.FromUserID,
		ToUserID:        t.ToUserID,
		AmountSent:      t.AmountSent,
	}
	if t.AmountReceived != nil {
		e.AmountReceived = *t.AmountReceived
	}
	return e
}

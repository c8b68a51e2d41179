package cashdesk

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// SessionStatus represents the status of a drawer session
type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "OPEN"
	SessionStatusSuspended SessionStatus = "SUSPENDED"
	SessionStatusClosed    SessionStatus = "CLOSED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusOpen, SessionStatusSuspended, SessionStatusClosed:
		return true
	}
	return false
}

// IsActive returns true while the session still blocks opening another one
// on the same caisse
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusOpen || s == SessionStatusSuspended
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// DenominationType distinguishes coins from notes
type DenominationType string

const (
	DenominationCoin DenominationType = "COIN"
	DenominationNote DenominationType = "NOTE"
)

// IsValid checks if the type is a valid DenominationType
func (t DenominationType) IsValid() bool {
	return t == DenominationCoin || t == DenominationNote
}

// Denomination is one coin or note value counted at drawer close
type Denomination struct {
	Value    decimal.Decimal  `json:"value"`
	Type     DenominationType `json:"type"`
	Quantity int              `json:"quantity"`
}

// Subtotal returns value × quantity
func (d Denomination) Subtotal() decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Validate checks the denomination line
func (d Denomination) Validate() error {
	if !d.Type.IsValid() {
		return shared.NewValidationError("INVALID_DENOMINATION_TYPE", "Denomination type must be coin or note")
	}
	if !d.Value.IsPositive() {
		return shared.NewValidationError("INVALID_DENOMINATION_VALUE", "Denomination value must be positive")
	}
	if d.Quantity < 0 {
		return shared.NewValidationError("INVALID_DENOMINATION_QUANTITY", "Denomination quantity cannot be negative")
	}
	return nil
}

// SumDenominations totals an ordered denomination count
func SumDenominations(denominations []Denomination) decimal.Decimal {
	total := decimal.Zero
	for _, d := range denominations {
		total = total.Add(d.Subtotal())
	}
	return total
}

// CloseResult carries the diagnostic figures computed at drawer close.
// A non-zero variance does not block closing but must be surfaced.
type CloseResult struct {
	TotalCashCounted decimal.Decimal `json:"total_cash_counted"`
	CashDifference   decimal.Decimal `json:"cash_difference"`
	Variance         decimal.Decimal `json:"variance"`
}

// DrawerSession is the open-to-close working period of one cashier at one
// caisse. At most one open or suspended session may exist per caisse; the
// repository serializes opening to uphold that.
type DrawerSession struct {
	shared.BaseAggregateRoot

	CaisseID uuid.UUID `json:"caisse_id"`
	UserID   uuid.UUID `json:"user_id"`
	OpenedBy uuid.UUID `json:"opened_by"`
	ClosedBy *uuid.UUID `json:"closed_by,omitempty"`

	Status SessionStatus `json:"status"`

	OpeningAmount         decimal.Decimal  `json:"opening_amount"`
	ClosingAmount         *decimal.Decimal `json:"closing_amount,omitempty"`
	ExpectedClosingAmount *decimal.Decimal `json:"expected_closing_amount,omitempty"`
	TotalCashCounted      *decimal.Decimal `json:"total_cash_counted,omitempty"`
	CashDifference        *decimal.Decimal `json:"cash_difference,omitempty"`

	Denominations []Denomination `json:"denominations,omitempty"`

	// TransferPending flags that a cash transfer was initiated out of this
	// session. Set best-effort, never part of the primary transaction.
	TransferPending bool `json:"transfer_pending"`

	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// OpenDrawerSession opens a session for a cashier at a caisse with the
// counted opening float.
func OpenDrawerSession(caisseID, userID, openedBy uuid.UUID, openingAmount valueobject.Money, now time.Time) (*DrawerSession, error) {
	if caisseID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CAISSE", "Caisse reference cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "User reference cannot be empty")
	}
	if openedBy == uuid.Nil {
		openedBy = userID
	}
	if openingAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Opening amount cannot be negative")
	}

	s := &DrawerSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		CaisseID:          caisseID,
		UserID:            userID,
		OpenedBy:          openedBy,
		Status:            SessionStatusOpen,
		OpeningAmount:     openingAmount.Amount(),
		OpenedAt:          now,
	}

	s.AddDomainEvent(NewDrawerSessionOpenedEvent(s, now))

	return s, nil
}

// CanBeMutatedBy reports whether the actor owns the session. Privileged
// override is checked by the service against the identity provider.
func (s *DrawerSession) CanBeMutatedBy(actor uuid.UUID) bool {
	return actor == s.UserID || actor == s.OpenedBy
}

// Suspend pauses an open session (cashier steps away without closing out)
func (s *DrawerSession) Suspend(now time.Time) error {
	if s.Status != SessionStatusOpen {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot suspend drawer session %s in %s status", s.ID, s.Status))
	}
	s.Status = SessionStatusSuspended
	s.UpdatedAt = now
	return nil
}

// Resume reactivates a suspended session
func (s *DrawerSession) Resume(now time.Time) error {
	if s.Status != SessionStatusSuspended {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot resume drawer session %s in %s status", s.ID, s.Status))
	}
	s.Status = SessionStatusOpen
	s.UpdatedAt = now
	return nil
}

// Close terminates the session with the counted denominations. The figures
// are diagnostic: close always succeeds on valid input, variances are
// returned for the caller to surface.
//
//	total_cash_counted = Σ value×quantity
//	cash_difference    = closing_amount − total_cash_counted
//	variance           = closing_amount − expected_closing_amount
func (s *DrawerSession) Close(closedBy uuid.UUID, closingAmount, expectedClosingAmount valueobject.Money, denominations []Denomination, now time.Time) (*CloseResult, error) {
	if !s.Status.IsActive() {
		return nil, shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot close drawer session %s in %s status", s.ID, s.Status))
	}
	if len(denominations) == 0 {
		return nil, shared.NewValidationError("MISSING_DENOMINATIONS", "Closing requires a denomination count")
	}
	for _, d := range denominations {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}

	counted := SumDenominations(denominations)
	closing := closingAmount.Amount()
	expected := expectedClosingAmount.Amount()
	difference := closing.Sub(counted)
	variance := closing.Sub(expected)

	s.Status = SessionStatusClosed
	s.ClosedBy = &closedBy
	s.ClosingAmount = &closing
	s.ExpectedClosingAmount = &expected
	s.TotalCashCounted = &counted
	s.CashDifference = &difference
	s.Denominations = denominations
	s.ClosedAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewDrawerSessionClosedEvent(s, variance, now))

	return &CloseResult{
		TotalCashCounted: counted,
		CashDifference:   difference,
		Variance:         variance,
	}, nil
}

// CanBeReOpened reports whether the session closed earlier the same
// calendar day. Closure is otherwise irreversible.
func (s *DrawerSession) CanBeReOpened(now time.Time) bool {
	return s.Status == SessionStatusClosed && s.ClosedAt != nil && shared.SameCalendarDay(*s.ClosedAt, now)
}

// ReOpen reverses a same-day close. The counted figures are kept for audit;
// the next close overwrites them.
func (s *DrawerSession) ReOpen(now time.Time) error {
	if !s.CanBeReOpened(now) {
		return shared.NewStateConflictError("REOPEN_WINDOW_CLOSED",
			fmt.Sprintf("Drawer session %s can only be re-opened the day it was closed", s.ID))
	}
	s.Status = SessionStatusOpen
	s.ClosedAt = nil
	s.ClosedBy = nil
	s.UpdatedAt = now
	return nil
}

// FlagTransferPending marks that a transfer left this session. Best-effort
// side effect of transfer initiation.
func (s *DrawerSession) FlagTransferPending(now time.Time) {
	s.TransferPending = true
	s.UpdatedAt = now
}

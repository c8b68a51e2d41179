package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// EntryKind represents the kind of a ledger entry
type EntryKind string

const (
	// EntryKindPayment indicates money received against a billable item
	EntryKindPayment EntryKind = "PAYMENT"
	// EntryKindRefund indicates money returned to the patient
	EntryKindRefund EntryKind = "REFUND"
	// EntryKindAdjustment indicates a manual correction entry
	EntryKindAdjustment EntryKind = "ADJUSTMENT"
	// EntryKindDonation indicates an overpayment excess kept as a donation
	EntryKindDonation EntryKind = "DONATION"
	// EntryKindCredit indicates an overpayment excess kept as patient credit
	EntryKindCredit EntryKind = "CREDIT"
)

// IsValid checks if the kind is a valid EntryKind
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindPayment, EntryKindRefund, EntryKindAdjustment, EntryKindDonation, EntryKindCredit:
		return true
	}
	return false
}

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// PaymentMethod represents how money moved
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "CASH"
	PaymentMethodCard      PaymentMethod = "CARD"
	PaymentMethodCheck     PaymentMethod = "CHECK"
	PaymentMethodTransfer  PaymentMethod = "TRANSFER"
	PaymentMethodInsurance PaymentMethod = "INSURANCE"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCheck, PaymentMethodTransfer, PaymentMethodInsurance:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// EntryStatus represents the settlement status of a ledger entry
type EntryStatus string

const (
	// EntryStatusPending indicates the entry awaits settlement (bank approval)
	EntryStatusPending EntryStatus = "PENDING"
	// EntryStatusCompleted indicates the entry is settled and immutable
	EntryStatusCompleted EntryStatus = "COMPLETED"
	// EntryStatusCancelled indicates the entry was cancelled before settlement
	EntryStatusCancelled EntryStatus = "CANCELLED"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusCompleted, EntryStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if the entry is in a terminal state
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusCancelled
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// BillableRef points at the external billable line this entry settles against:
// either a fiche-navette item or one of its dependencies, never both.
type BillableRef struct {
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	DependencyID *uuid.UUID `json:"dependency_id,omitempty"`
}

// NewItemRef creates a reference to a fiche-navette item
func NewItemRef(itemID uuid.UUID) BillableRef {
	return BillableRef{ItemID: &itemID}
}

// NewDependencyRef creates a reference to an item dependency
func NewDependencyRef(dependencyID uuid.UUID) BillableRef {
	return BillableRef{DependencyID: &dependencyID}
}

// Validate checks the mutual-exclusion invariant
func (r BillableRef) Validate() error {
	if (r.ItemID == nil) == (r.DependencyID == nil) {
		return shared.NewValidationError("INVALID_BILLABLE_REF",
			"Exactly one of item reference or dependency reference must be set")
	}
	return nil
}

// IsZero reports whether the reference is empty
func (r BillableRef) IsZero() bool {
	return r.ItemID == nil && r.DependencyID == nil
}

// Equals reports whether both references point at the same billable line
func (r BillableRef) Equals(other BillableRef) bool {
	return r.Key() == other.Key()
}

// Key returns a stable string key for grouping entries per billable line
func (r BillableRef) Key() string {
	switch {
	case r.ItemID != nil:
		return "item:" + r.ItemID.String()
	case r.DependencyID != nil:
		return "dep:" + r.DependencyID.String()
	default:
		return ""
	}
}

// LedgerEntry is the append-only record of money moving against a billable
// item. Entries are never hard-deleted and never mutated once settled;
// corrections are new entries. The only allowed mutation is the status
// transition of a pending bank-settled entry.
type LedgerEntry struct {
	shared.BaseAggregateRoot

	Billable  BillableRef `json:"billable"`
	PatientID uuid.UUID   `json:"patient_id"`
	CashierID uuid.UUID   `json:"cashier_id"`

	// ApproverID is set when the entry required a second pair of eyes
	// (bank-settled movements).
	ApproverID *uuid.UUID `json:"approver_id,omitempty"`

	// SessionID is the drawer session the entry was recorded in, when the
	// payment method is cash.
	SessionID *uuid.UUID `json:"session_id,omitempty"`

	Amount decimal.Decimal `json:"amount"`
	Kind   EntryKind       `json:"kind"`
	Method PaymentMethod   `json:"method"`

	IsBankTransaction bool       `json:"is_bank_transaction"`
	BankAccountID     *uuid.UUID `json:"bank_account_id,omitempty"`

	// OriginalEntryID links a refund back to the payment it reverses.
	OriginalEntryID *uuid.UUID `json:"original_entry_id,omitempty"`
	// AuthorizationID links a refund to the authorization it consumed.
	AuthorizationID *uuid.UUID `json:"authorization_id,omitempty"`

	Status EntryStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

// NewLedgerEntryParams carries the inputs for creating a ledger entry.
type NewLedgerEntryParams struct {
	Billable      BillableRef
	PatientID     uuid.UUID
	CashierID     uuid.UUID
	SessionID     *uuid.UUID
	Amount        valueobject.Money
	Kind          EntryKind
	Method        PaymentMethod
	BankAccountID *uuid.UUID
	Notes         string
}

// NewLedgerEntry creates a ledger entry. Bank-settled entries start pending
// and are completed only through the bank transaction approval gate; all
// other entries are completed immediately.
func NewLedgerEntry(p NewLedgerEntryParams, now time.Time) (*LedgerEntry, error) {
	if err := p.Billable.Validate(); err != nil {
		return nil, err
	}
	if p.PatientID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PATIENT", "Patient reference cannot be empty")
	}
	if p.CashierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CASHIER", "Cashier reference cannot be empty")
	}
	if !p.Kind.IsValid() {
		return nil, shared.NewValidationError("INVALID_KIND", "Invalid entry kind")
	}
	if !p.Method.IsValid() {
		return nil, shared.NewValidationError("INVALID_METHOD", "Invalid payment method")
	}
	if !p.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}

	isBank := p.Method == PaymentMethodTransfer || p.BankAccountID != nil
	if isBank && p.BankAccountID == nil {
		return nil, shared.NewValidationError("MISSING_BANK_ACCOUNT",
			"Bank-settled entries require a bank account reference")
	}

	status := EntryStatusCompleted
	if isBank {
		status = EntryStatusPending
	}

	e := &LedgerEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Billable:          p.Billable,
		PatientID:         p.PatientID,
		CashierID:         p.CashierID,
		SessionID:         p.SessionID,
		Amount:            p.Amount.Amount(),
		Kind:              p.Kind,
		Method:            p.Method,
		IsBankTransaction: isBank,
		BankAccountID:     p.BankAccountID,
		Status:            status,
		Notes:             p.Notes,
	}

	e.AddDomainEvent(NewLedgerEntryRecordedEvent(e, now))

	return e, nil
}

// LinkRefundSource attaches the refund provenance: exactly one of an original
// entry or a consumed authorization.
func (e *LedgerEntry) LinkRefundSource(originalEntryID, authorizationID *uuid.UUID) error {
	if e.Kind != EntryKindRefund {
		return shared.NewStateConflictError("NOT_A_REFUND", "Only refund entries carry a refund source")
	}
	if (originalEntryID == nil) == (authorizationID == nil) {
		return shared.NewValidationError("MISSING_REFERENCE",
			"Exactly one of original entry reference or authorization reference must be set")
	}
	e.OriginalEntryID = originalEntryID
	e.AuthorizationID = authorizationID
	return nil
}

// Settle completes a pending bank-settled entry after approval.
func (e *LedgerEntry) Settle(approverID uuid.UUID, now time.Time) error {
	if e.Status != EntryStatusPending {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot settle ledger entry %s in %s status", e.ID, e.Status))
	}
	e.Status = EntryStatusCompleted
	e.ApproverID = &approverID
	e.UpdatedAt = now

	e.AddDomainEvent(NewLedgerEntrySettledEvent(e, now))

	return nil
}

// Cancel cancels a pending entry (rejected bank request). Settled entries
// are immutable; corrections must be recorded as new entries.
func (e *LedgerEntry) Cancel(now time.Time) error {
	if e.Status != EntryStatusPending {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel ledger entry %s in %s status", e.ID, e.Status))
	}
	e.Status = EntryStatusCancelled
	e.UpdatedAt = now

	e.AddDomainEvent(NewLedgerEntryCancelledEvent(e, now))

	return nil
}

// CountsTowardBalance reports whether the entry participates in the
// per-item outstanding computation.
func (e *LedgerEntry) CountsTowardBalance() bool {
	return e.Status == EntryStatusCompleted &&
		(e.Kind == EntryKindPayment || e.Kind == EntryKindRefund)
}

// IsSettled returns true if the entry is completed
func (e *LedgerEntry) IsSettled() bool {
	return e.Status == EntryStatusCompleted
}

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// LedgerEntryRecordedEvent is raised when a new ledger entry is created
type LedgerEntryRecordedEvent struct {
	shared.BaseDomainEvent
	Billable  BillableRef     `json:"billable"`
	PatientID uuid.UUID       `json:"patient_id"`
	CashierID uuid.UUID       `json:"cashier_id"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      EntryKind       `json:"kind"`
	Method    PaymentMethod   `json:"method"`
	Status    EntryStatus     `json:"status"`
}

// EventType returns the event type name
func (e *LedgerEntryRecordedEvent) EventType() string {
	return "LedgerEntryRecorded"
}

// NewLedgerEntryRecordedEvent creates a new LedgerEntryRecordedEvent
func NewLedgerEntryRecordedEvent(entry *LedgerEntry, now time.Time) *LedgerEntryRecordedEvent {
	return &LedgerEntryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LedgerEntryRecorded", "LedgerEntry", entry.ID, now),
		Billable:        entry.Billable,
		PatientID:       entry.PatientID,
		CashierID:       entry.CashierID,
		Amount:          entry.Amount,
		Kind:            entry.Kind,
		Method:          entry.Method,
		Status:          entry.Status,
	}
}

// LedgerEntrySettledEvent is raised when a pending bank-settled entry completes
type LedgerEntrySettledEvent struct {
	shared.BaseDomainEvent
	ApproverID uuid.UUID       `json:"approver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *LedgerEntrySettledEvent) EventType() string {
	return "LedgerEntrySettled"
}

// NewLedgerEntrySettledEvent creates a new LedgerEntrySettledEvent
func NewLedgerEntrySettledEvent(entry *LedgerEntry, now time.Time) *LedgerEntrySettledEvent {
	var approver uuid.UUID
	if entry.ApproverID != nil {
		approver = *entry.ApproverID
	}
	return &LedgerEntrySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LedgerEntrySettled", "LedgerEntry", entry.ID, now),
		ApproverID:      approver,
		Amount:          entry.Amount,
	}
}

// LedgerEntryCancelledEvent is raised when a pending entry is cancelled
type LedgerEntryCancelledEvent struct {
	shared.BaseDomainEvent
	Amount decimal.Decimal `json:"amount"`
	Kind   EntryKind       `json:"kind"`
}

// EventType returns the event type name
func (e *LedgerEntryCancelledEvent) EventType() string {
	return "LedgerEntryCancelled"
}

// NewLedgerEntryCancelledEvent creates a new LedgerEntryCancelledEvent
func NewLedgerEntryCancelledEvent(entry *LedgerEntry, now time.Time) *LedgerEntryCancelledEvent {
	return &LedgerEntryCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("LedgerEntryCancelled", "LedgerEntry", entry.ID, now),
		Amount:          entry.Amount,
		Kind:            entry.Kind,
	}
}

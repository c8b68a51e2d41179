package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// PaymentRequest carries the inputs for recording a payment
type PaymentRequest struct {
	Billable      ledger.BillableRef
	PatientID     uuid.UUID
	CashierID     uuid.UUID
	SessionID     *uuid.UUID
	Amount        valueobject.Money
	Method        ledger.PaymentMethod
	BankAccountID *uuid.UUID
	Notes         string
}

// RefundRequest carries the inputs for recording a refund. Exactly one of
// OriginalEntryID or AuthorizationID must be set.
type RefundRequest struct {
	Billable        ledger.BillableRef
	OriginalEntryID *uuid.UUID
	AuthorizationID *uuid.UUID
	PatientID       uuid.UUID
	CashierID       uuid.UUID
	SessionID       *uuid.UUID
	Amount          valueobject.Money
	Method          ledger.PaymentMethod
	Notes           string
}

// OverpaymentAction is what the cashier does with the excess
type OverpaymentAction string

const (
	// OverpaymentActionDonate books the excess as a donation
	OverpaymentActionDonate OverpaymentAction = "DONATE"
	// OverpaymentActionBalance books the excess as patient credit
	OverpaymentActionBalance OverpaymentAction = "BALANCE"
)

// IsValid checks if the action is valid
func (a OverpaymentAction) IsValid() bool {
	return a == OverpaymentActionDonate || a == OverpaymentActionBalance
}

// OverpaymentRequest carries the inputs for settling an overpayment
type OverpaymentRequest struct {
	Billable       ledger.BillableRef
	PatientID      uuid.UUID
	CashierID      uuid.UUID
	SessionID      *uuid.UUID
	RequiredAmount valueobject.Money
	PaidAmount     valueobject.Money
	Action         OverpaymentAction
	Method         ledger.PaymentMethod
}

// OverpaymentResult reports how an overpayment was settled
type OverpaymentResult struct {
	PaymentEntry *ledger.LedgerEntry `json:"payment_entry"`
	ExcessEntry  *ledger.LedgerEntry `json:"excess_entry"`
	Excess       decimal.Decimal     `json:"excess"`
}

// BulkPaymentLine is one item settled in a bulk payment
type BulkPaymentLine struct {
	Billable ledger.BillableRef
	Amount   valueobject.Money
}

// BulkPaymentRequest carries the inputs for an all-or-nothing multi-item payment
type BulkPaymentRequest struct {
	Lines     []BulkPaymentLine
	PatientID uuid.UUID
	CashierID uuid.UUID
	SessionID *uuid.UUID
	Method    ledger.PaymentMethod
	// IdempotencyKey guards against replayed submissions; empty disables the check
	IdempotencyKey string
}

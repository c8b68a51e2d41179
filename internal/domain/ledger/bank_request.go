package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// BankRequestStatus represents the status of a bank transaction request
type BankRequestStatus string

const (
	BankRequestStatusPending  BankRequestStatus = "PENDING"
	BankRequestStatusApproved BankRequestStatus = "APPROVED"
	BankRequestStatusRejected BankRequestStatus = "REJECTED"
)

// IsValid checks if the status is a valid BankRequestStatus
func (s BankRequestStatus) IsValid() bool {
	switch s {
	case BankRequestStatusPending, BankRequestStatusApproved, BankRequestStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if the request is resolved
func (s BankRequestStatus) IsTerminal() bool {
	return s == BankRequestStatusApproved || s == BankRequestStatusRejected
}

// String returns the string representation of BankRequestStatus
func (s BankRequestStatus) String() string {
	return string(s)
}

// BankTransactionRequest is the two-party approval gate wrapping the
// settlement of a bank-settled ledger entry. One-to-one with the entry it
// gates. The approver must be a different person than the requester.
type BankTransactionRequest struct {
	shared.BaseAggregateRoot

	LedgerEntryID uuid.UUID         `json:"ledger_entry_id"`
	RequestedBy   uuid.UUID         `json:"requested_by"`
	ApprovedBy    *uuid.UUID        `json:"approved_by,omitempty"`
	IsApproved    bool              `json:"is_approved"`
	Status        BankRequestStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Method        PaymentMethod     `json:"method"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
	RejectReason  string            `json:"reject_reason,omitempty"`
}

// NewBankTransactionRequest creates a pending request gating the given entry
func NewBankTransactionRequest(entry *LedgerEntry, requestedBy uuid.UUID, now time.Time) (*BankTransactionRequest, error) {
	if entry == nil {
		return nil, shared.NewValidationError("MISSING_ENTRY", "Ledger entry cannot be nil")
	}
	if !entry.IsBankTransaction {
		return nil, shared.NewValidationError("NOT_BANK_SETTLED",
			"Only bank-settled ledger entries require a bank transaction request")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_REQUESTER", "Requester cannot be empty")
	}

	return &BankTransactionRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		LedgerEntryID:     entry.ID,
		RequestedBy:       requestedBy,
		Status:            BankRequestStatusPending,
		Amount:            entry.Amount,
		Method:            entry.Method,
	}, nil
}

// Approve resolves the request. Self-approval is an authorization error
// regardless of the approver's permissions.
func (r *BankTransactionRequest) Approve(by uuid.UUID, now time.Time) error {
	if r.Status != BankRequestStatusPending {
		return shared.NewStateConflictError("ALREADY_RESOLVED",
			fmt.Sprintf("Bank transaction request %s is already %s", r.ID, r.Status))
	}
	if by == uuid.Nil {
		return shared.NewValidationError("INVALID_APPROVER", "Approver cannot be empty")
	}
	if by == r.RequestedBy {
		return shared.NewAuthorizationError("SELF_APPROVAL",
			"A bank transaction request cannot be approved by its requester")
	}

	r.Status = BankRequestStatusApproved
	r.IsApproved = true
	r.ApprovedBy = &by
	r.ApprovedAt = &now
	r.UpdatedAt = now

	return nil
}

// Reject resolves the request negatively; the gated entry stays unsettled.
func (r *BankTransactionRequest) Reject(by uuid.UUID, reason string, now time.Time) error {
	if r.Status != BankRequestStatusPending {
		return shared.NewStateConflictError("ALREADY_RESOLVED",
			fmt.Sprintf("Bank transaction request %s is already %s", r.ID, r.Status))
	}
	if reason == "" {
		return shared.NewValidationError("MISSING_REASON", "Rejection requires a reason")
	}

	r.Status = BankRequestStatusRejected
	r.ApprovedBy = &by
	r.RejectReason = reason
	r.UpdatedAt = now

	return nil
}

package vault

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// TransactionType represents the direction and nature of a vault movement
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeAdjustment  TransactionType = "ADJUSTMENT"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferIn,
		TransactionTypeTransferOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// IsCredit reports whether the type increases the vault balance
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// TransactionStatus represents the status of a vault transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if the transaction is resolved
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusRejected
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// VaultTransaction is a movement of cash into or out of the vault, or from
// the vault to a bank account. Movements that take money out require
// multi-candidate approval before the balance mutates.
type VaultTransaction struct {
	shared.BaseAggregateRoot

	VaultID uuid.UUID       `json:"vault_id"`
	UserID  uuid.UUID       `json:"user_id"`
	Type    TransactionType `json:"type"`
	Amount  decimal.Decimal `json:"amount"`
	Status  TransactionStatus `json:"status"`

	// SourceSessionID links deposits coming out of a closed drawer session.
	SourceSessionID *uuid.UUID `json:"source_session_id,omitempty"`
	// DestinationBankID is set for vault-to-bank movements.
	DestinationBankID *uuid.UUID `json:"destination_bank_id,omitempty"`
	// DestinationVaultID is set for vault-to-vault transfers.
	DestinationVaultID *uuid.UUID `json:"destination_vault_id,omitempty"`

	Notes       string     `json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewVaultTransactionParams carries the inputs for proposing a vault transaction.
type NewVaultTransactionParams struct {
	VaultID            uuid.UUID
	UserID             uuid.UUID
	Type               TransactionType
	Amount             valueobject.Money
	SourceSessionID    *uuid.UUID
	DestinationBankID  *uuid.UUID
	DestinationVaultID *uuid.UUID
	Notes              string
}

// NewVaultTransaction proposes a vault movement. It starts pending; the
// service decides whether sign-off is required before completion.
func NewVaultTransaction(p NewVaultTransactionParams, now time.Time) (*VaultTransaction, error) {
	if p.VaultID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_VAULT", "Vault reference cannot be empty")
	}
	if p.UserID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "User reference cannot be empty")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewValidationError("INVALID_TYPE", "Invalid vault transaction type")
	}
	if !p.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	if p.Type == TransactionTypeTransferOut && p.DestinationBankID == nil && p.DestinationVaultID == nil {
		return nil, shared.NewValidationError("MISSING_DESTINATION",
			"Transfer out requires a destination bank or vault")
	}

	tx := &VaultTransaction{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(now),
		VaultID:            p.VaultID,
		UserID:             p.UserID,
		Type:               p.Type,
		Amount:             p.Amount.Amount(),
		Status:             TransactionStatusPending,
		SourceSessionID:    p.SourceSessionID,
		DestinationBankID:  p.DestinationBankID,
		DestinationVaultID: p.DestinationVaultID,
		Notes:              p.Notes,
	}

	tx.AddDomainEvent(NewVaultTransactionProposedEvent(tx, now))

	return tx, nil
}

// RequiresApproval reports whether the movement needs the candidate-pool
// sign-off before the balance mutates: anything taking money out of the
// vault, plus every bank-destined movement.
func (tx *VaultTransaction) RequiresApproval() bool {
	switch {
	case tx.Type == TransactionTypeWithdrawal, tx.Type == TransactionTypeTransferOut:
		return true
	case tx.DestinationBankID != nil:
		return true
	}
	return false
}

// BalanceDelta returns the signed effect on the vault balance
func (tx *VaultTransaction) BalanceDelta() decimal.Decimal {
	if tx.Type.IsCredit() {
		return tx.Amount
	}
	return tx.Amount.Neg()
}

// Complete marks the transaction completed after the balance adjustment
// committed.
func (tx *VaultTransaction) Complete(now time.Time) error {
	if tx.Status != TransactionStatusPending {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot complete vault transaction %s in %s status", tx.ID, tx.Status))
	}
	tx.Status = TransactionStatusCompleted
	tx.CompletedAt = &now
	tx.UpdatedAt = now

	tx.AddDomainEvent(NewVaultTransactionCompletedEvent(tx, now))

	return nil
}

// MarkRejected terminates the transaction without any balance mutation.
func (tx *VaultTransaction) MarkRejected(now time.Time) error {
	if tx.Status != TransactionStatusPending {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot reject vault transaction %s in %s status", tx.ID, tx.Status))
	}
	tx.Status = TransactionStatusRejected
	tx.UpdatedAt = now
	return nil
}

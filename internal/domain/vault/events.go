package vault

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// VaultTransactionProposedEvent is raised when a vault movement is proposed
type VaultTransactionProposedEvent struct {
	shared.BaseDomainEvent
	VaultID uuid.UUID       `json:"vault_id"`
	UserID  uuid.UUID       `json:"user_id"`
	TxType  TransactionType `json:"tx_type"`
	Amount  decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *VaultTransactionProposedEvent) EventType() string {
	return "VaultTransactionProposed"
}

// NewVaultTransactionProposedEvent creates a new VaultTransactionProposedEvent
func NewVaultTransactionProposedEvent(tx *VaultTransaction, now time.Time) *VaultTransactionProposedEvent {
	return &VaultTransactionProposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("VaultTransactionProposed", "VaultTransaction", tx.ID, now),
		VaultID:         tx.VaultID,
		UserID:          tx.UserID,
		TxType:          tx.Type,
		Amount:          tx.Amount,
	}
}

// VaultTransactionCompletedEvent is raised when a vault movement completes
// and the balance has been adjusted
type VaultTransactionCompletedEvent struct {
	shared.BaseDomainEvent
	VaultID uuid.UUID       `json:"vault_id"`
	TxType  TransactionType `json:"tx_type"`
	Amount  decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *VaultTransactionCompletedEvent) EventType() string {
	return "VaultTransactionCompleted"
}

// NewVaultTransactionCompletedEvent creates a new VaultTransactionCompletedEvent
func NewVaultTransactionCompletedEvent(tx *VaultTransaction, now time.Time) *VaultTransactionCompletedEvent {
	return &VaultTransactionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("VaultTransactionCompleted", "VaultTransaction", tx.ID, now),
		VaultID:         tx.VaultID,
		TxType:          tx.Type,
		Amount:          tx.Amount,
	}
}

package vault

import (
	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// ProposeTransactionRequest carries the inputs for proposing a vault movement
type ProposeTransactionRequest struct {
	VaultID            uuid.UUID
	UserID             uuid.UUID
	Type               vault.TransactionType
	Amount             valueobject.Money
	SourceSessionID    *uuid.UUID
	DestinationBankID  *uuid.UUID
	DestinationVaultID *uuid.UUID
	Notes              string
}

// ProposeTransactionResult returns the proposed transaction and, when
// sign-off is required, the pending approval request. Movements that need no
// sign-off complete immediately and carry no approval.
type ProposeTransactionResult struct {
	Transaction *vault.VaultTransaction `json:"transaction"`
	Approval    *vault.ApprovalRequest  `json:"approval,omitempty"`
}

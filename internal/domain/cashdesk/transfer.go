package cashdesk

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// TokenValidity is how long a transfer token can be presented after initiation.
const TokenValidity = 24 * time.Hour

// tokenBytes is the entropy of a transfer token before hex encoding.
const tokenBytes = 32

// TransferStatus represents the status of a cash transfer
type TransferStatus string

const (
	TransferStatusPending     TransferStatus = "PENDING"
	TransferStatusAccepted    TransferStatus = "ACCEPTED"
	TransferStatusRejected    TransferStatus = "REJECTED"
	TransferStatusExpired     TransferStatus = "EXPIRED"
	TransferStatusTransferred TransferStatus = "TRANSFERRED"
	TransferStatusDone        TransferStatus = "DONE"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusAccepted, TransferStatusRejected,
		TransferStatusExpired, TransferStatusTransferred, TransferStatusDone:
		return true
	}
	return false
}

// IsTerminal returns true if no further transition is possible
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusRejected || s == TransferStatusExpired || s == TransferStatusDone
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// CashTransfer is a token-gated handoff of physical cash between two
// cashiers, independent of the vault. The token is single-use and hidden
// from serialization.
type CashTransfer struct {
	shared.BaseAggregateRoot

	CaisseID   uuid.UUID `json:"caisse_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`

	AmountSent     decimal.Decimal  `json:"amount_sent"`
	AmountReceived *decimal.Decimal `json:"amount_received,omitempty"`

	// HasProblems flags a transfer initiated while the drawer count did not
	// balance; surfaced to the receiver before acceptance.
	HasProblems bool `json:"has_problems"`

	Status TransferStatus `json:"status"`

	// transferToken is the opaque secret the receiver presents. Never
	// serialized.
	transferToken string

	TokenExpiresAt time.Time  `json:"token_expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
}

// NewCashTransfer initiates a transfer of cash from one cashier to another.
// Sender and receiver must differ.
func NewCashTransfer(caisseID, fromUser, toUser uuid.UUID, amount valueobject.Money, hasProblems bool, now time.Time) (*CashTransfer, error) {
	if caisseID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CAISSE", "Caisse reference cannot be empty")
	}
	if fromUser == uuid.Nil || toUser == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "Sender and receiver cannot be empty")
	}
	if fromUser == toUser {
		return nil, shared.NewValidationError("SAME_USER",
			"A cash transfer requires two distinct cashiers")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Transfer amount must be positive")
	}

	token, err := generateTransferToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transfer token: %w", err)
	}

	t := &CashTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		CaisseID:          caisseID,
		FromUserID:        fromUser,
		ToUserID:          toUser,
		AmountSent:        amount.Amount(),
		HasProblems:       hasProblems,
		Status:            TransferStatusPending,
		transferToken:     token,
		TokenExpiresAt:    now.Add(TokenValidity),
	}

	t.AddDomainEvent(NewCashTransferInitiatedEvent(t, now))

	return t, nil
}

// RehydrateToken restores the stored token when loading from persistence.
func (t *CashTransfer) RehydrateToken(token string) {
	t.transferToken = token
}

// Token exposes the secret once, for delivery to the receiver at initiation
// and for persistence. It is not part of the JSON form.
func (t *CashTransfer) Token() string {
	return t.transferToken
}

// IsTokenExpired reports whether the acceptance window has passed.
// Read-time derived condition.
func (t *CashTransfer) IsTokenExpired(now time.Time) bool {
	return !now.Before(t.TokenExpiresAt)
}

// CanBeAccepted reports whether an accept attempt can still win:
// status pending and token unexpired.
func (t *CashTransfer) CanBeAccepted(now time.Time) bool {
	return t.Status == TransferStatusPending && !t.IsTokenExpired(now)
}

// Accept consumes the token and moves the transfer to accepted. The token
// comparison is constant-time. Concurrent accepts are resolved by the
// repository's compare-and-swap on status; this method enforces the domain
// preconditions.
func (t *CashTransfer) Accept(token string, amountReceived *valueobject.Money, now time.Time) error {
	if !t.CanBeAccepted(now) {
		return shared.NewStateConflictError("TRANSFER_NOT_ACCEPTABLE",
			fmt.Sprintf("Cash transfer %s is %s and cannot be accepted", t.ID, t.effectiveStatus(now)))
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(t.transferToken)) != 1 {
		return shared.NewAuthorizationError("TOKEN_MISMATCH", "Transfer token does not match")
	}

	t.Status = TransferStatusAccepted
	t.AcceptedAt = &now
	if amountReceived != nil {
		received := amountReceived.Amount()
		t.AmountReceived = &received
	} else {
		sent := t.AmountSent
		t.AmountReceived = &sent
	}
	t.UpdatedAt = now

	t.AddDomainEvent(NewCashTransferAcceptedEvent(t, now))

	return nil
}

// Reject refuses a pending transfer. Terminal.
func (t *CashTransfer) Reject(now time.Time) error {
	if t.Status != TransferStatusPending {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot reject cash transfer %s in %s status", t.ID, t.Status))
	}
	t.Status = TransferStatusRejected
	t.UpdatedAt = now
	return nil
}

// MarkExpired persists the derived expired state for a pending transfer
// past its window. Sweep-only; acceptance checks never rely on it.
func (t *CashTransfer) MarkExpired(now time.Time) error {
	if t.Status != TransferStatusPending || !t.IsTokenExpired(now) {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cash transfer %s is not an expired pending transfer", t.ID))
	}
	t.Status = TransferStatusExpired
	t.UpdatedAt = now
	return nil
}

// MarkTransferred records that the physical cash changed hands after
// acceptance.
func (t *CashTransfer) MarkTransferred(now time.Time) error {
	if t.Status != TransferStatusAccepted {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot mark cash transfer %s transferred in %s status", t.ID, t.Status))
	}
	t.Status = TransferStatusTransferred
	t.UpdatedAt = now
	return nil
}

// MarkDone settles the transfer once both drawers reconciled it. Terminal.
func (t *CashTransfer) MarkDone(now time.Time) error {
	if t.Status != TransferStatusTransferred {
		return shared.NewStateConflictError("INVALID_STATE",
			fmt.Sprintf("Cannot settle cash transfer %s in %s status", t.ID, t.Status))
	}
	t.Status = TransferStatusDone
	t.UpdatedAt = now
	return nil
}

// effectiveStatus folds read-time expiry into the reported status
func (t *CashTransfer) effectiveStatus(now time.Time) TransferStatus {
	if t.Status == TransferStatusPending && t.IsTokenExpired(now) {
		return TransferStatusExpired
	}
	return t.Status
}

// generateTransferToken returns a hex-encoded 32-byte random secret
func generateTransferToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

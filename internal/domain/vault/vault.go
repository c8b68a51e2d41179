package vault

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// Vault (coffre) holds the aggregated cash of the facility. Its running
// balance is one of the two pieces of mutable shared state in this domain;
// every adjustment happens under a row lock inside the approving
// transaction.
type Vault struct {
	shared.BaseAggregateRoot

	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

// NewVault creates a vault with an opening balance
func NewVault(name string, openingBalance decimal.Decimal, now time.Time) (*Vault, error) {
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Vault name cannot be empty")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewValidationError("INVALID_BALANCE", "Opening balance cannot be negative")
	}
	return &Vault{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		Name:              name,
		Balance:           openingBalance,
		IsActive:          true,
	}, nil
}

// Credit increases the vault balance (deposit, transfer in)
func (v *Vault) Credit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	v.Balance = v.Balance.Add(amount)
	v.UpdatedAt = now
	return nil
}

// Debit decreases the vault balance (withdrawal, transfer out, bank
// movement). A debit that would drive the balance negative is an integrity
// violation and leaves the balance untouched.
func (v *Vault) Debit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if v.Balance.LessThan(amount) {
		return shared.NewIntegrityError("INSUFFICIENT_VAULT_BALANCE",
			fmt.Sprintf("Vault %s balance %s cannot cover %s", v.ID, v.Balance.StringFixed(2), amount.StringFixed(2)))
	}
	v.Balance = v.Balance.Sub(amount)
	v.UpdatedAt = now
	return nil
}

// CanCover reports whether the balance covers the amount
func (v *Vault) CanCover(amount decimal.Decimal) bool {
	return !v.Balance.LessThan(amount)
}

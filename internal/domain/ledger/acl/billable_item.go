package acl

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
)

// BillableItemProvider is the ledger's view of the clinical billing context.
// The cached remaining amount it holds is refreshed through the decrement/
// increment callbacks inside the same transaction as the ledger write; it is
// never read back for validation (the ledger recomputes from history).
type BillableItemProvider interface {
	// Exists reports whether the referenced billable line exists
	Exists(ctx context.Context, ref ledger.BillableRef) (bool, error)

	// FinalPrice returns the line's final price after convention discounts
	FinalPrice(ctx context.Context, ref ledger.BillableRef) (decimal.Decimal, error)

	// DecrementRemaining lowers the cached remaining amount by the given
	// payment amount, floored at zero
	DecrementRemaining(ctx context.Context, ref ledger.BillableRef, amount decimal.Decimal) error

	// IncrementRemaining raises the cached remaining amount by the given
	// refund amount, capped at the final price
	IncrementRemaining(ctx context.Context, ref ledger.BillableRef, amount decimal.Decimal) error
}

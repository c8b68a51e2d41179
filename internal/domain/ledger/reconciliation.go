package ledger

import "github.com/shopspring/decimal"

// OutstandingOf recomputes the remaining amount of a billable item purely
// from its ledger history:
//
//	max(0, finalPrice − Σ completed payments + Σ completed refunds)
//
// The recomputation is idempotent and order-independent. Callers must not
// trust a cached remaining-amount column across a payment/refund boundary;
// this function is the source of truth.
func OutstandingOf(finalPrice decimal.Decimal, ref BillableRef, entries []LedgerEntry) decimal.Decimal {
	remaining := finalPrice
	for i := range entries {
		e := &entries[i]
		if !e.Billable.Equals(ref) || !e.CountsTowardBalance() {
			continue
		}
		switch e.Kind {
		case EntryKindPayment:
			remaining = remaining.Sub(e.Amount)
		case EntryKindRefund:
			remaining = remaining.Add(e.Amount)
		}
	}
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// PaidOf sums the completed payments recorded against a billable item,
// net of refunds. Never negative.
func PaidOf(ref BillableRef, entries []LedgerEntry) decimal.Decimal {
	paid := decimal.Zero
	for i := range entries {
		e := &entries[i]
		if !e.Billable.Equals(ref) || !e.CountsTowardBalance() {
			continue
		}
		switch e.Kind {
		case EntryKindPayment:
			paid = paid.Add(e.Amount)
		case EntryKindRefund:
			paid = paid.Sub(e.Amount)
		}
	}
	if paid.IsNegative() {
		return decimal.Zero
	}
	return paid
}

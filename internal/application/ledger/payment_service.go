package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// PaymentService records patient-facing financial transactions against
// billable items. Every multi-step mutation runs inside a single
// transaction scope: the ledger write, the item balance refresh and any
// authorization consumption commit or roll back together.
type PaymentService struct {
	scope        TransactionScope
	bankAccounts acl.BankAccountProvider
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig
	publisher    shared.EventPublisher
	clock        shared.Clock
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	scope TransactionScope,
	bankAccounts acl.BankAccountProvider,
	idempotency shared.IdempotencyStore,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		scope:        scope,
		bankAccounts: bankAccounts,
		idempotency:  idempotency,
		idemCfg:      shared.DefaultIdempotencyConfig(),
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// RecordPayment records a payment against a billable item and refreshes the
// item's cached remaining amount in the same transaction.
func (s *PaymentService) RecordPayment(ctx context.Context, req PaymentRequest) (*ledger.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if err := s.checkBankAccount(ctx, req.BankAccountID); err != nil {
		return nil, err
	}

	var entry *ledger.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.BillableItems().Exists(ctx, req.Billable)
		if err != nil {
			return fmt.Errorf("failed to resolve billable item: %w", err)
		}
		if !exists {
			return shared.NewNotFoundError("UNKNOWN_BILLABLE_ITEM", "Referenced billable item does not exist")
		}

		entry, err = ledger.NewLedgerEntry(ledger.NewLedgerEntryParams{
			Billable:      req.Billable,
			PatientID:     req.PatientID,
			CashierID:     req.CashierID,
			SessionID:     req.SessionID,
			Amount:        req.Amount,
			Kind:          ledger.EntryKindPayment,
			Method:        req.Method,
			BankAccountID: req.BankAccountID,
			Notes:         req.Notes,
		}, s.clock.Now())
		if err != nil {
			return err
		}

		if err := repos.Entries().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save ledger entry: %w", err)
		}
		if err := repos.BillableItems().DecrementRemaining(ctx, req.Billable, entry.Amount); err != nil {
			return fmt.Errorf("failed to refresh billable item balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, entry)

	return entry, nil
}

// RecordRefund records a refund sourced either from an original payment
// entry or from a consumable refund authorization. Consuming the
// authorization happens atomically with entry creation.
func (s *PaymentService) RecordRefund(ctx context.Context, req RefundRequest) (*ledger.LedgerEntry, error) {
	if (req.OriginalEntryID == nil) == (req.AuthorizationID == nil) {
		return nil, shared.NewValidationError("MISSING_REFERENCE",
			"Exactly one of original entry reference or authorization reference must be set")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Refund amount must be positive")
	}

	now := s.clock.Now()
	var entry *ledger.LedgerEntry
	var auth *ledger.RefundAuthorization
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if req.OriginalEntryID != nil {
			original, err := repos.Entries().FindByID(ctx, *req.OriginalEntryID)
			if err != nil {
				return fmt.Errorf("failed to load original entry: %w", err)
			}
			if original == nil {
				return shared.NewNotFoundError("UNKNOWN_ENTRY", "Original ledger entry does not exist")
			}
			if original.Kind != ledger.EntryKindPayment || !original.IsSettled() {
				return shared.NewStateConflictError("NOT_REFUNDABLE",
					fmt.Sprintf("Ledger entry %s is not a settled payment", original.ID))
			}
			if req.Amount.Amount().GreaterThan(original.Amount) {
				return shared.NewValidationError("INVALID_AMOUNT",
					"Refund cannot exceed the original payment amount")
			}
		}

		if req.AuthorizationID != nil {
			var err error
			auth, err = repos.Authorizations().FindByIDForUpdate(ctx, *req.AuthorizationID)
			if err != nil {
				return fmt.Errorf("failed to load refund authorization: %w", err)
			}
			if auth == nil {
				return shared.NewNotFoundError("UNKNOWN_AUTHORIZATION", "Refund authorization does not exist")
			}
			if !auth.IsUsable(now) {
				return shared.NewStateConflictError("AUTHORIZATION_NOT_USABLE",
					fmt.Sprintf("Refund authorization %s is %s", auth.ID, auth.EffectiveStatus(now)))
			}
			if auth.AuthorizedAmount != nil && req.Amount.Amount().GreaterThan(*auth.AuthorizedAmount) {
				return shared.NewValidationError("INVALID_AMOUNT",
					"Refund cannot exceed the authorized amount")
			}
		}

		var err error
		entry, err = ledger.NewLedgerEntry(ledger.NewLedgerEntryParams{
			Billable:  req.Billable,
			PatientID: req.PatientID,
			CashierID: req.CashierID,
			SessionID: req.SessionID,
			Amount:    req.Amount,
			Kind:      ledger.EntryKindRefund,
			Method:    req.Method,
			Notes:     req.Notes,
		}, now)
		if err != nil {
			return err
		}
		if err := entry.LinkRefundSource(req.OriginalEntryID, req.AuthorizationID); err != nil {
			return err
		}

		if auth != nil {
			if err := auth.Consume(entry.ID, now); err != nil {
				return err
			}
			if err := repos.Authorizations().Save(ctx, auth); err != nil {
				return fmt.Errorf("failed to consume refund authorization: %w", err)
			}
		}

		if err := repos.Entries().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save ledger entry: %w", err)
		}
		if err := repos.BillableItems().IncrementRemaining(ctx, req.Billable, entry.Amount); err != nil {
			return fmt.Errorf("failed to refresh billable item balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, entry)
	if auth != nil {
		s.publishEvents(ctx, auth)
	}

	return entry, nil
}

// RecordOverpayment settles a payment above the required amount. The excess
// is booked as a donation or as patient credit depending on the action.
func (s *PaymentService) RecordOverpayment(ctx context.Context, req OverpaymentRequest) (*OverpaymentResult, error) {
	if !req.Action.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACTION", "Overpayment action must be donate or balance")
	}
	if !req.PaidAmount.GreaterThan(req.RequiredAmount) {
		return nil, shared.NewValidationError("NOT_OVERPAID",
			"Paid amount does not exceed the required amount")
	}

	excess, err := req.PaidAmount.Subtract(req.RequiredAmount)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_AMOUNT", err.Error())
	}

	excessKind := ledger.EntryKindDonation
	if req.Action == OverpaymentActionBalance {
		excessKind = ledger.EntryKindCredit
	}

	now := s.clock.Now()
	var result OverpaymentResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.BillableItems().Exists(ctx, req.Billable)
		if err != nil {
			return fmt.Errorf("failed to resolve billable item: %w", err)
		}
		if !exists {
			return shared.NewNotFoundError("UNKNOWN_BILLABLE_ITEM", "Referenced billable item does not exist")
		}

		payment, err := ledger.NewLedgerEntry(ledger.NewLedgerEntryParams{
			Billable:  req.Billable,
			PatientID: req.PatientID,
			CashierID: req.CashierID,
			SessionID: req.SessionID,
			Amount:    req.RequiredAmount,
			Kind:      ledger.EntryKindPayment,
			Method:    req.Method,
		}, now)
		if err != nil {
			return err
		}

		excessEntry, err := ledger.NewLedgerEntry(ledger.NewLedgerEntryParams{
			Billable:  req.Billable,
			PatientID: req.PatientID,
			CashierID: req.CashierID,
			SessionID: req.SessionID,
			Amount:    excess,
			Kind:      excessKind,
			Method:    req.Method,
		}, now)
		if err != nil {
			return err
		}

		if err := repos.Entries().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment entry: %w", err)
		}
		if err := repos.Entries().Save(ctx, excessEntry); err != nil {
			return fmt.Errorf("failed to save excess entry: %w", err)
		}
		if err := repos.BillableItems().DecrementRemaining(ctx, req.Billable, payment.Amount); err != nil {
			return fmt.Errorf("failed to refresh billable item balance: %w", err)
		}

		result = OverpaymentResult{
			PaymentEntry: payment,
			ExcessEntry:  excessEntry,
			Excess:       excess.Amount(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, result.PaymentEntry)
	s.publishEvents(ctx, result.ExcessEntry)

	return &result, nil
}

// RecordBulkPayment settles several billable items in one all-or-nothing
// batch. Every line is validated against the outstanding amount recomputed
// from the ledger history before any entry is persisted.
func (s *PaymentService) RecordBulkPayment(ctx context.Context, req BulkPaymentRequest) ([]*ledger.LedgerEntry, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("EMPTY_BATCH", "Bulk payment requires at least one line")
	}
	for _, line := range req.Lines {
		if !line.Amount.IsPositive() {
			return nil, shared.NewValidationError("INVALID_AMOUNT", "Every line amount must be positive")
		}
	}

	idemKey := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := "bulk-payment:" + req.IdempotencyKey
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL)
		if err != nil {
			// The store is an availability optimization, not a correctness
			// dependency; degrade to processing without the guard.
			s.logger.Warn("idempotency store unavailable, processing without replay guard",
				zap.String("key", req.IdempotencyKey), zap.Error(err))
		} else if !fresh {
			return nil, shared.NewStateConflictError("DUPLICATE_SUBMISSION",
				"This bulk payment was already submitted")
		} else {
			idemKey = key
		}
	}

	now := s.clock.Now()
	entries := make([]*ledger.LedgerEntry, 0, len(req.Lines))
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Validation pass: lock each item's history and recompute the
		// outstanding amount. Nothing is persisted until every line passes.
		for _, line := range req.Lines {
			exists, err := repos.BillableItems().Exists(ctx, line.Billable)
			if err != nil {
				return fmt.Errorf("failed to resolve billable item: %w", err)
			}
			if !exists {
				return shared.NewNotFoundError("UNKNOWN_BILLABLE_ITEM", "Referenced billable item does not exist")
			}

			history, err := repos.Entries().FindByBillableForUpdate(ctx, line.Billable)
			if err != nil {
				return fmt.Errorf("failed to load ledger history: %w", err)
			}
			finalPrice, err := repos.BillableItems().FinalPrice(ctx, line.Billable)
			if err != nil {
				return fmt.Errorf("failed to resolve final price: %w", err)
			}

			outstanding := ledger.OutstandingOf(finalPrice, line.Billable, history)
			if line.Amount.Amount().GreaterThan(outstanding) {
				return shared.NewIntegrityError("PARTIAL_AMOUNT_MISMATCH",
					fmt.Sprintf("Line amount %s exceeds outstanding %s for %s",
						line.Amount.Amount().StringFixed(2), outstanding.StringFixed(2), line.Billable.Key()))
			}
		}

		// Persistence pass.
		for _, line := range req.Lines {
			entry, err := ledger.NewLedgerEntry(ledger.NewLedgerEntryParams{
				Billable:  line.Billable,
				PatientID: req.PatientID,
				CashierID: req.CashierID,
				SessionID: req.SessionID,
				Amount:    line.Amount,
				Kind:      ledger.EntryKindPayment,
				Method:    req.Method,
			}, now)
			if err != nil {
				return err
			}
			if err := repos.Entries().Save(ctx, entry); err != nil {
				return fmt.Errorf("failed to save ledger entry: %w", err)
			}
			if err := repos.BillableItems().DecrementRemaining(ctx, line.Billable, entry.Amount); err != nil {
				return fmt.Errorf("failed to refresh billable item balance: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		// The batch left no state behind; forget the key so a corrected
		// retry with the same key is not locked out for the full TTL.
		if idemKey != "" {
			if releaseErr := s.idempotency.Release(ctx, idemKey); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key after rejected batch",
					zap.String("key", req.IdempotencyKey), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	for _, entry := range entries {
		s.publishEvents(ctx, entry)
	}

	return entries, nil
}

// GetEntry loads a single ledger entry
func (s *PaymentService) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.LedgerEntry, error) {
	var entry *ledger.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entry, err = repos.Entries().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load ledger entry: %w", err)
		}
		if entry == nil {
			return shared.NewNotFoundError("UNKNOWN_ENTRY", "Ledger entry does not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries lists ledger entries matching the filter
func (s *PaymentService) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entries, err = repos.Entries().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// OutstandingOf recomputes an item's outstanding amount from its ledger
// history. Read-only.
func (s *PaymentService) OutstandingOf(ctx context.Context, ref ledger.BillableRef) (outstanding string, err error) {
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		history, err := repos.Entries().FindByBillable(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to load ledger history: %w", err)
		}
		finalPrice, err := repos.BillableItems().FinalPrice(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to resolve final price: %w", err)
		}
		outstanding = ledger.OutstandingOf(finalPrice, ref, history).StringFixed(2)
		return nil
	})
	return outstanding, err
}

// checkBankAccount enforces referential integrity on bank references. The
// active flag is deliberately not checked; rejecting inactive accounts is
// caller policy.
func (s *PaymentService) checkBankAccount(ctx context.Context, accountID *uuid.UUID) error {
	if accountID == nil {
		return nil
	}
	exists, err := s.bankAccounts.Exists(ctx, *accountID)
	if err != nil {
		return fmt.Errorf("failed to resolve bank account: %w", err)
	}
	if !exists {
		return shared.NewNotFoundError("UNKNOWN_BANK_ACCOUNT", "Referenced bank account does not exist")
	}
	return nil
}

// publishEvents drains an aggregate's domain events onto the bus.
// Best-effort: a publish failure is logged, never surfaced.
func (s *PaymentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("aggregate_id", aggregate.GetID().String()), zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

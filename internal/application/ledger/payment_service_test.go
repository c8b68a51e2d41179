package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type paymentFixture struct {
	service   *PaymentService
	entries   *memEntryRepo
	auths     *memAuthRepo
	billables *fakeBillables
	idem      *memIdempotencyStore
	publisher *capturePublisher
}

func newPaymentFixture(t *testing.T, bankAccountIDs ...uuid.UUID) *paymentFixture {
	t.Helper()
	entries := newMemEntryRepo()
	auths := newMemAuthRepo()
	billables := newFakeBillables()
	idem := newMemIdempotencyStore()
	publisher := &capturePublisher{}

	scope := &NoOpTransactionScope{
		EntryRepo:    entries,
		AuthRepo:     auths,
		BankRepo:     newMemBankRepo(),
		BillableRepo: billables,
	}

	service := NewPaymentService(scope, newFakeBankAccounts(bankAccountIDs...), idem,
		publisher, shared.FixedClock{Instant: fixedNow}, zap.NewNop())

	return &paymentFixture{
		service:   service,
		entries:   entries,
		auths:     auths,
		billables: billables,
		idem:      idem,
		publisher: publisher,
	}
}

func (f *paymentFixture) newBillable(finalPrice int64) ledger.BillableRef {
	ref := ledger.NewItemRef(uuid.New())
	f.billables.add(ref, decimal.NewFromInt(finalPrice))
	return ref
}

func basePayment(ref ledger.BillableRef, amount float64) PaymentRequest {
	return PaymentRequest{
		Billable:  ref,
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Amount:    valueobject.NewMoneyDZDFromFloat(amount),
		Method:    ledger.PaymentMethodCash,
	}
}

// ============================================
// RecordPayment Tests
// ============================================

func TestRecordPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	entry, err := f.service.RecordPayment(context.Background(), basePayment(ref, 400))
	require.NoError(t, err)

	assert.Equal(t, ledger.EntryStatusCompleted, entry.Status)
	assert.Equal(t, ledger.EntryKindPayment, entry.Kind)

	// cached remaining refreshed in the same scope
	assert.True(t, f.billables.remaining[ref.Key()].Equal(decimal.NewFromInt(600)))

	// recorded event published
	assert.NotEmpty(t, f.publisher.eventTypes())
}

func TestRecordPayment_UnknownBillable(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.RecordPayment(context.Background(), basePayment(ledger.NewItemRef(uuid.New()), 400))
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "UNKNOWN_BILLABLE_ITEM", domainErr.Code)
}

func TestRecordPayment_UnknownBankAccount(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	req := basePayment(ref, 400)
	req.Method = ledger.PaymentMethodTransfer
	unknown := uuid.New()
	req.BankAccountID = &unknown

	_, err := f.service.RecordPayment(context.Background(), req)
	assert.Error(t, err)
}

func TestRecordPayment_BankSettledStartsPending(t *testing.T) {
	bankID := uuid.New()
	f := newPaymentFixture(t, bankID)
	ref := f.newBillable(1000)

	req := basePayment(ref, 400)
	req.Method = ledger.PaymentMethodTransfer
	req.BankAccountID = &bankID

	entry, err := f.service.RecordPayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryStatusPending, entry.Status)
	assert.True(t, entry.IsBankTransaction)
}

// ============================================
// RecordRefund Tests
// ============================================

func TestRecordRefund_FromOriginalEntry(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	original, err := f.service.RecordPayment(context.Background(), basePayment(ref, 500))
	require.NoError(t, err)

	refund, err := f.service.RecordRefund(context.Background(), RefundRequest{
		Billable:        ref,
		OriginalEntryID: &original.ID,
		PatientID:       original.PatientID,
		CashierID:       uuid.New(),
		Amount:          valueobject.NewMoneyDZDFromFloat(200),
		Method:          ledger.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.EntryKindRefund, refund.Kind)
	assert.Equal(t, original.ID, *refund.OriginalEntryID)

	// remaining goes back up: 1000 - 500 + 200
	assert.True(t, f.billables.remaining[ref.Key()].Equal(decimal.NewFromInt(700)))
}

func TestRecordRefund_ExceedingOriginalFails(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	original, err := f.service.RecordPayment(context.Background(), basePayment(ref, 500))
	require.NoError(t, err)

	_, err = f.service.RecordRefund(context.Background(), RefundRequest{
		Billable:        ref,
		OriginalEntryID: &original.ID,
		PatientID:       original.PatientID,
		CashierID:       uuid.New(),
		Amount:          valueobject.NewMoneyDZDFromFloat(600),
		Method:          ledger.PaymentMethodCash,
	})
	assert.Error(t, err)
}

func TestRecordRefund_RequiresExactlyOneSource(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)
	entryID := uuid.New()
	authID := uuid.New()

	base := RefundRequest{
		Billable:  ref,
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Amount:    valueobject.NewMoneyDZDFromFloat(100),
		Method:    ledger.PaymentMethodCash,
	}

	_, err := f.service.RecordRefund(context.Background(), base)
	assert.Error(t, err, "neither source set")

	both := base
	both.OriginalEntryID = &entryID
	both.AuthorizationID = &authID
	_, err = f.service.RecordRefund(context.Background(), both)
	assert.Error(t, err, "both sources set")
}

func TestRecordRefund_ConsumesAuthorizationAtomically(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	auth, err := ledger.NewRefundAuthorization(ref, valueobject.NewMoneyDZDFromFloat(300), uuid.New(), fixedNow)
	require.NoError(t, err)
	require.NoError(t, auth.Approve(uuid.New(), nil, fixedNow))
	require.NoError(t, f.auths.Save(context.Background(), auth))

	refund, err := f.service.RecordRefund(context.Background(), RefundRequest{
		Billable:        ref,
		AuthorizationID: &auth.ID,
		PatientID:       uuid.New(),
		CashierID:       uuid.New(),
		Amount:          valueobject.NewMoneyDZDFromFloat(300),
		Method:          ledger.PaymentMethodCash,
	})
	require.NoError(t, err)

	stored, err := f.auths.FindByID(context.Background(), auth.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.AuthorizationStatusUsed, stored.Status)
	assert.Equal(t, refund.ID, *stored.ConsumedByEntry)

	// a second refund against the same authorization must fail
	_, err = f.service.RecordRefund(context.Background(), RefundRequest{
		Billable:        ref,
		AuthorizationID: &auth.ID,
		PatientID:       uuid.New(),
		CashierID:       uuid.New(),
		Amount:          valueobject.NewMoneyDZDFromFloat(300),
		Method:          ledger.PaymentMethodCash,
	})
	assert.Error(t, err)
}

func TestRecordRefund_AuthorizedAmountCapped(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	auth, err := ledger.NewRefundAuthorization(ref, valueobject.NewMoneyDZDFromFloat(500), uuid.New(), fixedNow)
	require.NoError(t, err)
	partial := decimal.NewFromInt(200)
	require.NoError(t, auth.Approve(uuid.New(), &partial, fixedNow))
	require.NoError(t, f.auths.Save(context.Background(), auth))

	_, err = f.service.RecordRefund(context.Background(), RefundRequest{
		Billable:        ref,
		AuthorizationID: &auth.ID,
		PatientID:       uuid.New(),
		CashierID:       uuid.New(),
		Amount:          valueobject.NewMoneyDZDFromFloat(300),
		Method:          ledger.PaymentMethodCash,
	})
	assert.Error(t, err)
}

// ============================================
// RecordOverpayment Tests
// ============================================

func TestRecordOverpayment_Donate(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	result, err := f.service.RecordOverpayment(context.Background(), OverpaymentRequest{
		Billable:       ref,
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		RequiredAmount: valueobject.NewMoneyDZDFromFloat(1000),
		PaidAmount:     valueobject.NewMoneyDZDFromFloat(1200),
		Action:         OverpaymentActionDonate,
		Method:         ledger.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.EntryKindPayment, result.PaymentEntry.Kind)
	assert.True(t, result.PaymentEntry.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, ledger.EntryKindDonation, result.ExcessEntry.Kind)
	assert.True(t, result.Excess.Equal(decimal.NewFromInt(200)))

	// only the required amount reduces the item balance
	assert.True(t, f.billables.remaining[ref.Key()].IsZero())
}

func TestRecordOverpayment_Balance(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(500)

	result, err := f.service.RecordOverpayment(context.Background(), OverpaymentRequest{
		Billable:       ref,
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		RequiredAmount: valueobject.NewMoneyDZDFromFloat(500),
		PaidAmount:     valueobject.NewMoneyDZDFromFloat(650),
		Action:         OverpaymentActionBalance,
		Method:         ledger.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryKindCredit, result.ExcessEntry.Kind)
}

func TestRecordOverpayment_NotOverpaidFails(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	_, err := f.service.RecordOverpayment(context.Background(), OverpaymentRequest{
		Billable:       ref,
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		RequiredAmount: valueobject.NewMoneyDZDFromFloat(1000),
		PaidAmount:     valueobject.NewMoneyDZDFromFloat(1000),
		Action:         OverpaymentActionDonate,
		Method:         ledger.PaymentMethodCash,
	})
	assert.Error(t, err)
}

// ============================================
// RecordBulkPayment Tests
// ============================================

func TestRecordBulkPayment(t *testing.T) {
	f := newPaymentFixture(t)
	refA := f.newBillable(1000)
	refB := f.newBillable(500)

	entries, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines: []BulkPaymentLine{
			{Billable: refA, Amount: valueobject.NewMoneyDZDFromFloat(1000)},
			{Billable: refB, Amount: valueobject.NewMoneyDZDFromFloat(250)},
		},
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Method:    ledger.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, f.billables.remaining[refA.Key()].IsZero())
	assert.True(t, f.billables.remaining[refB.Key()].Equal(decimal.NewFromInt(250)))
}

func TestRecordBulkPayment_AllOrNothing(t *testing.T) {
	f := newPaymentFixture(t)
	refA := f.newBillable(1000)
	refB := f.newBillable(500)

	// second line exceeds its outstanding: nothing may be persisted
	_, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines: []BulkPaymentLine{
			{Billable: refA, Amount: valueobject.NewMoneyDZDFromFloat(400)},
			{Billable: refB, Amount: valueobject.NewMoneyDZDFromFloat(600)},
		},
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Method:    ledger.PaymentMethodCash,
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PARTIAL_AMOUNT_MISMATCH", domainErr.Code)

	history, err := f.entries.FindByBillable(context.Background(), refA)
	require.NoError(t, err)
	assert.Empty(t, history, "no entry may survive a failed batch")
	assert.True(t, f.billables.remaining[refA.Key()].Equal(decimal.NewFromInt(1000)))
}

func TestRecordBulkPayment_OutstandingRecomputedFromHistory(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	// pay 800 first, leaving 200 outstanding
	_, err := f.service.RecordPayment(context.Background(), basePayment(ref, 800))
	require.NoError(t, err)

	_, err = f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:     []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(300)}},
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Method:    ledger.PaymentMethodCash,
	})
	assert.Error(t, err, "300 exceeds the 200 outstanding")

	entries, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:     []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(200)}},
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Method:    ledger.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordBulkPayment_DuplicateSubmissionRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	req := BulkPaymentRequest{
		Lines:          []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(100)}},
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		Method:         ledger.PaymentMethodCash,
		IdempotencyKey: "batch-42",
	}

	_, err := f.service.RecordBulkPayment(context.Background(), req)
	require.NoError(t, err)

	_, err = f.service.RecordBulkPayment(context.Background(), req)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "DUPLICATE_SUBMISSION", domainErr.Code)
}

func TestRecordBulkPayment_FailedBatchReleasesIdempotencyKey(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	// first submission overshoots the outstanding and is rejected whole
	_, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:          []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(1200)}},
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		Method:         ledger.PaymentMethodCash,
		IdempotencyKey: "batch-77",
	})
	require.Error(t, err)

	// the corrected retry reuses the key and must go through
	entries, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:          []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(1000)}},
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		Method:         ledger.PaymentMethodCash,
		IdempotencyKey: "batch-77",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// the successful run keeps the key marked
	_, err = f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:          []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(100)}},
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		Method:         ledger.PaymentMethodCash,
		IdempotencyKey: "batch-77",
	})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "DUPLICATE_SUBMISSION", domainErr.Code)
}

func TestRecordBulkPayment_IdempotencyStoreDownDegrades(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)
	f.idem.err = errors.New("redis down")

	_, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		Lines:          []BulkPaymentLine{{Billable: ref, Amount: valueobject.NewMoneyDZDFromFloat(100)}},
		PatientID:      uuid.New(),
		CashierID:      uuid.New(),
		Method:         ledger.PaymentMethodCash,
		IdempotencyKey: "batch-43",
	})
	assert.NoError(t, err, "store outage must not block payments")
}

func TestRecordBulkPayment_EmptyBatchFails(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.service.RecordBulkPayment(context.Background(), BulkPaymentRequest{
		PatientID: uuid.New(),
		CashierID: uuid.New(),
		Method:    ledger.PaymentMethodCash,
	})
	assert.Error(t, err)
}

// ============================================
// Query Tests
// ============================================

func TestGetEntry(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	entry, err := f.service.RecordPayment(context.Background(), basePayment(ref, 400))
	require.NoError(t, err)

	loaded, err := f.service.GetEntry(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, loaded.ID)

	_, err = f.service.GetEntry(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestOutstandingOf(t *testing.T) {
	f := newPaymentFixture(t)
	ref := f.newBillable(1000)

	_, err := f.service.RecordPayment(context.Background(), basePayment(ref, 500))
	require.NoError(t, err)
	_, err = f.service.RecordPayment(context.Background(), basePayment(ref, 300))
	require.NoError(t, err)

	outstanding, err := f.service.OutstandingOf(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "200.00", outstanding)
}

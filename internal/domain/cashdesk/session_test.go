package cashdesk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// Test helpers
func openTestSession(t *testing.T) *DrawerSession {
	s, err := OpenDrawerSession(uuid.New(), uuid.New(), uuid.Nil,
		valueobject.NewMoneyDZDFromFloat(5000), testNow)
	require.NoError(t, err)
	return s
}

func testDenominations() []Denomination {
	return []Denomination{
		{Value: decimal.NewFromInt(1000), Type: DenominationNote, Quantity: 5},
		{Value: decimal.NewFromInt(200), Type: DenominationNote, Quantity: 3},
		{Value: decimal.NewFromInt(50), Type: DenominationCoin, Quantity: 8},
	}
}

// ============================================
// Denomination Tests
// ============================================

func TestDenomination_Subtotal(t *testing.T) {
	d := Denomination{Value: decimal.NewFromInt(200), Type: DenominationNote, Quantity: 3}
	assert.True(t, d.Subtotal().Equal(decimal.NewFromInt(600)))
}

func TestDenomination_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       Denomination
		wantErr bool
	}{
		{"valid note", Denomination{Value: decimal.NewFromInt(1000), Type: DenominationNote, Quantity: 2}, false},
		{"valid coin zero quantity", Denomination{Value: decimal.NewFromInt(5), Type: DenominationCoin, Quantity: 0}, false},
		{"invalid type", Denomination{Value: decimal.NewFromInt(5), Type: DenominationType("BAR"), Quantity: 1}, true},
		{"zero value", Denomination{Value: decimal.Zero, Type: DenominationCoin, Quantity: 1}, true},
		{"negative quantity", Denomination{Value: decimal.NewFromInt(5), Type: DenominationCoin, Quantity: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSumDenominations(t *testing.T) {
	// 5×1000 + 3×200 + 8×50 = 6000
	total := SumDenominations(testDenominations())
	assert.True(t, total.Equal(decimal.NewFromInt(6000)))

	assert.True(t, SumDenominations(nil).IsZero())
}

// ============================================
// Open / Suspend / Resume Tests
// ============================================

func TestOpenDrawerSession(t *testing.T) {
	caisseID := uuid.New()
	userID := uuid.New()

	s, err := OpenDrawerSession(caisseID, userID, uuid.Nil, valueobject.NewMoneyDZDFromFloat(5000), testNow)
	require.NoError(t, err)

	assert.Equal(t, SessionStatusOpen, s.Status)
	assert.Equal(t, caisseID, s.CaisseID)
	assert.Equal(t, userID, s.UserID)
	// opener defaults to the cashier
	assert.Equal(t, userID, s.OpenedBy)
	assert.Equal(t, testNow, s.OpenedAt)
	assert.Len(t, s.GetDomainEvents(), 1)
}

func TestOpenDrawerSession_OnBehalf(t *testing.T) {
	userID := uuid.New()
	supervisorID := uuid.New()

	s, err := OpenDrawerSession(uuid.New(), userID, supervisorID, valueobject.ZeroDZD(), testNow)
	require.NoError(t, err)
	assert.Equal(t, supervisorID, s.OpenedBy)
	assert.True(t, s.CanBeMutatedBy(userID))
	assert.True(t, s.CanBeMutatedBy(supervisorID))
	assert.False(t, s.CanBeMutatedBy(uuid.New()))
}

func TestOpenDrawerSession_Validation(t *testing.T) {
	_, err := OpenDrawerSession(uuid.Nil, uuid.New(), uuid.Nil, valueobject.ZeroDZD(), testNow)
	assert.Error(t, err)

	_, err = OpenDrawerSession(uuid.New(), uuid.Nil, uuid.Nil, valueobject.ZeroDZD(), testNow)
	assert.Error(t, err)

	_, err = OpenDrawerSession(uuid.New(), uuid.New(), uuid.Nil, valueobject.NewMoneyDZDFromFloat(-1), testNow)
	assert.Error(t, err)
}

func TestDrawerSession_SuspendResume(t *testing.T) {
	s := openTestSession(t)

	require.NoError(t, s.Suspend(testNow.Add(time.Hour)))
	assert.Equal(t, SessionStatusSuspended, s.Status)
	// still counts as active for the one-per-caisse rule
	assert.True(t, s.Status.IsActive())

	// cannot suspend twice
	assert.Error(t, s.Suspend(testNow.Add(time.Hour)))

	require.NoError(t, s.Resume(testNow.Add(2*time.Hour)))
	assert.Equal(t, SessionStatusOpen, s.Status)

	// cannot resume an open session
	assert.Error(t, s.Resume(testNow.Add(2*time.Hour)))
}

// ============================================
// Close Tests
// ============================================

func TestDrawerSession_Close(t *testing.T) {
	s := openTestSession(t)
	closer := uuid.New()

	// counted 6000, declared closing 5900, expected 6100
	result, err := s.Close(closer,
		valueobject.NewMoneyDZDFromFloat(5900),
		valueobject.NewMoneyDZDFromFloat(6100),
		testDenominations(), testNow.Add(8*time.Hour))
	require.NoError(t, err)

	assert.True(t, result.TotalCashCounted.Equal(decimal.NewFromInt(6000)))
	assert.True(t, result.CashDifference.Equal(decimal.NewFromInt(-100)))
	assert.True(t, result.Variance.Equal(decimal.NewFromInt(-200)))

	assert.Equal(t, SessionStatusClosed, s.Status)
	assert.Equal(t, closer, *s.ClosedBy)
	require.NotNil(t, s.ClosedAt)
	assert.Len(t, s.Denominations, 3)
}

func TestDrawerSession_CloseBalancedDay(t *testing.T) {
	// opening 1000, payments of 500, 300 and 150 taken during the day:
	// the drawer should hold exactly 1950 and close with zero variance
	s, err := OpenDrawerSession(uuid.New(), uuid.New(), uuid.Nil,
		valueobject.NewMoneyDZDFromFloat(1000), testNow)
	require.NoError(t, err)

	counted := []Denomination{
		{Value: decimal.NewFromInt(1000), Type: DenominationNote, Quantity: 1},
		{Value: decimal.NewFromInt(500), Type: DenominationNote, Quantity: 1},
		{Value: decimal.NewFromInt(200), Type: DenominationNote, Quantity: 2},
		{Value: decimal.NewFromInt(50), Type: DenominationCoin, Quantity: 1},
	}

	result, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(1950),
		valueobject.NewMoneyDZDFromFloat(1950),
		counted, testNow.Add(8*time.Hour))
	require.NoError(t, err)

	assert.True(t, result.TotalCashCounted.Equal(decimal.NewFromInt(1950)))
	assert.True(t, result.CashDifference.IsZero())
	assert.True(t, result.Variance.IsZero())
	assert.Equal(t, SessionStatusClosed, s.Status)
}

func TestDrawerSession_CloseWithVarianceSucceeds(t *testing.T) {
	// a shortfall never blocks the close, it is surfaced in the result
	s := openTestSession(t)

	result, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(1000),
		valueobject.NewMoneyDZDFromFloat(9000),
		testDenominations(), testNow)
	require.NoError(t, err)
	assert.False(t, result.Variance.IsZero())
	assert.Equal(t, SessionStatusClosed, s.Status)
}

func TestDrawerSession_CloseSuspended(t *testing.T) {
	s := openTestSession(t)
	require.NoError(t, s.Suspend(testNow))

	_, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		testDenominations(), testNow)
	assert.NoError(t, err)
}

func TestDrawerSession_CloseRequiresDenominations(t *testing.T) {
	s := openTestSession(t)

	_, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		nil, testNow)
	assert.Error(t, err)
	assert.Equal(t, SessionStatusOpen, s.Status)
}

func TestDrawerSession_CloseTwiceFails(t *testing.T) {
	s := openTestSession(t)

	_, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		testDenominations(), testNow)
	require.NoError(t, err)

	_, err = s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		testDenominations(), testNow)
	assert.Error(t, err)
}

// ============================================
// ReOpen Tests
// ============================================

func TestDrawerSession_ReOpenSameDay(t *testing.T) {
	s := openTestSession(t)
	closedAt := testNow.Add(8 * time.Hour)

	_, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		testDenominations(), closedAt)
	require.NoError(t, err)

	sameDay := closedAt.Add(2 * time.Hour)
	assert.True(t, s.CanBeReOpened(sameDay))
	require.NoError(t, s.ReOpen(sameDay))

	assert.Equal(t, SessionStatusOpen, s.Status)
	assert.Nil(t, s.ClosedAt)
	assert.Nil(t, s.ClosedBy)
	// counted figures are kept for audit
	assert.NotNil(t, s.TotalCashCounted)
}

func TestDrawerSession_ReOpenNextDayFails(t *testing.T) {
	s := openTestSession(t)
	closedAt := testNow.Add(8 * time.Hour)

	_, err := s.Close(s.UserID,
		valueobject.NewMoneyDZDFromFloat(6000),
		valueobject.NewMoneyDZDFromFloat(6000),
		testDenominations(), closedAt)
	require.NoError(t, err)

	nextDay := closedAt.Add(24 * time.Hour)
	assert.False(t, s.CanBeReOpened(nextDay))
	assert.Error(t, s.ReOpen(nextDay))
}

func TestDrawerSession_ReOpenOpenSessionFails(t *testing.T) {
	s := openTestSession(t)
	assert.Error(t, s.ReOpen(testNow))
}

func TestDrawerSession_FlagTransferPending(t *testing.T) {
	s := openTestSession(t)
	assert.False(t, s.TransferPending)

	s.FlagTransferPending(testNow)
	assert.True(t, s.TransferPending)
}

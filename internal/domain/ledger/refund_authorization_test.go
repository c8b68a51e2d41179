package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

func createPendingAuthorization(t *testing.T) *RefundAuthorization {
	a, err := NewRefundAuthorization(NewItemRef(uuid.New()),
		valueobject.NewMoneyDZDFromFloat(500), uuid.New(), testNow)
	require.NoError(t, err)
	return a
}

func createApprovedAuthorization(t *testing.T) *RefundAuthorization {
	a := createPendingAuthorization(t)
	require.NoError(t, a.Approve(uuid.New(), nil, testNow))
	return a
}

func TestNewRefundAuthorization(t *testing.T) {
	a := createPendingAuthorization(t)

	assert.Equal(t, AuthorizationStatusPending, a.Status)
	assert.Nil(t, a.AuthorizedAmount)
	assert.Nil(t, a.ExpiresAt)
	assert.True(t, a.CanBeApproved())
}

func TestNewRefundAuthorization_Validation(t *testing.T) {
	_, err := NewRefundAuthorization(BillableRef{}, valueobject.NewMoneyDZDFromFloat(500), uuid.New(), testNow)
	assert.Error(t, err)

	_, err = NewRefundAuthorization(NewItemRef(uuid.New()), valueobject.ZeroDZD(), uuid.New(), testNow)
	assert.Error(t, err)

	_, err = NewRefundAuthorization(NewItemRef(uuid.New()), valueobject.NewMoneyDZDFromFloat(500), uuid.Nil, testNow)
	assert.Error(t, err)
}

func TestRefundAuthorization_ApproveDefaultsToRequestedAmount(t *testing.T) {
	a := createPendingAuthorization(t)
	approver := uuid.New()

	require.NoError(t, a.Approve(approver, nil, testNow))

	assert.Equal(t, AuthorizationStatusApproved, a.Status)
	require.NotNil(t, a.AuthorizedAmount)
	assert.True(t, a.AuthorizedAmount.Equal(a.RequestedAmount))
	require.NotNil(t, a.ExpiresAt)
	assert.Equal(t, testNow.Add(AuthorizationValidity), *a.ExpiresAt)
	assert.Equal(t, approver, *a.AuthorizedBy)
}

func TestRefundAuthorization_ApproveWithReducedAmount(t *testing.T) {
	a := createPendingAuthorization(t)
	reduced := decimal.NewFromInt(300)

	require.NoError(t, a.Approve(uuid.New(), &reduced, testNow))
	assert.True(t, a.AuthorizedAmount.Equal(reduced))
}

func TestRefundAuthorization_ApproveAmountBounds(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"zero", decimal.Zero},
		{"negative", decimal.NewFromInt(-10)},
		{"above requested", decimal.NewFromInt(600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createPendingAuthorization(t)
			err := a.Approve(uuid.New(), &tt.amount, testNow)
			assert.Error(t, err)
		})
	}
}

func TestRefundAuthorization_ApproveTwiceFails(t *testing.T) {
	a := createApprovedAuthorization(t)
	assert.Error(t, a.Approve(uuid.New(), nil, testNow))
}

func TestRefundAuthorization_RejectRequiresReason(t *testing.T) {
	a := createPendingAuthorization(t)
	assert.Error(t, a.Reject(uuid.New(), "", testNow))

	require.NoError(t, a.Reject(uuid.New(), "wrong item", testNow))
	assert.Equal(t, AuthorizationStatusRejected, a.Status)
	assert.Equal(t, "wrong item", a.RejectReason)
}

func TestRefundAuthorization_ExpiryIsDerived(t *testing.T) {
	a := createApprovedAuthorization(t)

	beforeExpiry := testNow.Add(AuthorizationValidity - time.Minute)
	atExpiry := testNow.Add(AuthorizationValidity)

	assert.False(t, a.IsExpired(beforeExpiry))
	assert.True(t, a.IsUsable(beforeExpiry))
	assert.Equal(t, AuthorizationStatusApproved, a.EffectiveStatus(beforeExpiry))

	assert.True(t, a.IsExpired(atExpiry))
	assert.False(t, a.IsUsable(atExpiry))
	assert.Equal(t, AuthorizationStatusExpired, a.EffectiveStatus(atExpiry))

	// stored status unchanged until a sweep persists it
	assert.Equal(t, AuthorizationStatusApproved, a.Status)
}

func TestRefundAuthorization_ConsumeOnce(t *testing.T) {
	a := createApprovedAuthorization(t)
	entryID := uuid.New()

	require.NoError(t, a.Consume(entryID, testNow.Add(time.Hour)))
	assert.Equal(t, AuthorizationStatusUsed, a.Status)
	assert.Equal(t, entryID, *a.ConsumedByEntry)

	// second consume must fail
	assert.Error(t, a.Consume(uuid.New(), testNow.Add(2*time.Hour)))
}

func TestRefundAuthorization_ConsumeExpiredFails(t *testing.T) {
	a := createApprovedAuthorization(t)
	assert.Error(t, a.Consume(uuid.New(), testNow.Add(AuthorizationValidity+time.Minute)))
}

func TestRefundAuthorization_ConsumePendingFails(t *testing.T) {
	a := createPendingAuthorization(t)
	assert.Error(t, a.Consume(uuid.New(), testNow))
}

func TestRefundAuthorization_MarkExpired(t *testing.T) {
	a := createApprovedAuthorization(t)

	// not yet expired
	assert.Error(t, a.MarkExpired(testNow))

	require.NoError(t, a.MarkExpired(testNow.Add(AuthorizationValidity)))
	assert.Equal(t, AuthorizationStatusExpired, a.Status)
}

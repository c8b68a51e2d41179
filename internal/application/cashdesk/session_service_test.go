package cashdesk

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

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

var fixedNow = time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)

type sessionFixture struct {
	service    *SessionService
	sessions   *memSessionRepo
	publisher  *capturePublisher
	supervisor uuid.UUID
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	sessions := newMemSessionRepo()
	identity := newFakeIdentity()
	supervisor := uuid.New()
	identity.grant(supervisor, acl.RoleCashSupervisor)

	publisher := &capturePublisher{}
	scope := &NoOpTransactionScope{
		SessionRepo:  sessions,
		TransferRepo: newMemTransferRepo(),
	}

	return &sessionFixture{
		service:    NewSessionService(scope, identity, publisher, shared.FixedClock{Instant: fixedNow}, zap.NewNop()),
		sessions:   sessions,
		publisher:  publisher,
		supervisor: supervisor,
	}
}

func (f *sessionFixture) openSession(t *testing.T, caisseID, userID uuid.UUID) *cashdesk.DrawerSession {
	t.Helper()
	session, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
		CaisseID:      caisseID,
		UserID:        userID,
		OpenedBy:      userID,
		OpeningAmount: valueobject.NewMoneyDZDFromFloat(10000),
	})
	require.NoError(t, err)
	return session
}

func countedDenominations() []cashdesk.Denomination {
	return []cashdesk.Denomination{
		{Value: decimal.NewFromInt(1000), Type: cashdesk.DenominationNote, Quantity: 9},
		{Value: decimal.NewFromInt(200), Type: cashdesk.DenominationNote, Quantity: 5},
	}
}

func TestOpenSession(t *testing.T) {
	f := newSessionFixture(t)
	caisseID := uuid.New()
	userID := uuid.New()

	session := f.openSession(t, caisseID, userID)

	assert.Equal(t, cashdesk.SessionStatusOpen, session.Status)
	assert.Equal(t, userID, session.UserID)
	assert.Equal(t, userID, session.OpenedBy)
	assert.NotEmpty(t, f.publisher.eventTypes())
}

func TestOpenSession_DuplicatePerCaisse(t *testing.T) {
	f := newSessionFixture(t)
	caisseID := uuid.New()
	f.openSession(t, caisseID, uuid.New())

	secondCashier := uuid.New()
	_, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
		CaisseID:      caisseID,
		UserID:        secondCashier,
		OpenedBy:      secondCashier,
		OpeningAmount: valueobject.NewMoneyDZDFromFloat(5000),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "DUPLICATE_OPEN_SESSION", domainErr.Code)
	assert.Equal(t, shared.ErrorKindIntegrity, domainErr.Kind)
}

func TestOpenSession_SuspendedStillBlocks(t *testing.T) {
	f := newSessionFixture(t)
	caisseID := uuid.New()
	userID := uuid.New()
	session := f.openSession(t, caisseID, userID)

	_, err := f.service.SuspendSession(context.Background(), session.ID, userID)
	require.NoError(t, err)

	otherCashier := uuid.New()
	_, err = f.service.OpenSession(context.Background(), OpenSessionRequest{
		CaisseID:      caisseID,
		UserID:        otherCashier,
		OpenedBy:      otherCashier,
		OpeningAmount: valueobject.NewMoneyDZDFromFloat(5000),
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrorKindIntegrity))
}

func TestOpenSession_OnBehalfRequiresSupervisor(t *testing.T) {
	f := newSessionFixture(t)
	cashier := uuid.New()

	_, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
		CaisseID:      uuid.New(),
		UserID:        cashier,
		OpenedBy:      uuid.New(),
		OpeningAmount: valueobject.NewMoneyDZDFromFloat(5000),
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_SUPERVISOR", domainErr.Code)

	session, err := f.service.OpenSession(context.Background(), OpenSessionRequest{
		CaisseID:      uuid.New(),
		UserID:        cashier,
		OpenedBy:      f.supervisor,
		OpeningAmount: valueobject.NewMoneyDZDFromFloat(5000),
	})
	require.NoError(t, err)
	assert.Equal(t, cashier, session.UserID)
	assert.Equal(t, f.supervisor, session.OpenedBy)
}

func TestSuspendResumeSession(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	session := f.openSession(t, uuid.New(), userID)

	suspended, err := f.service.SuspendSession(context.Background(), session.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.SessionStatusSuspended, suspended.Status)

	resumed, err := f.service.ResumeSession(context.Background(), session.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.SessionStatusOpen, resumed.Status)
}

func TestSuspendSession_RequiresOwnerOrSupervisor(t *testing.T) {
	f := newSessionFixture(t)
	session := f.openSession(t, uuid.New(), uuid.New())

	_, err := f.service.SuspendSession(context.Background(), session.ID, uuid.New())
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_SESSION_OWNER", domainErr.Code)

	// a supervisor who is neither owner nor opener may act
	_, err = f.service.SuspendSession(context.Background(), session.ID, f.supervisor)
	assert.NoError(t, err)
}

func TestCloseSession(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	session := f.openSession(t, uuid.New(), userID)

	out, err := f.service.CloseSession(context.Background(), CloseSessionRequest{
		SessionID:             session.ID,
		ClosedBy:              userID,
		ClosingAmount:         valueobject.NewMoneyDZDFromFloat(10000),
		ExpectedClosingAmount: valueobject.NewMoneyDZDFromFloat(10000),
		Denominations:         countedDenominations(),
	})
	require.NoError(t, err)

	assert.Equal(t, cashdesk.SessionStatusClosed, out.Session.Status)
	// 9×1000 + 5×200
	assert.True(t, out.Result.TotalCashCounted.Equal(decimal.NewFromInt(10000)))
	assert.True(t, out.Result.CashDifference.IsZero())
	assert.True(t, out.Result.Variance.IsZero())

	stored, err := f.sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.SessionStatusClosed, stored.Status)
}

func TestCloseSession_Twice(t *testing.T) {
	f := newSessionFixture(t)
	userID := uuid.New()
	session := f.openSession(t, uuid.New(), userID)

	req := CloseSessionRequest{
		SessionID:             session.ID,
		ClosedBy:              userID,
		ClosingAmount:         valueobject.NewMoneyDZDFromFloat(10000),
		ExpectedClosingAmount: valueobject.NewMoneyDZDFromFloat(10000),
		Denominations:         countedDenominations(),
	}
	_, err := f.service.CloseSession(context.Background(), req)
	require.NoError(t, err)

	_, err = f.service.CloseSession(context.Background(), req)
	assert.Error(t, err)
}

func TestReOpenSession(t *testing.T) {
	f := newSessionFixture(t)
	caisseID := uuid.New()
	userID := uuid.New()
	session := f.openSession(t, caisseID, userID)

	_, err := f.service.CloseSession(context.Background(), CloseSessionRequest{
		SessionID:             session.ID,
		ClosedBy:              userID,
		ClosingAmount:         valueobject.NewMoneyDZDFromFloat(10000),
		ExpectedClosingAmount: valueobject.NewMoneyDZDFromFloat(10000),
		Denominations:         countedDenominations(),
	})
	require.NoError(t, err)

	reopened, err := f.service.ReOpenSession(context.Background(), session.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.SessionStatusOpen, reopened.Status)
}

func TestReOpenSession_BlockedByNewActiveSession(t *testing.T) {
	f := newSessionFixture(t)
	caisseID := uuid.New()
	userID := uuid.New()
	session := f.openSession(t, caisseID, userID)

	_, err := f.service.CloseSession(context.Background(), CloseSessionRequest{
		SessionID:             session.ID,
		ClosedBy:              userID,
		ClosingAmount:         valueobject.NewMoneyDZDFromFloat(10000),
		ExpectedClosingAmount: valueobject.NewMoneyDZDFromFloat(10000),
		Denominations:         countedDenominations(),
	})
	require.NoError(t, err)

	// another cashier takes over the caisse
	f.openSession(t, caisseID, uuid.New())

	_, err = f.service.ReOpenSession(context.Background(), session.ID, userID)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "DUPLICATE_OPEN_SESSION", domainErr.Code)
	assert.Equal(t, shared.ErrorKindIntegrity, domainErr.Kind)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.GetSession(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestListSessions(t *testing.T) {
	f := newSessionFixture(t)
	f.openSession(t, uuid.New(), uuid.New())
	f.openSession(t, uuid.New(), uuid.New())

	sessions, err := f.service.ListSessions(context.Background(), cashdesk.SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

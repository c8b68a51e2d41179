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
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// transferClock lets a test push time past the token window.
type transferClock struct {
	instant time.Time
}

func (c *transferClock) Now() time.Time { return c.instant }

type transferFixture struct {
	service   *TransferService
	sessions  *memSessionRepo
	transfers *memTransferRepo
	clock     *transferClock
	sender    uuid.UUID
	recipient uuid.UUID
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()
	sessions := newMemSessionRepo()
	transfers := newMemTransferRepo()
	clock := &transferClock{instant: fixedNow}
	scope := &NoOpTransactionScope{SessionRepo: sessions, TransferRepo: transfers}

	return &transferFixture{
		service:   NewTransferService(scope, &capturePublisher{}, clock, zap.NewNop()),
		sessions:  sessions,
		transfers: transfers,
		clock:     clock,
		sender:    uuid.New(),
		recipient: uuid.New(),
	}
}

func (f *transferFixture) initiate(t *testing.T) *InitiateTransferResult {
	t.Helper()
	out, err := f.service.InitiateTransfer(context.Background(), InitiateTransferRequest{
		CaisseID: uuid.New(),
		FromUser: f.sender,
		ToUser:   f.recipient,
		Amount:   valueobject.NewMoneyDZDFromFloat(15000),
	})
	require.NoError(t, err)
	return out
}

func TestInitiateTransfer(t *testing.T) {
	f := newTransferFixture(t)

	out := f.initiate(t)

	assert.Equal(t, cashdesk.TransferStatusPending, out.Transfer.Status)
	assert.Len(t, out.Token, 64)
	assert.Equal(t, fixedNow.Add(cashdesk.TokenValidity), out.Transfer.TokenExpiresAt)
}

func TestInitiateTransfer_FlagsSenderSession(t *testing.T) {
	f := newTransferFixture(t)
	caisseID := uuid.New()
	session, err := cashdesk.OpenDrawerSession(caisseID, f.sender, f.sender,
		valueobject.NewMoneyDZDFromFloat(20000), fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), session))

	_, err = f.service.InitiateTransfer(context.Background(), InitiateTransferRequest{
		CaisseID:  caisseID,
		FromUser:  f.sender,
		ToUser:    f.recipient,
		Amount:    valueobject.NewMoneyDZDFromFloat(15000),
		SessionID: &session.ID,
	})
	require.NoError(t, err)

	stored, err := f.sessions.FindByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, stored.TransferPending)
}

func TestAcceptTransfer(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	accepted, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      out.Token,
	})
	require.NoError(t, err)

	assert.Equal(t, cashdesk.TransferStatusAccepted, accepted.Status)
	// received amount defaults to the amount sent
	assert.True(t, accepted.AmountReceived.Equal(decimal.NewFromInt(15000)))
}

func TestAcceptTransfer_OnlyRecipient(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	_, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.sender,
		Token:      out.Token,
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_RECIPIENT", domainErr.Code)
}

func TestAcceptTransfer_WrongToken(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	_, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
	})
	assert.Error(t, err)
}

func TestAcceptTransfer_ExpiredToken(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	f.clock.instant = fixedNow.Add(cashdesk.TokenValidity + time.Minute)

	_, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      out.Token,
	})
	require.Error(t, err)

	stored, err := f.transfers.FindByID(context.Background(), out.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusPending, stored.Status)
}

func TestAcceptTransfer_SingleWinner(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	req := AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      out.Token,
	}
	_, err := f.service.AcceptTransfer(context.Background(), req)
	require.NoError(t, err)

	_, err = f.service.AcceptTransfer(context.Background(), req)
	assert.Error(t, err)
}

func TestRejectTransfer(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	rejected, err := f.service.RejectTransfer(context.Background(), out.Transfer.ID, f.recipient)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusRejected, rejected.Status)

	// terminal
	_, err = f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      out.Token,
	})
	assert.Error(t, err)
}

func TestRejectTransfer_OnlyRecipient(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	_, err := f.service.RejectTransfer(context.Background(), out.Transfer.ID, f.sender)
	assert.Error(t, err)
}

func TestTransferLifecycle(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	_, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: out.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      out.Token,
	})
	require.NoError(t, err)

	transferred, err := f.service.MarkTransferred(context.Background(), out.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusTransferred, transferred.Status)

	done, err := f.service.MarkDone(context.Background(), out.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusDone, done.Status)
}

func TestMarkTransferred_RequiresAccepted(t *testing.T) {
	f := newTransferFixture(t)
	out := f.initiate(t)

	_, err := f.service.MarkTransferred(context.Background(), out.Transfer.ID)
	assert.Error(t, err)
}

func TestSweepExpiredTransfers(t *testing.T) {
	f := newTransferFixture(t)
	first := f.initiate(t)
	second := f.initiate(t)

	// accept one before the window closes
	_, err := f.service.AcceptTransfer(context.Background(), AcceptTransferRequest{
		TransferID: second.Transfer.ID,
		AcceptedBy: f.recipient,
		Token:      second.Token,
	})
	require.NoError(t, err)

	swept, err := f.service.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, swept)

	f.clock.instant = fixedNow.Add(cashdesk.TokenValidity + time.Hour)

	swept, err = f.service.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	stored, err := f.transfers.FindByID(context.Background(), first.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusExpired, stored.Status)
}

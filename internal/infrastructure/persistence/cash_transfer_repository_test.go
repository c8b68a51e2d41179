package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

func setupCashTransferTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CashTransferModel{}))
	return db
}

func newPendingTransfer(t *testing.T, fromUser, toUser uuid.UUID, at time.Time) *cashdesk.CashTransfer {
	t.Helper()
	transfer, err := cashdesk.NewCashTransfer(uuid.New(), fromUser, toUser,
		valueobject.NewMoneyDZD(decimal.NewFromInt(15000)), false, at)
	require.NoError(t, err)
	return transfer
}

func TestGormCashTransferRepository_SaveAndFindByID(t *testing.T) {
	db := setupCashTransferTestDB(t)
	repo := NewGormCashTransferRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	fromUser := uuid.New()
	toUser := uuid.New()
	transfer := newPendingTransfer(t, fromUser, toUser, now)

	require.NoError(t, repo.Save(ctx, transfer))

	retrieved, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, fromUser, retrieved.FromUserID)
	assert.Equal(t, toUser, retrieved.ToUserID)
	assert.True(t, retrieved.AmountSent.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, cashdesk.TransferStatusPending, retrieved.Status)
	// the token survives the round trip so acceptance can verify it
	assert.Equal(t, transfer.Token(), retrieved.Token())
	assert.Len(t, retrieved.Token(), 64)
}

func TestGormCashTransferRepository_FindPendingExpiredBefore(t *testing.T) {
	db := setupCashTransferTestDB(t)
	repo := NewGormCashTransferRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := newPendingTransfer(t, uuid.New(), uuid.New(), now)
	fresh := newPendingTransfer(t, uuid.New(), uuid.New(), now.Add(12*time.Hour))
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	cutoff := now.Add(cashdesk.TokenValidity).Add(time.Minute)
	expired, err := repo.FindPendingExpiredBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	none, err := repo.FindPendingExpiredBefore(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormCashTransferRepository_SaveAcceptance(t *testing.T) {
	db := setupCashTransferTestDB(t)
	repo := NewGormCashTransferRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	transfer := newPendingTransfer(t, uuid.New(), uuid.New(), now)
	require.NoError(t, repo.Save(ctx, transfer))

	accepted, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)
	require.NoError(t, accepted.Accept(accepted.Token(), nil, now.Add(time.Hour)))

	require.NoError(t, repo.SaveAcceptance(ctx, accepted))

	retrieved, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, cashdesk.TransferStatusAccepted, retrieved.Status)
	require.NotNil(t, retrieved.AmountReceived)
	assert.True(t, retrieved.AmountReceived.Equal(decimal.NewFromInt(15000)))
	require.NotNil(t, retrieved.AcceptedAt)
}

func TestGormCashTransferRepository_SaveAcceptance_SingleWinner(t *testing.T) {
	db := setupCashTransferTestDB(t)
	repo := NewGormCashTransferRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	transfer := newPendingTransfer(t, uuid.New(), uuid.New(), now)
	require.NoError(t, repo.Save(ctx, transfer))

	// two workers load the same pending row
	first, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)

	require.NoError(t, first.Accept(first.Token(), nil, now.Add(time.Hour)))
	require.NoError(t, repo.SaveAcceptance(ctx, first))

	require.NoError(t, second.Accept(second.Token(), nil, now.Add(time.Hour)))
	err = repo.SaveAcceptance(ctx, second)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
}

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormCashTransferRepository implements CashTransferRepository using GORM
type GormCashTransferRepository struct {
	db *gorm.DB
}

// NewGormCashTransferRepository creates a new GormCashTransferRepository
func NewGormCashTransferRepository(db *gorm.DB) *GormCashTransferRepository {
	return &GormCashTransferRepository{db: db}
}

// FindByID finds a cash transfer by ID
func (r *GormCashTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*cashdesk.CashTransfer, error) {
	var model models.CashTransferModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds cash transfers matching the filter
func (r *GormCashTransferRepository) FindAll(ctx context.Context, filter cashdesk.TransferFilter) ([]cashdesk.CashTransfer, error) {
	var transferModels []models.CashTransferModel
	query := r.db.WithContext(ctx).Model(&models.CashTransferModel{})

	if filter.CaisseID != nil {
		query = query.Where("caisse_id = ?", *filter.CaisseID)
	}
	if filter.FromUser != nil {
		query = query.Where("from_user_id = ?", *filter.FromUser)
	}
	if filter.ToUser != nil {
		query = query.Where("to_user_id = ?", *filter.ToUser)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("created_at DESC").Find(&transferModels).Error; err != nil {
		return nil, err
	}
	transfers := make([]cashdesk.CashTransfer, len(transferModels))
	for i, model := range transferModels {
		transfers[i] = *model.ToDomain()
	}
	return transfers, nil
}

// FindPendingExpiredBefore finds pending transfers whose token window has
// passed, for the cleanup sweep
func (r *GormCashTransferRepository) FindPendingExpiredBefore(ctx context.Context, cutoff time.Time) ([]cashdesk.CashTransfer, error) {
	var transferModels []models.CashTransferModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND token_expires_at <= ?", cashdesk.TransferStatusPending, cutoff).
		Find(&transferModels).Error; err != nil {
		return nil, err
	}
	transfers := make([]cashdesk.CashTransfer, len(transferModels))
	for i, model := range transferModels {
		transfers[i] = *model.ToDomain()
	}
	return transfers, nil
}

// Save creates or updates a cash transfer
func (r *GormCashTransferRepository) Save(ctx context.Context, transfer *cashdesk.CashTransfer) error {
	model := models.CashTransferModelFromDomain(transfer)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAcceptance persists an accepted transfer with a compare-and-swap on
// the stored status: the update only applies while the row is still pending,
// so exactly one of any number of concurrent accepts wins.
func (r *GormCashTransferRepository) SaveAcceptance(ctx context.Context, transfer *cashdesk.CashTransfer) error {
	model := models.CashTransferModelFromDomain(transfer)
	result := r.db.WithContext(ctx).
		Model(&models.CashTransferModel{}).
		Where("id = ? AND status = ?", model.ID, cashdesk.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"amount_received": model.AmountReceived,
			"accepted_at":     model.AcceptedAt,
			"updated_at":      model.UpdatedAt,
			"version":         model.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewStateConflictError("CONCURRENCY_CONFLICT",
			"Cash transfer was resolved by another process")
	}
	return nil
}

// Ensure GormCashTransferRepository implements CashTransferRepository
var _ cashdesk.CashTransferRepository = (*GormCashTransferRepository)(nil)

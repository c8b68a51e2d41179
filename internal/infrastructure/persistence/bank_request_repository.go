package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormBankTransactionRequestRepository implements BankTransactionRequestRepository using GORM
type GormBankTransactionRequestRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRequestRepository creates a new GormBankTransactionRequestRepository
func NewGormBankTransactionRequestRepository(db *gorm.DB) *GormBankTransactionRequestRepository {
	return &GormBankTransactionRequestRepository{db: db}
}

// FindByID finds a bank transaction request by ID
func (r *GormBankTransactionRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.BankTransactionRequest, error) {
	var model models.BankTransactionRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLedgerEntry finds the request attached to a ledger entry, if any
func (r *GormBankTransactionRequestRepository) FindByLedgerEntry(ctx context.Context, entryID uuid.UUID) (*ledger.BankTransactionRequest, error) {
	var model models.BankTransactionRequestModel
	if err := r.db.WithContext(ctx).First(&model, "ledger_entry_id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds bank transaction requests matching the filter
func (r *GormBankTransactionRequestRepository) FindAll(ctx context.Context, filter ledger.BankRequestFilter) ([]ledger.BankTransactionRequest, error) {
	var requestModels []models.BankTransactionRequestModel
	query := r.db.WithContext(ctx).Model(&models.BankTransactionRequestModel{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequestedBy != nil {
		query = query.Where("requested_by = ?", *filter.RequestedBy)
	}

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("created_at DESC").Find(&requestModels).Error; err != nil {
		return nil, err
	}
	requests := make([]ledger.BankTransactionRequest, len(requestModels))
	for i, model := range requestModels {
		requests[i] = *model.ToDomain()
	}
	return requests, nil
}

// Save creates or updates a bank transaction request
func (r *GormBankTransactionRequestRepository) Save(ctx context.Context, request *ledger.BankTransactionRequest) error {
	model := models.BankTransactionRequestModelFromDomain(request)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormBankTransactionRequestRepository implements BankTransactionRequestRepository
var _ ledger.BankTransactionRequestRepository = (*GormBankTransactionRequestRepository)(nil)

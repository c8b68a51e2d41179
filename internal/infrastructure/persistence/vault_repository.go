package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormVaultRepository implements VaultRepository using GORM
type GormVaultRepository struct {
	db *gorm.DB
}

// NewGormVaultRepository creates a new GormVaultRepository
func NewGormVaultRepository(db *gorm.DB) *GormVaultRepository {
	return &GormVaultRepository{db: db}
}

// FindByID finds a vault by ID
func (r *GormVaultRepository) FindByID(ctx context.Context, id uuid.UUID) (*vault.Vault, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDForUpdate finds a vault by ID with a row lock so balance
// adjustments serialize
func (r *GormVaultRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*vault.Vault, error) {
	return r.findByID(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormVaultRepository) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*vault.Vault, error) {
	var model models.VaultModel
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all vaults
func (r *GormVaultRepository) FindAll(ctx context.Context, filter shared.Filter) ([]vault.Vault, error) {
	var vaultModels []models.VaultModel
	query := r.db.WithContext(ctx).Model(&models.VaultModel{})

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("name ASC").Find(&vaultModels).Error; err != nil {
		return nil, err
	}
	vaults := make([]vault.Vault, len(vaultModels))
	for i, model := range vaultModels {
		vaults[i] = *model.ToDomain()
	}
	return vaults, nil
}

// Save creates or updates a vault
func (r *GormVaultRepository) Save(ctx context.Context, v *vault.Vault) error {
	model := models.VaultModelFromDomain(v)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormVaultRepository implements VaultRepository
var _ vault.VaultRepository = (*GormVaultRepository)(nil)

// GormVaultTransactionRepository implements VaultTransactionRepository using GORM
type GormVaultTransactionRepository struct {
	db *gorm.DB
}

// NewGormVaultTransactionRepository creates a new GormVaultTransactionRepository
func NewGormVaultTransactionRepository(db *gorm.DB) *GormVaultTransactionRepository {
	return &GormVaultTransactionRepository{db: db}
}

// FindByID finds a vault transaction by ID
func (r *GormVaultTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*vault.VaultTransaction, error) {
	var model models.VaultTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds vault transactions matching the filter
func (r *GormVaultTransactionRepository) FindAll(ctx context.Context, filter vault.TransactionFilter) ([]vault.VaultTransaction, error) {
	var txModels []models.VaultTransactionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.VaultTransactionModel{}), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("created_at DESC").Find(&txModels).Error; err != nil {
		return nil, err
	}
	txs := make([]vault.VaultTransaction, len(txModels))
	for i, model := range txModels {
		txs[i] = *model.ToDomain()
	}
	return txs, nil
}

// Save creates or updates a vault transaction
func (r *GormVaultTransactionRepository) Save(ctx context.Context, transaction *vault.VaultTransaction) error {
	model := models.VaultTransactionModelFromDomain(transaction)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts vault transactions matching the filter
func (r *GormVaultTransactionRepository) Count(ctx context.Context, filter vault.TransactionFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.VaultTransactionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormVaultTransactionRepository) applyFilter(query *gorm.DB, filter vault.TransactionFilter) *gorm.DB {
	if filter.VaultID != nil {
		query = query.Where("vault_id = ?", *filter.VaultID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
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
	return query
}

// Ensure GormVaultTransactionRepository implements VaultTransactionRepository
var _ vault.VaultTransactionRepository = (*GormVaultTransactionRepository)(nil)

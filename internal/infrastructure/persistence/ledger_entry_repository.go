package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// FindByID finds a ledger entry by ID
func (r *GormLedgerEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBillable finds all entries for a billable reference
func (r *GormLedgerEntryRepository) FindByBillable(ctx context.Context, ref ledger.BillableRef) ([]ledger.LedgerEntry, error) {
	return r.findByBillable(ctx, r.db, ref)
}

// FindByBillableForUpdate finds all entries for a billable reference with a
// row lock, so the outstanding-amount recomputation and the insert that
// follows are one serialized step.
func (r *GormLedgerEntryRepository) FindByBillableForUpdate(ctx context.Context, ref ledger.BillableRef) ([]ledger.LedgerEntry, error) {
	return r.findByBillable(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

func (r *GormLedgerEntryRepository) findByBillable(ctx context.Context, db *gorm.DB, ref ledger.BillableRef) ([]ledger.LedgerEntry, error) {
	query := db.WithContext(ctx).Model(&models.LedgerEntryModel{})
	switch {
	case ref.ItemID != nil:
		query = query.Where("item_id = ?", *ref.ItemID)
	case ref.DependencyID != nil:
		query = query.Where("dependency_id = ?", *ref.DependencyID)
	default:
		return nil, ledger.BillableRef{}.Validate()
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Order("created_at ASC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindAll finds entries matching the filter
func (r *GormLedgerEntryRepository) FindAll(ctx context.Context, filter ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("created_at DESC").Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Save creates or updates a ledger entry
func (r *GormLedgerEntryRepository) Save(ctx context.Context, entry *ledger.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts entries matching the filter
func (r *GormLedgerEntryRepository) Count(ctx context.Context, filter ledger.EntryFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter ledger.EntryFilter) *gorm.DB {
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.CashierID != nil {
		query = query.Where("cashier_id = ?", *filter.CashierID)
	}
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
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

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ ledger.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)

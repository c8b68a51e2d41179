package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormRefundAuthorizationRepository implements RefundAuthorizationRepository using GORM
type GormRefundAuthorizationRepository struct {
	db *gorm.DB
}

// NewGormRefundAuthorizationRepository creates a new GormRefundAuthorizationRepository
func NewGormRefundAuthorizationRepository(db *gorm.DB) *GormRefundAuthorizationRepository {
	return &GormRefundAuthorizationRepository{db: db}
}

// FindByID finds a refund authorization by ID
func (r *GormRefundAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDForUpdate finds a refund authorization by ID with a row lock, so
// concurrent consumes serialize and at most one refund uses it.
func (r *GormRefundAuthorizationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	return r.findByID(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRefundAuthorizationRepository) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	var model models.RefundAuthorizationModel
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds refund authorizations matching the filter
func (r *GormRefundAuthorizationRepository) FindAll(ctx context.Context, filter ledger.AuthorizationFilter) ([]ledger.RefundAuthorization, error) {
	var authModels []models.RefundAuthorizationModel
	query := r.db.WithContext(ctx).Model(&models.RefundAuthorizationModel{})

	if filter.RequestedBy != nil {
		query = query.Where("requested_by = ?", *filter.RequestedBy)
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

	if err := query.Order("created_at DESC").Find(&authModels).Error; err != nil {
		return nil, err
	}
	auths := make([]ledger.RefundAuthorization, len(authModels))
	for i, model := range authModels {
		auths[i] = *model.ToDomain()
	}
	return auths, nil
}

// FindApprovedExpiredBefore finds approved authorizations whose validity
// window elapsed before the cutoff, for the expiry sweep
func (r *GormRefundAuthorizationRepository) FindApprovedExpiredBefore(ctx context.Context, cutoff time.Time) ([]ledger.RefundAuthorization, error) {
	var authModels []models.RefundAuthorizationModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", ledger.AuthorizationStatusApproved, cutoff).
		Find(&authModels).Error; err != nil {
		return nil, err
	}
	auths := make([]ledger.RefundAuthorization, len(authModels))
	for i, model := range authModels {
		auths[i] = *model.ToDomain()
	}
	return auths, nil
}

// Save creates or updates a refund authorization
func (r *GormRefundAuthorizationRepository) Save(ctx context.Context, authorization *ledger.RefundAuthorization) error {
	model := models.RefundAuthorizationModelFromDomain(authorization)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormRefundAuthorizationRepository implements RefundAuthorizationRepository
var _ ledger.RefundAuthorizationRepository = (*GormRefundAuthorizationRepository)(nil)

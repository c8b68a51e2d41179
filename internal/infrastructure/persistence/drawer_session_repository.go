package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormDrawerSessionRepository implements DrawerSessionRepository using GORM
type GormDrawerSessionRepository struct {
	db *gorm.DB
}

// NewGormDrawerSessionRepository creates a new GormDrawerSessionRepository
func NewGormDrawerSessionRepository(db *gorm.DB) *GormDrawerSessionRepository {
	return &GormDrawerSessionRepository{db: db}
}

// FindByID finds a drawer session by ID
func (r *GormDrawerSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*cashdesk.DrawerSession, error) {
	var model models.DrawerSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindActiveByCaisse finds the open or suspended session for a caisse, or nil
func (r *GormDrawerSessionRepository) FindActiveByCaisse(ctx context.Context, caisseID uuid.UUID) (*cashdesk.DrawerSession, error) {
	return r.findActiveByCaisse(ctx, r.db, caisseID)
}

// FindActiveByCaisseForUpdate locks the active-session row so concurrent
// opens on the same caisse serialize
func (r *GormDrawerSessionRepository) FindActiveByCaisseForUpdate(ctx context.Context, caisseID uuid.UUID) (*cashdesk.DrawerSession, error) {
	return r.findActiveByCaisse(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), caisseID)
}

func (r *GormDrawerSessionRepository) findActiveByCaisse(ctx context.Context, db *gorm.DB, caisseID uuid.UUID) (*cashdesk.DrawerSession, error) {
	var model models.DrawerSessionModel
	if err := db.WithContext(ctx).
		Where("caisse_id = ? AND status IN ?", caisseID,
			[]cashdesk.SessionStatus{cashdesk.SessionStatusOpen, cashdesk.SessionStatusSuspended}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll finds drawer sessions matching the filter
func (r *GormDrawerSessionRepository) FindAll(ctx context.Context, filter cashdesk.SessionFilter) ([]cashdesk.DrawerSession, error) {
	var sessionModels []models.DrawerSessionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DrawerSessionModel{}), filter)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 0 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	if err := query.Order("opened_at DESC").Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]cashdesk.DrawerSession, len(sessionModels))
	for i := range sessionModels {
		session, err := sessionModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sessions[i] = *session
	}
	return sessions, nil
}

// Save creates or updates a drawer session
func (r *GormDrawerSessionRepository) Save(ctx context.Context, session *cashdesk.DrawerSession) error {
	model, err := models.DrawerSessionModelFromDomain(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// Count counts drawer sessions matching the filter
func (r *GormDrawerSessionRepository) Count(ctx context.Context, filter cashdesk.SessionFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DrawerSessionModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormDrawerSessionRepository) applyFilter(query *gorm.DB, filter cashdesk.SessionFilter) *gorm.DB {
	if filter.CaisseID != nil {
		query = query.Where("caisse_id = ?", *filter.CaisseID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("opened_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("opened_at <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormDrawerSessionRepository implements DrawerSessionRepository
var _ cashdesk.DrawerSessionRepository = (*GormDrawerSessionRepository)(nil)

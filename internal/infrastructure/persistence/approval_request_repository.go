package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/infrastructure/persistence/models"
)

// GormApprovalRequestRepository implements ApprovalRequestRepository using GORM
type GormApprovalRequestRepository struct {
	db *gorm.DB
}

// NewGormApprovalRequestRepository creates a new GormApprovalRequestRepository
func NewGormApprovalRequestRepository(db *gorm.DB) *GormApprovalRequestRepository {
	return &GormApprovalRequestRepository{db: db}
}

// FindByID finds an approval request by ID
func (r *GormApprovalRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*vault.ApprovalRequest, error) {
	return r.findByID(ctx, r.db, id)
}

// FindByIDForUpdate finds an approval request by ID with a row lock so
// concurrent resolutions serialize
func (r *GormApprovalRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*vault.ApprovalRequest, error) {
	return r.findByID(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormApprovalRequestRepository) findByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*vault.ApprovalRequest, error) {
	var model models.ApprovalRequestModel
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTransaction finds the approval request for a transaction, if any
func (r *GormApprovalRequestRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*vault.ApprovalRequest, error) {
	var model models.ApprovalRequestModel
	if err := r.db.WithContext(ctx).First(&model, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPendingForCandidate lists unresolved requests whose candidate pool
// contains the user. The pool is a JSON array; membership is checked after
// load so the query stays portable across postgres and the sqlite test
// driver.
func (r *GormApprovalRequestRepository) FindPendingForCandidate(ctx context.Context, userID uuid.UUID) ([]vault.ApprovalRequest, error) {
	var requestModels []models.ApprovalRequestModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", vault.ApprovalStatusPending).
		Order("created_at ASC").
		Find(&requestModels).Error; err != nil {
		return nil, err
	}
	requests := make([]vault.ApprovalRequest, 0, len(requestModels))
	for i := range requestModels {
		request := requestModels[i].ToDomain()
		if request.Candidates.Contains(userID) {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

// Save creates or updates an approval request
func (r *GormApprovalRequestRepository) Save(ctx context.Context, request *vault.ApprovalRequest) error {
	model := models.ApprovalRequestModelFromDomain(request)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormApprovalRequestRepository implements ApprovalRequestRepository
var _ vault.ApprovalRequestRepository = (*GormApprovalRequestRepository)(nil)

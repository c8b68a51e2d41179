package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
)

// The provider implementations below are anti-corruption adapters over
// tables owned by the billing and identity contexts. They read and patch
// those tables directly but never own their schema or lifecycle.

// GormBillableItemProvider implements BillableItemProvider against the
// billing context's item and dependency tables.
type GormBillableItemProvider struct {
	db *gorm.DB
}

// NewGormBillableItemProvider creates a new GormBillableItemProvider
func NewGormBillableItemProvider(db *gorm.DB) *GormBillableItemProvider {
	return &GormBillableItemProvider{db: db}
}

// table resolves the owning table and key for a billable reference
func (p *GormBillableItemProvider) table(ref ledger.BillableRef) (string, uuid.UUID, error) {
	switch {
	case ref.ItemID != nil:
		return "fiche_navette_items", *ref.ItemID, nil
	case ref.DependencyID != nil:
		return "item_dependencies", *ref.DependencyID, nil
	default:
		return "", uuid.Nil, ledger.BillableRef{}.Validate()
	}
}

// Exists reports whether the referenced billable line exists
func (p *GormBillableItemProvider) Exists(ctx context.Context, ref ledger.BillableRef) (bool, error) {
	table, id, err := p.table(ref)
	if err != nil {
		return false, err
	}
	var count int64
	if err := p.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FinalPrice returns the line's final price after convention discounts
func (p *GormBillableItemProvider) FinalPrice(ctx context.Context, ref ledger.BillableRef) (decimal.Decimal, error) {
	table, id, err := p.table(ref)
	if err != nil {
		return decimal.Zero, err
	}
	var price decimal.Decimal
	if err := p.db.WithContext(ctx).Table(table).
		Select("final_price").
		Where("id = ?", id).
		Scan(&price).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return price, nil
}

// DecrementRemaining lowers the cached remaining amount, floored at zero
func (p *GormBillableItemProvider) DecrementRemaining(ctx context.Context, ref ledger.BillableRef, amount decimal.Decimal) error {
	table, id, err := p.table(ref)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		Update("remaining_amount",
			gorm.Expr("CASE WHEN remaining_amount - ? < 0 THEN 0 ELSE remaining_amount - ? END", amount, amount)).
		Error
}

// IncrementRemaining raises the cached remaining amount, capped at the final price
func (p *GormBillableItemProvider) IncrementRemaining(ctx context.Context, ref ledger.BillableRef, amount decimal.Decimal) error {
	table, id, err := p.table(ref)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		Update("remaining_amount",
			gorm.Expr("CASE WHEN remaining_amount + ? > final_price THEN final_price ELSE remaining_amount + ? END", amount, amount)).
		Error
}

// Ensure GormBillableItemProvider implements BillableItemProvider
var _ acl.BillableItemProvider = (*GormBillableItemProvider)(nil)

// GormBankAccountProvider implements BankAccountProvider against the
// treasury context's bank account table.
type GormBankAccountProvider struct {
	db *gorm.DB
}

// NewGormBankAccountProvider creates a new GormBankAccountProvider
func NewGormBankAccountProvider(db *gorm.DB) *GormBankAccountProvider {
	return &GormBankAccountProvider{db: db}
}

// Exists reports whether the bank account reference is known
func (p *GormBankAccountProvider) Exists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Table("bank_accounts").
		Where("id = ?", accountID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsActive reports whether the bank account is active
func (p *GormBankAccountProvider) IsActive(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Table("bank_accounts").
		Where("id = ? AND is_active = ?", accountID, true).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormBankAccountProvider implements BankAccountProvider
var _ acl.BankAccountProvider = (*GormBankAccountProvider)(nil)

// GormIdentityProvider implements IdentityProvider against the identity
// context's user and role tables.
type GormIdentityProvider struct {
	db *gorm.DB
}

// NewGormIdentityProvider creates a new GormIdentityProvider
func NewGormIdentityProvider(db *gorm.DB) *GormIdentityProvider {
	return &GormIdentityProvider{db: db}
}

// Exists reports whether the user reference is known
func (p *GormIdentityProvider) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Table("users").
		Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasRole reports whether the user carries the given role
func (p *GormIdentityProvider) HasRole(ctx context.Context, userID uuid.UUID, role acl.Role) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Table("user_roles").
		Where("user_id = ? AND role = ?", userID, string(role)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UsersWithRole resolves the user ids carrying a role
func (p *GormIdentityProvider) UsersWithRole(ctx context.Context, role acl.Role) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	if err := p.db.WithContext(ctx).Table("user_roles").
		Select("user_id").
		Where("role = ?", string(role)).
		Scan(&userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

// Ensure GormIdentityProvider implements IdentityProvider
var _ acl.IdentityProvider = (*GormIdentityProvider)(nil)

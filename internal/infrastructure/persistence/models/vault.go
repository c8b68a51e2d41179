package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// VaultModel is the persistence model for the Vault aggregate root.
type VaultModel struct {
	AggregateModel
	Name     string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Balance  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IsActive bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (VaultModel) TableName() string {
	return "vaults"
}

// ToDomain converts the persistence model to a domain Vault entity.
func (m *VaultModel) ToDomain() *vault.Vault {
	return &vault.Vault{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Balance:           m.Balance,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Vault entity.
func (m *VaultModel) FromDomain(v *vault.Vault) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.Name = v.Name
	m.Balance = v.Balance
	m.IsActive = v.IsActive
}

// VaultModelFromDomain creates a new persistence model from domain.
func VaultModelFromDomain(v *vault.Vault) *VaultModel {
	m := &VaultModel{}
	m.FromDomain(v)
	return m
}

// VaultTransactionModel is the persistence model for the VaultTransaction aggregate root.
type VaultTransactionModel struct {
	AggregateModel
	VaultID uuid.UUID               `gorm:"type:uuid;not null;index"`
	UserID  uuid.UUID               `gorm:"type:uuid;not null;index"`
	Type    vault.TransactionType   `gorm:"type:varchar(20);not null;index"`
	Amount  decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Status  vault.TransactionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	SourceSessionID    *uuid.UUID `gorm:"type:uuid"`
	DestinationBankID  *uuid.UUID `gorm:"type:uuid"`
	DestinationVaultID *uuid.UUID `gorm:"type:uuid"`

	Notes       string `gorm:"type:text"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (VaultTransactionModel) TableName() string {
	return "vault_transactions"
}

// ToDomain converts the persistence model to a domain VaultTransaction entity.
func (m *VaultTransactionModel) ToDomain() *vault.VaultTransaction {
	return &vault.VaultTransaction{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		VaultID:            m.VaultID,
		UserID:             m.UserID,
		Type:               m.Type,
		Amount:             m.Amount,
		Status:             m.Status,
		SourceSessionID:    m.SourceSessionID,
		DestinationBankID:  m.DestinationBankID,
		DestinationVaultID: m.DestinationVaultID,
		Notes:              m.Notes,
		CompletedAt:        m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain VaultTransaction entity.
func (m *VaultTransactionModel) FromDomain(tx *vault.VaultTransaction) {
	m.FromDomainAggregateRoot(tx.BaseAggregateRoot)
	m.VaultID = tx.VaultID
	m.UserID = tx.UserID
	m.Type = tx.Type
	m.Amount = tx.Amount
	m.Status = tx.Status
	m.SourceSessionID = tx.SourceSessionID
	m.DestinationBankID = tx.DestinationBankID
	m.DestinationVaultID = tx.DestinationVaultID
	m.Notes = tx.Notes
	m.CompletedAt = tx.CompletedAt
}

// VaultTransactionModelFromDomain creates a new persistence model from domain.
func VaultTransactionModelFromDomain(tx *vault.VaultTransaction) *VaultTransactionModel {
	m := &VaultTransactionModel{}
	m.FromDomain(tx)
	return m
}

// ApprovalRequestModel is the persistence model for the ApprovalRequest aggregate root.
// Candidates serializes through the CandidateSet Valuer/Scanner as a JSON array.
type ApprovalRequestModel struct {
	AggregateModel
	TransactionID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Candidates    vault.CandidateSet   `gorm:"type:jsonb;not null"`
	Status        vault.ApprovalStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy    *uuid.UUID           `gorm:"type:uuid"`
	RejectReason  string               `gorm:"type:varchar(500)"`
	ResolvedAt    *time.Time
}

// TableName returns the table name for GORM
func (ApprovalRequestModel) TableName() string {
	return "vault_approval_requests"
}

// ToDomain converts the persistence model to a domain ApprovalRequest entity.
func (m *ApprovalRequestModel) ToDomain() *vault.ApprovalRequest {
	return &vault.ApprovalRequest{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TransactionID:     m.TransactionID,
		Candidates:        m.Candidates,
		Status:            m.Status,
		ApprovedBy:        m.ApprovedBy,
		RejectReason:      m.RejectReason,
		ResolvedAt:        m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain ApprovalRequest entity.
func (m *ApprovalRequestModel) FromDomain(r *vault.ApprovalRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.TransactionID = r.TransactionID
	m.Candidates = r.Candidates
	m.Status = r.Status
	m.ApprovedBy = r.ApprovedBy
	m.RejectReason = r.RejectReason
	m.ResolvedAt = r.ResolvedAt
}

// ApprovalRequestModelFromDomain creates a new persistence model from domain.
func ApprovalRequestModelFromDomain(r *vault.ApprovalRequest) *ApprovalRequestModel {
	m := &ApprovalRequestModel{}
	m.FromDomain(r)
	return m
}

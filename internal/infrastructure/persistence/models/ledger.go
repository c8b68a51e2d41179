package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
)

// LedgerEntryModel is the persistence model for the LedgerEntry aggregate root.
type LedgerEntryModel struct {
	AggregateModel
	ItemID            *uuid.UUID         `gorm:"type:uuid;index"`
	DependencyID      *uuid.UUID         `gorm:"type:uuid;index"`
	PatientID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	CashierID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	ApproverID        *uuid.UUID         `gorm:"type:uuid"`
	SessionID         *uuid.UUID         `gorm:"type:uuid;index"`
	Amount            decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Kind              ledger.EntryKind   `gorm:"type:varchar(20);not null;index"`
	Method            ledger.PaymentMethod `gorm:"type:varchar(20);not null"`
	IsBankTransaction bool               `gorm:"not null;default:false"`
	BankAccountID     *uuid.UUID         `gorm:"type:uuid"`
	OriginalEntryID   *uuid.UUID         `gorm:"type:uuid"`
	AuthorizationID   *uuid.UUID         `gorm:"type:uuid"`
	Status            ledger.EntryStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Notes             string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *ledger.LedgerEntry {
	return &ledger.LedgerEntry{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Billable: ledger.BillableRef{
			ItemID:       m.ItemID,
			DependencyID: m.DependencyID,
		},
		PatientID:         m.PatientID,
		CashierID:         m.CashierID,
		ApproverID:        m.ApproverID,
		SessionID:         m.SessionID,
		Amount:            m.Amount,
		Kind:              m.Kind,
		Method:            m.Method,
		IsBankTransaction: m.IsBankTransaction,
		BankAccountID:     m.BankAccountID,
		OriginalEntryID:   m.OriginalEntryID,
		AuthorizationID:   m.AuthorizationID,
		Status:            m.Status,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry entity.
func (m *LedgerEntryModel) FromDomain(e *ledger.LedgerEntry) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.ItemID = e.Billable.ItemID
	m.DependencyID = e.Billable.DependencyID
	m.PatientID = e.PatientID
	m.CashierID = e.CashierID
	m.ApproverID = e.ApproverID
	m.SessionID = e.SessionID
	m.Amount = e.Amount
	m.Kind = e.Kind
	m.Method = e.Method
	m.IsBankTransaction = e.IsBankTransaction
	m.BankAccountID = e.BankAccountID
	m.OriginalEntryID = e.OriginalEntryID
	m.AuthorizationID = e.AuthorizationID
	m.Status = e.Status
	m.Notes = e.Notes
}

// LedgerEntryModelFromDomain creates a new persistence model from domain.
func LedgerEntryModelFromDomain(e *ledger.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}

// RefundAuthorizationModel is the persistence model for the RefundAuthorization aggregate root.
type RefundAuthorizationModel struct {
	AggregateModel
	ItemID           *uuid.UUID                 `gorm:"type:uuid;index"`
	DependencyID     *uuid.UUID                 `gorm:"type:uuid;index"`
	RequestedAmount  decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	AuthorizedAmount *decimal.Decimal           `gorm:"type:decimal(18,2)"`
	Reason           string                     `gorm:"type:varchar(500)"`
	Status           ledger.AuthorizationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ExpiresAt        *time.Time                 `gorm:"index"`
	RequestedBy      uuid.UUID                  `gorm:"type:uuid;not null"`
	AuthorizedBy     *uuid.UUID                 `gorm:"type:uuid"`
	RejectReason     string                     `gorm:"type:varchar(500)"`
	ConsumedByEntry  *uuid.UUID                 `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RefundAuthorizationModel) TableName() string {
	return "refund_authorizations"
}

// ToDomain converts the persistence model to a domain RefundAuthorization entity.
func (m *RefundAuthorizationModel) ToDomain() *ledger.RefundAuthorization {
	return &ledger.RefundAuthorization{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Billable: ledger.BillableRef{
			ItemID:       m.ItemID,
			DependencyID: m.DependencyID,
		},
		RequestedAmount:  m.RequestedAmount,
		AuthorizedAmount: m.AuthorizedAmount,
		Reason:           m.Reason,
		Status:           m.Status,
		ExpiresAt:        m.ExpiresAt,
		RequestedBy:      m.RequestedBy,
		AuthorizedBy:     m.AuthorizedBy,
		RejectReason:     m.RejectReason,
		ConsumedByEntry:  m.ConsumedByEntry,
	}
}

// FromDomain populates the persistence model from a domain RefundAuthorization entity.
func (m *RefundAuthorizationModel) FromDomain(a *ledger.RefundAuthorization) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.ItemID = a.Billable.ItemID
	m.DependencyID = a.Billable.DependencyID
	m.RequestedAmount = a.RequestedAmount
	m.AuthorizedAmount = a.AuthorizedAmount
	m.Reason = a.Reason
	m.Status = a.Status
	m.ExpiresAt = a.ExpiresAt
	m.RequestedBy = a.RequestedBy
	m.AuthorizedBy = a.AuthorizedBy
	m.RejectReason = a.RejectReason
	m.ConsumedByEntry = a.ConsumedByEntry
}

// RefundAuthorizationModelFromDomain creates a new persistence model from domain.
func RefundAuthorizationModelFromDomain(a *ledger.RefundAuthorization) *RefundAuthorizationModel {
	m := &RefundAuthorizationModel{}
	m.FromDomain(a)
	return m
}

// BankTransactionRequestModel is the persistence model for the BankTransactionRequest aggregate root.
type BankTransactionRequestModel struct {
	AggregateModel
	LedgerEntryID uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	RequestedBy   uuid.UUID                `gorm:"type:uuid;not null"`
	ApprovedBy    *uuid.UUID               `gorm:"type:uuid"`
	IsApproved    bool                     `gorm:"not null;default:false"`
	Status        ledger.BankRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Amount        decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Method        ledger.PaymentMethod     `gorm:"type:varchar(20);not null"`
	ApprovedAt    *time.Time
	RejectReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BankTransactionRequestModel) TableName() string {
	return "bank_transaction_requests"
}

// ToDomain converts the persistence model to a domain BankTransactionRequest entity.
func (m *BankTransactionRequestModel) ToDomain() *ledger.BankTransactionRequest {
	return &ledger.BankTransactionRequest{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		LedgerEntryID:     m.LedgerEntryID,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		IsApproved:        m.IsApproved,
		Status:            m.Status,
		Amount:            m.Amount,
		Method:            m.Method,
		ApprovedAt:        m.ApprovedAt,
		RejectReason:      m.RejectReason,
	}
}

// FromDomain populates the persistence model from a domain BankTransactionRequest entity.
func (m *BankTransactionRequestModel) FromDomain(r *ledger.BankTransactionRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.LedgerEntryID = r.LedgerEntryID
	m.RequestedBy = r.RequestedBy
	m.ApprovedBy = r.ApprovedBy
	m.IsApproved = r.IsApproved
	m.Status = r.Status
	m.Amount = r.Amount
	m.Method = r.Method
	m.ApprovedAt = r.ApprovedAt
	m.RejectReason = r.RejectReason
}

// BankTransactionRequestModelFromDomain creates a new persistence model from domain.
func BankTransactionRequestModelFromDomain(r *ledger.BankTransactionRequest) *BankTransactionRequestModel {
	m := &BankTransactionRequestModel{}
	m.FromDomain(r)
	return m
}

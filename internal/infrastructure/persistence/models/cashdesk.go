package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
)

// DrawerSessionModel is the persistence model for the DrawerSession aggregate root.
type DrawerSessionModel struct {
	AggregateModel
	CaisseID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	OpenedBy uuid.UUID  `gorm:"type:uuid;not null"`
	ClosedBy *uuid.UUID `gorm:"type:uuid"`

	Status cashdesk.SessionStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`

	OpeningAmount         decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	ClosingAmount         *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ExpectedClosingAmount *decimal.Decimal `gorm:"type:decimal(18,2)"`
	TotalCashCounted      *decimal.Decimal `gorm:"type:decimal(18,2)"`
	CashDifference        *decimal.Decimal `gorm:"type:decimal(18,2)"`

	// Denominations holds the closing count as a JSON document.
	Denominations []byte `gorm:"type:jsonb"`

	TransferPending bool `gorm:"not null;default:false"`

	OpenedAt time.Time  `gorm:"not null;index"`
	ClosedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DrawerSessionModel) TableName() string {
	return "drawer_sessions"
}

// ToDomain converts the persistence model to a domain DrawerSession entity.
func (m *DrawerSessionModel) ToDomain() (*cashdesk.DrawerSession, error) {
	var denominations []cashdesk.Denomination
	if len(m.Denominations) > 0 {
		if err := json.Unmarshal(m.Denominations, &denominations); err != nil {
			return nil, err
		}
	}
	return &cashdesk.DrawerSession{
		BaseAggregateRoot:     m.ToDomainAggregateRoot(),
		CaisseID:              m.CaisseID,
		UserID:                m.UserID,
		OpenedBy:              m.OpenedBy,
		ClosedBy:              m.ClosedBy,
		Status:                m.Status,
		OpeningAmount:         m.OpeningAmount,
		ClosingAmount:         m.ClosingAmount,
		ExpectedClosingAmount: m.ExpectedClosingAmount,
		TotalCashCounted:      m.TotalCashCounted,
		CashDifference:        m.CashDifference,
		Denominations:         denominations,
		TransferPending:       m.TransferPending,
		OpenedAt:              m.OpenedAt,
		ClosedAt:              m.ClosedAt,
	}, nil
}

// FromDomain populates the persistence model from a domain DrawerSession entity.
func (m *DrawerSessionModel) FromDomain(s *cashdesk.DrawerSession) error {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.CaisseID = s.CaisseID
	m.UserID = s.UserID
	m.OpenedBy = s.OpenedBy
	m.ClosedBy = s.ClosedBy
	m.Status = s.Status
	m.OpeningAmount = s.OpeningAmount
	m.ClosingAmount = s.ClosingAmount
	m.ExpectedClosingAmount = s.ExpectedClosingAmount
	m.TotalCashCounted = s.TotalCashCounted
	m.CashDifference = s.CashDifference
	m.TransferPending = s.TransferPending
	m.OpenedAt = s.OpenedAt
	m.ClosedAt = s.ClosedAt

	if len(s.Denominations) > 0 {
		data, err := json.Marshal(s.Denominations)
		if err != nil {
			return err
		}
		m.Denominations = data
	} else {
		m.Denominations = nil
	}
	return nil
}

// DrawerSessionModelFromDomain creates a new persistence model from domain.
func DrawerSessionModelFromDomain(s *cashdesk.DrawerSession) (*DrawerSessionModel, error) {
	m := &DrawerSessionModel{}
	if err := m.FromDomain(s); err != nil {
		return nil, err
	}
	return m, nil
}

// CashTransferModel is the persistence model for the CashTransfer aggregate root.
// The transfer token lives only here and in the initiation response; the
// domain aggregate never serializes it.
type CashTransferModel struct {
	AggregateModel
	CaisseID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index"`

	AmountSent     decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	AmountReceived *decimal.Decimal `gorm:"type:decimal(18,2)"`

	HasProblems bool `gorm:"not null;default:false"`

	Status cashdesk.TransferStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	TransferToken  string    `gorm:"type:varchar(64);not null"`
	TokenExpiresAt time.Time `gorm:"not null;index"`

	AcceptedAt *time.Time
}

// TableName returns the table name for GORM
func (CashTransferModel) TableName() string {
	return "cash_transfers"
}

// ToDomain converts the persistence model to a domain CashTransfer entity.
func (m *CashTransferModel) ToDomain() *cashdesk.CashTransfer {
	t := &cashdesk.CashTransfer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CaisseID:          m.CaisseID,
		FromUserID:        m.FromUserID,
		ToUserID:          m.ToUserID,
		AmountSent:        m.AmountSent,
		AmountReceived:    m.AmountReceived,
		HasProblems:       m.HasProblems,
		Status:            m.Status,
		TokenExpiresAt:    m.TokenExpiresAt,
		AcceptedAt:        m.AcceptedAt,
	}
	t.RehydrateToken(m.TransferToken)
	return t
}

// FromDomain populates the persistence model from a domain CashTransfer entity.
func (m *CashTransferModel) FromDomain(t *cashdesk.CashTransfer) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.CaisseID = t.CaisseID
	m.FromUserID = t.FromUserID
	m.ToUserID = t.ToUserID
	m.AmountSent = t.AmountSent
	m.AmountReceived = t.AmountReceived
	m.HasProblems = t.HasProblems
	m.Status = t.Status
	m.TransferToken = t.Token()
	m.TokenExpiresAt = t.TokenExpiresAt
	m.AcceptedAt = t.AcceptedAt
}

// CashTransferModelFromDomain creates a new persistence model from domain.
func CashTransferModelFromDomain(t *cashdesk.CashTransfer) *CashTransferModel {
	m := &CashTransferModel{}
	m.FromDomain(t)
	return m
}

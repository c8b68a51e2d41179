package cashdesk

import (
	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// OpenSessionRequest carries the inputs for opening a drawer session.
// OpenedBy differs from UserID when a supervisor opens on a cashier's behalf.
type OpenSessionRequest struct {
	CaisseID      uuid.UUID
	UserID        uuid.UUID
	OpenedBy      uuid.UUID
	OpeningAmount valueobject.Money
}

// CloseSessionRequest carries the inputs for closing a drawer session.
// TotalCashCounted is derived from the denomination breakdown, never taken
// from the caller.
type CloseSessionRequest struct {
	SessionID             uuid.UUID
	ClosedBy              uuid.UUID
	ClosingAmount         valueobject.Money
	ExpectedClosingAmount valueobject.Money
	Denominations         []cashdesk.Denomination
}

// CloseSessionResult reports the derived closing figures
type CloseSessionResult struct {
	Session *cashdesk.DrawerSession `json:"session"`
	Result  *cashdesk.CloseResult   `json:"result"`
}

// InitiateTransferRequest carries the inputs for a custody hand-over
type InitiateTransferRequest struct {
	CaisseID    uuid.UUID
	FromUser    uuid.UUID
	ToUser      uuid.UUID
	Amount      valueobject.Money
	HasProblems bool
	// SessionID optionally links the sender's open session for the
	// transfer-pending flag
	SessionID *uuid.UUID
}

// InitiateTransferResult returns the created transfer together with the
// acceptance token. The token appears here once and is never serialized
// with the aggregate.
type InitiateTransferResult struct {
	Transfer *cashdesk.CashTransfer `json:"transfer"`
	Token    string                 `json:"token"`
}

// AcceptTransferRequest carries the inputs for accepting a transfer
type AcceptTransferRequest struct {
	TransferID     uuid.UUID
	AcceptedBy     uuid.UUID
	Token          string
	AmountReceived *valueobject.Money
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/hodaifayahia/HIS-sub012/internal/application/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// PaymentHandler handles ledger entry API endpoints
type PaymentHandler struct {
	BaseHandler
	service *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// BillableRefRequest identifies the billed item or dependency the money
// moves against. Exactly one of the two must be set.
type BillableRefRequest struct {
	ItemID       *string `json:"item_id" binding:"omitempty,uuid"`
	DependencyID *string `json:"dependency_id" binding:"omitempty,uuid"`
}

func (r BillableRefRequest) toDomain() (ledger.BillableRef, bool) {
	var ref ledger.BillableRef
	if r.ItemID != nil {
		id, err := uuid.Parse(*r.ItemID)
		if err != nil {
			return ref, false
		}
		ref.ItemID = &id
	}
	if r.DependencyID != nil {
		id, err := uuid.Parse(*r.DependencyID)
		if err != nil {
			return ref, false
		}
		ref.DependencyID = &id
	}
	return ref, ref.ItemID != nil || ref.DependencyID != nil
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Billable      BillableRefRequest `json:"billable" binding:"required"`
	PatientID     string             `json:"patient_id" binding:"required,uuid"`
	SessionID     *string            `json:"session_id" binding:"omitempty,uuid"`
	Amount        string             `json:"amount" binding:"required"`
	Method        string             `json:"method" binding:"required"`
	BankAccountID *string            `json:"bank_account_id" binding:"omitempty,uuid"`
	Notes         string             `json:"notes"`
}

// RecordRefundRequest represents a request to record a refund. Exactly one
// of original_entry_id or authorization_id must be set.
type RecordRefundRequest struct {
	Billable        BillableRefRequest `json:"billable" binding:"required"`
	OriginalEntryID *string            `json:"original_entry_id" binding:"omitempty,uuid"`
	AuthorizationID *string            `json:"authorization_id" binding:"omitempty,uuid"`
	PatientID       string             `json:"patient_id" binding:"required,uuid"`
	SessionID       *string            `json:"session_id" binding:"omitempty,uuid"`
	Amount          string             `json:"amount" binding:"required"`
	Method          string             `json:"method" binding:"required"`
	Notes           string             `json:"notes"`
}

// RecordOverpaymentRequest represents a request to settle an overpayment
type RecordOverpaymentRequest struct {
	Billable       BillableRefRequest `json:"billable" binding:"required"`
	PatientID      string             `json:"patient_id" binding:"required,uuid"`
	SessionID      *string            `json:"session_id" binding:"omitempty,uuid"`
	RequiredAmount string             `json:"required_amount" binding:"required"`
	PaidAmount     string             `json:"paid_amount" binding:"required"`
	Action         string             `json:"action" binding:"required,oneof=DONATE BALANCE"`
	Method         string             `json:"method" binding:"required"`
}

// BulkPaymentLineRequest is one line of a bulk payment
type BulkPaymentLineRequest struct {
	Billable BillableRefRequest `json:"billable" binding:"required"`
	Amount   string             `json:"amount" binding:"required"`
}

// RecordBulkPaymentRequest represents an all-or-nothing multi-item payment
type RecordBulkPaymentRequest struct {
	Lines     []BulkPaymentLineRequest `json:"lines" binding:"required,min=1"`
	PatientID string                   `json:"patient_id" binding:"required,uuid"`
	SessionID *string                  `json:"session_id" binding:"omitempty,uuid"`
	Method    string                   `json:"method" binding:"required"`
}

// RecordPayment records a payment against a billable item.
// POST /payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	cashierID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	billable, ok := req.Billable.toDomain()
	if !ok {
		h.BadRequest(c, "A billable item or dependency reference is required")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok {
		h.BadRequest(c, "Invalid amount")
		return
	}
	patientID, sessionID, bankAccountID, ok := parsePaymentIDs(req.PatientID, req.SessionID, req.BankAccountID)
	if !ok {
		h.BadRequest(c, "Invalid identifier")
		return
	}

	entry, err := h.service.RecordPayment(c.Request.Context(), ledgerapp.PaymentRequest{
		Billable:      billable,
		PatientID:     patientID,
		CashierID:     cashierID,
		SessionID:     sessionID,
		Amount:        amount,
		Method:        ledger.PaymentMethod(req.Method),
		BankAccountID: bankAccountID,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// RecordRefund records a refund sourced from an original payment or an
// approved authorization.
// POST /payments/refunds
func (h *PaymentHandler) RecordRefund(c *gin.Context) {
	cashierID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RecordRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	billable, ok := req.Billable.toDomain()
	if !ok {
		h.BadRequest(c, "A billable item or dependency reference is required")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok {
		h.BadRequest(c, "Invalid amount")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}
	sessionID, ok := parseOptionalUUID(req.SessionID)
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}
	originalEntryID, ok := parseOptionalUUID(req.OriginalEntryID)
	if !ok {
		h.BadRequest(c, "Invalid original entry ID")
		return
	}
	authorizationID, ok := parseOptionalUUID(req.AuthorizationID)
	if !ok {
		h.BadRequest(c, "Invalid authorization ID")
		return
	}

	entry, err := h.service.RecordRefund(c.Request.Context(), ledgerapp.RefundRequest{
		Billable:        billable,
		OriginalEntryID: originalEntryID,
		AuthorizationID: authorizationID,
		PatientID:       patientID,
		CashierID:       cashierID,
		SessionID:       sessionID,
		Amount:          amount,
		Method:          ledger.PaymentMethod(req.Method),
		Notes:           req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// RecordOverpayment settles a payment above the required amount, booking
// the excess per the chosen action.
// POST /payments/overpayments
func (h *PaymentHandler) RecordOverpayment(c *gin.Context) {
	cashierID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RecordOverpaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	billable, ok := req.Billable.toDomain()
	if !ok {
		h.BadRequest(c, "A billable item or dependency reference is required")
		return
	}
	required, ok := parseMoney(req.RequiredAmount)
	if !ok {
		h.BadRequest(c, "Invalid required amount")
		return
	}
	paid, ok := parseMoney(req.PaidAmount)
	if !ok {
		h.BadRequest(c, "Invalid paid amount")
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}
	sessionID, ok := parseOptionalUUID(req.SessionID)
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	result, err := h.service.RecordOverpayment(c.Request.Context(), ledgerapp.OverpaymentRequest{
		Billable:       billable,
		PatientID:      patientID,
		CashierID:      cashierID,
		SessionID:      sessionID,
		RequiredAmount: required,
		PaidAmount:     paid,
		Action:         ledgerapp.OverpaymentAction(req.Action),
		Method:         ledger.PaymentMethod(req.Method),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RecordBulkPayment settles several items in one atomic submission. The
// Idempotency-Key header guards against replays.
// POST /payments/bulk
func (h *PaymentHandler) RecordBulkPayment(c *gin.Context) {
	cashierID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RecordBulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID")
		return
	}
	sessionID, ok := parseOptionalUUID(req.SessionID)
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	lines := make([]ledgerapp.BulkPaymentLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		billable, ok := line.Billable.toDomain()
		if !ok {
			h.BadRequest(c, "A billable item or dependency reference is required on every line")
			return
		}
		amount, ok := parseMoney(line.Amount)
		if !ok {
			h.BadRequest(c, "Invalid line amount")
			return
		}
		lines = append(lines, ledgerapp.BulkPaymentLine{Billable: billable, Amount: amount})
	}

	entries, err := h.service.RecordBulkPayment(c.Request.Context(), ledgerapp.BulkPaymentRequest{
		Lines:          lines,
		PatientID:      patientID,
		CashierID:      cashierID,
		SessionID:      sessionID,
		Method:         ledger.PaymentMethod(req.Method),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entries)
}

// GetEntry returns a single ledger entry.
// GET /ledger-entries/:id
func (h *PaymentHandler) GetEntry(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.service.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// LedgerListFilter represents filter parameters for the ledger entry list
type LedgerListFilter struct {
	PatientID string `form:"patient_id" binding:"omitempty,uuid"`
	CashierID string `form:"cashier_id" binding:"omitempty,uuid"`
	SessionID string `form:"session_id" binding:"omitempty,uuid"`
	Kind      string `form:"kind"`
	Method    string `form:"method"`
	Status    string `form:"status"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListEntries returns ledger entries matching the filter.
// GET /ledger-entries
func (h *PaymentHandler) ListEntries(c *gin.Context) {
	var req LedgerListFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := ledger.EntryFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize

	if id, err := uuid.Parse(req.PatientID); err == nil && req.PatientID != "" {
		filter.PatientID = &id
	}
	if id, err := uuid.Parse(req.CashierID); err == nil && req.CashierID != "" {
		filter.CashierID = &id
	}
	if id, err := uuid.Parse(req.SessionID); err == nil && req.SessionID != "" {
		filter.SessionID = &id
	}
	if req.Kind != "" {
		kind := ledger.EntryKind(req.Kind)
		filter.Kind = &kind
	}
	if req.Method != "" {
		method := ledger.PaymentMethod(req.Method)
		filter.Method = &method
	}
	if req.Status != "" {
		status := ledger.EntryStatus(req.Status)
		filter.Status = &status
	}
	filter.FromDate, filter.ToDate = parseDateRange(req.FromDate, req.ToDate)

	entries, err := h.service.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// GetOutstanding recomputes an item's outstanding amount from its ledger
// history.
// GET /billables/outstanding
func (h *PaymentHandler) GetOutstanding(c *gin.Context) {
	ref := BillableRefRequest{}
	if v := c.Query("item_id"); v != "" {
		ref.ItemID = &v
	}
	if v := c.Query("dependency_id"); v != "" {
		ref.DependencyID = &v
	}

	billable, ok := ref.toDomain()
	if !ok {
		h.BadRequest(c, "A billable item or dependency reference is required")
		return
	}

	outstanding, err := h.service.OutstandingOf(c.Request.Context(), billable)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"outstanding": outstanding})
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.POST("/refunds", h.RecordRefund)
		payments.POST("/overpayments", h.RecordOverpayment)
		payments.POST("/bulk", h.RecordBulkPayment)
	}

	entries := rg.Group("/ledger-entries")
	{
		entries.GET("", h.ListEntries)
		entries.GET("/:id", h.GetEntry)
	}

	rg.GET("/billables/outstanding", h.GetOutstanding)
}

// parseMoney parses a decimal string into DZD money
func parseMoney(s string) (valueobject.Money, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return valueobject.Money{}, false
	}
	return valueobject.NewMoneyDZD(d), true
}

// parseOptionalUUID parses an optional UUID string; nil input is valid
func parseOptionalUUID(s *string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// parsePaymentIDs parses the common payment identifier trio
func parsePaymentIDs(patient string, session, bankAccount *string) (uuid.UUID, *uuid.UUID, *uuid.UUID, bool) {
	patientID, err := uuid.Parse(patient)
	if err != nil {
		return uuid.Nil, nil, nil, false
	}
	sessionID, ok := parseOptionalUUID(session)
	if !ok {
		return uuid.Nil, nil, nil, false
	}
	bankAccountID, ok := parseOptionalUUID(bankAccount)
	if !ok {
		return uuid.Nil, nil, nil, false
	}
	return patientID, sessionID, bankAccountID, true
}

// parseDateRange parses YYYY-MM-DD bounds; the end bound extends to end of day
func parseDateRange(from, to string) (*time.Time, *time.Time) {
	var fromDate, toDate *time.Time
	if from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			fromDate = &t
		}
	}
	if to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			toDate = &end
		}
	}
	return fromDate, toDate
}

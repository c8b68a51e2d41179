package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cashdeskapp "github.com/hodaifayahia/HIS-sub012/internal/application/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared/valueobject"
)

// TransferHandler handles cash transfer API endpoints
type TransferHandler struct {
	BaseHandler
	service *cashdeskapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(service *cashdeskapp.TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// InitiateTransferRequest represents a request to hand cash custody to
// another cashier
type InitiateTransferRequest struct {
	CaisseID    string  `json:"caisse_id" binding:"required,uuid"`
	ToUser      string  `json:"to_user" binding:"required,uuid"`
	Amount      string  `json:"amount" binding:"required"`
	HasProblems bool    `json:"has_problems"`
	SessionID   *string `json:"session_id" binding:"omitempty,uuid"`
}

// AcceptTransferRequest represents a request to accept a transfer. The
// token was handed to the recipient out of band.
type AcceptTransferRequest struct {
	Token          string  `json:"token" binding:"required"`
	AmountReceived *string `json:"amount_received"`
}

// InitiateTransfer starts a custody hand-over. The response carries the
// acceptance token; it is returned exactly once.
// POST /transfers
func (h *TransferHandler) InitiateTransfer(c *gin.Context) {
	fromUser, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req InitiateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	caisseID, err := uuid.Parse(req.CaisseID)
	if err != nil {
		h.BadRequest(c, "Invalid caisse ID")
		return
	}
	toUser, err := uuid.Parse(req.ToUser)
	if err != nil {
		h.BadRequest(c, "Invalid recipient ID")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok {
		h.BadRequest(c, "Invalid amount")
		return
	}
	sessionID, ok := parseOptionalUUID(req.SessionID)
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	result, err := h.service.InitiateTransfer(c.Request.Context(), cashdeskapp.InitiateTransferRequest{
		CaisseID:    caisseID,
		FromUser:    fromUser,
		ToUser:      toUser,
		Amount:      amount,
		HasProblems: req.HasProblems,
		SessionID:   sessionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// AcceptTransfer accepts a pending transfer with the hand-over token.
// POST /transfers/:id/accept
func (h *TransferHandler) AcceptTransfer(c *gin.Context) {
	acceptedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	transferID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	var req AcceptTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var amountReceived *valueobject.Money
	if req.AmountReceived != nil {
		amount, ok := parseMoney(*req.AmountReceived)
		if !ok {
			h.BadRequest(c, "Invalid received amount")
			return
		}
		amountReceived = &amount
	}

	transfer, err := h.service.AcceptTransfer(c.Request.Context(), cashdeskapp.AcceptTransferRequest{
		TransferID:     transferID,
		AcceptedBy:     acceptedBy,
		Token:          req.Token,
		AmountReceived: amountReceived,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// RejectTransfer rejects a pending transfer, leaving custody with the sender.
// POST /transfers/:id/reject
func (h *TransferHandler) RejectTransfer(c *gin.Context) {
	rejectedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	transferID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	transfer, err := h.service.RejectTransfer(c.Request.Context(), transferID, rejectedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// MarkTransferred records the physical hand-over of an accepted transfer.
// POST /transfers/:id/transferred
func (h *TransferHandler) MarkTransferred(c *gin.Context) {
	h.mutate(c, h.service.MarkTransferred)
}

// MarkDone archives a completed transfer.
// POST /transfers/:id/done
func (h *TransferHandler) MarkDone(c *gin.Context) {
	h.mutate(c, h.service.MarkDone)
}

// mutate runs a single-transfer state change
func (h *TransferHandler) mutate(
	c *gin.Context,
	fn func(ctx context.Context, transferID uuid.UUID) (*cashdesk.CashTransfer, error),
) {
	transferID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	transfer, err := fn(c.Request.Context(), transferID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// GetTransfer returns a single cash transfer.
// GET /transfers/:id
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transferID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid transfer ID")
		return
	}

	transfer, err := h.service.GetTransfer(c.Request.Context(), transferID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// TransferListFilter represents filter parameters for the transfer list
type TransferListFilter struct {
	CaisseID string `form:"caisse_id" binding:"omitempty,uuid"`
	FromUser string `form:"from_user" binding:"omitempty,uuid"`
	ToUser   string `form:"to_user" binding:"omitempty,uuid"`
	Status   string `form:"status"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListTransfers returns cash transfers matching the filter.
// GET /transfers
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	var req TransferListFilter
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

	filter := cashdesk.TransferFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.CaisseID != "" {
		if id, err := uuid.Parse(req.CaisseID); err == nil {
			filter.CaisseID = &id
		}
	}
	if req.FromUser != "" {
		if id, err := uuid.Parse(req.FromUser); err == nil {
			filter.FromUser = &id
		}
	}
	if req.ToUser != "" {
		if id, err := uuid.Parse(req.ToUser); err == nil {
			filter.ToUser = &id
		}
	}
	if req.Status != "" {
		status := cashdesk.TransferStatus(req.Status)
		filter.Status = &status
	}
	filter.FromDate, filter.ToDate = parseDateRange(req.FromDate, req.ToDate)

	transfers, err := h.service.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfers)
}

// RegisterRoutes registers cash transfer routes
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.InitiateTransfer)
		transfers.GET("", h.ListTransfers)
		transfers.GET("/:id", h.GetTransfer)
		transfers.POST("/:id/accept", h.AcceptTransfer)
		transfers.POST("/:id/reject", h.RejectTransfer)
		transfers.POST("/:id/transferred", h.MarkTransferred)
		transfers.POST("/:id/done", h.MarkDone)
	}
}

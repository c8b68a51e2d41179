package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	vaultapp "github.com/hodaifayahia/HIS-sub012/internal/application/vault"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// VaultHandler handles vault custody API endpoints
type VaultHandler struct {
	BaseHandler
	service *vaultapp.VaultService
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(service *vaultapp.VaultService) *VaultHandler {
	return &VaultHandler{service: service}
}

// ProposeTransactionRequest represents a proposed vault movement
type ProposeTransactionRequest struct {
	VaultID            string  `json:"vault_id" binding:"required,uuid"`
	Type               string  `json:"type" binding:"required"`
	Amount             string  `json:"amount" binding:"required"`
	SourceSessionID    *string `json:"source_session_id" binding:"omitempty,uuid"`
	DestinationBankID  *string `json:"destination_bank_id" binding:"omitempty,uuid"`
	DestinationVaultID *string `json:"destination_vault_id" binding:"omitempty,uuid"`
	Notes              string  `json:"notes"`
}

// RejectTransactionRequest represents an approver's rejection
type RejectTransactionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ProposeTransaction proposes a vault movement. Movements that need
// sign-off return a pending approval request alongside the transaction.
// POST /vault-transactions
func (h *VaultHandler) ProposeTransaction(c *gin.Context) {
	userID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req ProposeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vaultID, err := uuid.Parse(req.VaultID)
	if err != nil {
		h.BadRequest(c, "Invalid vault ID")
		return
	}
	amount, ok := parseMoney(req.Amount)
	if !ok {
		h.BadRequest(c, "Invalid amount")
		return
	}
	sourceSessionID, ok := parseOptionalUUID(req.SourceSessionID)
	if !ok {
		h.BadRequest(c, "Invalid source session ID")
		return
	}
	destinationBankID, ok := parseOptionalUUID(req.DestinationBankID)
	if !ok {
		h.BadRequest(c, "Invalid destination bank ID")
		return
	}
	destinationVaultID, ok := parseOptionalUUID(req.DestinationVaultID)
	if !ok {
		h.BadRequest(c, "Invalid destination vault ID")
		return
	}

	result, err := h.service.ProposeTransaction(c.Request.Context(), vaultapp.ProposeTransactionRequest{
		VaultID:            vaultID,
		UserID:             userID,
		Type:               vault.TransactionType(req.Type),
		Amount:             amount,
		SourceSessionID:    sourceSessionID,
		DestinationBankID:  destinationBankID,
		DestinationVaultID: destinationVaultID,
		Notes:              req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ApproveTransaction approves a pending vault movement and applies its
// balance effect.
// POST /vault-approvals/:id/approve
func (h *VaultHandler) ApproveTransaction(c *gin.Context) {
	approvedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	approvalID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid approval ID")
		return
	}

	result, err := h.service.ApproveTransaction(c.Request.Context(), approvalID, approvedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RejectTransaction rejects a pending vault movement.
// POST /vault-approvals/:id/reject
func (h *VaultHandler) RejectTransaction(c *gin.Context) {
	rejectedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	approvalID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid approval ID")
		return
	}

	var req RejectTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RejectTransaction(c.Request.Context(), approvalID, rejectedBy, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetTransaction returns a vault transaction with its approval, if any.
// GET /vault-transactions/:id
func (h *VaultHandler) GetTransaction(c *gin.Context) {
	transactionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	result, err := h.service.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// VaultTransactionListFilter represents filter parameters for the
// vault transaction list
type VaultTransactionListFilter struct {
	VaultID  string `form:"vault_id" binding:"omitempty,uuid"`
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	Type     string `form:"type"`
	Status   string `form:"status"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListTransactions returns vault transactions matching the filter.
// GET /vault-transactions
func (h *VaultHandler) ListTransactions(c *gin.Context) {
	var req VaultTransactionListFilter
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

	filter := vault.TransactionFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.VaultID != "" {
		if id, err := uuid.Parse(req.VaultID); err == nil {
			filter.VaultID = &id
		}
	}
	if req.UserID != "" {
		if id, err := uuid.Parse(req.UserID); err == nil {
			filter.UserID = &id
		}
	}
	if req.Type != "" {
		txType := vault.TransactionType(req.Type)
		filter.Type = &txType
	}
	if req.Status != "" {
		status := vault.TransactionStatus(req.Status)
		filter.Status = &status
	}
	filter.FromDate, filter.ToDate = parseDateRange(req.FromDate, req.ToDate)

	transactions, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transactions)
}

// ListPendingApprovals returns the pending approvals the acting user may
// resolve.
// GET /vault-approvals/pending
func (h *VaultHandler) ListPendingApprovals(c *gin.Context) {
	userID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	approvals, err := h.service.ListPendingApprovals(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, approvals)
}

// GetVault returns a vault with its current balance.
// GET /vaults/:id
func (h *VaultHandler) GetVault(c *gin.Context) {
	vaultID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid vault ID")
		return
	}

	v, err := h.service.GetVault(c.Request.Context(), vaultID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, v)
}

// RegisterRoutes registers vault routes
func (h *VaultHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/vault-transactions")
	{
		transactions.POST("", h.ProposeTransaction)
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
	}

	approvals := rg.Group("/vault-approvals")
	{
		approvals.GET("/pending", h.ListPendingApprovals)
		approvals.POST("/:id/approve", h.ApproveTransaction)
		approvals.POST("/:id/reject", h.RejectTransaction)
	}

	rg.GET("/vaults/:id", h.GetVault)
}

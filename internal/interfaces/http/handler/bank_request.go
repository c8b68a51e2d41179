package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/hodaifayahia/HIS-sub012/internal/application/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
)

// BankRequestHandler handles bank transaction sign-off API endpoints
type BankRequestHandler struct {
	BaseHandler
	service *ledgerapp.BankRequestService
}

// NewBankRequestHandler creates a new BankRequestHandler
func NewBankRequestHandler(service *ledgerapp.BankRequestService) *BankRequestHandler {
	return &BankRequestHandler{service: service}
}

// RequestSignOffRequest represents a request for treasury sign-off on a
// non-cash ledger entry
type RequestSignOffRequest struct {
	LedgerEntryID string `json:"ledger_entry_id" binding:"required,uuid"`
}

// RejectSignOffRequest represents a treasury rejection
type RejectSignOffRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RequestSignOff opens a pending sign-off request for a ledger entry.
// POST /bank-requests
func (h *BankRequestHandler) RequestSignOff(c *gin.Context) {
	requestedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RequestSignOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entryID, err := uuid.Parse(req.LedgerEntryID)
	if err != nil {
		h.BadRequest(c, "Invalid ledger entry ID")
		return
	}

	request, err := h.service.RequestSignOff(c.Request.Context(), entryID, requestedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, request)
}

// ApproveSignOff approves a pending sign-off request and settles the entry.
// POST /bank-requests/:id/approve
func (h *BankRequestHandler) ApproveSignOff(c *gin.Context) {
	approvedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	request, err := h.service.ApproveSignOff(c.Request.Context(), id, approvedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, request)
}

// RejectSignOff rejects a pending sign-off request and cancels the entry.
// POST /bank-requests/:id/reject
func (h *BankRequestHandler) RejectSignOff(c *gin.Context) {
	rejectedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid request ID")
		return
	}

	var req RejectSignOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	request, err := h.service.RejectSignOff(c.Request.Context(), id, rejectedBy, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, request)
}

// BankRequestListFilter represents filter parameters for the sign-off list
type BankRequestListFilter struct {
	Status      string `form:"status"`
	RequestedBy string `form:"requested_by" binding:"omitempty,uuid"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListRequests returns sign-off requests matching the filter.
// GET /bank-requests
func (h *BankRequestHandler) ListRequests(c *gin.Context) {
	var req BankRequestListFilter
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

	filter := ledger.BankRequestFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.Status != "" {
		status := ledger.BankRequestStatus(req.Status)
		filter.Status = &status
	}
	if req.RequestedBy != "" {
		if id, err := uuid.Parse(req.RequestedBy); err == nil {
			filter.RequestedBy = &id
		}
	}

	requests, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, requests)
}

// RegisterRoutes registers bank transaction request routes
func (h *BankRequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/bank-requests")
	{
		requests.POST("", h.RequestSignOff)
		requests.GET("", h.ListRequests)
		requests.POST("/:id/approve", h.ApproveSignOff)
		requests.POST("/:id/reject", h.RejectSignOff)
	}
}

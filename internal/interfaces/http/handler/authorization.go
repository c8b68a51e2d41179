package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/hodaifayahia/HIS-sub012/internal/application/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
)

// AuthorizationHandler handles refund authorization API endpoints
type AuthorizationHandler struct {
	BaseHandler
	service *ledgerapp.AuthorizationService
}

// NewAuthorizationHandler creates a new AuthorizationHandler
func NewAuthorizationHandler(service *ledgerapp.AuthorizationService) *AuthorizationHandler {
	return &AuthorizationHandler{service: service}
}

// RequestAuthorizationRequest represents a request to open a refund authorization
type RequestAuthorizationRequest struct {
	Billable BillableRefRequest `json:"billable" binding:"required"`
	Amount   string             `json:"amount" binding:"required"`
	Reason   string             `json:"reason"`
}

// ApproveAuthorizationRequest represents a supervisor's approval. The
// authorized amount defaults to the requested amount when omitted.
type ApproveAuthorizationRequest struct {
	Amount *string `json:"amount"`
}

// RejectAuthorizationRequest represents a supervisor's rejection
type RejectAuthorizationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RequestAuthorization opens a pending refund authorization.
// POST /refund-authorizations
func (h *AuthorizationHandler) RequestAuthorization(c *gin.Context) {
	requestedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req RequestAuthorizationRequest
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

	auth, err := h.service.RequestAuthorization(c.Request.Context(), billable, amount, requestedBy, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, auth)
}

// ApproveAuthorization approves a pending refund authorization.
// POST /refund-authorizations/:id/approve
func (h *AuthorizationHandler) ApproveAuthorization(c *gin.Context) {
	approvedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid authorization ID")
		return
	}

	var req ApproveAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		d, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			h.BadRequest(c, "Invalid amount")
			return
		}
		amount = &d
	}

	auth, err := h.service.ApproveAuthorization(c.Request.Context(), id, approvedBy, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// RejectAuthorization rejects a pending refund authorization.
// POST /refund-authorizations/:id/reject
func (h *AuthorizationHandler) RejectAuthorization(c *gin.Context) {
	rejectedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid authorization ID")
		return
	}

	var req RejectAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	auth, err := h.service.RejectAuthorization(c.Request.Context(), id, rejectedBy, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// GetAuthorization returns a single refund authorization.
// GET /refund-authorizations/:id
func (h *AuthorizationHandler) GetAuthorization(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid authorization ID")
		return
	}

	auth, err := h.service.GetAuthorization(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// AuthorizationListFilter represents filter parameters for the authorization list
type AuthorizationListFilter struct {
	Status      string `form:"status"`
	RequestedBy string `form:"requested_by" binding:"omitempty,uuid"`
	FromDate    string `form:"from_date"`
	ToDate      string `form:"to_date"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListAuthorizations returns refund authorizations matching the filter.
// GET /refund-authorizations
func (h *AuthorizationHandler) ListAuthorizations(c *gin.Context) {
	var req AuthorizationListFilter
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

	filter := ledger.AuthorizationFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.Status != "" {
		status := ledger.AuthorizationStatus(req.Status)
		filter.Status = &status
	}
	if req.RequestedBy != "" {
		if id, err := uuid.Parse(req.RequestedBy); err == nil {
			filter.RequestedBy = &id
		}
	}
	filter.FromDate, filter.ToDate = parseDateRange(req.FromDate, req.ToDate)

	auths, err := h.service.ListAuthorizations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auths)
}

// RegisterRoutes registers refund authorization routes
func (h *AuthorizationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auths := rg.Group("/refund-authorizations")
	{
		auths.POST("", h.RequestAuthorization)
		auths.GET("", h.ListAuthorizations)
		auths.GET("/:id", h.GetAuthorization)
		auths.POST("/:id/approve", h.ApproveAuthorization)
		auths.POST("/:id/reject", h.RejectAuthorization)
	}
}

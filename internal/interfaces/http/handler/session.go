package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cashdeskapp "github.com/hodaifayahia/HIS-sub012/internal/application/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
)

// SessionHandler handles drawer session API endpoints
type SessionHandler struct {
	BaseHandler
	service *cashdeskapp.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(service *cashdeskapp.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// OpenSessionRequest represents a request to open a drawer session.
// user_id defaults to the acting user; a supervisor may open on another
// cashier's behalf by setting it.
type OpenSessionRequest struct {
	CaisseID      string  `json:"caisse_id" binding:"required,uuid"`
	UserID        *string `json:"user_id" binding:"omitempty,uuid"`
	OpeningAmount string  `json:"opening_amount" binding:"required"`
}

// DenominationRequest is one line of the closing cash count
type DenominationRequest struct {
	Value    string `json:"value" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=NOTE COIN"`
	Quantity int    `json:"quantity" binding:"required,min=0"`
}

// CloseSessionRequest represents a request to close a drawer session
type CloseSessionRequest struct {
	ClosingAmount         string                `json:"closing_amount" binding:"required"`
	ExpectedClosingAmount string                `json:"expected_closing_amount" binding:"required"`
	Denominations         []DenominationRequest `json:"denominations" binding:"required,min=1"`
}

// OpenSession opens a drawer session.
// POST /sessions
func (h *SessionHandler) OpenSession(c *gin.Context) {
	openedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	caisseID, err := uuid.Parse(req.CaisseID)
	if err != nil {
		h.BadRequest(c, "Invalid caisse ID")
		return
	}
	userID := openedBy
	if req.UserID != nil {
		userID, err = uuid.Parse(*req.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid user ID")
			return
		}
	}
	opening, ok := parseMoney(req.OpeningAmount)
	if !ok {
		h.BadRequest(c, "Invalid opening amount")
		return
	}

	session, err := h.service.OpenSession(c.Request.Context(), cashdeskapp.OpenSessionRequest{
		CaisseID:      caisseID,
		UserID:        userID,
		OpenedBy:      openedBy,
		OpeningAmount: opening,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, session)
}

// CloseSession reconciles and closes a drawer session.
// POST /sessions/:id/close
func (h *SessionHandler) CloseSession(c *gin.Context) {
	closedBy, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	closing, ok := parseMoney(req.ClosingAmount)
	if !ok {
		h.BadRequest(c, "Invalid closing amount")
		return
	}
	expected, ok := parseMoney(req.ExpectedClosingAmount)
	if !ok {
		h.BadRequest(c, "Invalid expected closing amount")
		return
	}

	denominations := make([]cashdesk.Denomination, 0, len(req.Denominations))
	for _, d := range req.Denominations {
		value, err := decimal.NewFromString(d.Value)
		if err != nil {
			h.BadRequest(c, "Invalid denomination value")
			return
		}
		denominations = append(denominations, cashdesk.Denomination{
			Value:    value,
			Type:     cashdesk.DenominationType(d.Type),
			Quantity: d.Quantity,
		})
	}

	result, err := h.service.CloseSession(c.Request.Context(), cashdeskapp.CloseSessionRequest{
		SessionID:             sessionID,
		ClosedBy:              closedBy,
		ClosingAmount:         closing,
		ExpectedClosingAmount: expected,
		Denominations:         denominations,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SuspendSession suspends an open drawer session.
// POST /sessions/:id/suspend
func (h *SessionHandler) SuspendSession(c *gin.Context) {
	h.mutate(c, h.service.SuspendSession)
}

// ResumeSession resumes a suspended drawer session.
// POST /sessions/:id/resume
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	h.mutate(c, h.service.ResumeSession)
}

// ReOpenSession re-opens a closed drawer session.
// POST /sessions/:id/reopen
func (h *SessionHandler) ReOpenSession(c *gin.Context) {
	h.mutate(c, h.service.ReOpenSession)
}

// mutate runs an actor-checked single-session state change
func (h *SessionHandler) mutate(
	c *gin.Context,
	fn func(ctx context.Context, sessionID, actor uuid.UUID) (*cashdesk.DrawerSession, error),
) {
	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Acting user not identified")
		return
	}

	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	session, err := fn(c.Request.Context(), sessionID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// GetSession returns a single drawer session.
// GET /sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// SessionListFilter represents filter parameters for the session list
type SessionListFilter struct {
	CaisseID string `form:"caisse_id" binding:"omitempty,uuid"`
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	Status   string `form:"status"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListSessions returns drawer sessions matching the filter.
// GET /sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var req SessionListFilter
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

	filter := cashdesk.SessionFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.CaisseID != "" {
		if id, err := uuid.Parse(req.CaisseID); err == nil {
			filter.CaisseID = &id
		}
	}
	if req.UserID != "" {
		if id, err := uuid.Parse(req.UserID); err == nil {
			filter.UserID = &id
		}
	}
	if req.Status != "" {
		status := cashdesk.SessionStatus(req.Status)
		filter.Status = &status
	}
	filter.FromDate, filter.ToDate = parseDateRange(req.FromDate, req.ToDate)

	sessions, err := h.service.ListSessions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sessions)
}

// RegisterRoutes registers drawer session routes
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/close", h.CloseSession)
		sessions.POST("/:id/suspend", h.SuspendSession)
		sessions.POST("/:id/resume", h.ResumeSession)
		sessions.POST("/:id/reopen", h.ReOpenSession)
	}
}

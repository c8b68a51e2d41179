package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/interfaces/http/dto"
	"github.com/hodaifayahia/HIS-sub012/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-id")
				c.Request.Header.Set("X-Request-ID", "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetActorID(t *testing.T) {
	userID := uuid.New()

	t.Run("from jwt context", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(middleware.JWTUserIDKey, userID.String())

		actor, err := getActorID(c)
		require.NoError(t, err)
		assert.Equal(t, userID, actor)
	})

	t.Run("header fallback", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-User-ID", userID.String())

		actor, err := getActorID(c)
		require.NoError(t, err)
		assert.Equal(t, userID, actor)
	})

	t.Run("missing", func(t *testing.T) {
		c, _ := newTestContext(t)
		_, err := getActorID(c)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(middleware.JWTUserIDKey, "not-a-uuid")
		_, err := getActorID(c)
		require.Error(t, err)
	})
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.Success(c, gin.H{"balance": "70000"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.Created(c, gin.H{"id": uuid.New().String()})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "validation error maps to 400",
			err:          shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive"),
			expectedCode: http.StatusBadRequest,
			expectedBody: "INVALID_AMOUNT",
		},
		{
			name:         "state conflict maps to 409",
			err:          shared.NewStateConflictError("ALREADY_RESOLVED", "Request already resolved"),
			expectedCode: http.StatusConflict,
			expectedBody: "ALREADY_RESOLVED",
		},
		{
			name:         "authorization error maps to 403",
			err:          shared.NewAuthorizationError("NOT_SUPERVISOR", "Approval requires the cash supervisor role"),
			expectedCode: http.StatusForbidden,
			expectedBody: "NOT_SUPERVISOR",
		},
		{
			name:         "not found maps to 404",
			err:          shared.NewNotFoundError("VAULT_NOT_FOUND", "Vault not found"),
			expectedCode: http.StatusNotFound,
			expectedBody: "VAULT_NOT_FOUND",
		},
		{
			name:         "unknown error maps to 500 without details",
			err:          errors.New("pq: connection refused"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(t)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			if tt.expectedCode == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection refused")
			}
		})
	}
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()

	c, _ := newTestContext(t)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	parsed, ok := parseUUIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, parsed)

	c, _ = newTestContext(t)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, ok = parseUUIDParam(c, "id")
	assert.False(t, ok)
}

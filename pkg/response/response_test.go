package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, h gin.HandlerFunc) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperror.Validation("Price must be greater than 0."), http.StatusBadRequest, "Price must be greater than 0."},
		{"business rule", apperror.BusinessRule("Insufficient holdings to sell."), http.StatusBadRequest, "Insufficient holdings to sell."},
		{"wrapped execution hides cause", fmt.Errorf("x: %w", apperror.Wrap(apperror.Execution("Trade execution failed. Please retry."), errors.New("db locked"))), http.StatusInternalServerError, "Trade execution failed. Please retry."},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "Resource not found"},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict, "Resource already exists"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, msgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := run(t, func(c *gin.Context) { Handle(c, nil, tt.err) })
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Nil(t, body.Data)
		})
	}
}

func TestHandleSuccess(t *testing.T) {
	status, body := run(t, func(c *gin.Context) { Handle(c, gin.H{"ok": 1}, nil) })
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]interface{}{"ok": float64(1)}, body.Data)
}

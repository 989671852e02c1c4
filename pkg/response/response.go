package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ksred/papertrade-api/pkg/apperror"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

const msgUnexpected = "An unexpected error occurred"

// Handle writes data on success or translates err into the error envelope
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}
	Error(c, err)
}

// Error translates err into the error envelope. Internal causes are logged,
// only the client-facing message is returned.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		if appErr.Kind == apperror.KindExecution {
			log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		}
		JSON(c, appErr.Kind.Status(), false, appErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, "Resource already exists")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		InternalError(c, msgUnexpected)
	}
}

// JSON writes an arbitrary envelope
func JSON(c *gin.Context, status int, success bool, message string, data interface{}) {
	c.JSON(status, Response{
		Success: success,
		Message: message,
		Data:    data,
	})
}

// Success sends a 200 response
func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, true, "", data)
}

// SuccessMessage sends a 200 response with a message
func SuccessMessage(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, true, message, data)
}

// Created sends a 201 response
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, true, message, data)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	JSON(c, http.StatusNotFound, false, message, nil)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, false, message, nil)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	JSON(c, http.StatusUnauthorized, false, message, nil)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	JSON(c, http.StatusTooManyRequests, false, message, nil)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	JSON(c, http.StatusInternalServerError, false, message, nil)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	JSON(c, http.StatusConflict, false, message, nil)
}

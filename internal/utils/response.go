// Package utils holds the JSON envelopes shared by controllers and
// middleware.
package utils

import (
	"errors"
	"net/http"

	"blog-api/internal/errs"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthenticated),
		errors.Is(err, errs.ErrInvalidToken),
		errors.Is(err, errs.ErrInactiveUser),
		errors.Is(err, errs.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrDuplicateCredential):
		return http.StatusConflict
	case errors.Is(err, errs.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) (int, ErrorResponse) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	return status, ErrorResponse{Code: status, Message: msg}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

// Error writes err with the status StatusFor picks. Internal errors are
// reported without detail.
func Error(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.JSON(status, body)
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Code: status, Message: msg})
}

// Abort is Error for middleware: the remaining handlers are skipped.
func Abort(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}

func AbortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: status, Message: msg})
}

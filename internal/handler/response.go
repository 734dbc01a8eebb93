package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/crowdsale/internal/crowdsale"
	"github.com/blues/crowdsale/internal/logger"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailureResponse 按错误类型选择状态码
func FailureResponse(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	ErrorResponse(c, status, err.Error())
}

// StatusFor 错误类型到 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, crowdsale.ErrUnknownCampaign):
		return http.StatusNotFound
	case errors.Is(err, crowdsale.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, crowdsale.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, crowdsale.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, crowdsale.ErrAlreadyExists),
		errors.Is(err, crowdsale.ErrNotActive),
		errors.Is(err, crowdsale.ErrNotClosed),
		errors.Is(err, crowdsale.ErrNotRefunding),
		errors.Is(err, crowdsale.ErrCrowdsaleClosed),
		errors.Is(err, crowdsale.ErrTooEarly),
		errors.Is(err, crowdsale.ErrNothingToClaim):
		return http.StatusConflict
	case errors.Is(err, crowdsale.ErrInvalidParameter),
		errors.Is(err, crowdsale.ErrBelowMinimum),
		errors.Is(err, crowdsale.ErrNotEligible),
		errors.Is(err, crowdsale.ErrCapExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

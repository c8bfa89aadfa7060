package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// ErrorResponse is the JSON body of every rejected request.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter *int   `json:"retryAfter,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
}

// NewErrorResponse builds the body for rejection, attaching the request trace id.
func NewErrorResponse(c *gin.Context, rejection usecase.Rejection) ErrorResponse {
	body := ErrorResponse{
		Success: false,
		Error:   string(rejection.Code),
		Message: rejection.Message,
		TraceID: GetTraceID(c),
	}
	if rejection.Code == usecase.CodeRateLimited {
		retry := rejection.RetryAfter
		body.RetryAfter = &retry
	}
	return body
}

// RespondRejection aborts the request with the rejection's status and body. Cookie
// clearing is the caller's responsibility.
func RespondRejection(c *gin.Context, rejection usecase.Rejection) {
	if rejection.Code == usecase.CodeRateLimited {
		c.Header("Retry-After", strconv.Itoa(rejection.RetryAfter))
	}
	if rejection.Err != nil {
		_ = c.Error(rejection.Err)
	}
	c.AbortWithStatusJSON(rejection.Status, NewErrorResponse(c, rejection))
}

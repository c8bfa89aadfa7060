package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// CodeInvalidRequest rejects payloads that fail binding.
const CodeInvalidRequest usecase.RejectionCode = "InvalidRequest"

// respondError maps err through the rejection table.
func respondError(c *gin.Context, err error) {
	middleware.RespondRejection(c, usecase.RejectionFor(err))
}

func respondBadRequest(c *gin.Context, message string, err error) {
	middleware.RespondRejection(c, usecase.Rejection{
		Code:    CodeInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: message,
		Err:     err,
	})
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appLogger "github.com/vindeacy/RentSpotLimited-sub000/internal/infra/logger"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"

	requestContextKey = "request_context"
)

// RequestContext holds request-scoped information used by access logs.
type RequestContext struct {
	TraceID     string
	PrincipalID string
	Role        string
	IP          string
	UserAgent   string
}

// EnrichContext assigns a trace id (honouring an inbound X-Trace-ID) and request metadata.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(appLogger.ContextWithTraceID(c.Request.Context(), traceID))

		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext returns the request metadata, creating it when EnrichContext did not run.
func GetRequestContext(c *gin.Context) *RequestContext {
	if ctx, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := ctx.(*RequestContext); ok {
			return reqCtx
		}
	}
	reqCtx := &RequestContext{TraceID: GetTraceID(c)}
	c.Set(requestContextKey, reqCtx)
	return reqCtx
}

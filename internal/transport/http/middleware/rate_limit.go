package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// RateLimit limits the authenticated principal on the matched route. Anonymous requests
// bypass; mount it after RequireAuth.
func RateLimit(limiter *usecase.RateLimiter, policy usecase.RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage := limiter.Stage(policy, routeOf(c))
		respond(c, stage(c.Request.Context(), AuthFromContext(c)))
	}
}

// RateLimitByClientIP limits public routes such as login by client IP.
func RateLimitByClientIP(limiter *usecase.RateLimiter, policy usecase.RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := policy.Name + ":ip:" + ip
		respond(c, limiter.Limit(c.Request.Context(), policy, key, AuthFromContext(c)))
	}
}

func respond(c *gin.Context, out usecase.Outcome) {
	if quota, ok := out.Quota(); ok {
		applyQuotaHeaders(c, quota)
	}
	if rejection, ok := out.Rejection(); ok {
		RespondRejection(c, rejection)
		return
	}
	c.Next()
}

func applyQuotaHeaders(c *gin.Context, quota usecase.Quota) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(quota.Remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(quota.Reset.Unix(), 10))
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

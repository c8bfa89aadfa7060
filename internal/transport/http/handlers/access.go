package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// AccessHandler serves role probes the dashboard uses to decide which areas to render.
// Each probe answers 204 when the caller may enter that area.
type AccessHandler struct {
	limiter *usecase.RateLimiter
	policy  usecase.RateLimitPolicy
}

// NewAccessHandler constructs AccessHandler. A nil limiter disables the sensitive limit.
func NewAccessHandler(limiter *usecase.RateLimiter, policy usecase.RateLimitPolicy) *AccessHandler {
	return &AccessHandler{limiter: limiter, policy: policy}
}

// RegisterRoutes binds one probe per role behind requireAuth.
func (h *AccessHandler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	for _, role := range []domain.Role{domain.RoleLandlord, domain.RoleTenant, domain.RoleAdmin} {
		path := "/" + string(role)
		stages := []usecase.Stage{usecase.RequireRole(role)}
		if h.limiter != nil {
			stages = append(stages, h.limiter.Stage(h.policy, r.BasePath()+path))
		}
		r.GET(path, requireAuth, middleware.Guard(stages...), h.Probe)
	}
}

// Probe answers 204 once every guard has passed.
func (h *AccessHandler) Probe(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

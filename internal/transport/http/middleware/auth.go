package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// AuthContextKey is the gin context key holding the request's domain.AuthContext.
const AuthContextKey = "auth_context"

// RequireAuth runs the authentication gate and aborts with its rejection on failure.
func RequireAuth(gate *usecase.AuthGate, cookies *CookieSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gate.Authenticate(c.Request.Context(), credentialsFrom(c, cookies), cookies.Writer(c.Writer))
		if rejection, ok := out.Rejection(); ok {
			RespondRejection(c, rejection)
			return
		}

		setAuth(c, out.Auth())
		c.Next()
	}
}

// OptionalAuth attaches a principal when the request carries a usable session and
// otherwise continues anonymously.
func OptionalAuth(gate *usecase.AuthGate, cookies *CookieSessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gate.AuthenticateOptional(c.Request.Context(), credentialsFrom(c, cookies), cookies.Writer(c.Writer))
		setAuth(c, out.Auth())
		c.Next()
	}
}

// Guard runs post-authentication stages (role guards, rate limits) against the attached
// AuthContext. It must be mounted after RequireAuth or OptionalAuth.
func Guard(stages ...usecase.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := usecase.Run(c.Request.Context(), AuthFromContext(c), stages...)
		if quota, ok := out.Quota(); ok {
			applyQuotaHeaders(c, quota)
		}
		if rejection, ok := out.Rejection(); ok {
			RespondRejection(c, rejection)
			return
		}

		setAuth(c, out.Auth())
		c.Next()
	}
}

// AuthFromContext returns the AuthContext attached by the auth middleware, or Anonymous.
func AuthFromContext(c *gin.Context) domain.AuthContext {
	if val, ok := c.Get(AuthContextKey); ok {
		if auth, ok := val.(domain.AuthContext); ok {
			return auth
		}
	}
	return domain.Anonymous()
}

func setAuth(c *gin.Context, auth domain.AuthContext) {
	c.Set(AuthContextKey, auth)
	if principal, ok := auth.Principal(); ok {
		reqCtx := GetRequestContext(c)
		reqCtx.PrincipalID = principal.ID
		reqCtx.Role = string(principal.Role)
	}
}

// credentialsFrom reads the access token from its cookie, falling back to a bearer
// header. The refresh token is only ever read from its cookie.
func credentialsFrom(c *gin.Context, cookies *CookieSessionManager) usecase.Credentials {
	access, refresh := cookies.ReadSession(c.Request)
	if strings.TrimSpace(access) == "" {
		access = bearerToken(c.GetHeader("Authorization"))
	}
	return usecase.Credentials{AccessToken: access, RefreshToken: refresh}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	sessions *usecase.SessionService
	cookies  *middleware.CookieSessionManager
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(sessions *usecase.SessionService, cookies *middleware.CookieSessionManager) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

// AuthMiddlewares are the gates the auth routes are mounted behind.
type AuthMiddlewares struct {
	Login    []gin.HandlerFunc
	Required gin.HandlerFunc
	Optional gin.HandlerFunc
}

// RegisterRoutes binds the session routes under r.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw AuthMiddlewares) {
	login := append(append([]gin.HandlerFunc{}, mw.Login...), h.Login)
	r.POST("/login", login...)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", mw.Optional, h.Logout)
	r.GET("/me", mw.Required, h.Me)
	r.GET("/session", mw.Optional, h.Session)
}

// Login verifies credentials and starts a cookie session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Email and password are required", err)
		return
	}

	principal, tokens, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookies.SetSession(c.Writer, tokens)
	c.JSON(http.StatusOK, SessionResponse{
		Success:          true,
		User:             newPrincipalResponse(principal),
		AccessExpiresAt:  tokens.AccessExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
	})
}

// Refresh rotates the session held in the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	_, refreshToken := h.cookies.ReadSession(c.Request)

	principal, tokens, err := h.sessions.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		rejection := usecase.RejectionFor(err)
		if rejection.ClearSession {
			h.cookies.ClearSession(c.Writer)
		}
		middleware.RespondRejection(c, rejection)
		return
	}

	h.cookies.SetSession(c.Writer, tokens)
	c.JSON(http.StatusOK, SessionResponse{
		Success:          true,
		User:             newPrincipalResponse(principal),
		AccessExpiresAt:  tokens.AccessExpiresAt,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
	})
}

// Logout revokes the current access token. Cookies are cleared even when the
// revocation store fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.sessions.Logout(c.Request.Context(), middleware.AuthFromContext(c))
	h.cookies.ClearSession(c.Writer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.AuthFromContext(c).Principal()
	if !ok {
		respondError(c, usecase.ErrMissingToken)
		return
	}
	c.JSON(http.StatusOK, CurrentUserResponse{Success: true, User: newPrincipalResponse(principal)})
}

// Session reports the caller's session without ever rejecting.
func (h *AuthHandler) Session(c *gin.Context) {
	principal, ok := middleware.AuthFromContext(c).Principal()
	if !ok {
		c.JSON(http.StatusOK, SessionStatusResponse{Success: true})
		return
	}
	user := newPrincipalResponse(principal)
	c.JSON(http.StatusOK, SessionStatusResponse{Success: true, Authenticated: true, User: &user})
}

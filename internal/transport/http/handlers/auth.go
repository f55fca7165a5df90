package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// AuthHandler exposes login, logout, and current-account endpoints. The
// session rides in an HTTP-only cookie.
type AuthHandler struct {
	auth          *usecase.AuthService
	sessionTTL    time.Duration
	secureCookies bool
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, sessionTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.GET("/me", middleware.RequireSession(h.auth), h.me)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	ident := strings.TrimSpace(req.Ident)
	if ident == "" || req.Password == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, domain.CodeInvalidCredentials))
		return
	}

	account, sessionID, err := h.auth.Login(c.Request.Context(), ident, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: domain.CodeInvalidCredentials},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(c, sessionID, int(h.sessionTTL.Seconds()))

	c.JSON(http.StatusOK, LoginResponse{Account: newAccountSummary(*account)})
}

func (h *AuthHandler) logout(c *gin.Context) {
	sessionID, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || sessionID == "" {
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) me(c *gin.Context) {
	account, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Account: newAccountSummary(account)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", "", h.secureCookies, true)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// PasswordHandler exposes the forgot-password flow.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password reset routes.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/send_pw_reset_email", h.sendResetEmail)
	r.POST("/reset_password", h.resetPassword)
}

func (h *PasswordHandler) sendResetEmail(c *gin.Context) {
	var req SendPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.reset.InitiateReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	// Deliberately identical for known and unknown addresses.
	c.JSON(http.StatusOK, MessageResponse{Message: "password reset mail sent"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, domain.CodeResetPasswordLinkInval))
		return
	}

	err := h.reset.CompleteReset(c.Request.Context(), strings.TrimSpace(req.Ident), strings.TrimSpace(req.Token), req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetPasswordLinkInvalid, Status: http.StatusBadRequest, Code: domain.CodeResetPasswordLinkInval},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset"})
}

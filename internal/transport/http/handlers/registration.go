package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// RegistrationHandler exposes registration, activation, and the standalone
// password policy check.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration routes.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/activate", h.activate)
	r.POST("/validate_password", h.validatePassword)
}

func (h *RegistrationHandler) register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	account, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		Account: newAccountSummary(*account),
		Message: "activation mail sent",
	})
}

func (h *RegistrationHandler) activate(c *gin.Context) {
	var req ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, domain.CodeActivationLinkInvalid))
		return
	}

	err := h.registration.Activate(c.Request.Context(), strings.TrimSpace(req.Ident), strings.TrimSpace(req.Token))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrActivationLinkInvalid, Status: http.StatusBadRequest, Code: domain.CodeActivationLinkInvalid},
		}, http.StatusInternalServerError, "activation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account activated"})
}

func (h *RegistrationHandler) validatePassword(c *gin.Context) {
	var req ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	fieldErrors, err := h.registration.ValidatePassword(c.Request.Context(), usecase.ValidatePasswordInput{
		Ident:    strings.TrimSpace(req.Ident),
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "validation failed"))
		return
	}

	if len(fieldErrors) > 0 {
		validation := &domain.ValidationError{Violations: fieldErrors}
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: validation.ByField()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password acceptable"})
}

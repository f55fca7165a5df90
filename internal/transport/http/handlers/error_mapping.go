package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

// ErrorCase maps a sentinel error to an HTTP status code and response code.
type ErrorCase struct {
	Err    error
	Status int
	Code   string
}

// RespondWithMappedError resolves the provided error against known cases or
// falls back to a generic response. Validation errors are always rendered as
// field-scoped code maps first.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackCode string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: validation.ByField()})
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Code))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackCode))
}

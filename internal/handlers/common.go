// Package handlers wires HTTP requests to the service layer and maps
// service errors onto RFC 9457 problem responses.
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/slated-app/slated/internal/apierror"
	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/middleware"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/service"
)

// requireUser fetches the authenticated caller or writes a 401.
func requireUser(c *gin.Context) (models.UserContext, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
	}
	return user, ok
}

// bindJSON decodes the body into target, converting binding failures into
// a validation problem response. Returns false if a response was written.
func bindJSON(c *gin.Context, target any) bool {
	err := c.ShouldBindJSON(target)
	if err == nil {
		return true
	}

	requestID := apierror.GetRequestID(c)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fieldErrors := make([]apierror.FieldError, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fieldErrors = append(fieldErrors, apierror.FieldError{
				Field:   strings.ToLower(fieldErr.Field()),
				Message: bindingMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, fieldErrors))
		return false
	}

	apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
	return false
}

func bindingMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fieldErr.Param()
	default:
		return "is invalid"
	}
}

// writeServiceError maps service sentinel errors to problem responses;
// anything unexpected becomes an opaque 500 and is logged server-side.
func writeServiceError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)

	switch {
	case errors.Is(err, service.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, service.ErrForbidden):
		apierror.WriteProblem(c, apierror.NewForbiddenError(requestID, "You do not have access to this "+strings.ToLower(resource)))
	case errors.Is(err, service.ErrInvalidTimeRange):
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "ends_at", Message: "must be after starts_at", Code: "time_range"},
		}))
	case errors.Is(err, service.ErrNoValidEmails):
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: "emails", Message: "at least one valid email is required", Code: "required"},
		}))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed", logger.Err(err))
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

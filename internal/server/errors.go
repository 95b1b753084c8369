package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"

	"taskdesk/internal/domain/errors"
)

var validate = validator.New()

func statusFor(err error) int {
	switch errors.Kind(err) {
	case errors.ErrValidationFailed:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg}. Errors without a client message are
// answered with their kind, unclassified ones are logged and hidden.
func (api *TaskAPI) respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		api.logger.Error().
			Err(err).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("request failed")
		ctx.AbortWithStatusJSON(status, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}
	msg := err.Error()
	if !errors.IsDomain(err) {
		msg = errors.Kind(err).Error()
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// bindJSON decodes and validates the request body, answering 400 itself on
// failure.
func (api *TaskAPI) bindJSON(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		api.respondError(ctx, errors.ErrBadRequest)
		return false
	}
	if err := validate.Struct(req); err != nil {
		api.respondError(ctx, validationErrorToErrorResponse(err))
		return false
	}
	return true
}

func validationErrorToErrorResponse(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.New(errors.ErrValidationFailed, "Validation failed.")
	}
	verr := verrs[0]
	if verr.Tag() == "max" {
		return errors.New(errors.ErrValidationFailed,
			fmt.Sprintf("%s must be at most %s characters.", verr.Field(), verr.Param()))
	}
	switch verr.Field() {
	case "Title":
		return errors.ErrInvalidTitle
	case "Description":
		return errors.ErrInvalidDescription
	case "Priority":
		return errors.ErrInvalidPriority
	case "Deadline":
		return errors.ErrInvalidDeadline
	case "Assignees":
		if verr.Tag() == "required" || verr.Tag() == "min" {
			return errors.ErrAssigneesRequired
		}
		return errors.ErrInvalidAssignee
	case "Name":
		return errors.ErrInvalidName
	case "Amount":
		return errors.ErrInvalidAmount
	case "Email":
		return errors.ErrInvalidEmail
	case "Password":
		return errors.ErrInvalidPassword
	case "Summary":
		return errors.ErrSummaryRequired
	case "Status":
		return errors.ErrInvalidStatus
	}
	return errors.New(errors.ErrValidationFailed, fmt.Sprintf("%s is invalid.", verr.Field()))
}

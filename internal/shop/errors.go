package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ilmhub/coinhub/internal/ilmhub"
	"github.com/ilmhub/coinhub/internal/redemption"
)

// UserMessage turns an error into text fit for a notice.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, redemption.ErrInvalidQuantity):
		return "Quantity must be between 1 and the available stock"
	case errors.Is(err, redemption.ErrInsufficientFunds):
		return "Not enough coins"
	case errors.Is(err, redemption.ErrInvalidTransition):
		return "That status change is not allowed"
	case errors.Is(err, ErrInFlight):
		return "Please wait for the previous request to finish"
	case errors.Is(err, ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	case errors.Is(err, ilmhub.ErrNotFound):
		return "It no longer exists; the list has been refreshed"
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond"
	case errors.Is(err, ilmhub.ErrRequestFailed):
		var apiErr *ilmhub.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "Request failed, please try again"
	}
	return "Something went wrong"
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s is too long", field))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

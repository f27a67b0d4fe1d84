package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wenliang8102/Entropy-Notes-backend/internal/models"
)

type Response struct {
	Message string `json:"message"`
}

// Conflict carries the authoritative current note so the client can
// reconcile without a second round trip.
type Conflict struct {
	Message    string       `json:"message"`
	LatestNote *models.Note `json:"latestNote"`
}

func OK(msg string) Response {
	return Response{Message: msg}
}

func Error(msg string) Response {
	return Response{Message: msg}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var msgs []string
	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", err.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{Message: strings.Join(msgs, ", ")}
}

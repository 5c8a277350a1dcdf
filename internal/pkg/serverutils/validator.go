package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"ai-todo-agent-be/internal/dto"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct validate tags and reports violations as a
// dto.ValidationError so the error handler maps them to a 400.
func ValidateRequest(request interface{}) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return err
	}

	reasons := make([]string, 0, len(violations))
	for _, v := range violations {
		reasons = append(reasons, fmt.Sprintf("%s failed on %s", v.Field(), v.Tag()))
	}
	return &dto.ValidationError{Reason: strings.Join(reasons, "; ")}
}

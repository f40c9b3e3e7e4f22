package api

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("maxbytes", validateMaxBytes); err != nil {
		panic(err)
	}
}

// validateMaxBytes limits a string by its encoded length rather than its
// rune count, e.g. maxbytes=72 for bcrypt input.
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate checks req against its validate struct tags. Failures are
// validator.ValidationErrors.
func Validate(req any) error {
	return validate.Struct(req)
}

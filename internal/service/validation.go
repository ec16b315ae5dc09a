package service

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/pledge-points-api/pkg/errors"
)

// RegisterLedgerValidations installs the pledge_name and quality_flag rules.
func RegisterLedgerValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("pledge_name", func(fl validator.FieldLevel) bool {
		return IsPledgeName(fl.Field().String())
	})
	_ = validate.RegisterValidation("quality_flag", func(fl validator.FieldLevel) bool {
		q := fl.Field().Int()
		return q == 0 || q == 1
	})
}

// IsPledgeName reports whether name consists only of letters, digits and spaces.
func IsPledgeName(name string) bool {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return false
		}
	}
	return true
}

// validationError converts validator failures into a VALIDATION_ERROR with a readable message
// for the first failing field.
func validationError(err error, messages map[string]string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	first := fieldErrs[0]
	if msg, ok := messages[first.Field()+"."+first.Tag()]; ok {
		return appErrors.Clone(appErrors.ErrValidation, msg)
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s failed %s validation", first.Field(), first.Tag()))
}

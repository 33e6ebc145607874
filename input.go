package iam

import (
	goerrors "github.com/goliatone/go-errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const textCodeValidationFailed = "VALIDATION_FAILED"

// RegisterInput is the payload of Register. Password is only used by
// password mode deployments.
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password,omitempty"`
}

func (in RegisterInput) validate(mode LoginMode) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&in.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.Password, validation.When(mode == LoginModePassword, validation.Required, validation.Length(8, 72))),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid registration").
			WithTextCode(textCodeValidationFailed).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// IsValidation reports whether err is an input validation failure
func IsValidation(err error) bool {
	return hasTextCode(err, textCodeValidationFailed)
}

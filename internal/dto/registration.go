package dto

import "github.com/noah-isme/vaccine-registration/internal/models"

// FieldChangeRequest is one keystroke or selection change in the form.
type FieldChangeRequest struct {
	Field string `json:"field" form:"field" validate:"required"`
	Value string `json:"value" form:"value"`
}

// RegistrationRequest carries all four form values at once, as posted by the HTML form
// or sent to the stateless check endpoint.
type RegistrationRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	IDCard   string `json:"idCard" form:"idCard"`
	Gender   string `json:"gender" form:"gender"`
	Birthday string `json:"birthday" form:"birthday"`
}

// FormStateResponse is the session's form plus the dialog contents when it is open.
type FormStateResponse struct {
	State        models.FormState     `json:"state"`
	Confirmation *models.Confirmation `json:"confirmation,omitempty"`
}

// CheckResponse is the result of validating and evaluating a payload without a session.
type CheckResponse struct {
	Form         models.Form          `json:"form"`
	Invalid      []models.InvalidTag  `json:"invalidFields"`
	Accepted     bool                 `json:"accepted"`
	Confirmation *models.Confirmation `json:"confirmation,omitempty"`
}

// IDCardFormatResponse is the formatter output for live typing.
type IDCardFormatResponse struct {
	Input     string `json:"input"`
	Formatted string `json:"formatted"`
	Complete  bool   `json:"complete"`
}

// DateBounds are the limits of the birth date picker.
type DateBounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

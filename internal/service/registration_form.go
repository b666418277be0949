package service

import (
	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

// The functions below are the form's pure transitions. They never touch storage;
// RegistrationService loads a state, applies one of them and saves the result.

// NewFormState returns the empty form with the dialog closed.
func NewFormState() models.FormState {
	return models.FormState{
		Invalid: []models.InvalidTag{},
		Dialog:  models.DialogClosed,
	}
}

// ResetForm clears all four fields and the invalid set.
func ResetForm(models.FormState) models.FormState {
	return NewFormState()
}

// ApplyFieldChange stores one user edit. The ID card is reformatted on every change and
// an unknown gender value falls back to unset. Previous validation tags are kept until
// the next submission.
func ApplyFieldChange(state models.FormState, field models.Field, value string) (models.FormState, error) {
	if isOpen(state) {
		return state, appErrors.ErrDialogOpen
	}
	next := state
	switch field {
	case models.FieldFullName:
		next.Form.FullName = value
	case models.FieldIDCard:
		next.Form.IDCard = FormatIDCard(value)
	case models.FieldGender:
		gender := models.Gender(value)
		if !gender.Valid() {
			gender = models.GenderUnset
		}
		next.Form.Gender = gender
	case models.FieldBirthday:
		next.Form.Birthday = value
	default:
		return state, appErrors.Clone(appErrors.ErrUnknownField, "unknown form field: "+string(field))
	}
	if next.Dialog == "" {
		next.Dialog = models.DialogClosed
	}
	return next, nil
}

// SubmitForm validates the record. An empty result opens the dialog, otherwise the
// tags are stored for the page to render.
func SubmitForm(state models.FormState, v *FormValidator) (models.FormState, error) {
	if isOpen(state) {
		return state, appErrors.ErrDialogOpen
	}
	next := state
	next.Invalid = v.Validate(state.Form)
	next.Dialog = models.DialogClosed
	if len(next.Invalid) == 0 {
		next.Dialog = models.DialogOpen
	}
	return next, nil
}

// AcknowledgeDialog closes the dialog and resets the form.
func AcknowledgeDialog(state models.FormState) (models.FormState, error) {
	if !isOpen(state) {
		return state, appErrors.ErrDialogClosed
	}
	return NewFormState(), nil
}

// DismissDialog closes the dialog and keeps the submitted values.
func DismissDialog(state models.FormState) (models.FormState, error) {
	if !isOpen(state) {
		return state, appErrors.ErrDialogClosed
	}
	next := state
	next.Dialog = models.DialogClosed
	return next, nil
}

func isOpen(state models.FormState) bool {
	return state.Dialog == models.DialogOpen
}

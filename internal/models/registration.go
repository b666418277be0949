package models

import "strings"

// Field identifies one input of the registration form.
type Field string

const (
	FieldFullName Field = "fullName"
	FieldIDCard   Field = "idCard"
	FieldGender   Field = "gender"
	FieldBirthday Field = "birthday"
)

// Fields lists the form inputs in display order; validation tags follow the same order.
var Fields = []Field{FieldFullName, FieldIDCard, FieldGender, FieldBirthday}

// ParseField resolves a client supplied field name.
func ParseField(raw string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == raw {
			return f, true
		}
	}
	return "", false
}

// Gender is the dropdown selection; the zero value means unset.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the two selectable values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the Thai option label shown in the dropdown and the dialog.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "ชาย"
	case GenderFemale:
		return "หญิง"
	default:
		return ""
	}
}

// Form is the single mutable registration record of one browser session.
type Form struct {
	FullName string `json:"fullName"`
	IDCard   string `json:"idCard"`
	Gender   Gender `json:"gender"`
	Birthday string `json:"birthday"`
}

// Value returns the raw stored value of a field.
func (f Form) Value(field Field) string {
	switch field {
	case FieldFullName:
		return f.FullName
	case FieldIDCard:
		return f.IDCard
	case FieldGender:
		return string(f.Gender)
	case FieldBirthday:
		return f.Birthday
	default:
		return ""
	}
}

// InvalidTag names the validation rule that failed, as "<field>:<reason>".
type InvalidTag string

const (
	TagFullNameRequired    InvalidTag = "fullName:required"
	TagFullNameWrongScript InvalidTag = "fullName:wrong-script"
	TagIDCardRequired      InvalidTag = "idCard:required"
	TagIDCardBadFormat     InvalidTag = "idCard:bad-format"
	TagGenderRequired      InvalidTag = "gender:required"
	TagBirthdayRequired    InvalidTag = "birthday:required"
	TagBirthdayOutOfRange  InvalidTag = "birthday:out-of-range"
)

// Field returns the form field the tag belongs to.
func (t InvalidTag) Field() Field {
	field, _, _ := strings.Cut(string(t), ":")
	return Field(field)
}

// Reason returns the rule part of the tag, e.g. "required".
func (t InvalidTag) Reason() string {
	_, reason, _ := strings.Cut(string(t), ":")
	return reason
}

// DialogState is the confirmation dialog's finite state.
type DialogState string

const (
	DialogClosed DialogState = "closed"
	DialogOpen   DialogState = "open"
)

// FormState is everything a session holds: the record, the last validation result and the dialog.
type FormState struct {
	Form    Form         `json:"form"`
	Invalid []InvalidTag `json:"invalidFields"`
	Dialog  DialogState  `json:"dialog"`
}

// HasTag reports whether the last validation pass produced tag.
func (s FormState) HasTag(tag InvalidTag) bool {
	for _, t := range s.Invalid {
		if t == tag {
			return true
		}
	}
	return false
}

// TagsFor returns the invalid tags attached to one field.
func (s FormState) TagsFor(field Field) []InvalidTag {
	var tags []InvalidTag
	for _, t := range s.Invalid {
		if t.Field() == field {
			tags = append(tags, t)
		}
	}
	return tags
}

// Confirmation is what the dialog shows for an accepted submission.
type Confirmation struct {
	FullName    string `json:"fullName"`
	IDCard      string `json:"idCard"`
	Gender      Gender `json:"gender"`
	GenderLabel string `json:"genderLabel"`
	Birthday    string `json:"birthday"`
	BirthLine   string `json:"birthLine"`
	AgeMonths   int    `json:"ageMonths"`
	Eligible    bool   `json:"eligible"`
	Verdict     string `json:"verdict"`
}

package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
	"github.com/noah-isme/vaccine-registration/pkg/thaidate"
)

// BirthdayLayout is the value format of an HTML date input.
const BirthdayLayout = "2006-01-02"

// DefaultMinBirthDate is the lower bound of the birth date picker.
const DefaultMinBirthDate = "1900-01-01"

const (
	verdictEligible   = "สามารถเข้ารับบริการได้"
	verdictIneligible = "ไม่สามารถเข้ารับบริการได้"
)

// nameSpace is the whitespace a name may contain, Unicode spaces such as NBSP included.
const nameSpace = `\s\p{Zs}\x{2028}\x{2029}\x{FEFF}`

var (
	nonDigit     = regexp.MustCompile(`\D`)
	thaiName     = regexp.MustCompile(`^[\x{0E01}-\x{0E4F}` + nameSpace + `]+$`)
	latinName    = regexp.MustCompile(`^[A-Za-z` + nameSpace + `]+$`)
	idCardFormat = regexp.MustCompile(`^\d-\d{4}-\d{5}-\d{2}-\d$`)

	idCardGroups = []int{1, 4, 5, 2, 1}
)

// FormatIDCard keeps the digits of raw and regroups them as D-DDDD-DDDDD-DD-D.
// Partial input yields a partial prefix; digits past the thirteenth are dropped.
func FormatIDCard(raw string) string {
	digits := nonDigit.ReplaceAllString(raw, "")
	parts := make([]string, 0, len(idCardGroups))
	for _, size := range idCardGroups {
		if digits == "" {
			break
		}
		n := min(size, len(digits))
		parts = append(parts, digits[:n])
		digits = digits[n:]
	}
	return strings.Join(parts, "-")
}

// IsThaiName reports whether name consists only of Thai script and whitespace.
func IsThaiName(name string) bool {
	return thaiName.MatchString(name)
}

// IsLatinName reports whether name consists only of Latin letters and whitespace.
func IsLatinName(name string) bool {
	return latinName.MatchString(name)
}

// FormRules configures the calendar side of validation.
type FormRules struct {
	Location     *time.Location
	MinBirthDate string
	Now          func() time.Time
}

// FormValidator checks a form against the registration rules without mutating anything.
type FormValidator struct {
	validate *validator.Validate
	loc      *time.Location
	minBirth time.Time
	now      func() time.Time
}

type formInput struct {
	FullName string `validate:"required,person_name"`
	IDCard   string `validate:"required,id_card"`
	Gender   string `validate:"required,oneof=male female"`
	Birthday string `validate:"required,birth_date"`
}

// NewFormValidator registers the form's custom tags on validate.
func NewFormValidator(validate *validator.Validate, rules FormRules) *FormValidator {
	if validate == nil {
		validate = validator.New()
	}
	loc := rules.Location
	if loc == nil {
		loc = time.UTC
	}
	now := rules.Now
	if now == nil {
		now = time.Now
	}
	minBirth, err := time.ParseInLocation(BirthdayLayout, rules.MinBirthDate, loc)
	if err != nil {
		minBirth, _ = time.ParseInLocation(BirthdayLayout, DefaultMinBirthDate, loc)
	}

	v := &FormValidator{validate: validate, loc: loc, minBirth: minBirth, now: now}
	_ = validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return IsThaiName(name) || IsLatinName(name)
	})
	_ = validate.RegisterValidation("id_card", func(fl validator.FieldLevel) bool {
		return idCardFormat.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("birth_date", func(fl validator.FieldLevel) bool {
		return v.birthdayInRange(fl.Field().String())
	})
	return v
}

// Location is the time zone dates are evaluated in.
func (v *FormValidator) Location() *time.Location {
	return v.loc
}

// Now returns the current time in the validator's time zone.
func (v *FormValidator) Now() time.Time {
	return v.now().In(v.loc)
}

// MinBirthDate and MaxBirthDate bound the date picker.
func (v *FormValidator) MinBirthDate() time.Time {
	return v.minBirth
}

func (v *FormValidator) MaxBirthDate() time.Time {
	return startOfDay(v.Now())
}

// Validate returns the failed rules ordered by field. Each field yields at most one tag.
func (v *FormValidator) Validate(form models.Form) []models.InvalidTag {
	tags := make([]models.InvalidTag, 0, len(models.Fields))
	err := v.validate.Struct(formInput{
		FullName: form.FullName,
		IDCard:   form.IDCard,
		Gender:   string(form.Gender),
		Birthday: form.Birthday,
	})
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return tags
	}

	byField := make(map[models.Field]models.InvalidTag, len(fieldErrs))
	for _, fe := range fieldErrs {
		field, tag := tagFor(fe.StructField(), fe.Tag())
		if _, seen := byField[field]; !seen && tag != "" {
			byField[field] = tag
		}
	}
	for _, field := range models.Fields {
		if tag, ok := byField[field]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

func tagFor(structField, rule string) (models.Field, models.InvalidTag) {
	required := rule == "required"
	switch structField {
	case "FullName":
		if required {
			return models.FieldFullName, models.TagFullNameRequired
		}
		return models.FieldFullName, models.TagFullNameWrongScript
	case "IDCard":
		if required {
			return models.FieldIDCard, models.TagIDCardRequired
		}
		return models.FieldIDCard, models.TagIDCardBadFormat
	case "Gender":
		return models.FieldGender, models.TagGenderRequired
	case "Birthday":
		if required {
			return models.FieldBirthday, models.TagBirthdayRequired
		}
		return models.FieldBirthday, models.TagBirthdayOutOfRange
	default:
		return "", ""
	}
}

func (v *FormValidator) birthdayInRange(raw string) bool {
	birth, err := time.ParseInLocation(BirthdayLayout, raw, v.loc)
	if err != nil {
		return false
	}
	return !birth.Before(v.minBirth) && !birth.After(v.MaxBirthDate())
}

// ParseBirthday parses an HTML date value in loc.
func ParseBirthday(raw string, loc *time.Location) (time.Time, error) {
	birth, err := time.ParseInLocation(BirthdayLayout, raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid birthday")
	}
	return birth, nil
}

// AgeInMonths counts calendar months from birth to now using only year and month.
// The day of month is ignored on purpose; eligibility boundaries depend on it.
func AgeInMonths(birth, now time.Time) int {
	return (now.Year()-birth.Year())*12 + int(now.Month()) - int(birth.Month())
}

// IsEligible applies the campaign window: 65 years and over, or 6 months to 2 years.
func IsEligible(ageMonths int) bool {
	years := float64(ageMonths) / 12
	return years >= 65 || (years >= 0.5 && years <= 2)
}

// Eligibility is the evaluator's verdict for one birth date.
type Eligibility struct {
	AgeMonths int  `json:"ageMonths"`
	Eligible  bool `json:"eligible"`
}

// EvaluateEligibility computes the verdict for birthday as of now.
func EvaluateEligibility(birthday string, now time.Time, loc *time.Location) (Eligibility, error) {
	birth, err := ParseBirthday(birthday, loc)
	if err != nil {
		return Eligibility{}, err
	}
	months := AgeInMonths(birth, now.In(loc))
	return Eligibility{AgeMonths: months, Eligible: IsEligible(months)}, nil
}

// BuildConfirmation assembles the dialog contents for an accepted form.
func BuildConfirmation(form models.Form, now time.Time, loc *time.Location) (models.Confirmation, error) {
	birth, err := ParseBirthday(form.Birthday, loc)
	if err != nil {
		return models.Confirmation{}, err
	}
	months := AgeInMonths(birth, now.In(loc))
	eligible := IsEligible(months)
	verdict := verdictIneligible
	if eligible {
		verdict = verdictEligible
	}
	return models.Confirmation{
		FullName:    form.FullName,
		IDCard:      form.IDCard,
		Gender:      form.Gender,
		GenderLabel: form.Gender.Label(),
		Birthday:    form.Birthday,
		BirthLine:   thaidate.BirthLine(birth),
		AgeMonths:   months,
		Eligible:    eligible,
		Verdict:     verdict,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccine-registration/internal/dto"
	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

// FormStateRepository keeps one form state per session. Load returns
// appErrors.ErrCacheMiss when the session has no state yet.
type FormStateRepository interface {
	Load(ctx context.Context, sessionID string) (models.FormState, error)
	Save(ctx context.Context, sessionID string, state models.FormState, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// RegistrationService drives the form of each browser session through its transitions.
type RegistrationService struct {
	repo     FormStateRepository
	rules    *FormValidator
	validate *validator.Validate
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
}

// NewRegistrationService constructs the service.
func NewRegistrationService(repo FormStateRepository, rules *FormValidator, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *RegistrationService {
	if rules == nil {
		rules = NewFormValidator(nil, FormRules{MinBirthDate: DefaultMinBirthDate})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RegistrationService{repo: repo, rules: rules, validate: validator.New(), metrics: metrics, logger: logger, ttl: ttl}
}

// State returns the session's current form.
func (s *RegistrationService) State(ctx context.Context, sessionID string) (*dto.FormStateResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(state)
}

// ChangeField applies a single field edit.
func (s *RegistrationService) ChangeField(ctx context.Context, sessionID string, req dto.FieldChangeRequest) (*dto.FormStateResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	field, ok := models.ParseField(req.Field)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownField, "unknown form field: "+req.Field)
	}
	return s.transition(ctx, sessionID, func(state models.FormState) (models.FormState, error) {
		return ApplyFieldChange(state, field, req.Value)
	})
}

// SubmitValues applies all four values and submits, as a plain HTML form post does.
func (s *RegistrationService) SubmitValues(ctx context.Context, sessionID string, req dto.RegistrationRequest) (*dto.FormStateResponse, error) {
	return s.transition(ctx, sessionID, func(state models.FormState) (models.FormState, error) {
		next, err := applyRequest(state, req)
		if err != nil {
			return state, err
		}
		return s.submit(sessionID, next)
	})
}

// Submit validates the stored form and opens the dialog when it passes.
func (s *RegistrationService) Submit(ctx context.Context, sessionID string) (*dto.FormStateResponse, error) {
	return s.transition(ctx, sessionID, func(state models.FormState) (models.FormState, error) {
		return s.submit(sessionID, state)
	})
}

// Acknowledge closes the dialog and discards the session's form.
func (s *RegistrationService) Acknowledge(ctx context.Context, sessionID string) (*dto.FormStateResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := AcknowledgeDialog(state)
	if err != nil {
		return nil, err
	}
	if err := s.delete(ctx, sessionID); err != nil {
		return nil, err
	}
	s.logger.Info("registration acknowledged", zap.String("session_id", sessionID))
	return s.respond(next)
}

// Dismiss closes the dialog and keeps the form.
func (s *RegistrationService) Dismiss(ctx context.Context, sessionID string) (*dto.FormStateResponse, error) {
	return s.transition(ctx, sessionID, DismissDialog)
}

// Reset clears the form.
func (s *RegistrationService) Reset(ctx context.Context, sessionID string) (*dto.FormStateResponse, error) {
	if err := s.delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.respond(ResetForm(models.FormState{}))
}

// Confirmation returns the open dialog's contents.
func (s *RegistrationService) Confirmation(ctx context.Context, sessionID string) (*models.Confirmation, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Dialog != models.DialogOpen {
		return nil, appErrors.ErrDialogClosed
	}
	conf, err := BuildConfirmation(state.Form, s.rules.Now(), s.rules.Location())
	if err != nil {
		return nil, err
	}
	return &conf, nil
}

// Check formats, validates and evaluates a complete payload without touching any session.
func (s *RegistrationService) Check(_ context.Context, req dto.RegistrationRequest) (*dto.CheckResponse, error) {
	form, err := applyRequest(NewFormState(), req)
	if err != nil {
		return nil, err
	}
	tags := s.rules.Validate(form.Form)
	s.metrics.RecordSubmission(tags)

	resp := &dto.CheckResponse{Form: form.Form, Invalid: tags, Accepted: len(tags) == 0}
	if resp.Accepted {
		conf, err := BuildConfirmation(form.Form, s.rules.Now(), s.rules.Location())
		if err != nil {
			return nil, err
		}
		s.metrics.RecordVerdict(conf.Eligible)
		resp.Confirmation = &conf
	}
	return resp, nil
}

// FormatIDCard runs the ID formatter for live typing.
func (s *RegistrationService) FormatIDCard(value string) dto.IDCardFormatResponse {
	formatted := FormatIDCard(value)
	return dto.IDCardFormatResponse{
		Input:     value,
		Formatted: formatted,
		Complete:  idCardFormat.MatchString(formatted),
	}
}

// DateBounds returns the birth date picker limits for today.
func (s *RegistrationService) DateBounds() dto.DateBounds {
	return dto.DateBounds{
		Min: s.rules.MinBirthDate().Format(BirthdayLayout),
		Max: s.rules.MaxBirthDate().Format(BirthdayLayout),
	}
}

func (s *RegistrationService) submit(sessionID string, state models.FormState) (models.FormState, error) {
	next, err := SubmitForm(state, s.rules)
	if err != nil {
		return state, err
	}
	s.metrics.RecordSubmission(next.Invalid)
	fields := []zap.Field{zap.String("session_id", sessionID), zap.Bool("accepted", next.Dialog == models.DialogOpen)}
	if len(next.Invalid) > 0 {
		fields = append(fields, zap.Strings("invalid_fields", tagStrings(next.Invalid)))
	}
	s.logger.Info("registration submitted", fields...)

	if next.Dialog == models.DialogOpen {
		if ev, err := EvaluateEligibility(next.Form.Birthday, s.rules.Now(), s.rules.Location()); err == nil {
			s.metrics.RecordVerdict(ev.Eligible)
		}
	}
	return next, nil
}

func (s *RegistrationService) transition(ctx context.Context, sessionID string, fn func(models.FormState) (models.FormState, error)) (*dto.FormStateResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := fn(state)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, sessionID, next); err != nil {
		return nil, err
	}
	return s.respond(next)
}

func (s *RegistrationService) respond(state models.FormState) (*dto.FormStateResponse, error) {
	resp := &dto.FormStateResponse{State: state}
	if state.Dialog == models.DialogOpen {
		conf, err := BuildConfirmation(state.Form, s.rules.Now(), s.rules.Location())
		if err != nil {
			return nil, err
		}
		resp.Confirmation = &conf
	}
	return resp, nil
}

func (s *RegistrationService) load(ctx context.Context, sessionID string) (models.FormState, error) {
	if sessionID == "" {
		return models.FormState{}, appErrors.ErrSessionRequired
	}
	start := time.Now()
	state, err := s.repo.Load(ctx, sessionID)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.RecordStoreLoad(false, duration)
			return NewFormState(), nil
		}
		s.logger.Error("load form state failed", zap.String("session_id", sessionID), zap.Error(err))
		return models.FormState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	s.metrics.RecordStoreLoad(true, duration)
	if state.Invalid == nil {
		state.Invalid = []models.InvalidTag{}
	}
	if state.Dialog == "" {
		state.Dialog = models.DialogClosed
	}
	return state, nil
}

func (s *RegistrationService) save(ctx context.Context, sessionID string, state models.FormState) error {
	start := time.Now()
	err := s.repo.Save(ctx, sessionID, state, s.ttl)
	s.metrics.ObserveStoreWrite("save", time.Since(start))
	if err != nil {
		s.logger.Error("save form state failed", zap.String("session_id", sessionID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save form")
	}
	return nil
}

func (s *RegistrationService) delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return appErrors.ErrSessionRequired
	}
	start := time.Now()
	err := s.repo.Delete(ctx, sessionID)
	s.metrics.ObserveStoreWrite("delete", time.Since(start))
	if err != nil {
		s.logger.Error("delete form state failed", zap.String("session_id", sessionID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset form")
	}
	return nil
}

func applyRequest(state models.FormState, req dto.RegistrationRequest) (models.FormState, error) {
	values := map[models.Field]string{
		models.FieldFullName: req.FullName,
		models.FieldIDCard:   req.IDCard,
		models.FieldGender:   req.Gender,
		models.FieldBirthday: req.Birthday,
	}
	var err error
	for _, field := range models.Fields {
		if state, err = ApplyFieldChange(state, field, values[field]); err != nil {
			return state, err
		}
	}
	return state, nil
}

func tagStrings(tags []models.InvalidTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccine-registration/internal/dto"
	"github.com/noah-isme/vaccine-registration/internal/middleware"
	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
	"github.com/noah-isme/vaccine-registration/pkg/response"
)

type registrationService interface {
	State(ctx context.Context, sessionID string) (*dto.FormStateResponse, error)
	ChangeField(ctx context.Context, sessionID string, req dto.FieldChangeRequest) (*dto.FormStateResponse, error)
	SubmitValues(ctx context.Context, sessionID string, req dto.RegistrationRequest) (*dto.FormStateResponse, error)
	Submit(ctx context.Context, sessionID string) (*dto.FormStateResponse, error)
	Acknowledge(ctx context.Context, sessionID string) (*dto.FormStateResponse, error)
	Dismiss(ctx context.Context, sessionID string) (*dto.FormStateResponse, error)
	Reset(ctx context.Context, sessionID string) (*dto.FormStateResponse, error)
	Confirmation(ctx context.Context, sessionID string) (*models.Confirmation, error)
	Check(ctx context.Context, req dto.RegistrationRequest) (*dto.CheckResponse, error)
	FormatIDCard(value string) dto.IDCardFormatResponse
	DateBounds() dto.DateBounds
}

// RegistrationHandler exposes the form as a JSON API.
type RegistrationHandler struct {
	registrations registrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations registrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// State godoc
// @Summary Current form state
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form [get]
func (h *RegistrationHandler) State(c *gin.Context) {
	resp, err := h.registrations.State(c.Request.Context(), middleware.SessionID(c))
	h.respondState(c, resp, err)
}

// ChangeField godoc
// @Summary Apply one field change
// @Tags Form
// @Accept json
// @Produce json
// @Param payload body dto.FieldChangeRequest true "Field change"
// @Success 200 {object} response.Envelope
// @Router /form/fields [patch]
func (h *RegistrationHandler) ChangeField(c *gin.Context) {
	var req dto.FieldChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.registrations.ChangeField(c.Request.Context(), middleware.SessionID(c), req)
	h.respondState(c, resp, err)
}

// Submit godoc
// @Summary Validate the form and open the confirmation dialog
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form/submit [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	resp, err := h.registrations.Submit(c.Request.Context(), middleware.SessionID(c))
	h.respondState(c, resp, err)
}

// Reset godoc
// @Summary Clear the form
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form/reset [post]
func (h *RegistrationHandler) Reset(c *gin.Context) {
	resp, err := h.registrations.Reset(c.Request.Context(), middleware.SessionID(c))
	h.respondState(c, resp, err)
}

// Acknowledge godoc
// @Summary Acknowledge the dialog and reset the form
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form/dialog/acknowledge [post]
func (h *RegistrationHandler) Acknowledge(c *gin.Context) {
	resp, err := h.registrations.Acknowledge(c.Request.Context(), middleware.SessionID(c))
	h.respondState(c, resp, err)
}

// Dismiss godoc
// @Summary Close the dialog keeping the form
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form/dialog/dismiss [post]
func (h *RegistrationHandler) Dismiss(c *gin.Context) {
	resp, err := h.registrations.Dismiss(c.Request.Context(), middleware.SessionID(c))
	h.respondState(c, resp, err)
}

// Confirmation godoc
// @Summary Contents of the open confirmation dialog
// @Tags Form
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /form/confirmation [get]
func (h *RegistrationHandler) Confirmation(c *gin.Context) {
	conf, err := h.registrations.Confirmation(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conf)
}

// FormatIDCard godoc
// @Summary Format a national ID as typed
// @Tags Form
// @Produce json
// @Param value query string false "Raw input"
// @Success 200 {object} response.Envelope
// @Router /id-card/format [get]
func (h *RegistrationHandler) FormatIDCard(c *gin.Context) {
	response.OK(c, h.registrations.FormatIDCard(c.Query("value")))
}

// Check godoc
// @Summary Validate and evaluate a complete registration without a session
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.RegistrationRequest true "Registration"
// @Success 200 {object} response.Envelope
// @Router /registrations/check [post]
func (h *RegistrationHandler) Check(c *gin.Context) {
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.registrations.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, map[string]interface{}{"messages": messagesFor(resp.Invalid)})
}

func (h *RegistrationHandler) respondState(c *gin.Context, resp *dto.FormStateResponse, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, map[string]interface{}{
		"messages":   messagesFor(resp.State.Invalid),
		"dateBounds": h.registrations.DateBounds(),
	})
}

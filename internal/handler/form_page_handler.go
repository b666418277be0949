package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccine-registration/internal/dto"
	"github.com/noah-isme/vaccine-registration/internal/middleware"
	"github.com/noah-isme/vaccine-registration/internal/models"
	appErrors "github.com/noah-isme/vaccine-registration/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the embedded page templates for gin's HTML renderer.
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"message": messageFor,
	}).ParseFS(templateFS, "templates/*.html")
}

type genderOption struct {
	Value    models.Gender
	Label    string
	Selected bool
}

type formPage struct {
	State        models.FormState
	Confirmation *models.Confirmation
	Bounds       dto.DateBounds
	Genders      []genderOption
	APIPrefix    string
}

// Tags returns the invalid tags of one field for the template.
func (p formPage) Tags(field string) []models.InvalidTag {
	return p.State.TagsFor(models.Field(field))
}

type errorPage struct {
	Status  int
	Message string
}

// FormPageHandler serves the server-rendered registration form.
type FormPageHandler struct {
	registrations registrationService
	apiPrefix     string
}

// NewFormPageHandler constructs FormPageHandler. apiPrefix is used by the page script for live ID formatting.
func NewFormPageHandler(registrations registrationService, apiPrefix string) *FormPageHandler {
	return &FormPageHandler{registrations: registrations, apiPrefix: apiPrefix}
}

// Show renders the form and, when open, the confirmation dialog.
func (h *FormPageHandler) Show(c *gin.Context) {
	resp, err := h.registrations.State(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "form.html", h.page(resp))
}

// Submit applies the posted values and submits them.
func (h *FormPageHandler) Submit(c *gin.Context) {
	var req dto.RegistrationRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderError(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid form"))
		return
	}
	_, err := h.registrations.SubmitValues(c.Request.Context(), middleware.SessionID(c), req)
	h.redirect(c, err)
}

// Clear resets the form.
func (h *FormPageHandler) Clear(c *gin.Context) {
	_, err := h.registrations.Reset(c.Request.Context(), middleware.SessionID(c))
	h.redirect(c, err)
}

// Acknowledge closes the dialog and resets the form.
func (h *FormPageHandler) Acknowledge(c *gin.Context) {
	_, err := h.registrations.Acknowledge(c.Request.Context(), middleware.SessionID(c))
	h.redirect(c, err)
}

// Dismiss closes the dialog keeping the form.
func (h *FormPageHandler) Dismiss(c *gin.Context) {
	_, err := h.registrations.Dismiss(c.Request.Context(), middleware.SessionID(c))
	h.redirect(c, err)
}

// redirect follows post/redirect/get. Dialog state conflicts come from stale pages
// or double clicks, so they simply show the current state again.
func (h *FormPageHandler) redirect(c *gin.Context, err error) {
	if err != nil && !errors.Is(err, appErrors.ErrDialogOpen) && !errors.Is(err, appErrors.ErrDialogClosed) {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *FormPageHandler) renderError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.HTML(appErr.Status, "error.html", errorPage{Status: appErr.Status, Message: appErr.Message})
}

func (h *FormPageHandler) page(resp *dto.FormStateResponse) formPage {
	genders := make([]genderOption, 0, 2)
	for _, g := range []models.Gender{models.GenderMale, models.GenderFemale} {
		genders = append(genders, genderOption{Value: g, Label: g.Label(), Selected: resp.State.Form.Gender == g})
	}
	return formPage{
		State:        resp.State,
		Confirmation: resp.Confirmation,
		Bounds:       h.registrations.DateBounds(),
		Genders:      genders,
		APIPrefix:    h.apiPrefix,
	}
}

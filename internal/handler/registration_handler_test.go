package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccine-registration/internal/dto"
	"github.com/noah-isme/vaccine-registration/internal/middleware"
	"github.com/noah-isme/vaccine-registration/internal/models"
	"github.com/noah-isme/vaccine-registration/internal/repository"
	"github.com/noah-isme/vaccine-registration/internal/service"
)

const testCookie = "test_form_session"

var testNow = time.Date(2026, time.October, 16, 10, 30, 0, 0, time.FixedZone("ICT", 7*60*60))

type formClient struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newFormClient(t *testing.T) *formClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := service.NewMetricsService()
	rules := service.NewFormValidator(validator.New(), service.FormRules{
		Location:     testNow.Location(),
		MinBirthDate: service.DefaultMinBirthDate,
		Now:          func() time.Time { return testNow },
	})
	registrations := service.NewRegistrationService(repository.NewMemoryFormStateRepository(), rules, metrics, zap.NewNop(), time.Hour)
	sessions := service.NewSessionService(service.SessionConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "test"})

	tmpl, err := LoadTemplates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	RegisterRoutes(r, "/api/v1", middleware.Session(sessions, middleware.CookieConfig{Name: testCookie}), Handlers{
		Page:    NewFormPageHandler(registrations, "/api/v1"),
		API:     NewRegistrationHandler(registrations),
		Metrics: NewMetricsHandler(metrics, nil, zap.NewNop()),
	})
	return &formClient{t: t, router: r}
}

func (fc *formClient) performRequest(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	fc.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if fc.cookie != nil {
		req.AddCookie(fc.cookie)
	}
	w := httptest.NewRecorder()
	fc.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookie {
			fc.cookie = c
		}
	}
	return w
}

func (fc *formClient) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	return fc.performRequest(http.MethodPost, path, "application/x-www-form-urlencoded", []byte(values.Encode()))
}

func (fc *formClient) sendJSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(fc.t, err)
	return fc.performRequest(method, path, "application/json", body)
}

type stateEnvelope struct {
	Data  dto.FormStateResponse `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
	Meta struct {
		Messages   map[string]string `json:"messages"`
		DateBounds dto.DateBounds    `json:"dateBounds"`
	} `json:"meta"`
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateEnvelope {
	t.Helper()
	var env stateEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func elderValues() url.Values {
	return url.Values{
		"fullName": {"สมชาย ใจดี"},
		"idCard":   {"1234567890123"},
		"gender":   {"male"},
		"birthday": {"1961-10-16"},
	}
}

func TestFormPageRendersEmptyForm(t *testing.T) {
	fc := newFormClient(t)

	w := fc.performRequest(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ฟอร์มการลงทะเบียนกิจกรรมฉีดวัคซีนโควิด-19")
	assert.Contains(t, w.Body.String(), `max="2026-10-16"`)
	assert.NotContains(t, w.Body.String(), "สถานะการเข้ารับบริการ")
	require.NotNil(t, fc.cookie)
}

func TestFormPageShowsCampaignAndLabels(t *testing.T) {
	fc := newFormClient(t)

	body := fc.performRequest(http.MethodGet, "/", "", nil).Body.String()
	assert.Contains(t, body, "ในวันที่ 1 มิถุนายน พ.ศ. 2566 – 31 สิงหาคม พ.ศ. 2566")
	assert.Contains(t, body, "1. ผู้สูงอายุ 65 ปีขึ้นไป (ชาย,หญิง)")
	assert.Contains(t, body, "2. เด็กที่มีอายุระหว่าง 6 เดือน ถึง 2 ปี (ชาย,หญิง)")
	assert.Contains(t, body, ">ยืนยัน</button>")
	assert.Contains(t, body, ">ล้างค่า</button>")
	assert.Contains(t, body, `<option value="">โปรดเลือก</option>`)
}

func TestFormPageScriptIgnoresStaleFormatting(t *testing.T) {
	fc := newFormClient(t)

	body := fc.performRequest(http.MethodGet, "/", "", nil).Body.String()
	assert.Contains(t, body, "var seq = ++latest;")
	assert.Contains(t, body, "if (seq !== latest || input.value !== sent) { return; }")
}

func TestFormPageSubmitOpensDialogAndAcknowledgeResets(t *testing.T) {
	fc := newFormClient(t)
	fc.performRequest(http.MethodGet, "/", "", nil)

	w := fc.postForm("/submit", elderValues())
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = fc.performRequest(http.MethodGet, "/", "", nil)
	body := w.Body.String()
	assert.Contains(t, body, "สถานะการเข้ารับบริการ")
	assert.Contains(t, body, "ชื่อ-สกุล: สมชาย ใจดี")
	assert.Contains(t, body, "เพศ: ชาย")
	assert.Contains(t, body, "1-2345-67890-12-3")
	assert.Contains(t, body, "เกิดวันจันทร์ที่ 16 ตุลาคม พ.ศ. 2504")
	assert.Contains(t, body, "สามารถเข้ารับบริการได้")

	w = fc.postForm("/dialog/acknowledge", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = fc.performRequest(http.MethodGet, "/", "", nil)
	assert.NotContains(t, w.Body.String(), "สถานะการเข้ารับบริการ")
	assert.NotContains(t, w.Body.String(), "สมชาย ใจดี")
}

func TestFormPageSubmitShowsInlineErrors(t *testing.T) {
	fc := newFormClient(t)

	w := fc.postForm("/submit", url.Values{"fullName": {"John123"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = fc.performRequest(http.MethodGet, "/", "", nil)
	body := w.Body.String()
	assert.Contains(t, body, messageFor(models.TagFullNameWrongScript))
	assert.Contains(t, body, messageFor(models.TagIDCardRequired))
	assert.Contains(t, body, messageFor(models.TagGenderRequired))
	assert.NotContains(t, body, "สถานะการเข้ารับบริการ")
}

func TestFormPageDismissKeepsValues(t *testing.T) {
	fc := newFormClient(t)
	fc.postForm("/submit", elderValues())

	w := fc.postForm("/dialog/dismiss", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = fc.performRequest(http.MethodGet, "/", "", nil)
	assert.NotContains(t, w.Body.String(), "สถานะการเข้ารับบริการ")
	assert.Contains(t, w.Body.String(), `value="สมชาย ใจดี"`)

	// A stale second dismiss is not an error for the page.
	w = fc.postForm("/dialog/dismiss", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestFormAPIFieldChangesAndSubmit(t *testing.T) {
	fc := newFormClient(t)

	w := fc.sendJSON(http.MethodPatch, "/api/v1/form/fields", dto.FieldChangeRequest{Field: "idCard", Value: "11234"})
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeState(t, w)
	assert.Equal(t, "1-1234", env.Data.State.Form.IDCard)
	assert.Equal(t, "2026-10-16", env.Meta.DateBounds.Max)

	w = fc.performRequest(http.MethodPost, "/api/v1/form/submit", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Equal(t, models.DialogClosed, env.Data.State.Dialog)
	assert.Contains(t, env.Data.State.Invalid, models.TagIDCardBadFormat)
	assert.Equal(t, messageFor(models.TagIDCardBadFormat), env.Meta.Messages[string(models.TagIDCardBadFormat)])

	for field, value := range map[string]string{
		"fullName": "Jane Doe",
		"idCard":   "1234567890123",
		"gender":   "female",
		"birthday": "2026-01-10",
	} {
		w = fc.sendJSON(http.MethodPatch, "/api/v1/form/fields", dto.FieldChangeRequest{Field: field, Value: value})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = fc.performRequest(http.MethodPost, "/api/v1/form/submit", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Equal(t, models.DialogOpen, env.Data.State.Dialog)
	require.NotNil(t, env.Data.Confirmation)
	assert.True(t, env.Data.Confirmation.Eligible)
	assert.Equal(t, 9, env.Data.Confirmation.AgeMonths)

	w = fc.performRequest(http.MethodGet, "/api/v1/form/confirmation", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = fc.sendJSON(http.MethodPatch, "/api/v1/form/fields", dto.FieldChangeRequest{Field: "fullName", Value: "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DIALOG_OPEN", decodeState(t, w).Error.Code)

	w = fc.performRequest(http.MethodPost, "/api/v1/form/dialog/acknowledge", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeState(t, w)
	assert.Equal(t, models.Form{}, env.Data.State.Form)

	w = fc.performRequest(http.MethodGet, "/api/v1/form/confirmation", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFormAPIRejectsUnknownField(t *testing.T) {
	fc := newFormClient(t)

	w := fc.sendJSON(http.MethodPatch, "/api/v1/form/fields", dto.FieldChangeRequest{Field: "email", Value: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_FIELD", decodeState(t, w).Error.Code)

	w = fc.performRequest(http.MethodPatch, "/api/v1/form/fields", "application/json", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormAPISessionsAreIsolated(t *testing.T) {
	fc := newFormClient(t)
	fc.sendJSON(http.MethodPatch, "/api/v1/form/fields", dto.FieldChangeRequest{Field: "fullName", Value: "Jane"})

	other := newFormClient(t)
	other.router = fc.router
	w := other.performRequest(http.MethodGet, "/api/v1/form", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeState(t, w).Data.State.Form.FullName)

	w = fc.performRequest(http.MethodGet, "/api/v1/form", "", nil)
	assert.Equal(t, "Jane", decodeState(t, w).Data.State.Form.FullName)
}

func TestIDCardFormatEndpoint(t *testing.T) {
	fc := newFormClient(t)

	w := fc.performRequest(http.MethodGet, "/api/v1/id-card/format?value=11234", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data dto.IDCardFormatResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "1-1234", env.Data.Formatted)
	assert.False(t, env.Data.Complete)
	assert.Nil(t, fc.cookie)
}

func TestRegistrationCheckEndpoint(t *testing.T) {
	fc := newFormClient(t)

	w := fc.sendJSON(http.MethodPost, "/api/v1/registrations/check", dto.RegistrationRequest{
		FullName: "สมหญิง ใจดี",
		IDCard:   "1-2345-67890-12-3",
		Gender:   "female",
		Birthday: "2000-05-01",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data dto.CheckResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Data.Accepted)
	require.NotNil(t, env.Data.Confirmation)
	assert.False(t, env.Data.Confirmation.Eligible)
	assert.Equal(t, "ไม่สามารถเข้ารับบริการได้", env.Data.Confirmation.Verdict)
}

func TestOperationalEndpoints(t *testing.T) {
	fc := newFormClient(t)

	w := fc.performRequest(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = fc.performRequest(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = fc.performRequest(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyReportsFailingStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler(nil, func(context.Context) error { return errors.New("redis down") }, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, c.IsAborted())
}

type failingRegistrationService struct {
	err error
}

func (f *failingRegistrationService) State(context.Context, string) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) ChangeField(context.Context, string, dto.FieldChangeRequest) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) SubmitValues(context.Context, string, dto.RegistrationRequest) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Submit(context.Context, string) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Acknowledge(context.Context, string) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Dismiss(context.Context, string) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Reset(context.Context, string) (*dto.FormStateResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Confirmation(context.Context, string) (*models.Confirmation, error) {
	return nil, f.err
}

func (f *failingRegistrationService) Check(context.Context, dto.RegistrationRequest) (*dto.CheckResponse, error) {
	return nil, f.err
}

func (f *failingRegistrationService) FormatIDCard(value string) dto.IDCardFormatResponse {
	return dto.IDCardFormatResponse{Input: value, Formatted: value}
}

func (f *failingRegistrationService) DateBounds() dto.DateBounds {
	return dto.DateBounds{}
}

func TestHandlersSurfaceServiceErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &failingRegistrationService{err: errors.New("store unavailable")}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/form", nil)
	NewRegistrationHandler(svc).State(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")

	tmpl, err := LoadTemplates()
	require.NoError(t, err)
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	page := NewFormPageHandler(svc, "/api/v1")
	r.GET("/", page.Show)
	r.POST("/clear", page.Clear)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "เกิดข้อผิดพลาด")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/clear", strings.NewReader("")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

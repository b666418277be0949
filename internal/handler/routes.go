package handler

import "github.com/gin-gonic/gin"

// Handlers groups everything mounted on the engine.
type Handlers struct {
	Page    *FormPageHandler
	API     *RegistrationHandler
	Metrics *MetricsHandler
}

// RegisterRoutes mounts the operational endpoints on r and the session bound
// page and API routes behind session.
func RegisterRoutes(r *gin.Engine, apiPrefix string, session gin.HandlerFunc, h Handlers) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	if h.Page != nil {
		page := r.Group("/", session)
		page.GET("", h.Page.Show)
		page.POST("/submit", h.Page.Submit)
		page.POST("/clear", h.Page.Clear)
		page.POST("/dialog/acknowledge", h.Page.Acknowledge)
		page.POST("/dialog/dismiss", h.Page.Dismiss)
	}

	if h.API != nil {
		api := r.Group(apiPrefix)
		api.GET("/id-card/format", h.API.FormatIDCard)
		api.POST("/registrations/check", h.API.Check)

		form := api.Group("/form", session)
		form.GET("", h.API.State)
		form.PATCH("/fields", h.API.ChangeField)
		form.POST("/submit", h.API.Submit)
		form.POST("/reset", h.API.Reset)
		form.POST("/dialog/acknowledge", h.API.Acknowledge)
		form.POST("/dialog/dismiss", h.API.Dismiss)
		form.GET("/confirmation", h.API.Confirmation)
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccine-registration/internal/service"
	"github.com/noah-isme/vaccine-registration/pkg/logger"
	"github.com/noah-isme/vaccine-registration/pkg/response"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Session attaches the form session to every request, starting a new one when the
// cookie is missing, expired or forged. A cookie past half its lifetime is re-signed
// for the same session.
func Session(sessions *service.SessionService, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(cookie.Name); err == nil && token != "" {
			if session, err := sessions.Parse(token); err == nil {
				if sessions.NeedsRenewal(session) {
					renewed, err := sessions.Renew(session.ID)
					if err != nil {
						response.Error(c, err)
						c.Abort()
						return
					}
					setSessionCookie(c, cookie, renewed, sessions.TTL())
				}
				c.Set(logger.SessionKey, session.ID)
				c.Next()
				return
			}
		}

		sid, token, err := sessions.Issue()
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		setSessionCookie(c, cookie, token, sessions.TTL())
		c.Set(logger.SessionKey, sid)
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, cookie CookieConfig, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, token, int(ttl.Seconds()), "/", "", cookie.Secure, true)
}

// SessionID returns the form session bound to the request.
func SessionID(c *gin.Context) string {
	return c.GetString(logger.SessionKey)
}

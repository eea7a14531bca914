package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"visionallende/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const msgErrorInterno = "Error interno del servidor"

// eventoFallo starts an error log entry carrying the request id, the matched
// route and, behind JWTAuth, the user who made the request.
func eventoFallo(c *gin.Context) *zerolog.Event {
	ev := log.Error().
		Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("route", c.FullPath())
	if claims := GetClaims(c); claims != nil {
		ev = ev.Str("usuario", claims.Username)
	}
	return ev
}

// ErrorHandler answers 500 for errors a handler attached with c.Error and
// did not map to a status itself (storage failures, queue or mail outages).
// The detail goes to the log only.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		eventoFallo(c).Err(c.Errors.Last().Err).Msg("error no manejado")
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(msgErrorInterno))
	}
}

// Recovery turns a panic in a handler into a 500 and logs its stack. When the
// handler already started the response only the log entry is written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			eventoFallo(c).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recuperado")
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(msgErrorInterno))
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
// 5xx responses are logged at error level and 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/apierror"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandler converts errors attached to the context into JSON responses.
// Pipeline sentinels map to specific statuses; everything else becomes a 500
// with a safe message — internals are never exposed to clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, detail := classify(err)

		if status >= http.StatusInternalServerError {
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Err(err).
				Msg("unhandled error")
		}

		c.AbortWithStatusJSON(status, apierror.New(detail))
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrDuplicate),
		errors.Is(err, repository.ErrNumberingConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrInvalidCertificate),
		errors.Is(err, service.ErrCertificateExpired),
		errors.Is(err, service.ErrCertificateNotYetValid),
		errors.Is(err, service.ErrInvalidPrivateKey):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNoCertificate):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, service.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

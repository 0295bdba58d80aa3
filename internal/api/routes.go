package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/jarvis/server/internal/metrics"
	"github.com/satriahrh/jarvis/server/internal/websocket"
)

const serviceName = "jarvis-relay"

// SessionCounter reports how many sessions are open
type SessionCounter interface {
	ActiveSessions() int
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, sessions SessionCounter, m *metrics.Metrics, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:   "ok",
			Service:  serviceName,
			Sessions: sessions.ActiveSessions(),
		})
	})

	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// WebSocket endpoint; every connection is its own session
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

// HTTPErrorHandler renders handler errors as ErrorResponse JSON
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}

		if code >= http.StatusInternalServerError {
			logger.Error("HTTP handler failed",
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		if err := c.JSON(code, ErrorResponse{Error: http.StatusText(code), Message: message}); err != nil {
			logger.Debug("Failed to write error response", zap.Error(err))
		}
	}
}

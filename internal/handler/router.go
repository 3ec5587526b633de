package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

func NewRouter(search *SearchHandler, log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	search.Register(api)
	e.GET("/health", HealthHandler)

	return e
}

// RequestLogger writes one structured line per request through zap.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	httpLog := log.Named("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
				logger.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				httpLog.Warn("HTTP request", append(fields, logger.Error(v.Error))...)
				return nil
			}
			httpLog.Info("HTTP request", fields...)
			return nil
		},
	})
}

package middleware

import (
	"time"

	applogger "stockscout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging emits one structured line per request. Paths in
// skipPaths (metrics scrapes, health probes) are not logged.
func RequestLogging(lgr *applogger.Logger, skipPaths ...string) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if lgr == nil || skip[req.URL.Path] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			lgr.Info("http request",
				applogger.String("method", req.Method),
				applogger.String("path", req.RequestURI),
				applogger.String("remote", req.RemoteAddr),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", time.Since(start)))

			return err
		}
	}
}

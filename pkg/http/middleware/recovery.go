package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "stockscout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into 500 responses. The stack is logged
// through the service logger so panics reach the same sinks as errors.
func Recover(lgr *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if lgr != nil {
						lgr.Error("handler panic",
							applogger.String("path", c.Request().URL.Path),
							applogger.Error(err),
							applogger.String("stack", string(debug.Stack())))
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}

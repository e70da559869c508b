package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/locvowork/excelmerge/internal/logger"
)

// RequestContext tags every request with an id, echoed in the X-Request-ID
// header and attached to the request's logger.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			ctx := logger.WithLogger(req.Context(), map[string]interface{}{
				"request_id": id,
				"method":     req.Method,
				"path":       c.Path(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

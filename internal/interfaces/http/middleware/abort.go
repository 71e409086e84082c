package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// AbortRequestOption options for request abortion
type AbortRequestOption struct {
	Timeout time.Duration
}

// AbortRequest bounds every request with a deadline. Handlers that honor
// the request context stop working once the budget is spent.
func AbortRequest(option *AbortRequestOption) echo.MiddlewareFunc {
	timeout := 30 * time.Second
	if option != nil && option.Timeout > 0 {
		timeout = option.Timeout
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			c.SetRequest(r.WithContext(ctx))
			return next(c)
		}
	}
}

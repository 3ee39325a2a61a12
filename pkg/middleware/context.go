package middleware

import (
	"github.com/Ramsey-B/sequoia/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderUserID is the header key for the acting user's ID
	HeaderUserID = "X-User-ID"
	// HeaderUserRole is the header key for the acting user's role
	HeaderUserRole = "X-User-Role"
)

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// user identity is resolved upstream (gateway); we only carry it
			userID := req.Header.Get(HeaderUserID)
			userRole := req.Header.Get(HeaderUserRole)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetReferer(ctx, req.Referer())
			ctx = context.SetUserID(ctx, userID)
			ctx = context.SetUserRole(ctx, userRole)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

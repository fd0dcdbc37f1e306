package http

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders errors that escape the gateway (routing,
// auth) in the same {ok:false,error} shape.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = errorutil.NewInternalError(nil)
			}
			if err != nil {
				status, code, message := describe(err)
				metrics.RecordError(c.UserContext(), c.Path(), c.Method(), code)
				if status >= fiber.StatusInternalServerError {
					logger.Error("request failed", zap.Error(err))
				}
				c.Status(status)
				_ = c.JSON(fiber.Map{"ok": false, "error": message})
				err = nil
			}
		}()
		return c.Next()
	}
}

func describe(err error) (int, string, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fmt.Sprintf("HTTP_%d", fiberErr.Code), fiberErr.Message
	}
	domainErr := errorutil.ToDomainError(err)
	return domainErr.HTTPStatus, domainErr.Code, errorutil.PublicMessage(err)
}

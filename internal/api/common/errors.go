package common

import (
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/pkg/apps"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
)

// BindAndValidate decodes the request body into req and validates it,
// answering 400 itself on failure. ok is false when the handler should stop.
func BindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		logging.Logger.Debug("Failed to bind request", zap.Error(err))
		return false, response.BadRequest(c, "Invalid request")
	}
	if err := c.Validate(req); err != nil {
		logging.Logger.Debug("Request validation failed", zap.Error(err))
		return false, response.BadRequest(c, err.Error())
	}
	return true, nil
}

// InstanceError maps instance store errors to responses
func InstanceError(c echo.Context, action string, err error) error {
	switch {
	case errors.Is(err, apps.ErrNotFound):
		return response.NotFound(c, "Instance not found")
	case errors.Is(err, apps.ErrDuplicateIdentifier):
		return response.Conflict(c, err.Error()+". Please choose a different name.")
	default:
		logging.Logger.Error("Instance operation failed",
			zap.String("action", action),
			zap.Error(err))
		return response.InternalServerError(c, "Failed to "+action+" instance: "+err.Error())
	}
}

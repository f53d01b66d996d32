package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adconfigurator/api/internal/api/common"
	"github.com/adconfigurator/api/internal/middleware"
	"github.com/adconfigurator/api/pkg/logging"
	"github.com/adconfigurator/api/pkg/response"
	"github.com/adconfigurator/api/pkg/upload"
)

const formField = "file"

// TargetResolver says which folder blueprints are read from
type TargetResolver interface {
	Dir(appsPath string) string
}

// Handler accepts blueprint archives
type Handler struct {
	targets  TargetResolver
	maxBytes int64
}

// NewHandler creates a new upload handler
func NewHandler(targets TargetResolver, maxBytes int64) *Handler {
	return &Handler{targets: targets, maxBytes: maxBytes}
}

// UploadBlueprints handles POST /upload-blueprints. The archive is either the
// raw request body or the "file" field of a multipart form.
func (h *Handler) UploadBlueprints(c echo.Context) error {
	data, err := h.readArchive(c)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			return response.RequestEntityTooLarge(c, "Upload is too large")
		}
		logging.Logger.Debug("Failed to read upload", zap.Error(err))
		return response.BadRequest(c, "No file provided or invalid file format")
	}

	target := h.targets.Dir(middleware.AppsPath(c))
	result, err := upload.Extract(data, target, h.maxBytes)
	switch {
	case err == nil:
	case errors.Is(err, upload.ErrEmptyArchive):
		return response.BadRequest(c, "Empty zip file")
	case errors.Is(err, upload.ErrInvalidArchive), errors.Is(err, upload.ErrUnsafePath):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, upload.ErrTooLarge):
		return response.RequestEntityTooLarge(c, err.Error())
	default:
		logging.Logger.Error("Failed to extract blueprints",
			zap.String("target", target),
			zap.Error(err))
		return response.InternalServerError(c, "Failed to extract zip file: "+err.Error())
	}

	return response.OK(c, "Blueprints uploaded successfully", common.UploadResponse{
		Target: target,
		Result: result,
	})
}

func (h *Handler) readArchive(c echo.Context) ([]byte, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		header, err := c.FormFile(formField)
		if err != nil {
			return nil, err
		}
		if h.maxBytes > 0 && header.Size > h.maxBytes {
			return nil, upload.ErrTooLarge
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer func(f multipart.File) { _ = f.Close() }(file)
		return h.readLimited(file)
	}
	return h.readLimited(req.Body)
}

func (h *Handler) readLimited(r io.Reader) ([]byte, error) {
	if h.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, h.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxBytes {
		return nil, upload.ErrTooLarge
	}
	return data, nil
}

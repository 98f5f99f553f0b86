package compress

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/api/respond"
	"github.com/aliskhannn/image-compressor/internal/compressor"
	"github.com/aliskhannn/image-compressor/internal/model"
	"github.com/aliskhannn/image-compressor/internal/repository/task"
	compresssvc "github.com/aliskhannn/image-compressor/internal/service/compress"
	"github.com/aliskhannn/image-compressor/internal/storage/file"
)

//go:generate mockgen -source=handler.go -destination=mock_service_test.go -package=compress_test

// service defines the interface for compression operations.
type service interface {
	Compress(ctx context.Context, filename, contentType string, src io.Reader, opts compressor.Options) (model.Compressed, error)
	Submit(ctx context.Context, filename, contentType string, src io.Reader, opts compressor.Options) (uuid.UUID, error)
	GetCompressed(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
	GetTask(ctx context.Context, id uuid.UUID) (model.Task, error)
}

var errUploadTooLarge = errors.New("upload exceeds size limit")

// Handler provides HTTP handlers for compression endpoints.
type Handler struct {
	service       service
	defaults      compressor.Options
	maxUploadSize int64
}

// NewHandler creates a new Handler. defaults fill in form fields the client omits.
func NewHandler(s service, defaults compressor.Options, maxUploadSize int64) *Handler {
	return &Handler{service: s, defaults: defaults, maxUploadSize: maxUploadSize}
}

// CompressResponse is the body returned by the inline compression endpoint.
type CompressResponse struct {
	Success          bool   `json:"success"`
	Image            string `json:"image"` // base64 encoded
	MimeType         string `json:"mimeType"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	OriginalSize     int64  `json:"originalSize"`
	CompressedSize   int64  `json:"compressedSize"`
	CompressionRatio string `json:"compressionRatio"`
	Format           string `json:"format"`
}

type upload struct {
	file        multipart.File
	filename    string
	contentType string
	opts        compressor.Options
}

// readUpload parses the multipart form and the optional quality and maxWidth fields.
func (h *Handler) readUpload(c *ginext.Context) (upload, error) {
	if c.Request.ContentLength > h.maxUploadSize {
		return upload{}, errUploadTooLarge
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	if err := c.Request.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, errUploadTooLarge
		}

		return upload{}, fmt.Errorf("parse multipart form failed: %w", err)
	}

	src, header, err := c.Request.FormFile("image")
	if err != nil {
		return upload{}, fmt.Errorf("image is required")
	}

	opts := h.defaults

	if v := c.PostForm("quality"); v != "" {
		if opts.Quality, err = strconv.Atoi(v); err != nil {
			src.Close()
			return upload{}, fmt.Errorf("invalid quality: %w", err)
		}
	}

	if v := c.PostForm("maxWidth"); v != "" {
		if opts.MaxWidth, err = strconv.Atoi(v); err != nil {
			src.Close()
			return upload{}, fmt.Errorf("invalid maxWidth: %w", err)
		}
	}

	zlog.Logger.Debug().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Int("quality", opts.Quality).
		Int("max_width", opts.MaxWidth).
		Msg("upload received")

	return upload{
		file:        src,
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
		opts:        opts,
	}, nil
}

// Compress handles an upload and responds with the compressed image inline.
func (h *Handler) Compress(c *ginext.Context) {
	up, err := h.readUpload(c)
	if err != nil {
		h.badUpload(c, err)
		return
	}
	defer up.file.Close()

	res, err := h.service.Compress(c.Request.Context(), up.filename, up.contentType, up.file, up.opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond.OK(c, CompressResponse{
		Success:          true,
		Image:            base64.StdEncoding.EncodeToString(res.Data),
		MimeType:         res.MimeType,
		Width:            res.Width,
		Height:           res.Height,
		OriginalSize:     res.OriginalSize,
		CompressedSize:   res.CompressedSize,
		CompressionRatio: res.CompressionRatio,
		Format:           res.Format,
	})
}

// Submit stores the upload and enqueues it for background compression.
func (h *Handler) Submit(c *ginext.Context) {
	up, err := h.readUpload(c)
	if err != nil {
		h.badUpload(c, err)
		return
	}
	defer up.file.Close()

	id, err := h.service.Submit(c.Request.Context(), up.filename, up.contentType, up.file, up.opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	zlog.Logger.Info().Str("id", id.String()).Str("filename", up.filename).Msg("task submitted")

	respond.Accepted(c, map[string]interface{}{"id": id})
}

// GetResult serves the compressed image produced for a submitted task.
// Pending tasks answer 202 with their status and failed ones 422 with the reason.
func (h *Handler) GetResult(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	reader, contentType, err := h.service.GetCompressed(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, compresssvc.ErrTaskPending):
			respond.Accepted(c, map[string]interface{}{"id": id, "status": model.StatusPending})
		case errors.Is(err, compresssvc.ErrTaskFailed):
			respond.Fail(c, http.StatusUnprocessableEntity, err)
		case errors.Is(err, task.ErrTaskNotFound), errors.Is(err, file.ErrNotFound):
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("task not found"))
		default:
			zlog.Logger.Err(err).Msg("failed to get compressed image")
			respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get image"))
		}
		return
	}
	defer reader.Close()

	respond.Image(c, http.StatusOK, contentType, reader)
}

// GetMeta returns the task record (status, options, failure reason) without serving the image.
func (h *Handler) GetMeta(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	t, err := h.service.GetTask(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("task not found"))
			return
		}

		zlog.Logger.Err(err).Msg("failed to get task")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get task"))
		return
	}

	respond.OK(c, t)
}

func (h *Handler) badUpload(c *ginext.Context, err error) {
	zlog.Logger.Warn().Err(err).Msg("bad upload")

	if errors.Is(err, errUploadTooLarge) {
		respond.Fail(c, http.StatusRequestEntityTooLarge, err)
		return
	}

	respond.Fail(c, http.StatusBadRequest, err)
}

// fail maps service errors onto status codes.
func (h *Handler) fail(c *ginext.Context, err error) {
	var decErr *compressor.DecodeError

	switch {
	case errors.Is(err, compressor.ErrInvalidArgument):
		respond.Fail(c, http.StatusBadRequest, err)
	case errors.As(err, &decErr):
		respond.Fail(c, http.StatusUnprocessableEntity, fmt.Errorf("unsupported or corrupt image"))
	default:
		zlog.Logger.Err(err).Msg("failed to compress image")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to compress image"))
	}
}

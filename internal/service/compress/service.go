package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/compressor"
	"github.com/aliskhannn/image-compressor/internal/model"
)

const (
	originalPrefix   = "original"
	compressedPrefix = "compressed"
)

// fileStorage defines the interface for object storage (e.g., MinIO or S3).
type fileStorage interface {
	Save(ctx context.Context, prefix, name string, src io.Reader, size int64, contentType string) (string, error)
	Load(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// repository defines the interface for persisting task state.
type repository interface {
	SaveTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (model.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, resultPath, reason string) error
}

var (
	// ErrTaskPending is returned while a submitted task has not been processed.
	ErrTaskPending = errors.New("task is not processed yet")

	// ErrTaskFailed is returned for tasks the worker could not compress.
	ErrTaskFailed = errors.New("task failed")
)

// producer defines the interface for enqueueing tasks into a message broker (e.g., Kafka).
type producer interface {
	Produce(ctx context.Context, task model.Task) error
}

// Service provides business logic for compressing uploaded images,
// either inline or through the task queue.
type Service struct {
	fileStorage fileStorage
	producer    producer
	repo        repository
}

// NewService creates a new Service with the given storage, producer and task repository.
func NewService(fs fileStorage, p producer, r repository) *Service {
	return &Service{fileStorage: fs, producer: p, repo: r}
}

// Compress compresses the uploaded image in memory and returns the encoded
// result with size statistics.
func (s *Service) Compress(ctx context.Context, filename, contentType string, src io.Reader, opts compressor.Options) (model.Compressed, error) {
	if err := opts.Validate(); err != nil {
		return model.Compressed{}, err
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return model.Compressed{}, fmt.Errorf("compress: failed to read upload: %w", err)
	}

	return compressBytes(data, filename, contentType, opts)
}

// Submit stores the original image and enqueues a task for the worker.
// The returned ID is used to fetch the result with GetCompressed.
func (s *Service) Submit(ctx context.Context, filename, contentType string, src io.Reader, opts compressor.Options) (uuid.UUID, error) {
	if err := opts.Validate(); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()

	key, err := s.fileStorage.Save(ctx, originalPrefix, id.String()+filepath.Ext(filename), src, -1, contentType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("submit: failed to save original: %w", err)
	}

	task := model.Task{
		ID:          id,
		Filename:    filename,
		Path:        key,
		ContentType: contentType,
		Quality:     opts.Quality,
		MaxWidth:    opts.MaxWidth,
		Status:      model.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.SaveTask(ctx, task); err != nil {
		s.deleteObject(ctx, key)
		return uuid.Nil, fmt.Errorf("submit: %w", err)
	}

	if err := s.producer.Produce(ctx, task); err != nil {
		s.deleteObject(ctx, key)
		s.markFailed(ctx, id, "failed to enqueue task")
		return uuid.Nil, fmt.Errorf("submit: failed to enqueue task: %w", err)
	}

	return id, nil
}

// ProcessTask compresses a previously submitted original, stores the result
// and records the outcome. The original is removed either way, since the
// task is not retried.
func (s *Service) ProcessTask(ctx context.Context, task model.Task) error {
	key, err := s.process(ctx, task)
	s.deleteObject(ctx, task.Path)

	if err != nil {
		s.markFailed(ctx, task.ID, failureReason(err))
		return err
	}

	if err := s.repo.UpdateStatus(ctx, task.ID, model.StatusProcessed, key, ""); err != nil {
		return fmt.Errorf("process: %w", err)
	}

	return nil
}

func (s *Service) process(ctx context.Context, task model.Task) (string, error) {
	rc, _, err := s.fileStorage.Load(ctx, task.Path)
	if err != nil {
		return "", fmt.Errorf("process: failed to load original: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("process: failed to read original: %w", err)
	}

	opts := compressor.Options{Quality: task.Quality, MaxWidth: task.MaxWidth}

	res, err := compressBytes(data, task.Filename, task.ContentType, opts)
	if err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	key, err := s.fileStorage.Save(ctx, compressedPrefix, task.ID.String(), bytes.NewReader(res.Data), int64(len(res.Data)), res.MimeType)
	if err != nil {
		return "", fmt.Errorf("process: failed to save result: %w", err)
	}

	return key, nil
}

// GetTask returns the stored state of a task.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// GetCompressed returns the result of a processed task and its content type.
// Pending tasks yield ErrTaskPending and failed ones ErrTaskFailed with the reason.
func (s *Service) GetCompressed(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch task.Status {
	case model.StatusProcessed:
		return s.fileStorage.Load(ctx, task.ResultPath)
	case model.StatusFailed:
		return nil, "", fmt.Errorf("%w: %s", ErrTaskFailed, task.Error)
	default:
		return nil, "", ErrTaskPending
	}
}

func (s *Service) markFailed(ctx context.Context, id uuid.UUID, reason string) {
	if err := s.repo.UpdateStatus(ctx, id, model.StatusFailed, "", reason); err != nil {
		zlog.Logger.Err(err).Str("id", id.String()).Msg("failed to mark task as failed")
	}
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.fileStorage.Delete(ctx, key); err != nil {
		zlog.Logger.Warn().Err(err).Str("key", key).Msg("failed to delete object")
	}
}

// failureReason hides storage internals from clients; decode problems are
// reported as is since they are caused by the upload.
func failureReason(err error) string {
	var decErr *compressor.DecodeError
	var encErr *compressor.EncodeError

	switch {
	case errors.As(err, &decErr):
		return decErr.Error()
	case errors.As(err, &encErr):
		return encErr.Error()
	default:
		return "internal error"
	}
}

func compressBytes(data []byte, filename, contentType string, opts compressor.Options) (model.Compressed, error) {
	img, err := compressor.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Compressed{}, err
	}

	format := OutputFormat(filename, contentType, img.Mode)
	out := compressor.Prepare(img, opts.MaxWidth)

	var buf bytes.Buffer
	if err := compressor.Encode(&buf, out, format, img.Mode, opts.Quality); err != nil {
		return model.Compressed{}, err
	}

	b := out.Bounds()

	return model.Compressed{
		Data:             buf.Bytes(),
		MimeType:         mimeTypes[format],
		Format:           strings.ToLower(format.String()),
		Width:            b.Dx(),
		Height:           b.Dy(),
		OriginalSize:     int64(len(data)),
		CompressedSize:   int64(buf.Len()),
		CompressionRatio: Ratio(int64(len(data)), int64(buf.Len())),
	}, nil
}

var mimeTypes = map[imaging.Format]string{
	imaging.PNG:  "image/png",
	imaging.JPEG: "image/jpeg",
}

// OutputFormat picks PNG for PNG uploads and for anything carrying alpha,
// and JPEG for everything else.
func OutputFormat(filename, contentType string, mode compressor.Mode) imaging.Format {
	if contentType == "image/png" || strings.EqualFold(filepath.Ext(filename), ".png") || mode.HasAlpha() {
		return imaging.PNG
	}

	return imaging.JPEG
}

// Ratio formats the relative size reduction as a percentage with one decimal.
func Ratio(original, compressed int64) string {
	if original == 0 {
		return "0.0%"
	}

	return fmt.Sprintf("%.1f%%", (1-float64(compressed)/float64(original))*100)
}

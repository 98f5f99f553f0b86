package compress

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-compressor/internal/compressor"
	"github.com/aliskhannn/image-compressor/internal/model"
	"github.com/aliskhannn/image-compressor/internal/repository/task"
	"github.com/aliskhannn/image-compressor/internal/storage/file"
)

type object struct {
	data        []byte
	contentType string
}

type memStorage struct {
	objects map[string]object
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string]object)}
}

func (m *memStorage) Save(_ context.Context, prefix, name string, src io.Reader, _ int64, contentType string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	key := prefix + "/" + name
	m.objects[key] = object{data: data, contentType: contentType}

	return key, nil
}

func (m *memStorage) Load(_ context.Context, key string) (io.ReadCloser, string, error) {
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", file.ErrNotFound
	}

	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type chanProducer struct {
	tasks []model.Task
	err   error
}

func (p *chanProducer) Produce(_ context.Context, task model.Task) error {
	if p.err != nil {
		return p.err
	}

	p.tasks = append(p.tasks, task)

	return nil
}

type memRepo struct {
	tasks   map[uuid.UUID]model.Task
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[uuid.UUID]model.Task)}
}

func (r *memRepo) SaveTask(_ context.Context, t model.Task) error {
	if r.saveErr != nil {
		return r.saveErr
	}

	r.tasks[t.ID] = t

	return nil
}

func (r *memRepo) GetTask(_ context.Context, id uuid.UUID) (model.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return model.Task{}, task.ErrTaskNotFound
	}

	return t, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status, resultPath, reason string) error {
	t, ok := r.tasks[id]
	if !ok {
		return task.ErrTaskNotFound
	}

	t.Status, t.ResultPath, t.Error = status, resultPath, reason
	r.tasks[id] = t

	return nil
}

func newTestService() (*Service, *memStorage, *chanProducer, *memRepo) {
	storage, producer, repo := newMemStorage(), &chanProducer{}, newMemRepo()

	return NewService(storage, producer, repo), storage, producer, repo
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func opaque(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff})
		}
	}

	return img
}

func TestServiceCompressPNG(t *testing.T) {
	s, _, _, _ := newTestService()
	src := pngBytes(t, opaque(300, 100))

	res, err := s.Compress(context.Background(), "a.png", "image/png", bytes.NewReader(src), compressor.Options{Quality: 70, MaxWidth: 150})
	require.NoError(t, err)

	assert.Equal(t, "png", res.Format)
	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, 150, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, int64(len(src)), res.OriginalSize)
	assert.Equal(t, int64(len(res.Data)), res.CompressedSize)

	out, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 150, 50), out.Bounds())
}

func TestServiceCompressNonPNGBecomesJPEG(t *testing.T) {
	s, _, _, _ := newTestService()
	src := pngBytes(t, opaque(20, 20))

	res, err := s.Compress(context.Background(), "upload.bin", "application/octet-stream", bytes.NewReader(src), compressor.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", res.Format)
	assert.Equal(t, "image/jpeg", res.MimeType)
}

func TestServiceCompressInvalid(t *testing.T) {
	s, _, _, _ := newTestService()

	_, err := s.Compress(context.Background(), "a.png", "image/png", bytes.NewReader(nil), compressor.Options{Quality: 0, MaxWidth: 10})
	assert.ErrorIs(t, err, compressor.ErrInvalidArgument)

	_, err = s.Compress(context.Background(), "a.png", "image/png", bytes.NewReader([]byte("nope")), compressor.DefaultOptions())
	var decErr *compressor.DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestServiceSubmitAndProcess(t *testing.T) {
	s, storage, producer, repo := newTestService()
	ctx := context.Background()

	id, err := s.Submit(ctx, "photo.png", "image/png", bytes.NewReader(pngBytes(t, opaque(400, 200))), compressor.Options{Quality: 60, MaxWidth: 100})
	require.NoError(t, err)
	require.Len(t, producer.tasks, 1)

	tk := producer.tasks[0]
	assert.Equal(t, id, tk.ID)
	assert.Equal(t, "original/"+id.String()+".png", tk.Path)
	assert.Equal(t, 60, tk.Quality)
	assert.Equal(t, 100, tk.MaxWidth)
	assert.Equal(t, model.StatusPending, repo.tasks[id].Status)

	_, _, err = s.GetCompressed(ctx, id)
	require.ErrorIs(t, err, ErrTaskPending)

	require.NoError(t, s.ProcessTask(ctx, tk))

	stored, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessed, stored.Status)
	assert.Equal(t, "compressed/"+id.String(), stored.ResultPath)
	assert.Empty(t, stored.Error)

	rc, contentType, err := s.GetCompressed(ctx, id)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", contentType)

	out, err := png.Decode(rc)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())

	_, ok := storage.objects[tk.Path]
	assert.False(t, ok, "original should be removed after processing")
}

func TestServiceProcessUndecodableMarksFailed(t *testing.T) {
	s, storage, producer, repo := newTestService()
	ctx := context.Background()

	id, err := s.Submit(ctx, "notes.png", "image/png", bytes.NewReader([]byte("not an image")), compressor.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, producer.tasks, 1)

	err = s.ProcessTask(ctx, producer.tasks[0])
	var decErr *compressor.DecodeError
	require.ErrorAs(t, err, &decErr)

	stored := repo.tasks[id]
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "decode image")
	assert.Empty(t, stored.ResultPath)

	_, _, err = s.GetCompressed(ctx, id)
	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.Contains(t, err.Error(), "decode image")

	assert.Empty(t, storage.objects, "original should be removed after a failed attempt")
}

func TestServiceSubmitErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("storage", func(t *testing.T) {
		s, storage, producer, repo := newTestService()
		storage.saveErr = errors.New("bucket unavailable")

		_, err := s.Submit(ctx, "a.png", "image/png", bytes.NewReader(nil), compressor.DefaultOptions())
		assert.ErrorIs(t, err, storage.saveErr)
		assert.Empty(t, producer.tasks)
		assert.Empty(t, repo.tasks)
	})

	t.Run("repository", func(t *testing.T) {
		s, storage, producer, repo := newTestService()
		repo.saveErr = errors.New("db down")

		_, err := s.Submit(ctx, "a.png", "image/png", bytes.NewReader([]byte("data")), compressor.DefaultOptions())
		assert.ErrorIs(t, err, repo.saveErr)
		assert.Empty(t, producer.tasks)
		assert.Empty(t, storage.objects, "original should be removed when the task cannot be recorded")
	})

	t.Run("producer", func(t *testing.T) {
		s, storage, producer, repo := newTestService()
		producer.err = errors.New("broker down")

		_, err := s.Submit(ctx, "a.png", "image/png", bytes.NewReader([]byte("data")), compressor.DefaultOptions())
		assert.ErrorIs(t, err, producer.err)
		assert.Empty(t, storage.objects, "original should be removed when the task cannot be enqueued")

		require.Len(t, repo.tasks, 1)
		for _, tk := range repo.tasks {
			assert.Equal(t, model.StatusFailed, tk.Status)
		}
	})
}

func TestServiceProcessMissingOriginal(t *testing.T) {
	s, _, _, repo := newTestService()
	tk := model.Task{ID: uuid.New(), Path: "original/missing.png", Quality: 70, MaxWidth: 180, Status: model.StatusPending}
	repo.tasks[tk.ID] = tk

	err := s.ProcessTask(context.Background(), tk)
	assert.ErrorIs(t, err, file.ErrNotFound)

	stored := repo.tasks[tk.ID]
	assert.Equal(t, model.StatusFailed, stored.Status)
	assert.Equal(t, "internal error", stored.Error)
}

func TestServiceGetUnknownTask(t *testing.T) {
	s, _, _, _ := newTestService()

	_, _, err := s.GetCompressed(context.Background(), uuid.New())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)

	_, err = s.GetTask(context.Background(), uuid.New())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, imaging.PNG, OutputFormat("a.PNG", "", compressor.ModeRGB))
	assert.Equal(t, imaging.PNG, OutputFormat("a", "image/png", compressor.ModeRGB))
	assert.Equal(t, imaging.PNG, OutputFormat("a.webp", "image/webp", compressor.ModeRGBA))
	assert.Equal(t, imaging.JPEG, OutputFormat("a.webp", "image/webp", compressor.ModeRGB))
	assert.Equal(t, imaging.JPEG, OutputFormat("a.jpg", "image/jpeg", compressor.ModeYCbCr))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, "75.0%", Ratio(400, 100))
	assert.Equal(t, "-50.0%", Ratio(100, 150))
	assert.Equal(t, "0.0%", Ratio(0, 10))
}

package compressor

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

const (
	DefaultQuality  = 70
	DefaultMaxWidth = 180

	outputSuffix = "_compressed"
)

// Options controls how an image is downsampled and re-encoded.
type Options struct {
	Quality  int // JPEG quality 1-100, ignored for images with alpha
	MaxWidth int // images wider than this are scaled down to it
}

// DefaultOptions returns the options used when the caller supplies none.
func DefaultOptions() Options {
	return Options{Quality: DefaultQuality, MaxWidth: DefaultMaxWidth}
}

// Validate rejects out-of-range options instead of leaving them to the codec.
func (o Options) Validate() error {
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("%w: quality %d is outside 1-100", ErrInvalidArgument, o.Quality)
	}
	if o.MaxWidth < 1 {
		return fmt.Errorf("%w: max width %d must be positive", ErrInvalidArgument, o.MaxWidth)
	}

	return nil
}

// Image is a decoded raster along with the mode it was decoded in.
type Image struct {
	image.Image
	Mode Mode
}

// Result describes a written image.
type Result struct {
	OutputPath string
	Format     imaging.Format
	Mode       Mode // mode of the source image
	Width      int
	Height     int
	Resized    bool
}

// OutputPath derives the default destination by inserting "_compressed"
// before the extension of inputPath.
func OutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)

	return strings.TrimSuffix(inputPath, ext) + outputSuffix + ext
}

// ScaledHeight returns the height that keeps the aspect ratio of a
// width x height image scaled to maxWidth.
func ScaledHeight(width, height, maxWidth int) int {
	h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if h < 1 {
		h = 1
	}

	return h
}

// Compress decodes inputPath, downsamples it to opts.MaxWidth, and writes it
// to outputPath. An empty outputPath is replaced by OutputPath(inputPath).
func Compress(inputPath, outputPath string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	if outputPath == "" {
		outputPath = OutputPath(inputPath)
	}

	img, err := Open(inputPath)
	if err != nil {
		return Result{}, err
	}

	format, err := imaging.FormatFromFilename(outputPath)
	if err != nil {
		return Result{}, &EncodeError{Path: outputPath, Err: err}
	}

	out := Prepare(img, opts.MaxWidth)
	if err := Save(outputPath, out, format, img.Mode, opts.Quality); err != nil {
		return Result{}, err
	}

	b := out.Bounds()

	return Result{
		OutputPath: outputPath,
		Format:     format,
		Mode:       img.Mode,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Resized:    b.Dx() != img.Bounds().Dx(),
	}, nil
}

// Open decodes the image stored at path. The file is closed before returning.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	return img, nil
}

// Decode reads an image from r.
func Decode(r io.Reader) (*Image, error) {
	img, err := decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return img, nil
}

func decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	peeked, _ := br.Peek(pngHeaderLen)
	hdr := append([]byte(nil), peeked...)

	img, err := imaging.Decode(br)
	if err != nil {
		return nil, err
	}

	mode := DetectMode(img)
	if m, ok := pngColorMode(hdr); ok {
		mode = m
	}

	return &Image{Image: img, Mode: mode}, nil
}

const (
	pngSignature = "\x89PNG\r\n\x1a\n"
	pngHeaderLen = 26 // signature, IHDR length and type, width, height, bit depth, colour type
)

// pngColorMode reads the colour type from a PNG header. The decoder returns
// *image.NRGBA for grey and truecolor images carrying a tRNS chunk; those
// have no alpha channel and are reported as L and RGB.
func pngColorMode(hdr []byte) (Mode, bool) {
	if len(hdr) < pngHeaderLen || !bytes.HasPrefix(hdr, []byte(pngSignature)) || string(hdr[12:16]) != "IHDR" {
		return "", false
	}

	switch hdr[25] {
	case 0:
		return ModeL, true
	case 2:
		return ModeRGB, true
	}

	return "", false
}

// Prepare scales img down to maxWidth using Lanczos resampling and flattens
// images without alpha to opaque RGB. Images with alpha keep their pixels.
func Prepare(img *Image, maxWidth int) image.Image {
	var out image.Image = img.Image

	b := out.Bounds()
	if b.Dx() > maxWidth {
		out = imaging.Resize(out, maxWidth, ScaledHeight(b.Dx(), b.Dy(), maxWidth), imaging.Lanczos)
	}

	if !img.Mode.HasAlpha() {
		out = flatten(out)
	}

	return out
}

// Encode writes img to w in the given format. Images decoded with alpha are
// written losslessly and quality is ignored for them.
func Encode(w io.Writer, img image.Image, format imaging.Format, mode Mode, quality int) error {
	if mode.HasAlpha() {
		if format == imaging.JPEG {
			return &EncodeError{Err: fmt.Errorf("%w: %s", ErrAlphaUnsupported, format)}
		}

		if err := imaging.Encode(w, img, format, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return &EncodeError{Err: err}
		}

		return nil
	}

	err := imaging.Encode(w, img, format,
		imaging.JPEGQuality(quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	)
	if err != nil {
		return &EncodeError{Err: err}
	}

	return nil
}

// Save encodes img into a new file at path, replacing any existing file.
func Save(path string, img image.Image, format imaging.Format, mode Mode, quality int) error {
	if mode.HasAlpha() && format == imaging.JPEG {
		return &EncodeError{Path: path, Err: fmt.Errorf("%w: %s", ErrAlphaUnsupported, format)}
	}

	f, err := os.Create(path)
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}

	if err := Encode(f, img, format, mode, quality); err != nil {
		f.Close()
		return &EncodeError{Path: path, Err: unwrapEncode(err)}
	}

	if err := f.Close(); err != nil {
		return &EncodeError{Path: path, Err: err}
	}

	return nil
}

func unwrapEncode(err error) error {
	if e, ok := err.(*EncodeError); ok {
		return e.Err
	}

	return err
}

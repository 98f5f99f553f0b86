package compressor

import (
	"image"

	"github.com/disintegration/imaging"
)

// Mode is the colour layout an image was decoded in.
type Mode string

const (
	ModeRGB   Mode = "RGB"   // opaque truecolor
	ModeRGBA  Mode = "RGBA"  // truecolor or grey with alpha
	ModeL     Mode = "L"     // greyscale
	ModeP     Mode = "P"     // paletted
	ModeCMYK  Mode = "CMYK"  // e.g. Adobe JPEG
	ModeYCbCr Mode = "YCbCr" // baseline JPEG
)

// HasAlpha reports whether images in this mode keep their transparency on save.
func (m Mode) HasAlpha() bool {
	return m == ModeRGBA
}

// DetectMode maps the concrete type produced by the decoders to a Mode.
// The PNG decoder returns *image.NRGBA for both RGBA and grey+alpha input,
// and *image.RGBA for opaque truecolor.
func DetectMode(img image.Image) Mode {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return ModeRGBA
	case *image.Gray, *image.Gray16:
		return ModeL
	case *image.Paletted:
		return ModeP
	case *image.CMYK:
		return ModeCMYK
	case *image.YCbCr:
		return ModeYCbCr
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return ModeRGBA
	}

	return ModeRGB
}

// flatten converts img to opaque truecolor, dropping any alpha information.
func flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}

	return dst
}

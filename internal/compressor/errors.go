package compressor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when quality or max width are out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlphaUnsupported is returned when an image with an alpha channel
	// is written to a format that cannot store transparency.
	ErrAlphaUnsupported = errors.New("format cannot carry an alpha channel")
)

// DecodeError reports that the input is missing, unreadable or not a supported image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}

	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that the output could not be created or encoded.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to encode image: %v", e.Err)
	}

	return fmt.Sprintf("failed to encode image %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

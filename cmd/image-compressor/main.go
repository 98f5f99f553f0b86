package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-compressor/internal/compressor"
)

func main() {
	zlog.Init()

	if err := run(os.Args, os.Stdout); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("compression failed")
	}
}

// run implements `image-compressor <image_path> [quality]`.
func run(args []string, stdout io.Writer) error {
	if len(args) < 2 {
		name := "image-compressor"
		if len(args) == 1 {
			name = filepath.Base(args[0])
		}
		fmt.Fprintf(stdout, "Usage: %s <image_path> [quality]\n", name)
		return nil
	}

	opts := compressor.DefaultOptions()

	if len(args) > 2 {
		q, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quality %q: %w", args[2], err)
		}
		opts.Quality = q
	}

	res, err := compressor.Compress(args[1], "", opts)
	if err != nil {
		return err
	}

	zlog.Logger.Debug().
		Str("mode", string(res.Mode)).
		Int("width", res.Width).
		Int("height", res.Height).
		Bool("resized", res.Resized).
		Msg("image compressed")

	fmt.Fprintf(stdout, "✅ Compressed image saved to: %s\n", res.OutputPath)

	return nil
}

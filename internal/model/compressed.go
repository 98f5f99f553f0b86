package model

// Compressed is the outcome of an in-memory compression.
type Compressed struct {
	Data             []byte `json:"-"`
	MimeType         string `json:"mime_type"`
	Format           string `json:"format"` // "png" or "jpeg"
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	OriginalSize     int64  `json:"original_size"`
	CompressedSize   int64  `json:"compressed_size"`
	CompressionRatio string `json:"compression_ratio"` // e.g. "42.5%"
}

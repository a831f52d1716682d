package entity

import (
	"math"
	"time"
)

const (
	DefaultCodec     = "mjpeg"
	DefaultTimeoutMs = 10_000
)

type ResponseFormat string

const (
	ResponseFormatBase64 ResponseFormat = "base64"
	ResponseFormatBinary ResponseFormat = "binary"
)

// ParseResponseFormat maps the "response" query value. Anything other than
// "binary" is served as base64.
func ParseResponseFormat(s string) ResponseFormat {
	if s == string(ResponseFormatBinary) {
		return ResponseFormatBinary
	}
	return ResponseFormatBase64
}

// CaptureRequest describes one frame capture. It lives for a single HTTP request.
type CaptureRequest struct {
	TimeoutMs int
	Codec     string
	Format    ResponseFormat
}

func NewCaptureRequest() CaptureRequest {
	return CaptureRequest{
		TimeoutMs: DefaultTimeoutMs,
		Codec:     DefaultCodec,
		Format:    ResponseFormatBase64,
	}
}

// Timeout saturates at the largest representable duration instead of
// overflowing into a negative one.
func (r CaptureRequest) Timeout() time.Duration {
	if int64(r.TimeoutMs) > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// Frame is a successfully captured still image.
type Frame struct {
	Data  []byte
	Codec string
}

func (f *Frame) Size() int {
	return len(f.Data)
}

// ImageFormat reports "png" for the png codec and "jpeg" for everything else.
func (f *Frame) ImageFormat() string {
	if f.Codec == "png" {
		return "png"
	}
	return "jpeg"
}

func (f *Frame) ContentType() string {
	return "image/" + f.ImageFormat()
}

package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
	"sync"

	"github.com/timmy/drawmatch/internal/domain"
	_ "golang.org/x/image/webp"
)

// maxDrawingPixels bounds decoded dimensions so a tiny payload cannot
// claim a huge canvas.
const maxDrawingPixels = 4096 * 4096

var drawingBufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// Drawing is a decoded submission. Data is only valid until Release.
type Drawing struct {
	Data   []byte
	Format string // png or jpeg after normalization
	Width  int
	Height int

	buf *bytes.Buffer
}

// ContentType returns the MIME type of Data.
func (d *Drawing) ContentType() string {
	if d.Format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// Extension returns the file extension for Data.
func (d *Drawing) Extension() string {
	if d.Format == "jpeg" {
		return "jpg"
	}
	return "png"
}

// Release returns the backing buffer to the pool. Safe to call twice.
func (d *Drawing) Release() {
	if d == nil || d.buf == nil {
		return
	}
	d.buf.Reset()
	drawingBufPool.Put(d.buf)
	d.buf = nil
	d.Data = nil
}

// DecodeDrawing parses a base64 data URL (or bare base64) into image bytes.
// GIF and WebP drawings are re-encoded as PNG since the vision service only
// accepts PNG and JPEG. Malformed input wraps domain.ErrInvalidInput.
func DecodeDrawing(payload string) (*Drawing, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, domain.ErrNoDrawing
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: drawing must be a base64 data URL", domain.ErrInvalidInput)
		}
		payload = payload[comma+1:]
	}

	buf := drawingBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	d := &Drawing{buf: buf}

	decoder := base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload))
	if _, err := buf.ReadFrom(decoder); err != nil {
		d.Release()
		return nil, fmt.Errorf("%w: drawing is not valid base64: %w", domain.ErrInvalidInput, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("%w: drawing is not a supported image: %w", domain.ErrInvalidInput, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxDrawingPixels {
		d.Release()
		return nil, fmt.Errorf("%w: drawing dimensions %dx%d out of range", domain.ErrInvalidInput, cfg.Width, cfg.Height)
	}
	d.Width, d.Height = cfg.Width, cfg.Height

	switch format {
	case "png", "jpeg":
		d.Format = format
		d.Data = buf.Bytes()
	default:
		if err := d.reencodePNG(); err != nil {
			d.Release()
			return nil, err
		}
	}
	return d, nil
}

func (d *Drawing) reencodePNG() error {
	img, _, err := image.Decode(bytes.NewReader(d.buf.Bytes()))
	if err != nil {
		return fmt.Errorf("%w: drawing could not be decoded: %w", domain.ErrInvalidInput, err)
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return fmt.Errorf("encode drawing as png: %w", err)
	}
	d.buf.Reset()
	d.buf.Write(out.Bytes())
	d.Data = d.buf.Bytes()
	d.Format = "png"
	return nil
}

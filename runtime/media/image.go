// Package media provides image processing for sampled video frames.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Frame defaults for the realtime upload path.
const (
	DefaultFrameWidth   = 320
	DefaultFrameHeight  = 180
	DefaultFrameQuality = 60
	MinQuality          = 10
	MaxQuality          = 100
)

// FitMode controls how a source frame is mapped onto the target size.
type FitMode int

const (
	// FitStretch scales the whole frame to exactly the target size.
	FitStretch FitMode = iota
	// FitContain preserves aspect ratio and pads with black.
	FitContain
)

// FrameEncodeConfig configures frame down-scaling and compression.
type FrameEncodeConfig struct {
	Width   int
	Height  int
	Quality int
	Fit     FitMode

	// Scaler selects the interpolator. Nil uses draw.ApproxBiLinear, which is
	// cheap enough to run on every sampler tick.
	Scaler draw.Scaler
}

// DefaultFrameEncodeConfig returns the 320x180 JPEG configuration.
func DefaultFrameEncodeConfig() FrameEncodeConfig {
	return FrameEncodeConfig{
		Width:   DefaultFrameWidth,
		Height:  DefaultFrameHeight,
		Quality: DefaultFrameQuality,
		Fit:     FitStretch,
	}
}

func (c *FrameEncodeConfig) normalize() {
	if c.Width <= 0 {
		c.Width = DefaultFrameWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultFrameHeight
	}
	if c.Quality <= 0 {
		c.Quality = DefaultFrameQuality
	}
	if c.Quality < MinQuality {
		c.Quality = MinQuality
	}
	if c.Quality > MaxQuality {
		c.Quality = MaxQuality
	}
	if c.Scaler == nil {
		c.Scaler = draw.ApproxBiLinear
	}
}

// EncodeFrame scales src to the configured size and JPEG-encodes it.
func EncodeFrame(src image.Image, cfg FrameEncodeConfig) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("nil frame")
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty frame %dx%d", b.Dx(), b.Dy())
	}
	cfg.normalize()

	dst := ScaleFrame(src, cfg)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ScaleFrame returns src drawn into a new Width x Height RGBA image.
func ScaleFrame(src image.Image, cfg FrameEncodeConfig) *image.RGBA {
	cfg.normalize()
	dst := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	target := dst.Bounds()
	if cfg.Fit == FitContain {
		draw.Draw(dst, target, image.NewUniform(color.Black), image.Point{}, draw.Src)
		sb := src.Bounds()
		w, h := CalculateTargetDimensions(sb.Dx(), sb.Dy(), cfg.Width, cfg.Height)
		x0 := (cfg.Width - w) / 2
		y0 := (cfg.Height - h) / 2
		target = image.Rect(x0, y0, x0+w, y0+h)
	}

	cfg.Scaler.Scale(dst, target, src, src.Bounds(), draw.Over, nil)
	return dst
}

// CalculateTargetDimensions fits origWidth x origHeight inside maxWidth x maxHeight
// preserving aspect ratio. Both results are at least 1.
func CalculateTargetDimensions(origWidth, origHeight, maxWidth, maxHeight int) (targetWidth, targetHeight int) {
	targetWidth = origWidth
	targetHeight = origHeight

	if maxWidth > 0 && targetWidth != maxWidth {
		ratio := float64(maxWidth) / float64(targetWidth)
		targetWidth = maxWidth
		targetHeight = int(math.Round(float64(targetHeight) * ratio))
	}
	if maxHeight > 0 && targetHeight > maxHeight {
		ratio := float64(maxHeight) / float64(targetHeight)
		targetHeight = maxHeight
		targetWidth = int(math.Round(float64(targetWidth) * ratio))
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// DecodeImage decodes JPEG, PNG, GIF or WebP data.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
)

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestEncodeFrame_DefaultSize(t *testing.T) {
	src := solidImage(1280, 720, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	data, err := EncodeFrame(src, DefaultFrameEncodeConfig())
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 180, cfg.Height)
}

func TestEncodeFrame_ZeroConfigUsesDefaults(t *testing.T) {
	data, err := EncodeFrame(solidImage(64, 64, color.White), FrameEncodeConfig{})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultFrameWidth, cfg.Width)
	assert.Equal(t, DefaultFrameHeight, cfg.Height)
}

func TestEncodeFrame_Errors(t *testing.T) {
	_, err := EncodeFrame(nil, DefaultFrameEncodeConfig())
	assert.Error(t, err)

	_, err = EncodeFrame(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultFrameEncodeConfig())
	assert.Error(t, err)
}

func TestScaleFrame_ContainLetterboxes(t *testing.T) {
	// A square white frame in a 16:9 box leaves black bars on the left and right.
	cfg := DefaultFrameEncodeConfig()
	cfg.Fit = FitContain
	dst := ScaleFrame(solidImage(100, 100, color.White), cfg)

	assert.Equal(t, image.Rect(0, 0, 320, 180), dst.Bounds())
	r, g, b, _ := dst.At(5, 90).RGBA()
	assert.Zero(t, r+g+b, "left bar should be black")
	r, _, _, _ = dst.At(160, 90).RGBA()
	assert.NotZero(t, r, "center should carry the frame")
}

func TestCalculateTargetDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, mw, mh int
		wantW, wantH int
	}{
		{"wide fits width", 1920, 1080, 320, 180, 320, 180},
		{"square limited by height", 100, 100, 320, 180, 180, 180},
		{"tall", 100, 400, 320, 180, 45, 180},
		{"tiny clamps to one", 1, 10000, 320, 180, 1, 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CalculateTargetDimensions(tt.w, tt.h, tt.mw, tt.mh)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(8, 4, color.Black)))

	img, format, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, _, err = DecodeImage(nil)
	assert.Error(t, err)
	_, _, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

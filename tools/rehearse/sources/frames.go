package sources

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AltairaLabs/rehearsal/runtime/media"
)

// ErrNoFrames is returned when a frame directory holds no images.
var ErrNoFrames = errors.New("no images found")

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FrameDir is a camera that cycles through the images of a directory in
// name order.
type FrameDir struct {
	mu     sync.Mutex
	frames []image.Image
	next   int
}

// LoadFrameDir decodes every image in dir.
func LoadFrameDir(dir string) (*FrameDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoFrames)
	}

	frames := make([]image.Image, 0, len(names))
	for _, name := range names {
		//nolint:gosec // G304: path built from a directory given on the command line
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		img, _, err := media.DecodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		frames = append(frames, img)
	}
	return &FrameDir{frames: frames}, nil
}

// Len returns the number of frames.
func (d *FrameDir) Len() int {
	return len(d.frames)
}

// Frame implements capture.VideoSource.
func (d *FrameDir) Frame() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img := d.frames[d.next]
	d.next = (d.next + 1) % len(d.frames)
	return img, nil
}

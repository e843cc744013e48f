// Package recording turns the step screenshots of a scenario into an animated
// GIF. Frames captured after a failure are outlined in red.
package recording

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"sync"

	"go.uber.org/zap"
)

// Recorder collects frames for one scenario
type Recorder struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	frames []image.Image
	failed int
}

func NewRecorder(opts Options, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{opts: opts.withDefaults(), log: log}
}

// AddFrame decodes a PNG screenshot and appends it.
func (r *Recorder) AddFrame(data []byte, failed bool) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	if failed {
		img = markFailed(img)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, img)
	if failed {
		r.failed++
	}
	return nil
}

// Len returns the number of frames recorded
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// WriteGIF encodes the frames to path. It writes nothing and returns 0 when
// no frame was recorded.
func (r *Recorder) WriteGIF(path string) (int64, error) {
	r.mu.Lock()
	frames := append([]image.Image(nil), r.frames...)
	failed := r.failed
	r.mu.Unlock()

	size, err := encode(frames, path, r.opts)
	if err != nil {
		return 0, fmt.Errorf("GIF generation failed: %w", err)
	}
	if size > 0 {
		r.log.Info("Recording saved",
			zap.String("path", path),
			zap.Int("frames", len(frames)),
			zap.Int("failed_frames", failed),
			zap.Float64("size_mb", float64(size)/(1024*1024)))
	}
	return size, nil
}

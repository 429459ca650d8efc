//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

// WriterFactory открывает AVI-контейнеры MJPG
type WriterFactory struct {
	FPS float64
}

func NewWriterFactory(fps float64) *WriterFactory {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &WriterFactory{FPS: fps}
}

func (f *WriterFactory) Create(path string, size entity.FrameSize) (port.VideoSink, error) {
	w, err := gocv.VideoWriterFile(path, RecordCodec, f.FPS, size.Width, size.Height, true)
	if err != nil {
		return nil, fmt.Errorf("video writer %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("video writer %s: not opened", path)
	}
	return &videoSink{writer: w}, nil
}

type videoSink struct {
	writer *gocv.VideoWriter
}

func (s *videoSink) Write(frame port.Frame) error {
	mat, ok := asMat(frame)
	if !ok {
		return fmt.Errorf("write: unsupported frame type %T", frame)
	}
	return s.writer.Write(*mat)
}

func (s *videoSink) Close() error {
	return s.writer.Close()
}

// TextOverlay пишет подпись в левом верхнем углу кадра
type TextOverlay struct {
	Color color.RGBA
}

func NewTextOverlay() *TextOverlay {
	return &TextOverlay{Color: color.RGBA{R: 255, G: 255, B: 255, A: 0}}
}

func (o *TextOverlay) Stamp(frame port.Frame, text string) error {
	mat, ok := asMat(frame)
	if !ok {
		return fmt.Errorf("stamp: unsupported frame type %T", frame)
	}
	gocv.PutText(mat, text, captionOrigin, gocv.FontHersheySimplex, captionScale, o.Color, captionThickness)
	return nil
}

var (
	_ port.VideoSinkFactory = (*WriterFactory)(nil)
	_ port.Overlay          = (*TextOverlay)(nil)
)

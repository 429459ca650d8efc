//go:build !gocv
// +build !gocv

package vision

import (
	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

// Camera заглушка (без OpenCV)
type Camera struct{}

// OpenCamera возвращает ошибку, если сборка без тега gocv
func OpenCamera(device, width, height int) (*Camera, error) {
	return nil, ErrNoOpenCV
}

func (c *Camera) Read() (port.Frame, error) { return nil, ErrNoOpenCV }

func (c *Camera) Close() error { return nil }

// ForegroundSource заглушка: кандидатов нет
type ForegroundSource struct{}

func NewForegroundSource() *ForegroundSource { return &ForegroundSource{} }

func (s *ForegroundSource) Reset() {}

func (s *ForegroundSource) Detect(frame port.Frame, region entity.Rect, frameIndex int) ([]entity.Candidate, error) {
	return nil, ErrNoOpenCV
}

func (s *ForegroundSource) Close() error { return nil }

// WriterFactory заглушка
type WriterFactory struct {
	FPS float64
}

func NewWriterFactory(fps float64) *WriterFactory {
	return &WriterFactory{FPS: fps}
}

func (f *WriterFactory) Create(path string, size entity.FrameSize) (port.VideoSink, error) {
	return nil, ErrNoOpenCV
}

// TextOverlay заглушка
type TextOverlay struct{}

func NewTextOverlay() *TextOverlay { return &TextOverlay{} }

func (o *TextOverlay) Stamp(frame port.Frame, text string) error { return ErrNoOpenCV }

var (
	_ port.Camera           = (*Camera)(nil)
	_ port.CandidateSource  = (*ForegroundSource)(nil)
	_ port.VideoSinkFactory = (*WriterFactory)(nil)
	_ port.Overlay          = (*TextOverlay)(nil)
)

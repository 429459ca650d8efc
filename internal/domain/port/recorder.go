package port

import (
	"drip-station/internal/domain/entity"
)

// VideoSink контейнер, в который пишутся кадры записи
type VideoSink interface {
	Write(frame Frame) error
	Close() error
}

// VideoSinkFactory открывает контейнер записи
type VideoSinkFactory interface {
	Create(path string, size entity.FrameSize) (VideoSink, error)
}

// Overlay наносит текст на кадр
type Overlay interface {
	Stamp(frame Frame, text string) error
}

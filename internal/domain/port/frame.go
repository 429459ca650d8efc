package port

import (
	"time"

	"drip-station/internal/domain/entity"
)

// Frame кадр камеры; владелец обязан вызвать Close
type Frame interface {
	Size() entity.FrameSize

	// Clone возвращает независимую копию кадра
	Clone() Frame

	Close() error
}

// Camera источник кадров
type Camera interface {
	// Read читает очередной кадр, блокируется не дольше одного кадра
	Read() (Frame, error)

	Close() error
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

package app

import (
	"time"

	"drip-station/internal/domain/port"
)

// SystemClock текущее время ОС
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var _ port.Clock = SystemClock{}

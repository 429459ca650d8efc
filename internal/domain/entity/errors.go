package entity

import "errors"

var (
	ErrInvalidRegion    = errors.New("region is empty after clamping to frame bounds")
	ErrInvalidFrameSize = errors.New("frame size must be positive")
	ErrRecordingClosed  = errors.New("recording is closed")
	ErrRecordingActive  = errors.New("recording is already active")
	ErrQueueFull        = errors.New("recording queue is full")
	ErrPickerBusy       = errors.New("directory selection already in progress")
)

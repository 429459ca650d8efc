//go:build gocv
// +build gocv

package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"drip-station/internal/domain/port"
)

// Camera источник кадров с устройства V4L2
type Camera struct {
	capture *gocv.VideoCapture
}

// OpenCamera открывает устройство и запрашивает размер кадра.
// Камера может отдать другой размер; фактический берётся из первого кадра.
func OpenCamera(device, width, height int) (*Camera, error) {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	if width > 0 && height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Camera{capture: capture}, nil
}

func (c *Camera) Read() (port.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("read frame: device closed or empty frame")
	}
	return NewMatFrame(mat), nil
}

func (c *Camera) Close() error {
	return c.capture.Close()
}

var _ port.Camera = (*Camera)(nil)

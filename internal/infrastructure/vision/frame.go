//go:build gocv
// +build gocv

package vision

import (
	"gocv.io/x/gocv"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

// MatFrame кадр поверх gocv.Mat
type MatFrame struct {
	mat gocv.Mat
}

// NewMatFrame оборачивает mat; кадр становится владельцем mat
func NewMatFrame(mat gocv.Mat) *MatFrame {
	return &MatFrame{mat: mat}
}

func (f *MatFrame) Size() entity.FrameSize {
	return entity.FrameSize{Width: f.mat.Cols(), Height: f.mat.Rows()}
}

func (f *MatFrame) Clone() port.Frame {
	return &MatFrame{mat: f.mat.Clone()}
}

func (f *MatFrame) Close() error {
	return f.mat.Close()
}

// Mat возвращает матрицу кадра без передачи владения
func (f *MatFrame) Mat() *gocv.Mat {
	return &f.mat
}

func asMat(frame port.Frame) (*gocv.Mat, bool) {
	mf, ok := frame.(*MatFrame)
	if !ok {
		return nil, false
	}
	return mf.Mat(), true
}

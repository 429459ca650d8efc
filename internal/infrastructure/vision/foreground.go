//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

// ForegroundSource выделяет капли в области через MOG2, порог и морфологию
type ForegroundSource struct {
	mog2   gocv.BackgroundSubtractorMOG2
	kernel gocv.Mat
	mask   gocv.Mat
}

func NewForegroundSource() *ForegroundSource {
	return &ForegroundSource{
		mog2:   newMOG2(),
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		mask:   gocv.NewMat(),
	}
}

func newMOG2() gocv.BackgroundSubtractorMOG2 {
	return gocv.NewBackgroundSubtractorMOG2WithParams(MOG2History, MOG2VarThreshold, MOG2DetectShadows)
}

// Reset пересоздаёт фоновую модель
func (s *ForegroundSource) Reset() {
	s.mog2.Close()
	s.mog2 = newMOG2()
}

// Detect возвращает контуры переднего плана в координатах области
func (s *ForegroundSource) Detect(frame port.Frame, region entity.Rect, frameIndex int) ([]entity.Candidate, error) {
	mat, ok := asMat(frame)
	if !ok {
		return nil, fmt.Errorf("detect: unsupported frame type %T", frame)
	}

	roi := mat.Region(toImageRect(region))
	defer roi.Close()

	s.mog2.Apply(roi, &s.mask)
	gocv.Threshold(s.mask, &s.mask, ForegroundThreshold, 255, gocv.ThresholdBinary)
	for i := 0; i < ErodeIterations; i++ {
		gocv.Erode(s.mask, &s.mask, s.kernel)
	}
	for i := 0; i < DilateIterations; i++ {
		gocv.Dilate(s.mask, &s.mask, s.kernel)
	}

	contours := gocv.FindContours(s.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	blobs := make([]blob, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		blobs = append(blobs, blob{
			bounds: gocv.BoundingRect(c),
			area:   gocv.ContourArea(c),
		})
	}

	return toCandidates(blobs, frameIndex), nil
}

func (s *ForegroundSource) Close() error {
	s.mask.Close()
	s.kernel.Close()
	return s.mog2.Close()
}

var _ port.CandidateSource = (*ForegroundSource)(nil)

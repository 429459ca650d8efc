package vision

import (
	"errors"
	"image"

	"drip-station/internal/domain/entity"
)

// Параметры выделения капель в области
const (
	MOG2History       = 300
	MOG2VarThreshold  = 16
	MOG2DetectShadows = true

	ForegroundThreshold = 250 // тени MOG2 (127) отсекаются
	ErodeIterations     = 1
	DilateIterations    = 2
)

// Параметры записи и подписи кадра
const (
	RecordCodec = "MJPG"
	DefaultFPS  = 30

	captionScale     = 0.7
	captionThickness = 2
)

var captionOrigin = image.Pt(10, 30)

// ErrNoOpenCV возвращается, если бинарник собран без тега gocv
var ErrNoOpenCV = errors.New("vision: built without gocv tag")

// blob контур, найденный в маске переднего плана
type blob struct {
	bounds image.Rectangle
	area   float64
}

// toCandidates переводит контуры в кандидатов в координатах области.
// Координата кандидата: левый верхний угол описывающего прямоугольника.
func toCandidates(blobs []blob, frameIndex int) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(blobs))
	for _, b := range blobs {
		out = append(out, entity.Candidate{
			X:     b.bounds.Min.X,
			Y:     b.bounds.Min.Y,
			Area:  b.area,
			Frame: frameIndex,
		})
	}
	return out
}

func toImageRect(r entity.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

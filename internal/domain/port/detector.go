package port

import (
	"drip-station/internal/domain/entity"
)

// CandidateSource источник кандидатов движения внутри области кадра
type CandidateSource interface {
	// Detect возвращает кандидатов в координатах области (без смещения области)
	Detect(frame Frame, region entity.Rect, frameIndex int) ([]entity.Candidate, error)

	// Reset сбрасывает фоновую модель перед новой сессией
	Reset()
}

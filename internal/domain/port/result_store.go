package port

import (
	"drip-station/internal/domain/entity"
)

// ResultStore сохраняет итоги сессии детекции
type ResultStore interface {
	// Persist ранжирует точки, пишет файл результатов и строку журнала.
	// Возвращает ранжирование и путь к файлу результатов. Ранжирование
	// возвращается и при ошибке записи.
	Persist(points []entity.TrackedPoint, topCount int) (entity.Ranking, string, error)
}

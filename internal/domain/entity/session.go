package entity

import "time"

// SessionState состояние сессии детекции
type SessionState string

const (
	SessionIdle    SessionState = "idle"    // Область не выбрана
	SessionArmed   SessionState = "armed"   // Идёт накопление
	SessionExpired SessionState = "expired" // Время вышло, результаты сохранены
)

// SessionSnapshot неизменяемый срез состояния сессии для отображения
type SessionSnapshot struct {
	ID        string
	State     SessionState
	Region    Rect
	StartedAt time.Time
	Frames    int
	Points    []TrackedPoint
}

package entity

import "time"

// RecordingSession открытая запись во временный файл
type RecordingSession struct {
	ID        string
	Path      string
	Size      FrameSize
	StartedAt time.Time
	Frames    int
}

// TaskState состояние фоновой задачи
type TaskState string

const (
	TaskRunning  TaskState = "running"
	TaskFinished TaskState = "finished"
)

// PostProcessTask фоновая обработка завершённой записи
type PostProcessTask struct {
	Path      string        // временный файл записи
	Duration  time.Duration // длительность записи
	OutputDir string        // каталог готовых видео
	State     TaskState
}

// PostProcessResult итог обработки, публикуется в основной цикл
type PostProcessResult struct {
	Source   string
	Output   string
	Duration time.Duration
	Elapsed  time.Duration
	Err      error
}

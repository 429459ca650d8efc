package port

import (
	"context"

	"drip-station/internal/domain/entity"
)

// Finalizer доводит временный файл записи до готового видео
type Finalizer interface {
	// Finalize обрабатывает запись и возвращает путь к итоговому файлу.
	// progress получает значения 0..100.
	Finalize(ctx context.Context, task entity.PostProcessTask, progress func(percent int)) (string, error)
}

// DirectoryChooser спрашивает у оператора каталог экспорта
type DirectoryChooser interface {
	// Choose возвращает выбранный каталог или пустую строку при отмене
	Choose(ctx context.Context) (string, error)
}

package app

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// StatusBoard текущая строка статуса для оператора; история не хранится
type StatusBoard struct {
	mu      sync.RWMutex
	message string
	log     logrus.FieldLogger
}

func NewStatusBoard(log logrus.FieldLogger) *StatusBoard {
	return &StatusBoard{log: log}
}

// Set перезаписывает статус
func (b *StatusBoard) Set(message string) {
	b.mu.Lock()
	b.message = message
	b.mu.Unlock()

	if b.log != nil {
		b.log.WithField("status", message).Info("status changed")
	}
}

// Get возвращает текущий статус
func (b *StatusBoard) Get() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.message
}

// ResultSlot одноразовая передача результата из фоновой задачи в основной цикл
type ResultSlot[T any] struct {
	mu    sync.Mutex
	value T
	ready bool
}

// Publish кладёт результат, перезаписывая непрочитанный
func (s *ResultSlot[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.ready = true
	s.mu.Unlock()
}

// Take забирает результат, если он есть
func (s *ResultSlot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if !s.ready {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.ready = false
	return v, true
}

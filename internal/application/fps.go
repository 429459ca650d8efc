package app

import "time"

const fpsHistorySize = 30

// FPSMeter скользящее среднее частоты кадров
type FPSMeter struct {
	last    time.Time
	history []float64
}

// Tick отмечает новый кадр и возвращает среднее FPS
func (m *FPSMeter) Tick(now time.Time) float64 {
	if !m.last.IsZero() {
		if dt := now.Sub(m.last).Seconds(); dt > 0 {
			m.history = append(m.history, 1/dt)
			if len(m.history) > fpsHistorySize {
				m.history = m.history[1:]
			}
		}
	}
	m.last = now
	return m.Average()
}

// Average возвращает среднее по истории
func (m *FPSMeter) Average() float64 {
	if len(m.history) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range m.history {
		sum += v
	}
	return sum / float64(len(m.history))
}

package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/metrics"
)

const (
	DefaultRecordQueue   = 60 // две секунды при 30 FPS
	DefaultEnqueueWait   = time.Second
	overlayTimestampForm = "2006-01-02 15:04:05"
)

// RecordingConfig параметры конвейера записи
type RecordingConfig struct {
	QueueSize   int
	EnqueueWait time.Duration // сколько ждать места в очереди до ошибки
}

// Recording открытая запись; кадры пишет одна горутина в порядке поступления
type Recording struct {
	session entity.RecordingSession
	sink    port.VideoSink
	queue   chan port.Frame
	done    chan struct{}

	mu      sync.Mutex
	err     error
	closed  bool
	written int
}

// Session возвращает описание записи
func (r *Recording) Session() entity.RecordingSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.session
	s.Frames = r.written
	return s
}

// Err возвращает ошибку записи, если она была
func (r *Recording) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recording) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// RecordingPipeline передаёт кадры из основного цикла в писателя записи.
// Одновременно открыта не более одной записи.
type RecordingPipeline struct {
	cfg     RecordingConfig
	factory port.VideoSinkFactory
	overlay port.Overlay
	clock   port.Clock
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	mu     sync.Mutex
	active *Recording
}

func NewRecordingPipeline(cfg RecordingConfig, factory port.VideoSinkFactory, overlay port.Overlay, clock port.Clock, log logrus.FieldLogger, m *metrics.Metrics) *RecordingPipeline {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultRecordQueue
	}
	if cfg.EnqueueWait <= 0 {
		cfg.EnqueueWait = DefaultEnqueueWait
	}
	return &RecordingPipeline{
		cfg:     cfg,
		factory: factory,
		overlay: overlay,
		clock:   clock,
		log:     log,
		metrics: m,
	}
}

// Open открывает запись в path с заданным размером кадра
func (p *RecordingPipeline) Open(path string, size entity.FrameSize) (*Recording, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("open %s: %dx%d: %w", path, size.Width, size.Height, entity.ErrInvalidFrameSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		return nil, entity.ErrRecordingActive
	}

	sink, err := p.factory.Create(path, size)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	rec := &Recording{
		session: entity.RecordingSession{
			ID:        uuid.NewString(),
			Path:      path,
			Size:      size,
			StartedAt: p.clock.Now(),
		},
		sink:  sink,
		queue: make(chan port.Frame, p.cfg.QueueSize),
		done:  make(chan struct{}),
	}
	p.active = rec
	p.metrics.SetRecording(true)

	go p.writeFrames(rec)

	p.log.WithFields(logrus.Fields{
		"recording_id": rec.session.ID,
		"path":         path,
		"size":         fmt.Sprintf("%dx%d", size.Width, size.Height),
	}).Info("recording started")

	return rec, nil
}

// writeFrames пишет кадры строго в порядке очереди. После ошибки
// оставшиеся кадры только освобождаются.
func (p *RecordingPipeline) writeFrames(rec *Recording) {
	defer close(rec.done)

	for frame := range rec.queue {
		if rec.Err() == nil {
			if err := rec.sink.Write(frame); err != nil {
				rec.fail(fmt.Errorf("write frame: %w", err))
			} else {
				rec.mu.Lock()
				rec.written++
				rec.mu.Unlock()
				p.metrics.FrameRecorded()
			}
		}
		_ = frame.Close()
	}
}

// Write копирует кадр, наносит caption на копию и ставит её в очередь писателя.
// Живой кадр не изменяется. При ошибке записи запись закрывается.
func (p *RecordingPipeline) Write(rec *Recording, frame port.Frame, caption string) error {
	rec.mu.Lock()
	closed := rec.closed
	rec.mu.Unlock()
	if closed {
		return entity.ErrRecordingClosed
	}

	if err := rec.Err(); err != nil {
		return p.abort(rec, err)
	}

	copyFrame := frame.Clone()
	if caption != "" && p.overlay != nil {
		if err := p.overlay.Stamp(copyFrame, caption); err != nil {
			_ = copyFrame.Close()
			return p.abort(rec, fmt.Errorf("stamp overlay: %w", err))
		}
	}

	timer := time.NewTimer(p.cfg.EnqueueWait)
	defer timer.Stop()

	select {
	case rec.queue <- copyFrame:
		return nil
	case <-timer.C:
		_ = copyFrame.Close()
		return p.abort(rec, entity.ErrQueueFull)
	}
}

func (p *RecordingPipeline) abort(rec *Recording, cause error) error {
	p.metrics.RecordError()
	p.log.WithError(cause).WithField("path", rec.session.Path).Error("recording terminated")

	if _, err := p.finish(rec); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// Close дожидается записи очереди и закрывает контейнер.
// Возвращает ошибку писателя, если она была, вместе с ошибкой закрытия.
// Повторный вызов ничего не делает и возвращает нулевую длительность.
func (p *RecordingPipeline) Close(rec *Recording) (time.Duration, error) {
	rec.mu.Lock()
	closed := rec.closed
	rec.mu.Unlock()
	if closed {
		return 0, nil
	}

	duration, closeErr := p.finish(rec)
	writeErr := rec.Err()
	if writeErr != nil {
		p.metrics.RecordError()
		p.log.WithError(writeErr).WithField("path", rec.session.Path).Error("recording broken")
	}
	return duration, errors.Join(writeErr, closeErr)
}

func (p *RecordingPipeline) finish(rec *Recording) (time.Duration, error) {
	rec.mu.Lock()
	if rec.closed {
		rec.mu.Unlock()
		return 0, nil
	}
	rec.closed = true
	rec.mu.Unlock()

	close(rec.queue)
	<-rec.done

	duration := p.clock.Now().Sub(rec.session.StartedAt)
	closeErr := rec.sink.Close()

	p.mu.Lock()
	if p.active == rec {
		p.active = nil
	}
	p.mu.Unlock()
	p.metrics.SetRecording(false)

	session := rec.Session()
	p.log.WithFields(logrus.Fields{
		"recording_id": session.ID,
		"path":         session.Path,
		"frames":       session.Frames,
		"duration":     duration.String(),
	}).Info("recording closed")

	if closeErr != nil {
		return duration, fmt.Errorf("close %s: %w", session.Path, closeErr)
	}
	return duration, nil
}

// Active возвращает открытую запись или nil
func (p *RecordingPipeline) Active() *Recording {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Caption формирует подпись кадра записи
func Caption(now time.Time, fps float64, showFPS bool) string {
	text := now.Format(overlayTimestampForm)
	if showFPS {
		text += fmt.Sprintf(" FPS: %d", int(fps))
	}
	return text
}

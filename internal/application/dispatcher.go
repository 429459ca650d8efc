package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/metrics"
)

type taskHandle struct {
	task entity.PostProcessTask
	done chan struct{}
}

func (h *taskHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Dispatcher запускает обработку завершённых записей в фоне.
// Задачи никогда не выполняются одновременно: новая ждёт окончания предыдущей.
type Dispatcher struct {
	finalizer port.Finalizer
	clock     port.Clock
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	dispatchMu sync.Mutex
	mu         sync.Mutex
	current    *taskHandle
	progress   atomic.Int32
	results    ResultSlot[entity.PostProcessResult]
}

func NewDispatcher(finalizer port.Finalizer, clock port.Clock, log logrus.FieldLogger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		finalizer: finalizer,
		clock:     clock,
		log:       log,
		metrics:   m,
	}
}

// Dispatch ждёт завершения предыдущей задачи и запускает новую
func (d *Dispatcher) Dispatch(ctx context.Context, task entity.PostProcessTask) {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	d.mu.Lock()
	prev := d.current
	d.mu.Unlock()

	if prev != nil && !prev.finished() {
		d.log.WithFields(logrus.Fields{
			"path":    task.Path,
			"waiting": prev.task.Path,
		}).Info("waiting for previous post-processing task")
		<-prev.done
	}

	task.State = entity.TaskRunning
	h := &taskHandle{task: task, done: make(chan struct{})}

	d.mu.Lock()
	d.current = h
	d.mu.Unlock()
	d.progress.Store(0)

	go d.run(ctx, h)
}

func (d *Dispatcher) run(ctx context.Context, h *taskHandle) {
	defer close(h.done)

	log := d.log.WithFields(logrus.Fields{
		"path":     h.task.Path,
		"duration": h.task.Duration.String(),
	})
	log.Info("post-processing started")

	started := d.clock.Now()
	output, err := d.finalizer.Finalize(ctx, h.task, func(percent int) {
		d.progress.Store(int32(percent))
	})
	elapsed := d.clock.Now().Sub(started)
	d.metrics.ObservePostProcess(elapsed)

	if err != nil {
		log.WithError(err).Error("post-processing failed")
	} else {
		d.progress.Store(100)
		log.WithField("output", output).Info("post-processing finished")
	}

	d.results.Publish(entity.PostProcessResult{
		Source:   h.task.Path,
		Output:   output,
		Duration: h.task.Duration,
		Elapsed:  elapsed,
		Err:      err,
	})
}

// Busy сообщает, что задача ещё выполняется
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil && !d.current.finished()
}

// Current возвращает описание последней задачи
func (d *Dispatcher) Current() (entity.PostProcessTask, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return entity.PostProcessTask{}, false
	}
	task := d.current.task
	if d.current.finished() {
		task.State = entity.TaskFinished
	}
	return task, true
}

// Progress возвращает прогресс текущей задачи, 0..100
func (d *Dispatcher) Progress() int {
	return int(d.progress.Load())
}

// Poll забирает результат завершившейся задачи
func (d *Dispatcher) Poll() (entity.PostProcessResult, bool) {
	return d.results.Take()
}

// Wait блокируется до завершения текущей задачи
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	h := d.current
	d.mu.Unlock()

	if h != nil {
		<-h.done
	}
}

package app

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

const (
	statusPickerStarted = "Directory selection in progress..."
	statusPickerBusy    = "File dialog already open"
)

// PickResult итог выбора каталога
type PickResult struct {
	Dir string
	Err error
}

// DirectoryPicker выбор каталога экспорта в фоне с возможностью отмены
type DirectoryPicker struct {
	chooser port.DirectoryChooser
	status  *StatusBoard
	log     logrus.FieldLogger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
	result ResultSlot[PickResult]
}

func NewDirectoryPicker(chooser port.DirectoryChooser, status *StatusBoard, log logrus.FieldLogger) *DirectoryPicker {
	return &DirectoryPicker{
		chooser: chooser,
		status:  status,
		log:     log,
	}
}

// Start запускает диалог; второй одновременный запуск отклоняется
func (p *DirectoryPicker) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		p.status.Set(statusPickerBusy)
		return entity.ErrPickerBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	p.active = true
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()

		dir, err := p.chooser.Choose(ctx)
		if err != nil {
			p.log.WithError(err).Warn("directory selection failed")
		}

		p.mu.Lock()
		p.active = false
		p.cancel = nil
		p.mu.Unlock()

		p.result.Publish(PickResult{Dir: dir, Err: err})
	}()

	p.status.Set(statusPickerStarted)
	return nil
}

// Poll забирает результат выбора, если он готов
func (p *DirectoryPicker) Poll() (PickResult, bool) {
	return p.result.Take()
}

// Active сообщает, что диалог открыт
func (p *DirectoryPicker) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Cancel прерывает открытый диалог
func (p *DirectoryPicker) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait дожидается завершения фоновой задачи
func (p *DirectoryPicker) Wait() {
	p.wg.Wait()
}

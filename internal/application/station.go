package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/metrics"
)

const (
	statusRecStarted   = "Rec started..."
	statusRecStopped   = "Rec stopped"
	statusProcessing   = "Processing..."
	statusError        = "Error"
	statusStopRecFirst = "Stop rec before exporting"

	tempStampLayout = "20060102_150405"
)

// StationConfig параметры основного цикла
type StationConfig struct {
	TempDir   string
	ExportDir string
	ShowFPS   bool
}

// StationStatus состояние станции для оператора
type StationStatus struct {
	Message        string
	Detection      entity.SessionSnapshot
	Display        []entity.TrackedPoint
	Remaining      time.Duration
	Recording      bool
	Processing     bool
	ProcessingFile string // файл, который сейчас обрабатывается
	Progress       int
	ExportDir      string
	Selecting      bool // открыт диалог выбора каталога
	FPS            float64
}

// Station контекст основного цикла: владеет сессией детекции, записью
// и флагами. Фоновые задачи обмениваются с ним только через слоты.
type Station struct {
	cfg        StationConfig
	clock      port.Clock
	source     port.CandidateSource
	detection  *DetectionSession
	recorder   *RecordingPipeline
	dispatcher *Dispatcher
	picker     *DirectoryPicker
	notifier   port.Notifier
	status     *StatusBoard
	commands   *CommandQueue
	log        logrus.FieldLogger
	metrics    *metrics.Metrics

	fps       FPSMeter
	frameSize entity.FrameSize
	recording *Recording
	exportDir string

	notifyWG sync.WaitGroup

	snapshotMu sync.RWMutex
	snapshot   StationStatus
}

// StationDeps зависимости станции
type StationDeps struct {
	Clock      port.Clock
	Source     port.CandidateSource
	Detection  *DetectionSession
	Recorder   *RecordingPipeline
	Dispatcher *Dispatcher
	Picker     *DirectoryPicker
	Notifier   port.Notifier
	Status     *StatusBoard
	Commands   *CommandQueue
	Log        logrus.FieldLogger
	Metrics    *metrics.Metrics
}

func NewStation(cfg StationConfig, deps StationDeps) *Station {
	return &Station{
		cfg:        cfg,
		clock:      deps.Clock,
		source:     deps.Source,
		detection:  deps.Detection,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		picker:     deps.Picker,
		notifier:   deps.Notifier,
		status:     deps.Status,
		commands:   deps.Commands,
		log:        deps.Log,
		metrics:    deps.Metrics,
		exportDir:  cfg.ExportDir,
	}
}

// Step обрабатывает один кадр: команды, детекция, запись, опрос фоновых задач.
// Ошибки компонентов уходят в статус и журнал; кадр остаётся у вызывающего.
func (s *Station) Step(ctx context.Context, frame port.Frame) {
	now := s.clock.Now()
	s.metrics.FrameProcessed()
	s.fps.Tick(now)

	if !s.frameSize.Valid() {
		s.frameSize = frame.Size()
		s.log.WithField("size", fmt.Sprintf("%dx%d", s.frameSize.Width, s.frameSize.Height)).Info("actual frame size")
	}

	s.handleCommands(ctx, now)
	s.detect(frame, now)
	s.record(frame, now)
	s.pollBackground()
	s.publishSnapshot(now)
}

func (s *Station) handleCommands(ctx context.Context, now time.Time) {
	for _, cmd := range s.commands.Drain() {
		switch cmd.Kind {
		case CommandArm:
			s.Arm(cmd.Region, now)
		case CommandCancel:
			s.detection.Cancel()
		case CommandRecord:
			s.StartRecording(now)
		case CommandStop:
			s.StopRecording(ctx)
		case CommandExportDir:
			s.SelectExportDir(ctx)
		default:
			s.log.WithField("command", cmd.Kind).Warn("unknown command")
		}
	}
}

// Arm сбрасывает фоновую модель и начинает новую сессию детекции
func (s *Station) Arm(region entity.Rect, now time.Time) {
	if err := s.detection.Arm(region, s.frameSize, now); err != nil {
		return
	}
	s.source.Reset()
}

func (s *Station) detect(frame port.Frame, now time.Time) {
	if s.detection.State() != entity.SessionArmed {
		return
	}

	if s.detection.Check(now) {
		s.notifyResults()
		return
	}

	candidates, err := s.source.Detect(frame, s.detection.Region(), s.detection.Frames())
	if err != nil {
		s.log.WithError(err).Warn("candidate extraction failed")
		candidates = nil
	}
	s.detection.Ingest(now, candidates)
}

func (s *Station) notifyResults() {
	ranking := s.detection.Ranking()
	top, ok := ranking.Top()
	if !ok {
		s.notify("Detection finished: no stable drip points")
		return
	}
	text := fmt.Sprintf("Detection finished: top point (%d,%d) x%d, total %d", top.X, top.Y, top.Count, ranking.Total)
	if path := s.detection.ResultsPath(); path != "" {
		text += ", saved to " + path
	} else {
		text += ", results not saved"
	}
	s.notify(text)
}

// StartRecording открывает новую запись во временный файл
func (s *Station) StartRecording(now time.Time) {
	if s.recording != nil {
		return
	}
	if s.dispatcher.Busy() {
		s.status.Set(statusProcessing)
		return
	}

	path := filepath.Join(s.cfg.TempDir, now.Format(tempStampLayout)+"_temp.avi")
	rec, err := s.recorder.Open(path, s.frameSize)
	if err != nil {
		s.log.WithError(err).Error("could not open the output video file for write")
		s.status.Set(statusError)
		return
	}

	s.recording = rec
	s.status.Set(statusRecStarted)
}

func (s *Station) record(frame port.Frame, now time.Time) {
	if s.recording == nil {
		return
	}

	caption := Caption(now, s.fps.Average(), s.cfg.ShowFPS)
	if err := s.recorder.Write(s.recording, frame, caption); err != nil {
		s.log.WithError(err).Error("exception while writing video")
		s.recording = nil
		s.status.Set(statusError)
	}
}

// StopRecording закрывает запись и передаёт файл на обработку
func (s *Station) StopRecording(ctx context.Context) {
	if s.recording == nil {
		return
	}
	rec := s.recording
	s.recording = nil

	duration, err := s.recorder.Close(rec)
	if err != nil {
		// битый временный файл остаётся на диске, в экспорт он не идёт
		s.log.WithError(err).WithField("path", rec.Session().Path).Error("recording discarded")
		s.status.Set(statusError)
		s.notify(fmt.Sprintf("Recording %s failed: %v", filepath.Base(rec.Session().Path), err))
		return
	}
	s.status.Set(statusRecStopped)

	// обработка не должна прерываться вместе с основным циклом
	s.dispatcher.Dispatch(context.WithoutCancel(ctx), entity.PostProcessTask{
		Path:      rec.Session().Path,
		Duration:  duration,
		OutputDir: s.exportDir,
	})
}

// SelectExportDir открывает выбор каталога экспорта
func (s *Station) SelectExportDir(ctx context.Context) {
	if s.recording != nil {
		s.status.Set(statusStopRecFirst)
		return
	}
	if err := s.picker.Start(ctx); err != nil && !errors.Is(err, entity.ErrPickerBusy) {
		s.log.WithError(err).Warn("directory selection not started")
	}
}

func (s *Station) pollBackground() {
	if res, ok := s.dispatcher.Poll(); ok {
		if res.Err != nil {
			s.status.Set(statusError)
			s.notify(fmt.Sprintf("Post-processing of %s failed: %v", filepath.Base(res.Source), res.Err))
		} else {
			s.status.Set("Saved " + filepath.Base(res.Output))
			s.notify(fmt.Sprintf("Recording saved: %s (%s)", res.Output, res.Duration.Round(time.Second)))
		}
	}

	if res, ok := s.picker.Poll(); ok {
		switch {
		case res.Err != nil:
			s.status.Set(statusError)
		case res.Dir == "":
			s.status.Set("Directory selection canceled")
		default:
			s.exportDir = withTrailingSlash(res.Dir)
			s.status.Set("Export dir: " + s.exportDir)
		}
	}
}

func withTrailingSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

func (s *Station) notify(text string) {
	if s.notifier == nil {
		return
	}
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.log.WithError(err).Warn("notification failed")
		}
	}()
}

func (s *Station) publishSnapshot(now time.Time) {
	st := StationStatus{
		Message:    s.status.Get(),
		Detection:  s.detection.Snapshot(),
		Display:    s.detection.Render(),
		Remaining:  s.detection.Remaining(now),
		Recording:  s.recorder.Active() != nil,
		Processing: s.dispatcher.Busy(),
		Progress:   s.dispatcher.Progress(),
		ExportDir:  s.exportDir,
		Selecting:  s.picker.Active(),
		FPS:        s.fps.Average(),
	}
	if task, ok := s.dispatcher.Current(); ok && task.State == entity.TaskRunning {
		st.ProcessingFile = filepath.Base(task.Path)
	}

	s.snapshotMu.Lock()
	s.snapshot = st
	s.snapshotMu.Unlock()
}

// Status возвращает последний опубликованный снимок; безопасно из других горутин
func (s *Station) Status() StationStatus {
	s.snapshotMu.RLock()
	defer s.snapshotMu.RUnlock()

	st := s.snapshot
	st.Message = s.status.Get()
	return st
}

// Shutdown закрывает запись, отдаёт её на обработку и дожидается всех фоновых задач
func (s *Station) Shutdown(ctx context.Context) {
	s.picker.Cancel()
	s.picker.Wait()

	s.StopRecording(ctx)
	s.dispatcher.Wait()
	s.pollBackground()

	s.notifyWG.Wait()
	s.log.Info("station stopped")
}

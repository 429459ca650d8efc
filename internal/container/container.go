package container

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"drip-station/config"
	telegram "drip-station/internal/api"
	app "drip-station/internal/application"
	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
	"drip-station/internal/infrastructure/finalizer"
	"drip-station/internal/infrastructure/notify"
	"drip-station/internal/infrastructure/picker"
	"drip-station/internal/infrastructure/storage"
	"drip-station/internal/infrastructure/vision"
	"drip-station/internal/metrics"
)

type Container struct {
	Camera   port.Camera
	Station  *app.Station
	Commands *app.CommandQueue
	Bot      *telegram.Bot // nil без TELEGRAM_TOKEN

	source *vision.ForegroundSource
}

// New собирает станцию из конфигурации. Камера открывается сразу.
func New(cfg *config.Config, log *logrus.Logger, m *metrics.Metrics) (*Container, error) {
	camera, err := vision.OpenCamera(cfg.CameraDevice, cfg.CameraWidth, cfg.CameraHeight)
	if err != nil {
		return nil, err
	}

	clock := app.SystemClock{}
	status := app.NewStatusBoard(log)
	commands := app.NewCommandQueue()
	operators := storage.NewMemoryOperatorRepository()
	source := vision.NewForegroundSource()

	store := storage.NewCSVResultStore(cfg.ResultsDir, cfg.PersistMinCount, clock, log)
	detection := app.NewDetectionSession(app.DetectionConfig{
		Timeout:         cfg.DetectTimeout,
		TopCount:        cfg.DetectTopCount,
		DisplayMinCount: cfg.DisplayMinCount,
		Tolerance:       cfg.DetectTolerance,
		Area:            entity.AreaRange{Lower: cfg.AreaLower, Upper: cfg.AreaUpper},
	}, store, status, log, m)

	recorder := app.NewRecordingPipeline(
		app.RecordingConfig{QueueSize: cfg.RecordQueue},
		vision.NewWriterFactory(float64(cfg.RecordFPS)),
		vision.NewTextOverlay(),
		clock, log, m,
	)
	dispatcher := app.NewDispatcher(finalizer.NewFFmpeg(cfg.FFmpegBinary, cfg.KeepOriginalFiles, log), clock, log, m)
	dirPicker := app.NewDirectoryPicker(picker.NewZenity(cfg.ZenityBinary), status, log)

	var (
		api      *tgbotapi.BotAPI
		notifier port.Notifier
	)
	if cfg.TelegramToken != "" {
		api, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("telegram: %w", err), camera.Close(), source.Close())
		}
		notifier = notify.NewTelegramNotifier(api, operators, cfg.TelegramChatID, log)
	}

	station := app.NewStation(app.StationConfig{
		TempDir:   cfg.TempDir,
		ExportDir: cfg.ExportDir,
		ShowFPS:   cfg.ShowFPS,
	}, app.StationDeps{
		Clock:      clock,
		Source:     source,
		Detection:  detection,
		Recorder:   recorder,
		Dispatcher: dispatcher,
		Picker:     dirPicker,
		Notifier:   notifier,
		Status:     status,
		Commands:   commands,
		Log:        log,
		Metrics:    m,
	})

	c := &Container{
		Camera:   camera,
		Station:  station,
		Commands: commands,
		source:   source,
	}
	if api != nil {
		c.Bot = telegram.NewBot(api, app.NewOperatorService(operators), commands, station, log)
	}
	return c, nil
}

// Close освобождает камеру и фоновую модель
func (c *Container) Close() error {
	return errors.Join(c.Camera.Close(), c.source.Close())
}

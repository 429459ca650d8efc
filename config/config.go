package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	CameraDevice int `validate:"gte=0"`
	CameraWidth  int `validate:"gt=0"`
	CameraHeight int `validate:"gt=0"`
	RecordFPS    int `validate:"gt=0,lte=120"`
	RecordQueue  int `validate:"gt=0"`
	ShowFPS      bool

	TempDir           string `validate:"required"`
	ResultsDir        string `validate:"required"`
	ExportDir         string `validate:"required"`
	KeepOriginalFiles bool
	FFmpegBinary      string `validate:"required"`
	ZenityBinary      string `validate:"required"`

	DetectTimeout   time.Duration `validate:"gt=0"`
	DetectTopCount  int           `validate:"gt=0"`
	DetectTolerance int           `validate:"gte=0"`
	AreaLower       float64       `validate:"gte=0"`
	AreaUpper       float64       `validate:"gtfield=AreaLower"`
	DisplayMinCount int           `validate:"gte=0"`
	PersistMinCount int           `validate:"gte=0"`

	TelegramToken  string
	TelegramChatID int64

	MetricsAddr string
	AppEnv      string
	LogLevel    string `validate:"omitempty,oneof=debug info warn warning error"`
	LogDir      string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var p parser
	cfg := &Config{
		CameraDevice: p.getInt("CAMERA_DEVICE", 0),
		CameraWidth:  p.getInt("CAMERA_WIDTH", 1280),
		CameraHeight: p.getInt("CAMERA_HEIGHT", 720),
		RecordFPS:    p.getInt("RECORD_FPS", 30),
		RecordQueue:  p.getInt("RECORD_QUEUE", 60),
		ShowFPS:      p.getBool("SHOW_FPS", false),

		TempDir:           p.getString("TEMP_DIR", "/tmp"),
		ResultsDir:        p.getString("RESULTS_DIR", "./drip_detect"),
		ExportDir:         p.getString("EXPORT_DEST_DIR", "./recordings/"),
		KeepOriginalFiles: p.getBool("KEEP_ORIGINAL_FILES", true),
		FFmpegBinary:      p.getString("FFMPEG_BIN", "ffmpeg"),
		ZenityBinary:      p.getString("ZENITY_BIN", "zenity"),

		DetectTimeout:   p.getDuration("DETECT_TIMEOUT", 10*time.Second),
		DetectTopCount:  p.getInt("DETECT_TOP_COUNT", 10),
		DetectTolerance: p.getInt("DETECT_TOLERANCE", 1),
		AreaLower:       p.getFloat("AREA_LOWER", 0),
		AreaUpper:       p.getFloat("AREA_UPPER", 300),
		DisplayMinCount: p.getInt("DISPLAY_MIN_COUNT", 5),
		PersistMinCount: p.getInt("PERSIST_MIN_COUNT", 1),

		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID: p.getInt64("TELEGRAM_CHAT_ID", 0),

		MetricsAddr: p.getSet("METRICS_ADDR", ":9090"),
		AppEnv:      p.getString("APP_ENV", "production"),
		LogLevel:    p.getString("LOG_LEVEL", "info"),
		LogDir:      os.Getenv("LOG_DIR"),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// parser читает переменные окружения и копит ошибки разбора
type parser struct {
	errs []error
}

func (p *parser) getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// getSet отличает пустое значение от отсутствующего
func (p *parser) getSet(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func (p *parser) getInt(key string, def int) int {
	return int(p.getInt64(key, int64(def)))
}

func (p *parser) getInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// getDuration принимает "10s" или число секунд
func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1280, cfg.CameraWidth)
	require.Equal(t, 720, cfg.CameraHeight)
	require.Equal(t, 30, cfg.RecordFPS)
	require.Equal(t, "/tmp", cfg.TempDir)
	require.Equal(t, "./drip_detect", cfg.ResultsDir)
	require.Equal(t, "./recordings/", cfg.ExportDir)
	require.True(t, cfg.KeepOriginalFiles)
	require.Equal(t, 10*time.Second, cfg.DetectTimeout)
	require.Equal(t, 10, cfg.DetectTopCount)
	require.Equal(t, 1, cfg.DetectTolerance)
	require.Equal(t, 300.0, cfg.AreaUpper)
	require.Equal(t, 5, cfg.DisplayMinCount)
	require.Equal(t, 1, cfg.PersistMinCount)
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DETECT_TIMEOUT", "15")
	t.Setenv("AREA_LOWER", "10")
	t.Setenv("AREA_UPPER", "500")
	t.Setenv("KEEP_ORIGINAL_FILES", "false")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.DetectTimeout)
	require.Equal(t, 10.0, cfg.AreaLower)
	require.Equal(t, 500.0, cfg.AreaUpper)
	require.False(t, cfg.KeepOriginalFiles)
	require.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestLoad_ParseError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CAMERA_WIDTH", "wide")

	_, err := Load()
	require.ErrorContains(t, err, "CAMERA_WIDTH")
}

func TestLoad_ValidationError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AREA_LOWER", "300")
	t.Setenv("AREA_UPPER", "100")

	_, err := Load()
	require.ErrorContains(t, err, "AreaUpper")
}

func TestLoad_DurationString(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DETECT_TIMEOUT", "1m30s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.DetectTimeout)
}

func TestLoad_EmptyMetricsAddrDisables(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("METRICS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.MetricsAddr)
}

// chdir is the Go 1.21 equivalent of testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

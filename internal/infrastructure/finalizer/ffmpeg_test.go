package finalizer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"drip-station/internal/domain/entity"
	"drip-station/internal/logger"
)

// fakeFFmpeg печатает прогресс и создаёт выходной файл (последний аргумент)
const fakeFFmpeg = `#!/bin/sh
for a; do out="$a"; done
echo "frame=10"
echo "out_time_us=500000"
echo "progress=continue"
echo "out_time_us=1000000"
echo "progress=continue"
echo "progress=end"
echo transcoded > "$out"
`

const failingFFmpeg = `#!/bin/sh
echo "Invalid data found when processing input" >&2
exit 1
`

type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (p *progressLog) add(v int) {
	p.mu.Lock()
	p.values = append(p.values, v)
	p.mu.Unlock()
}

func writeScript(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func writeTemp(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "20240501_120000_temp.avi")
	require.NoError(t, os.WriteFile(path, []byte("avi-data"), 0o644))
	return path
}

func TestFFmpeg_TranscodeReportsProgress(t *testing.T) {
	src := writeTemp(t)
	outDir := filepath.Join(t.TempDir(), "recordings")
	f := NewFFmpeg(writeScript(t, fakeFFmpeg), false, logger.Discard())

	var got progressLog
	out, err := f.Finalize(context.Background(), entity.PostProcessTask{
		Path:      src,
		Duration:  2 * time.Second,
		OutputDir: outDir,
	}, got.add)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "20240501_120000.mp4"), out)
	require.Equal(t, []int{25, 50, 100, 100}, got.values)

	_, err = os.Stat(out)
	require.NoError(t, err)
	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err), "temp file must be removed")
}

func TestFFmpeg_KeepOriginal(t *testing.T) {
	src := writeTemp(t)
	f := NewFFmpeg(writeScript(t, fakeFFmpeg), true, logger.Discard())

	_, err := f.Finalize(context.Background(), entity.PostProcessTask{
		Path:      src,
		Duration:  time.Second,
		OutputDir: t.TempDir(),
	}, func(int) {})
	require.NoError(t, err)

	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestFFmpeg_FailureKeepsSource(t *testing.T) {
	src := writeTemp(t)
	outDir := t.TempDir()
	f := NewFFmpeg(writeScript(t, failingFFmpeg), false, logger.Discard())

	out, err := f.Finalize(context.Background(), entity.PostProcessTask{
		Path:      src,
		Duration:  time.Second,
		OutputDir: outDir,
	}, func(int) {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid data found")
	require.Empty(t, out)

	_, err = os.Stat(src)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "20240501_120000.mp4"))
	require.True(t, os.IsNotExist(err))
}

func TestFFmpeg_MissingBinaryCopiesRecording(t *testing.T) {
	src := writeTemp(t)
	outDir := t.TempDir()
	f := NewFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"), true, logger.Discard())

	out, err := f.Finalize(context.Background(), entity.PostProcessTask{
		Path:      src,
		OutputDir: outDir,
	}, func(int) {})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "20240501_120000.avi"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "avi-data", string(data))
}

func TestParseProgress(t *testing.T) {
	total := 10 * time.Second

	cases := []struct {
		line string
		pct  int
		ok   bool
	}{
		{"out_time_us=5000000", 50, true},
		{"out_time_ms=2500000", 25, true},
		{"out_time_us=20000000", 99, true},
		{"out_time_us=N/A", 0, false},
		{"progress=continue", 0, false},
		{"progress=end", 100, true},
		{"fps=29.97", 0, false},
		{"garbage", 0, false},
	}
	for _, tc := range cases {
		pct, ok := parseProgress(tc.line, total)
		require.Equal(t, tc.ok, ok, tc.line)
		require.Equal(t, tc.pct, pct, tc.line)
	}

	_, ok := parseProgress("out_time_us=100", 0)
	require.False(t, ok)
}

func TestOutputName(t *testing.T) {
	require.Equal(t, "20240501_120000.mp4", OutputName("/tmp/20240501_120000_temp.avi", ".mp4"))
	require.Equal(t, "clip.mp4", OutputName("/data/clip.avi", ".mp4"))
}

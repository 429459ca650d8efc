package finalizer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

const (
	DefaultBinary = "ffmpeg"
	tempSuffix    = "_temp.avi"
	outputExt     = ".mp4"
	stderrTail    = 4096
)

// FFmpeg перекодирует временную запись в MP4 в каталоге экспорта.
// Без ffmpeg в PATH запись копируется как есть.
type FFmpeg struct {
	Binary       string
	KeepOriginal bool
	log          logrus.FieldLogger
}

func NewFFmpeg(binary string, keepOriginal bool, log logrus.FieldLogger) *FFmpeg {
	if binary == "" {
		binary = DefaultBinary
	}
	return &FFmpeg{
		Binary:       binary,
		KeepOriginal: keepOriginal,
		log:          log,
	}
}

// OutputName возвращает имя итогового файла для временной записи
func OutputName(src string, ext string) string {
	base := filepath.Base(src)
	if strings.HasSuffix(base, tempSuffix) {
		return strings.TrimSuffix(base, tempSuffix) + ext
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func (f *FFmpeg) Finalize(ctx context.Context, task entity.PostProcessTask, progress func(percent int)) (string, error) {
	if err := os.MkdirAll(task.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	log := f.log.WithField("path", task.Path)

	var (
		out string
		err error
	)
	bin, lookErr := exec.LookPath(f.Binary)
	if lookErr != nil {
		log.WithError(lookErr).Warn("ffmpeg not found, exporting the raw recording")
		out = filepath.Join(task.OutputDir, OutputName(task.Path, filepath.Ext(task.Path)))
		err = copyVerified(task.Path, out)
	} else {
		out = filepath.Join(task.OutputDir, OutputName(task.Path, outputExt))
		err = f.transcode(ctx, bin, task, out, progress)
	}
	if err != nil {
		_ = os.Remove(out)
		return "", err
	}
	progress(100)

	if !f.KeepOriginal {
		if err := os.Remove(task.Path); err != nil {
			log.WithError(err).Warn("failed to delete original file")
		}
	}
	return out, nil
}

func (f *FFmpeg) transcode(ctx context.Context, bin string, task entity.PostProcessTask, out string, progress func(int)) error {
	cmd := exec.CommandContext(ctx, bin,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", task.Path,
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-progress", "pipe:1", "-nostats",
		out,
	)

	tail := &tailBuffer{max: stderrTail}
	cmd.Stderr = tail
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	last := -1
	for scanner.Scan() {
		if pct, ok := parseProgress(scanner.Text(), task.Duration); ok && pct != last {
			last = pct
			progress(pct)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(tail.String()))
	}
	return nil
}

// parseProgress разбирает строку -progress. Значения до конца ограничены 99,
// 100 выставляется только по progress=end.
func parseProgress(line string, total time.Duration) (int, bool) {
	key, val, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return 0, false
	}

	switch key {
	case "progress":
		if val == "end" {
			return 100, true
		}
		return 0, false
	case "out_time_us", "out_time_ms": // оба в микросекундах
		if total <= 0 {
			return 0, false
		}
		us, err := strconv.ParseInt(val, 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		pct := int(us * 100 / total.Microseconds())
		return min(pct, 99), true
	}
	return 0, false
}

// copyVerified копирует файл и сверяет размер копии с исходником
func copyVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	outFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(outFile, in); err != nil {
		outFile.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if srcInfo.Size() == 0 || srcInfo.Size() != dstInfo.Size() {
		return errors.New("file size mismatch after copy")
	}
	return nil
}

// tailBuffer хранит последние max байт вывода
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

var _ port.Finalizer = (*FFmpeg)(nil)

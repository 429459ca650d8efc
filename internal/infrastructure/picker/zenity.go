package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"drip-station/internal/domain/port"
)

const (
	DefaultBinary = "zenity"
	DefaultTitle  = "Select export directory"

	exitCanceled = 1
	waitDelay    = 2 * time.Second
)

// Zenity выбор каталога через системный диалог zenity
type Zenity struct {
	Binary string
	Title  string
}

// NewZenity создаёт диалог; пустой binary означает zenity из PATH
func NewZenity(binary string) *Zenity {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Zenity{Binary: binary, Title: DefaultTitle}
}

// Choose возвращает выбранный каталог; пустая строка, если оператор закрыл диалог
func (z *Zenity) Choose(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, z.Binary, "--file-selection", "--directory", "--title="+z.Title)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitCanceled {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("zenity: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

var _ port.DirectoryChooser = (*Zenity)(nil)

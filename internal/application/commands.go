package app

import (
	"sync"

	"drip-station/internal/domain/entity"
)

// CommandKind тип команды оператора
type CommandKind string

const (
	CommandArm       CommandKind = "arm"
	CommandCancel    CommandKind = "cancel"
	CommandRecord    CommandKind = "record"
	CommandStop      CommandKind = "stop"
	CommandExportDir CommandKind = "export_dir"
)

// Command команда оператора для основного цикла
type Command struct {
	Kind   CommandKind
	Region entity.Rect // только для CommandArm
}

// CommandQueue передаёт команды из горутины бота в основной цикл
type CommandQueue struct {
	mu      sync.Mutex
	pending []Command
}

func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Push ставит команду в очередь
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

// Drain забирает все накопленные команды в порядке поступления
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	cmds := q.pending
	q.pending = nil
	return cmds
}

package port

import "context"

// Notifier отправляет операторам сообщения о событиях станции
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

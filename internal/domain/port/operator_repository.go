package port

import (
	"context"

	"drip-station/internal/domain/entity"
)

// OperatorRepository интерфейс хранилища операторов
type OperatorRepository interface {
	// Get возвращает оператора по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error)

	// Save сохраняет оператора
	Save(ctx context.Context, operator *entity.Operator) error

	// SetSubscribed атомарно меняет подписку оператора, создавая его при необходимости
	SetSubscribed(ctx context.Context, userID, chatID int64, subscribed bool) (*entity.Operator, error)

	// Subscribers возвращает чаты операторов, подписанных на уведомления
	Subscribers(ctx context.Context) ([]int64, error)
}

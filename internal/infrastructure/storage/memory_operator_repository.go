package storage

import (
	"context"
	"sort"
	"sync"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

// MemoryOperatorRepository in-memory хранилище операторов
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
}

// NewMemoryOperatorRepository создаёт новое in-memory хранилище
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{
		operators: make(map[int64]*entity.Operator),
	}
}

// Get возвращает копию оператора по ID, создаёт нового если не найден.
// Изменения копии не видны хранилищу до Save.
func (r *MemoryOperatorRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	r.mu.RLock()
	op, exists := r.operators[userID]
	if exists {
		cp := *op
		r.mu.RUnlock()
		return &cp, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *r.getOrCreate(userID, chatID)
	return &cp, nil
}

// Save сохраняет копию оператора
func (r *MemoryOperatorRepository) Save(ctx context.Context, operator *entity.Operator) error {
	cp := *operator

	r.mu.Lock()
	r.operators[operator.ID] = &cp
	r.mu.Unlock()

	return nil
}

// SetSubscribed меняет подписку под блокировкой записи
func (r *MemoryOperatorRepository) SetSubscribed(ctx context.Context, userID, chatID int64, subscribed bool) (*entity.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	op := r.getOrCreate(userID, chatID)
	if subscribed {
		op.Subscribe()
	} else {
		op.Unsubscribe()
	}

	cp := *op
	return &cp, nil
}

// вызывать под r.mu.Lock
func (r *MemoryOperatorRepository) getOrCreate(userID, chatID int64) *entity.Operator {
	if op, exists := r.operators[userID]; exists {
		return op
	}
	op := entity.NewOperator(userID, chatID)
	r.operators[userID] = op
	return op
}

// Subscribers возвращает чаты подписанных операторов по возрастанию ID
func (r *MemoryOperatorRepository) Subscribers(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chats := make([]int64, 0, len(r.operators))
	for _, op := range r.operators {
		if op.Subscribed {
			chats = append(chats, op.ChatID)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })

	return chats, nil
}

// Проверка реализации интерфейса
var _ port.OperatorRepository = (*MemoryOperatorRepository)(nil)

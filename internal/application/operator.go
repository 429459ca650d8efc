package app

import (
	"context"

	"drip-station/internal/domain/entity"
	"drip-station/internal/domain/port"
)

type OperatorService struct {
	repo port.OperatorRepository
}

func NewOperatorService(repo port.OperatorRepository) *OperatorService {
	return &OperatorService{repo: repo}
}

func (s *OperatorService) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *OperatorService) SetSubscribed(ctx context.Context, userID, chatID int64, subscribed bool) (*entity.Operator, error) {
	return s.repo.SetSubscribed(ctx, userID, chatID, subscribed)
}

func (s *OperatorService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetSubscribed(ctx, userID, chatID, true)
}

func (s *OperatorService) Mute(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetSubscribed(ctx, userID, chatID, false)
}

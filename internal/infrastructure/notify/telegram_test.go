package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"drip-station/internal/infrastructure/storage"
	"drip-station/internal/logger"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  map[int64][]string
	fails map[int64]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[int64][]string), fails: make(map[int64]bool)}
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	s.sent[msg.ChatID] = append(s.sent[msg.ChatID], msg.Text)
	return tgbotapi.Message{}, nil
}

func subscribe(t *testing.T, repo *storage.MemoryOperatorRepository, userID, chatID int64) {
	ctx := context.Background()
	_, err := repo.SetSubscribed(ctx, userID, chatID, true)
	require.NoError(t, err)
}

func TestTelegramNotifier_SendsToSubscribersAndServiceChat(t *testing.T) {
	repo := storage.NewMemoryOperatorRepository()
	subscribe(t, repo, 1, 100)
	subscribe(t, repo, 2, 200)
	_, err := repo.Get(context.Background(), 3, 300)
	require.NoError(t, err)

	sender := newFakeSender()
	n := NewTelegramNotifier(sender, repo, 200, logger.Discard())

	require.NoError(t, n.Notify(context.Background(), "BG Results saved."))
	require.Equal(t, map[int64][]string{
		100: {"BG Results saved."},
		200: {"BG Results saved."},
	}, sender.sent)
}

func TestTelegramNotifier_ServiceChatOnly(t *testing.T) {
	sender := newFakeSender()
	n := NewTelegramNotifier(sender, nil, 42, logger.Discard())

	require.NoError(t, n.Notify(context.Background(), "Recording saved"))
	require.Equal(t, []string{"Recording saved"}, sender.sent[42])
}

func TestTelegramNotifier_ContinuesAfterFailure(t *testing.T) {
	repo := storage.NewMemoryOperatorRepository()
	subscribe(t, repo, 1, 100)
	subscribe(t, repo, 2, 200)

	sender := newFakeSender()
	sender.fails[100] = true
	n := NewTelegramNotifier(sender, repo, 0, logger.Discard())

	err := n.Notify(context.Background(), "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat 100")
	require.Equal(t, []string{"hello"}, sender.sent[200])
}

func TestTelegramNotifier_CanceledContext(t *testing.T) {
	sender := newFakeSender()
	n := NewTelegramNotifier(sender, nil, 42, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, n.Notify(ctx, "late"))
	require.Empty(t, sender.sent)
}

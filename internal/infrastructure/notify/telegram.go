package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"drip-station/internal/domain/port"
)

// Telegram не даёт отправлять больше ~30 сообщений в секунду на бота
const (
	DefaultRate  = rate.Limit(20)
	DefaultBurst = 5
)

// Sender часть tgbotapi.BotAPI, нужная для отправки
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier рассылает события станции подписанным операторам
// и в служебный чат, если он задан
type TelegramNotifier struct {
	sender    Sender
	operators port.OperatorRepository
	chatID    int64
	limiter   *rate.Limiter
	log       logrus.FieldLogger
}

func NewTelegramNotifier(sender Sender, operators port.OperatorRepository, chatID int64, log logrus.FieldLogger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:    sender,
		operators: operators,
		chatID:    chatID,
		limiter:   rate.NewLimiter(DefaultRate, DefaultBurst),
		log:       log,
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	chats, err := n.recipients(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, chatID := range chats {
		if err := n.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.log.WithError(err).WithField("chat_id", chatID).Warn("failed to deliver notification")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *TelegramNotifier) recipients(ctx context.Context) ([]int64, error) {
	var chats []int64
	if n.operators != nil {
		subs, err := n.operators.Subscribers(ctx)
		if err != nil {
			return nil, fmt.Errorf("load subscribers: %w", err)
		}
		chats = subs
	}

	if n.chatID != 0 {
		for _, c := range chats {
			if c == n.chatID {
				return chats, nil
			}
		}
		chats = append(chats, n.chatID)
	}
	return chats, nil
}

var _ port.Notifier = (*TelegramNotifier)(nil)

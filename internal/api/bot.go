package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	app "drip-station/internal/application"
	"drip-station/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот станции наблюдения за каплями.

🔔 Вы подписаны на уведомления о результатах детекции и готовых записях.

📋 Команды:
/arm x y [w h] — начать детекцию в области
/cancel — отменить детекцию
/record — начать запись
/stop — остановить запись
/status — состояние станции
/exportdir — выбрать каталог экспорта
/mute — отписаться от уведомлений
/help — справка`

	msgHelp = `ℹ️ Как пользоваться станцией:

1️⃣ /arm x y — область 100×100 с центром в точке (x, y)
   /arm x y w h — область с левым верхним углом (x, y)
2️⃣ Станция 10 секунд считает капли и сохраняет лучшие точки
3️⃣ /record и /stop — запись видео, после остановки файл обрабатывается и попадает в каталог экспорта

📋 Команды:
/arm, /cancel, /record, /stop, /status, /exportdir, /mute`

	msgArmUsage       = "❓ Формат: /arm x y или /arm x y w h"
	msgArmQueued      = "🎯 Детекция в области %d×%d@%d,%d запрошена."
	msgCancelQueued   = "❌ Детекция будет отменена."
	msgRecordQueued   = "⏺ Запись будет начата."
	msgStopQueued     = "⏹ Запись будет остановлена."
	msgExportQueued   = "📂 Открываю выбор каталога на станции..."
	msgMuted          = "🔕 Уведомления выключены. /start — включить снова."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendCommand    = "📋 Отправьте команду. /help — список команд."
	msgInternalError  = "⚠️ Не удалось обработать команду. Попробуйте позже."

	armBoxSide = 100
)

// StatusSource источник снимка состояния станции
type StatusSource interface {
	Status() app.StationStatus
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot принимает команды операторов и передаёт их в основной цикл
type Bot struct {
	api       *tgbotapi.BotAPI
	sender    sender
	operators *app.OperatorService
	commands  *app.CommandQueue
	station   StatusSource
	log       logrus.FieldLogger
}

// NewBot создаёт бота поверх авторизованного API
func NewBot(api *tgbotapi.BotAPI, operators *app.OperatorService, commands *app.CommandQueue, station StatusSource, log logrus.FieldLogger) *Bot {
	log.WithField("account", api.Self.UserName).Info("telegram bot authorized")

	return &Bot{
		api:       api,
		sender:    api,
		operators: operators,
		commands:  commands,
		station:   station,
		log:       log,
	}
}

// Run обрабатывает сообщения до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	operator, err := b.operators.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.WithError(err).WithField("user_id", msg.From.ID).Error("failed to load operator")
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return
	}

	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgSendCommand)
		return
	}
	b.handleCommand(ctx, msg, operator)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, operator *entity.Operator) {
	log := b.log.WithFields(logrus.Fields{
		"user_id": operator.ID,
		"command": msg.Command(),
	})

	switch msg.Command() {
	case "start":
		if _, err := b.operators.Subscribe(ctx, operator.ID, operator.ChatID); err != nil {
			log.WithError(err).Error("failed to subscribe operator")
		}
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "arm":
		region, err := parseArmArgs(msg.CommandArguments())
		if err != nil {
			b.sendMessage(msg.Chat.ID, msgArmUsage)
			return
		}
		b.commands.Push(app.Command{Kind: app.CommandArm, Region: region})
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgArmQueued, region.Width, region.Height, region.X, region.Y))

	case "cancel":
		b.commands.Push(app.Command{Kind: app.CommandCancel})
		b.sendMessage(msg.Chat.ID, msgCancelQueued)

	case "record":
		b.commands.Push(app.Command{Kind: app.CommandRecord})
		b.sendMessage(msg.Chat.ID, msgRecordQueued)

	case "stop":
		b.commands.Push(app.Command{Kind: app.CommandStop})
		b.sendMessage(msg.Chat.ID, msgStopQueued)

	case "exportdir":
		b.commands.Push(app.Command{Kind: app.CommandExportDir})
		b.sendMessage(msg.Chat.ID, msgExportQueued)

	case "status":
		b.sendMessage(msg.Chat.ID, formatStatus(b.station.Status()))

	case "mute":
		if _, err := b.operators.Mute(ctx, operator.ID, operator.ChatID); err != nil {
			log.WithError(err).Error("failed to mute operator")
		}
		b.sendMessage(msg.Chat.ID, msgMuted)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
		return
	}

	log.Info("operator command accepted")
}

// parseArmArgs разбирает "x y" (квадрат 100×100 с центром в точке) или "x y w h"
func parseArmArgs(args string) (entity.Rect, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 && len(fields) != 4 {
		return entity.Rect{}, fmt.Errorf("arm: want 2 or 4 arguments, got %d", len(fields))
	}

	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return entity.Rect{}, fmt.Errorf("arm: argument %d: %w", i+1, err)
		}
		nums[i] = n
	}

	if len(nums) == 2 {
		return entity.CenteredRect(entity.Point{X: nums[0], Y: nums[1]}, armBoxSide, armBoxSide), nil
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return entity.Rect{}, fmt.Errorf("arm: %dx%d: %w", nums[2], nums[3], entity.ErrInvalidRegion)
	}
	return entity.Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}, nil
}

// formatStatus собирает ответ на /status
func formatStatus(st app.StationStatus) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📟 Статус: %s\n", orDash(st.Message))
	fmt.Fprintf(&sb, "🎞 FPS: %.1f\n", st.FPS)

	switch st.Detection.State {
	case entity.SessionArmed:
		r := st.Detection.Region
		c := r.Center()
		fmt.Fprintf(&sb, "🎯 Детекция: идёт, область %d×%d@%d,%d (центр %d,%d), осталось %s, кадров %d, точек %d\n",
			r.Width, r.Height, r.X, r.Y, c.X, c.Y, st.Remaining.Round(time.Second), st.Detection.Frames, len(st.Detection.Points))
	case entity.SessionExpired:
		fmt.Fprintf(&sb, "🎯 Детекция: завершена, кадров %d, точек %d\n", st.Detection.Frames, len(st.Detection.Points))
	default:
		sb.WriteString("🎯 Детекция: не активна\n")
	}
	for _, p := range st.Display {
		fmt.Fprintf(&sb, "   • (%d,%d) ×%d\n", p.X, p.Y, p.Count)
	}

	if st.Recording {
		sb.WriteString("⏺ Запись: идёт\n")
	} else {
		sb.WriteString("⏺ Запись: нет\n")
	}
	if st.Processing {
		fmt.Fprintf(&sb, "⏳ Обработка: %d%%", st.Progress)
		if st.ProcessingFile != "" {
			fmt.Fprintf(&sb, " (%s)", st.ProcessingFile)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "📂 Экспорт: %s", orDash(st.ExportDir))
	if st.Selecting {
		sb.WriteString(" (идёт выбор каталога)")
	}

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.WithError(err).WithField("chat_id", chatID).Warn("error sending message")
	}
}

package entity

// Operator представляет оператора станции в Telegram
type Operator struct {
	ID         int64 // Telegram User ID
	ChatID     int64 // Telegram Chat ID
	Subscribed bool  // Получает уведомления о результатах
}

// NewOperator создаёт оператора без подписки
func NewOperator(userID, chatID int64) *Operator {
	return &Operator{
		ID:     userID,
		ChatID: chatID,
	}
}

// Subscribe включает уведомления
func (o *Operator) Subscribe() {
	o.Subscribed = true
}

// Unsubscribe выключает уведомления
func (o *Operator) Unsubscribe() {
	o.Subscribed = false
}

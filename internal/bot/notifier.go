package bot

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"
)

// ChatNotifier delivers preview notifications to a Telegram chat.
type ChatNotifier struct {
	bot    *tgbot.Bot
	chatID int64
	log    logrus.FieldLogger
}

// NewChatNotifier creates a notifier for one chat.
func NewChatNotifier(b *tgbot.Bot, chatID int64, logger logrus.FieldLogger) *ChatNotifier {
	return &ChatNotifier{bot: b, chatID: chatID, log: logger.WithField("chat_id", chatID)}
}

// Notify sends message to the chat. Delivery failures are only logged.
func (n *ChatNotifier) Notify(ctx context.Context, message string) {
	_, err := n.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: n.chatID,
		Text:   message,
	})
	if err != nil {
		n.log.WithError(err).Warn("Failed to deliver notification")
	}
}

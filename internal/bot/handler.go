package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"linksvault/internal/config"
	"linksvault/internal/links"
	"linksvault/internal/preview"
)

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot        *tgbot.Bot
	cfg        config.Config
	links      *links.Service
	resolver   *preview.Resolver
	dispatcher *preview.Dispatcher
	log        logrus.FieldLogger

	mu       sync.Mutex
	sessions map[int64]*preview.Session
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, svc *links.Service, resolver *preview.Resolver, dispatcher *preview.Dispatcher, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{
		cfg:        cfg,
		links:      svc,
		resolver:   resolver,
		dispatcher: dispatcher,
		log:        log,
		sessions:   make(map[int64]*preview.Session),
	}

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b

	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/list", tgbot.MatchTypePrefix, h.listHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/refetch", tgbot.MatchTypePrefix, h.refetchHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/retry", tgbot.MatchTypePrefix, h.retryHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/title", tgbot.MatchTypePrefix, h.titleHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/fav", tgbot.MatchTypePrefix, h.favoriteHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/rm", tgbot.MatchTypePrefix, h.removeHandler)
	h.log.Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

// session returns the chat's preview session, creating it on first use.
func (h *Handler) session(chatID int64) (*preview.Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[chatID]; ok {
		return s, nil
	}
	s, err := preview.NewSession(h.cfg.SessionCacheSize, NewChatNotifier(h.bot, chatID, h.log))
	if err != nil {
		return nil, err
	}
	h.sessions[chatID] = s
	h.log.WithFields(logrus.Fields{"chat_id": chatID, "session_id": s.ID}).Debug("Session opened")
	return s, nil
}

func collectionID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	_, err := h.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// message returns the update's message, or nil for updates the bot ignores.
func message(update *models.Update) *models.Message {
	if update == nil || update.Message == nil {
		return nil
	}
	return update.Message
}

package bot

import (
	"context"
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/preview"
)

const (
	welcomeMessage = "Welcome to LinksVault! Send me a link and I'll save it with a preview.\n\n" +
		"/list - show your saved links\n" +
		"/title <url> <title> - rename a link (empty title resets it)\n" +
		"/fav <url> - toggle favorite\n" +
		"/refetch <url> - fetch the preview again\n" +
		"/retry <url> - retry a failed preview\n" +
		"/rm <url> - remove a link"
	usageURL   = "Please include the link, e.g. %s https://example.com"
	notSaved   = "That link is not in your collection."
	genericErr = "Something went wrong, please try again."
)

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	h.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "command": "/start"}).Info("Received /start command")
	h.reply(ctx, msg.Chat.ID, welcomeMessage)
}

// defaultHandler saves every link found in a plain message and replies with its preview.
func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	log := h.log.WithField("chat_id", chatID)

	urls := extractURLs(msg.Text)
	if len(urls) == 0 {
		log.WithField("text", msg.Text).Debug("Received message without links")
		h.reply(ctx, chatID, "Send me a link to save it, or /start for help.")
		return
	}

	s, err := h.session(chatID)
	if err != nil {
		log.WithError(err).Error("Failed to open session")
		h.reply(ctx, chatID, genericErr)
		return
	}

	for _, raw := range urls {
		link, err := h.links.Add(ctx, collectionID(chatID), raw)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			h.reply(ctx, chatID, "Already saved: "+raw)
			continue
		case errors.Is(err, domain.ErrInvalidURL):
			h.reply(ctx, chatID, "That doesn't look like a valid link: "+raw)
			continue
		case err != nil:
			log.WithError(err).WithField("url", raw).Error("Failed to save link")
			h.reply(ctx, chatID, genericErr)
			continue
		}

		rec := h.resolver.Resolve(ctx, s, link)
		if rec.Title == "" {
			h.reply(ctx, chatID, "Saved: "+link.URL)
			continue
		}
		h.reply(ctx, chatID, "Saved!\n\n"+formatPreview(rec))
	}
}

func (h *Handler) listHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID
	log := h.log.WithFields(logrus.Fields{"chat_id": chatID, "command": "/list"})

	entries, err := h.links.List(ctx, collectionID(chatID))
	if err != nil {
		log.WithError(err).Error("Failed to list links")
		h.reply(ctx, chatID, genericErr)
		return
	}
	if len(entries) == 0 {
		h.reply(ctx, chatID, "Your collection is empty. Send me a link to get started.")
		return
	}

	s, err := h.session(chatID)
	if err != nil {
		log.WithError(err).Error("Failed to open session")
		h.reply(ctx, chatID, genericErr)
		return
	}

	served := h.dispatcher.Load(ctx, s, entries)
	log.WithFields(logrus.Fields{"links": len(entries), "cached": served}).Info("Collection listed")
	h.reply(ctx, chatID, formatList(entries, s.Preview))
}

// linkCommand resolves the link named in a "/cmd <url> ..." message.
// It replies to the user and returns ok=false when the link cannot be used.
func (h *Handler) linkCommand(ctx context.Context, msg *models.Message) (domain.LinkEntry, *preview.Session, string, bool) {
	cmd, target, rest := parseCommand(msg.Text)
	if target == "" {
		h.reply(ctx, msg.Chat.ID, fmt.Sprintf(usageURL, cmd))
		return domain.LinkEntry{}, nil, "", false
	}

	link, err := h.links.Get(ctx, collectionID(msg.Chat.ID), target)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.reply(ctx, msg.Chat.ID, notSaved)
		} else {
			h.log.WithError(err).WithField("command", cmd).Error("Failed to load link")
			h.reply(ctx, msg.Chat.ID, genericErr)
		}
		return domain.LinkEntry{}, nil, "", false
	}

	s, err := h.session(msg.Chat.ID)
	if err != nil {
		h.log.WithError(err).Error("Failed to open session")
		h.reply(ctx, msg.Chat.ID, genericErr)
		return domain.LinkEntry{}, nil, "", false
	}
	return link, s, rest, true
}

func (h *Handler) refetchHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	link, s, _, ok := h.linkCommand(ctx, msg)
	if !ok {
		return
	}
	rec := h.resolver.Refetch(ctx, s, link)
	h.reply(ctx, msg.Chat.ID, formatPreview(rec))
}

func (h *Handler) retryHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	link, s, _, ok := h.linkCommand(ctx, msg)
	if !ok {
		return
	}
	h.reply(ctx, msg.Chat.ID, "Retrying...")
	rec := h.resolver.Retry(ctx, s, link)
	if rec.Title == "" {
		return
	}
	h.reply(ctx, msg.Chat.ID, formatPreview(rec))
}

func (h *Handler) titleHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	link, s, title, ok := h.linkCommand(ctx, msg)
	if !ok {
		return
	}

	link, err := h.links.SetCustomTitle(ctx, collectionID(msg.Chat.ID), link.URL, title)
	if err != nil {
		h.log.WithError(err).Error("Failed to save custom title")
		h.reply(ctx, msg.Chat.ID, genericErr)
		return
	}

	custom, isCustom := link.UserTitle()
	if !isCustom {
		rec := h.resolver.Refetch(ctx, s, link)
		h.reply(ctx, msg.Chat.ID, "Title reset.\n\n"+formatPreview(rec))
		return
	}
	rec := h.resolver.SaveCustomPreview(ctx, s, link, custom, "")
	h.reply(ctx, msg.Chat.ID, "Title updated.\n\n"+formatPreview(rec))
}

func (h *Handler) favoriteHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	_, target, _ := parseCommand(msg.Text)
	link, err := h.links.ToggleFavorite(ctx, collectionID(msg.Chat.ID), target)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.reply(ctx, msg.Chat.ID, notSaved)
	case err != nil:
		h.log.WithError(err).Error("Failed to toggle favorite")
		h.reply(ctx, msg.Chat.ID, genericErr)
	case link.IsFavorite:
		h.reply(ctx, msg.Chat.ID, "★ Added to favorites: "+link.URL)
	default:
		h.reply(ctx, msg.Chat.ID, "Removed from favorites: "+link.URL)
	}
}

func (h *Handler) removeHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := message(update)
	if msg == nil {
		return
	}
	link, s, _, ok := h.linkCommand(ctx, msg)
	if !ok {
		return
	}
	if err := h.links.Delete(ctx, collectionID(msg.Chat.ID), link.URL); err != nil {
		h.log.WithError(err).Error("Failed to delete link")
		h.reply(ctx, msg.Chat.ID, genericErr)
		return
	}
	s.Forget(link.URL)
	h.reply(ctx, msg.Chat.ID, "Removed: "+link.URL)
}

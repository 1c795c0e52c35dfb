package telegram

import (
	"context"
	"errors"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":    r.handleStartCommand,
		"help":     r.handleHelpCommand,
		"events":   r.handleEventsCommand,
		"timezone": r.handleTimezoneCommand,
		"settings": r.handleSettingsCommand,

		"stats": r.adminOnly(r.handleStatsCommand),
	}
}

func (r *RealTelegramBotAdapter) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if _, isAdmin := r.adminIDsMap[message.From.ID]; !isAdmin {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: message.Chat.ID,
				Text:   r.translator.T("admin_only"),
			})
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// handleStartCommand registers the sender and greets them with the menu.
func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	if _, err := r.facade.UserUC.RegisterOrFetch(ctx, message.From.ID, message.From.UserName); err != nil {
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("registration failed")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("processing_error"),
		})
	}

	_, isAdmin := r.adminIDsMap[message.From.ID]
	if err := r.SetMenuCommands(ctx, message.Chat.ID, isAdmin); err != nil {
		// Log the error but don't block the user
		r.log.Warn().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set dynamic menu commands")
	}

	name := message.From.FirstName
	if name == "" {
		name = message.From.UserName
	}
	if name == "" {
		name = "there"
	}
	return r.sendMainMenu(ctx, message.Chat.ID, r.translator.T("start_greeting", html.EscapeString(name)))
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: message.Chat.ID,
		Text:   r.translator.T("help_text"),
	})
}

func (r *RealTelegramBotAdapter) handleEventsCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendEventsList(ctx, message.Chat.ID, message.From.ID)
}

// handleTimezoneCommand accepts "/timezone Europe/Berlin" directly and falls
// back to the interactive menu when no argument is given.
func (r *RealTelegramBotAdapter) handleTimezoneCommand(ctx context.Context, message *tgbotapi.Message) error {
	zone := strings.TrimSpace(message.CommandArguments())
	if zone == "" {
		return r.sendTimezoneMenu(ctx, message.Chat.ID, message.From.ID)
	}

	user, err := r.facade.UserUC.SetTimezone(ctx, message.From.ID, zone)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTimezone) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: message.Chat.ID,
				Text:   r.translator.T("timezone_invalid"),
			})
		}
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set timezone")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("processing_error"),
		})
	}

	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    message.Chat.ID,
		Text:      r.translator.T("timezone_updated", user.Timezone),
		ParseMode: tgbotapi.ModeHTML,
	})
}

// handleTimezoneInput consumes the free-text reply armed by the timezone
// menu. Invalid names keep the step active so the user can try again.
func (r *RealTelegramBotAdapter) handleTimezoneInput(ctx context.Context, message *tgbotapi.Message, text string) error {
	user, err := r.facade.UserUC.SetTimezone(ctx, message.From.ID, text)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTimezone) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: message.Chat.ID,
				Text:   r.translator.T("timezone_invalid"),
			})
		}
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("failed to set timezone")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("processing_error"),
		})
	}

	if err := r.facade.UserUC.ClearConversationState(ctx, message.From.ID); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", message.From.ID).Msg("failed to clear timezone step")
	}
	return r.sendMainMenu(ctx, message.Chat.ID, r.translator.T("timezone_updated", user.Timezone))
}

func (r *RealTelegramBotAdapter) handleSettingsCommand(ctx context.Context, message *tgbotapi.Message) error {
	user, err := r.facade.UserUC.RegisterOrFetch(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", message.From.ID).Msg("failed to load settings")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("processing_error"),
		})
	}
	return r.sendSettingsFor(ctx, message.Chat.ID, user)
}

// handleStatsCommand reports aggregate usage, admins only.
func (r *RealTelegramBotAdapter) handleStatsCommand(ctx context.Context, message *tgbotapi.Message) error {
	totals, err := r.facade.StatsUC.Totals(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to collect stats")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: message.Chat.ID,
			Text:   r.translator.T("processing_error"),
		})
	}

	text := r.translator.T("admin_stats",
		totals.Users,
		totals.ActiveUsers24h,
		totals.Events,
		totals.EventsCreated7d,
		totals.PendingReminders,
	)
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:    message.Chat.ID,
		Text:      text,
		ParseMode: tgbotapi.ModeHTML,
	})
}

package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/infra/calendar"
	"telegram-event-bot/internal/infra/metrics"
)

type cbHandler func(ctx context.Context, chatID int64, data string) error
type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:menu":     r.menuCBRoute,
		"cmd:events":   r.eventsCBRoute,
		"cmd:tz":       r.timezoneCBRoute,
		"cmd:settings": r.settingsCBRoute,
		"cmd:help":     r.helpCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: "ev:view:",
			Fn:     r.viewEventPrefixCBRoute,
		},
		{
			Prefix: "ev:ics:",
			Fn:     r.icsPrefixCBRoute,
		},
		{
			Prefix: "ev:del:",
			Fn:     r.deleteEventPrefixCBRoute,
		},
		{
			Prefix: "tz:set:",
			Fn:     r.setTimezonePrefixCBRoute,
		},
		{
			Prefix: "privacy:",
			Fn:     r.privacyCBRoute,
		},
	}
}

func (r *RealTelegramBotAdapter) menuCBRoute(ctx context.Context, id int64, _ string) error {
	return r.sendMainMenu(ctx, id, r.translator.T("menu_text"))
}

func (r *RealTelegramBotAdapter) eventsCBRoute(ctx context.Context, id int64, _ string) error {
	return r.sendEventsList(ctx, id, id)
}

func (r *RealTelegramBotAdapter) timezoneCBRoute(ctx context.Context, id int64, _ string) error {
	return r.sendTimezoneMenu(ctx, id, id)
}

func (r *RealTelegramBotAdapter) settingsCBRoute(ctx context.Context, id int64, _ string) error {
	user, err := r.facade.UserUC.GetByTelegramID(ctx, id)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", id).Msg("failed to load settings")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("processing_error"),
		})
	}
	return r.sendSettingsFor(ctx, id, user)
}

func (r *RealTelegramBotAdapter) helpCBRoute(ctx context.Context, id int64, _ string) error {
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: id,
		Text:   r.translator.T("help_text"),
	})
}

// viewEventPrefixCBRoute shows one event with its calendar export buttons.
func (r *RealTelegramBotAdapter) viewEventPrefixCBRoute(ctx context.Context, id int64, data string) error {
	eventID := strings.TrimPrefix(data, "ev:view:")

	user, ev, err := r.facade.EventDetail(ctx, id, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: id,
				Text:   r.translator.T("event_not_found"),
			})
		}
		r.log.Error().Err(err).Str("event_id", eventID).Msg("failed to load event")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("processing_error"),
		})
	}

	loc := ev.Local(user.Location(r.defaultLoc))
	text := r.renderEventSummary(ev, loc, false) + "\n\n" + r.translator.T("add_to_calendar_header")

	link := calendar.GoogleLink(ev, loc)
	metrics.IncCalendarArtifact("google_link")

	markup := adapter.ReplyMarkup{
		Buttons: [][]adapter.Button{
			{{Text: r.translator.T("button_google_calendar"), URL: link}},
			{{Text: r.translator.T("button_ics_file"), Data: "ev:ics:" + ev.ID}},
			{{Text: r.translator.T("button_delete_event"), Data: "ev:del:" + ev.ID}},
			{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}},
		},
		IsInline: true,
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:                id,
		Text:                  text,
		ParseMode:             tgbotapi.ModeHTML,
		ReplyMarkup:           &markup,
		DisableWebPagePreview: true,
	})
}

// icsPrefixCBRoute sends the event as a downloadable .ics document.
func (r *RealTelegramBotAdapter) icsPrefixCBRoute(ctx context.Context, id int64, data string) error {
	eventID := strings.TrimPrefix(data, "ev:ics:")

	_, ev, err := r.facade.EventDetail(ctx, id, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: id,
				Text:   r.translator.T("event_not_found"),
			})
		}
		r.log.Error().Err(err).Str("event_id", eventID).Msg("failed to load event for export")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("link_failed"),
		})
	}

	metrics.IncCalendarArtifact("ics")
	return r.SendDocument(ctx, adapter.SendDocumentParams{
		ChatID:   id,
		Filename: calendar.Filename(ev),
		Data:     calendar.ICS(ev),
		Caption:  r.translator.T("ics_caption", ev.Title),
	})
}

func (r *RealTelegramBotAdapter) deleteEventPrefixCBRoute(ctx context.Context, id int64, data string) error {
	eventID := strings.TrimPrefix(data, "ev:del:")

	if err := r.facade.DiscardEvent(ctx, id, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEventNotEditable) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: id,
				Text:   r.translator.T("event_not_found"),
			})
		}
		r.log.Error().Err(err).Str("event_id", eventID).Msg("failed to delete event")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("processing_error"),
		})
	}

	if err := r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID: id,
		Text:   r.translator.T("event_deleted"),
	}); err != nil {
		return err
	}
	// Refresh the listing so the removed event disappears right away.
	return r.sendEventsList(ctx, id, id)
}

func (r *RealTelegramBotAdapter) setTimezonePrefixCBRoute(ctx context.Context, id int64, data string) error {
	zone := strings.TrimPrefix(data, "tz:set:")

	user, err := r.facade.UserUC.SetTimezone(ctx, id, zone)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTimezone) {
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: id,
				Text:   r.translator.T("timezone_invalid"),
			})
		}
		r.log.Error().Err(err).Int64("tg_id", id).Str("zone", zone).Msg("failed to set timezone")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("processing_error"),
		})
	}

	if err := r.facade.UserUC.ClearConversationState(ctx, id); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", id).Msg("failed to clear timezone step")
	}
	return r.sendMainMenu(ctx, id, r.translator.T("timezone_updated", user.Timezone))
}

// privacyCBRoute handles the settings card actions.
func (r *RealTelegramBotAdapter) privacyCBRoute(ctx context.Context, id int64, data string) error {
	action := strings.TrimPrefix(data, "privacy:")

	switch action {
	case "toggle_storage":
		user, err := r.facade.UserUC.ToggleSourceStorage(ctx, id)
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", id).Msg("failed to toggle source storage")
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: id,
				Text:   r.translator.T("processing_error"),
			})
		}
		note := r.translator.T("privacy_storage_off")
		if user.Privacy.AllowSourceStorage {
			note = r.translator.T("privacy_storage_on")
		}
		if err := r.SendMessage(ctx, adapter.SendMessageParams{ChatID: id, Text: note}); err != nil {
			return err
		}
		return r.sendSettingsFor(ctx, id, user)

	case "policy":
		markup := adapter.ReplyMarkup{
			Buttons:  [][]adapter.Button{{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}}},
			IsInline: true,
		}
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:      id,
			Text:        r.translator.Policy(),
			ReplyMarkup: &markup,
		})

	default:
		r.log.Warn().Int64("tg_id", id).Str("action", action).Msg("unknown privacy callback action")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: id,
			Text:   r.translator.T("processing_error"),
		})
	}
}

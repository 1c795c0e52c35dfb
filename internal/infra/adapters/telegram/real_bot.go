package telegram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-event-bot/internal/application"
	"telegram-event-bot/internal/config"
	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/calendar"
	"telegram-event-bot/internal/infra/i18n"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/infra/metrics"
	red "telegram-event-bot/internal/infra/redis"
	"telegram-event-bot/internal/infra/worker"
	"telegram-event-bot/internal/usecase"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// Layout for event times shown to users, always in their own zone.
const eventTimeLayout = "Mon, 02 Jan 2006 15:04"

// RealTelegramBotAdapter speaks to Telegram through tgbotapi and routes every
// update to the BotFacade. It serves both long polling and webhook mode; the
// choice is made in main from cfg.Mode.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	eventsCfg   *config.EventsConfig
	facade      *application.BotFacade
	translator  *i18n.Translator
	rateLimiter *red.RateLimiter
	pool        *worker.Pool

	adminIDsMap   map[int64]struct{}
	defaultLoc    *time.Location
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

func NewRealTelegramBotAdapter(
	cfg *config.BotConfig,
	eventsCfg *config.EventsConfig,
	facade *application.BotFacade,
	translator *i18n.Translator,
	rateLimiter *red.RateLimiter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if translator == nil {
		return nil, errors.New("translator is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	defaultLoc := time.UTC
	if eventsCfg != nil && eventsCfg.DefaultTimezone != "" {
		if loc, err := time.LoadLocation(eventsCfg.DefaultTimezone); err == nil {
			defaultLoc = loc
		}
	}

	compLog := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:         bot,
		cfg:         cfg,
		eventsCfg:   eventsCfg,
		facade:      facade,
		translator:  translator,
		rateLimiter: rateLimiter,
		pool:        pool,
		adminIDsMap: adminMap,
		defaultLoc:  defaultLoc,
		log:         &compLog,
	}, nil
}

// StartPolling consumes the long-poll update stream until ctx is done. Each
// update is handed to the worker pool so one slow extraction never blocks the
// stream.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.log.Info().Str("username", r.bot.Self.UserName).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, up)
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// WebhookPath derives a stable, non-guessable path from the bot token so the
// public URL does not leak the token itself.
func (r *RealTelegramBotAdapter) WebhookPath() string {
	sum := sha256.Sum256([]byte(r.cfg.Token))
	return "/webhook/" + hex.EncodeToString(sum[:16])
}

// StartWebhook registers the webhook with Telegram. The HTTP side is served
// by the handler from WebhookHandler, mounted by the web server.
func (r *RealTelegramBotAdapter) StartWebhook(ctx context.Context) error {
	link := strings.TrimRight(r.cfg.WebhookURL, "/") + r.WebhookPath()
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := r.bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := r.bot.GetWebhookInfo()
	if err == nil && info.LastErrorDate != 0 {
		r.log.Warn().Str("last_error", info.LastErrorMessage).Msg("telegram reported webhook delivery errors")
	}
	r.log.Info().Str("url", link).Msg("telegram webhook registered")
	return nil
}

func (r *RealTelegramBotAdapter) StopWebhook() {
	if _, err := r.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		r.log.Warn().Err(err).Msg("failed to delete webhook")
	}
}

// WebhookHandler decodes update payloads POSTed by Telegram and feeds them
// into the same dispatch path polling uses.
func (r *RealTelegramBotAdapter) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		update, err := r.bot.HandleUpdate(req)
		if err != nil {
			r.log.Warn().Err(err).Msg("rejected webhook payload")
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		r.dispatch(req.Context(), *update)
		w.WriteHeader(http.StatusOK)
	})
}

// dispatch hands an update to the worker pool, falling back to inline
// handling when no pool is wired (dev mode, tests).
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) {
	task := func(taskCtx context.Context) error { return r.handleUpdate(taskCtx, up) }
	if r.pool != nil {
		if err := r.pool.Submit(task); err != nil {
			metrics.IncUpdateJob("dropped")
			r.log.Warn().Err(err).Int("update_id", up.UpdateID).Msg("update dropped")
		}
		return
	}
	if err := task(ctx); err != nil {
		r.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update failed")
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.From != nil {
			ctx = logging.WithTgID(ctx, update.CallbackQuery.From.ID)
		}
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	ctx = logging.WithTgID(ctx, msg.From.ID)

	if msg.IsCommand() {
		metrics.IncTelegramCommand("/" + msg.Command())
		if fn, ok := r.commandRoutes()[msg.Command()]; ok {
			return fn(ctx, msg)
		}
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   r.translator.T("unknown_command"),
		})
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	metrics.IncTelegramCommand("message")

	// A pending conversational step wins over extraction, so "Europe/Berlin"
	// typed after /timezone is not parsed as an event.
	if state, err := r.facade.UserUC.GetConversationState(ctx, msg.From.ID); err == nil && state != nil {
		switch state.Step {
		case usecase.StepAwaitingTimezone:
			return r.handleTimezoneInput(ctx, msg, text)
		}
	}

	return r.handleFreeText(ctx, msg, text)
}

// handleFreeText runs the extraction pipeline for a plain message and replies
// with the created event or a reason it could not be created.
func (r *RealTelegramBotAdapter) handleFreeText(ctx context.Context, msg *tgbotapi.Message, text string) error {
	tgID := msg.From.ID

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, tgID, "extract", r.cfg.RatePerMin, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			metrics.IncExtractionOutcome("rate_limited")
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: msg.Chat.ID,
				Text:   r.translator.T("rate_limited"),
			})
		}
	}

	// Extraction takes a few seconds; the typing indicator bridges that.
	_ = r.SendTyping(ctx, msg.Chat.ID)

	ev, user, err := r.facade.HandleIncomingText(ctx, tgID, msg.From.UserName, text)
	if err != nil {
		key := "processing_error"
		switch {
		case errors.Is(err, domain.ErrMessageTooLong):
			key = "message_too_long"
		case errors.Is(err, domain.ErrNoEventTime), errors.Is(err, domain.ErrExtractionFailed):
			key = "extract_failed"
		default:
			logging.With(ctx, r.log).Error().Err(err).Msg("incoming text failed")
		}
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   r.translator.T(key),
		})
	}

	return r.sendEventCreated(ctx, msg.Chat.ID, user, ev)
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop the telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)

	if r.rateLimiter != nil {
		if allowed, err := r.rateLimiter.Allow(ctx, chatID, "callback", 30, time.Minute); err == nil && !allowed {
			metrics.IncRateLimitTriggered()
			return r.SendMessage(ctx, adapter.SendMessageParams{
				ChatID: chatID,
				Text:   r.translator.T("rate_limited"),
			})
		}
	}

	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, pr := range r.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, chatID, data)
		}
	}
	r.log.Warn().Str("data", data).Msg("unknown callback data")
	return errors.New("unknown callback data")
}

// ---- adapter port implementation ----

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	if params.ParseMode != "" {
		msg.ParseMode = params.ParseMode
	}
	msg.DisableWebPagePreview = params.DisableWebPagePreview
	if params.ReplyMarkup != nil {
		msg.ReplyMarkup = buildMarkup(params.ReplyMarkup)
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendDocument(ctx context.Context, params adapter.SendDocumentParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	doc := tgbotapi.NewDocument(params.ChatID, tgbotapi.FileBytes{
		Name:  params.Filename,
		Bytes: params.Data,
	})
	if params.Caption != "" {
		doc.Caption = params.Caption
	}
	_, err := r.bot.Send(doc)
	return err
}

func (r *RealTelegramBotAdapter) SendTyping(ctx context.Context, chatID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// SetMenuCommands installs the command menu for one chat. Admin chats get the
// /stats entry on top of the regular set.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cmds := []tgbotapi.BotCommand{
		{Command: "start", Description: "Show the welcome message"},
		{Command: "events", Description: "List your upcoming events"},
		{Command: "timezone", Description: "Set your timezone"},
		{Command: "settings", Description: "Privacy and storage settings"},
		{Command: "help", Description: "How to use the bot"},
	}
	if isAdmin {
		cmds = append(cmds, tgbotapi.BotCommand{Command: "stats", Description: "Bot statistics"})
	}

	scoped := tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeChat(chatID), cmds...)
	_, err := r.bot.Request(scoped)
	return err
}

// ---- rendering helpers ----

// buildMarkup converts the transport-neutral markup into tgbotapi's types.
func buildMarkup(m *adapter.ReplyMarkup) interface{} {
	if m.IsInline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Buttons))
		for _, row := range m.Buttons {
			if len(row) == 0 {
				continue
			}
			btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				label := strings.TrimSpace(btn.Text)
				if label == "" {
					label = "•"
				}
				switch {
				case btn.URL != "":
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
				case btn.Data != "":
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
				default:
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(label, label))
				}
			}
			rows = append(rows, btns)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(m.Buttons))
	for _, row := range m.Buttons {
		btns := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewKeyboardButton(btn.Text))
		}
		rows = append(rows, btns)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// sendEventCreated confirms a fresh event with its details, a Google Calendar
// link and the .ics file as a follow-up document.
func (r *RealTelegramBotAdapter) sendEventCreated(ctx context.Context, chatID int64, user *model.User, ev *model.CalendarEvent) error {
	loc := ev.Local(user.Location(r.defaultLoc))

	text := r.renderEventSummary(ev, loc, true) + "\n\n" + r.translator.T("add_to_calendar_header")

	link := calendar.GoogleLink(ev, loc)
	metrics.IncCalendarArtifact("google_link")

	markup := adapter.ReplyMarkup{
		Buttons: [][]adapter.Button{
			{{Text: r.translator.T("button_google_calendar"), URL: link}},
			{{Text: r.translator.T("button_delete_event"), Data: "ev:del:" + ev.ID}},
			{{Text: r.translator.T("button_my_events"), Data: "cmd:events"}},
		},
		IsInline: true,
	}
	if err := r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             tgbotapi.ModeHTML,
		ReplyMarkup:           &markup,
		DisableWebPagePreview: true,
	}); err != nil {
		return err
	}

	metrics.IncCalendarArtifact("ics")
	return r.SendDocument(ctx, adapter.SendDocumentParams{
		ChatID:   chatID,
		Filename: calendar.Filename(ev),
		Data:     calendar.ICS(ev),
		Caption:  r.translator.T("ics_caption", ev.Title),
	})
}

// renderEventSummary builds the HTML block describing an event. The created
// flag switches between the confirmation header and the plain detail header.
func (r *RealTelegramBotAdapter) renderEventSummary(ev *model.CalendarEvent, loc *time.Location, created bool) string {
	start := ev.StartAt.In(loc)
	end := ev.EndAt.In(loc)
	title := html.EscapeString(ev.Title)

	var b strings.Builder
	if created {
		b.WriteString(r.translator.T("event_created", title))
	} else {
		b.WriteString(r.translator.T("event_detail", title))
	}
	b.WriteString("\n")
	b.WriteString(r.translator.T("event_start", start.Format(eventTimeLayout), start.Format("MST")))
	b.WriteString("\n")
	b.WriteString(r.translator.T("event_end", end.Format(eventTimeLayout), end.Format("MST")))
	if ev.Location != "" {
		b.WriteString("\n")
		b.WriteString(r.translator.T("event_location", html.EscapeString(ev.Location)))
	}
	if ev.ReminderMinutes > 0 {
		b.WriteString("\n")
		switch {
		case ev.ReminderMinutes == 60:
			b.WriteString(r.translator.T("reminder_one_hour"))
		case ev.ReminderMinutes%60 == 0:
			b.WriteString(r.translator.T("reminder_hours", ev.ReminderMinutes/60))
		default:
			b.WriteString(r.translator.T("reminder_minutes", ev.ReminderMinutes))
		}
	}
	return b.String()
}

// sendMainMenu shows the main actions as inline buttons under intro.
func (r *RealTelegramBotAdapter) sendMainMenu(ctx context.Context, chatID int64, intro string) error {
	if strings.TrimSpace(intro) == "" {
		intro = r.translator.T("menu_text")
	}
	markup := adapter.ReplyMarkup{
		Buttons: [][]adapter.Button{
			{{Text: r.translator.T("button_my_events"), Data: "cmd:events"}},
			{{Text: r.translator.T("button_timezone"), Data: "cmd:tz"}},
			{{Text: r.translator.T("button_settings"), Data: "cmd:settings"}},
			{{Text: r.translator.T("button_help"), Data: "cmd:help"}},
		},
		IsInline: true,
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        intro,
		ParseMode:   tgbotapi.ModeHTML,
		ReplyMarkup: &markup,
	})
}

// sendEventsList renders the user's upcoming events with per-event detail and
// delete buttons.
func (r *RealTelegramBotAdapter) sendEventsList(ctx context.Context, chatID, tgID int64) error {
	limit := 10
	if r.eventsCfg != nil && r.eventsCfg.ListLimit > 0 {
		limit = r.eventsCfg.ListLimit
	}

	user, events, err := r.facade.UpcomingEvents(ctx, tgID, limit)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to list events")
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID: chatID,
			Text:   r.translator.T("processing_error"),
		})
	}

	if len(events) == 0 {
		markup := adapter.ReplyMarkup{
			Buttons:  [][]adapter.Button{{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}}},
			IsInline: true,
		}
		return r.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:      chatID,
			Text:        r.translator.T("events_empty"),
			ReplyMarkup: &markup,
		})
	}

	userLoc := user.Location(r.defaultLoc)
	var b strings.Builder
	b.WriteString(r.translator.T("events_header"))

	rows := make([][]adapter.Button, 0, len(events)+1)
	for i, ev := range events {
		start := ev.StartAt.In(ev.Local(userLoc))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%d) <b>%s</b> (%s)", i+1, html.EscapeString(ev.Title), start.Format(eventTimeLayout)))

		rows = append(rows, []adapter.Button{
			{Text: buttonLabel(fmt.Sprintf("%d) %s", i+1, ev.Title)), Data: "ev:view:" + ev.ID},
			{Text: r.translator.T("button_delete_event"), Data: "ev:del:" + ev.ID},
		})
	}
	rows = append(rows, []adapter.Button{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}})

	markup := adapter.ReplyMarkup{Buttons: rows, IsInline: true}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        b.String(),
		ParseMode:   tgbotapi.ModeHTML,
		ReplyMarkup: &markup,
	})
}

// Zones offered as quick picks under /timezone. Free-text IANA names are
// accepted as well.
var commonZones = []string{
	"Asia/Jerusalem",
	"Europe/London",
	"Europe/Berlin",
	"America/New_York",
	"America/Los_Angeles",
}

// sendTimezoneMenu shows the current zone, quick-pick buttons and arms the
// conversational step that accepts a typed IANA name.
func (r *RealTelegramBotAdapter) sendTimezoneMenu(ctx context.Context, chatID, tgID int64) error {
	zone := ""
	if r.eventsCfg != nil {
		zone = r.eventsCfg.DefaultTimezone
	}
	if user, err := r.facade.UserUC.GetByTelegramID(ctx, tgID); err == nil && user.Timezone != "" {
		zone = user.Timezone
	}

	state := &repository.ConversationState{Step: usecase.StepAwaitingTimezone}
	if err := r.facade.UserUC.SetConversationState(ctx, tgID, state); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to arm timezone step")
	}

	rows := make([][]adapter.Button, 0, len(commonZones)+1)
	for _, z := range commonZones {
		rows = append(rows, []adapter.Button{{Text: z, Data: "tz:set:" + z}})
	}
	rows = append(rows, []adapter.Button{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}})

	text := r.translator.T("timezone_current", zone) + "\n\n" + r.translator.T("timezone_prompt")
	markup := adapter.ReplyMarkup{Buttons: rows, IsInline: true}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   tgbotapi.ModeHTML,
		ReplyMarkup: &markup,
	})
}

// sendSettingsFor renders the settings card for an already resolved user.
func (r *RealTelegramBotAdapter) sendSettingsFor(ctx context.Context, chatID int64, user *model.User) error {
	storage := r.translator.T("storage_disabled")
	if user.Privacy.AllowSourceStorage {
		storage = r.translator.T("storage_enabled")
	}
	zone := user.Timezone
	if zone == "" && r.eventsCfg != nil {
		zone = r.eventsCfg.DefaultTimezone
	}

	markup := adapter.ReplyMarkup{
		Buttons: [][]adapter.Button{
			{{Text: r.translator.T("button_toggle_storage"), Data: "privacy:toggle_storage"}},
			{{Text: r.translator.T("button_privacy_policy"), Data: "privacy:policy"}},
			{{Text: r.translator.T("back_to_menu"), Data: "cmd:menu"}},
		},
		IsInline: true,
	}
	return r.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:      chatID,
		Text:        r.translator.T("settings_text", storage, zone),
		ParseMode:   tgbotapi.ModeHTML,
		ReplyMarkup: &markup,
	})
}

func buttonLabel(s string) string {
	const max = 32
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"telegram-event-bot/internal/config"
	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/domain/ports/repository"
	infraai "telegram-event-bot/internal/infra/adapters/ai"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/infra/metrics"
	"telegram-event-bot/internal/infra/security"
	"telegram-event-bot/internal/infra/timeparse"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ EventUseCase = (*eventUC)(nil)

// EventUseCase turns free-text messages into stored calendar events and
// serves the read/cancel paths built on top of them.
type EventUseCase interface {
	// ParseAndCreate runs the full extraction pipeline: prompt the language
	// model, decode its JSON draft, resolve the time expressions in the
	// user's zone and persist the resulting event.
	ParseAndCreate(ctx context.Context, user *model.User, messageText string) (*model.CalendarEvent, error)

	ListUpcoming(ctx context.Context, userID string, limit int) ([]*model.CalendarEvent, error)

	// Get returns one of the user's events with the source text decrypted,
	// ready for rendering. Foreign events come back as domain.ErrNotFound.
	Get(ctx context.Context, userID, eventID string) (*model.CalendarEvent, error)

	// Discard cancels an event so it disappears from listings and reminder
	// sweeps.
	Discard(ctx context.Context, userID, eventID string) error

	// PurgeExpired removes finished events for users who opted into
	// auto-deletion and reports how many rows went away.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type eventUC struct {
	events   repository.EventRepository
	ai       adapter.AIServiceAdapter
	resolver *timeparse.Resolver
	enc      *security.EncryptionService // nil when no encryption key is configured
	tm       repository.TransactionManager
	aiCfg    *config.AIConfig
	defZone  string
	defLoc   *time.Location
	listCap  int
	log      *zerolog.Logger
}

func NewEventUseCase(
	events repository.EventRepository,
	aiSvc adapter.AIServiceAdapter,
	resolver *timeparse.Resolver,
	enc *security.EncryptionService,
	tm repository.TransactionManager,
	aiCfg *config.AIConfig,
	eventsCfg *config.EventsConfig,
	logger *zerolog.Logger,
) *eventUC {
	loc, err := time.LoadLocation(eventsCfg.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &eventUC{
		events:   events,
		ai:       aiSvc,
		resolver: resolver,
		enc:      enc,
		tm:       tm,
		aiCfg:    aiCfg,
		defZone:  eventsCfg.DefaultTimezone,
		defLoc:   loc,
		listCap:  eventsCfg.ListLimit,
		log:      logger,
	}
}

func (u *eventUC) ParseAndCreate(ctx context.Context, user *model.User, messageText string) (*model.CalendarEvent, error) {
	defer logging.TraceDuration(u.log, "EventUC.ParseAndCreate")()

	text := strings.TrimSpace(messageText)
	if user == nil || text == "" {
		return nil, domain.ErrInvalidArgument
	}

	zone := user.Timezone
	if zone == "" {
		zone = u.defZone
	}
	loc := user.Location(u.defLoc)
	now := time.Now().In(loc)

	prompt := buildExtractionPrompt(text, now, zone)
	modelName := u.aiCfg.DefaultModel
	provider := infraai.ProviderForModel(modelName, "gemini")

	if tokens, err := u.ai.CountTokens(ctx, modelName, prompt); err != nil {
		u.log.Warn().Err(err).Str("model", modelName).Msg("token precheck unavailable, sending anyway")
	} else if tokens > u.aiCfg.MaxPromptTokens {
		metrics.PrecheckBlocked(provider, modelName)
		metrics.IncExtractionOutcome("too_long")
		return nil, domain.ErrMessageTooLong
	}

	started := time.Now()
	raw, usage, err := u.ai.ExtractJSON(ctx, modelName, prompt)
	latencyMs := int(time.Since(started).Milliseconds())
	metrics.ObserveExtractionUsage(provider, modelName,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, latencyMs, err == nil)
	if err != nil {
		u.log.Error().Err(err).Str("model", modelName).Msg("extraction call failed")
		metrics.IncExtractionOutcome("extraction_failed")
		return nil, domain.ErrExtractionFailed
	}

	var draft model.EventDraft
	if err := json.Unmarshal([]byte(stripFences(raw)), &draft); err != nil {
		u.log.Error().Err(err).Str("model", modelName).Str("payload", truncate(raw, 256)).Msg("model returned non-JSON payload")
		metrics.IncExtractionOutcome("extraction_failed")
		return nil, domain.ErrExtractionFailed
	}

	if !draft.HasStart() {
		metrics.IncExtractionOutcome("no_time")
		return nil, domain.ErrNoEventTime
	}
	startAt, err := u.resolver.ResolveInstant(draft.StartTimeText, now, loc)
	if err != nil {
		u.log.Debug().Err(err).Str("start", draft.StartTimeText).Msg("unresolvable start time")
		metrics.IncExtractionOutcome("no_time")
		return nil, domain.ErrNoEventTime
	}

	var endAt time.Time
	if draft.HasEnd() {
		if e, err := u.resolver.ResolveInstant(draft.EndTimeText, now, loc); err == nil {
			endAt = timeparse.AlignEnd(startAt, e)
		} else {
			u.log.Debug().Err(err).Str("end", draft.EndTimeText).Msg("unresolvable end time, falling back to duration/default")
		}
	}
	if endAt.IsZero() && draft.HasDuration() {
		if d, ok := timeparse.ParseDurationText(draft.DurationText); ok {
			endAt = startAt.Add(d)
		}
	}

	ev, err := model.NewCalendarEvent("", user.ID, draft.Title, startAt, endAt, zone)
	if err != nil {
		return nil, err
	}
	ev.Location = strings.TrimSpace(draft.Location)
	if draft.ReminderMinutes > 0 {
		ev.SetReminder(draft.ReminderMinutes)
	}

	if user.Privacy.ShouldStoreSource() {
		ev.SourceText = text
		if u.enc != nil {
			ct, err := u.enc.Encrypt(text)
			if err != nil {
				u.log.Warn().Err(err).Msg("source encryption failed, storing plaintext")
			} else {
				ev.SourceText = ct
			}
		}
	}

	ctx = logging.WithEventID(ctx, ev.ID)
	if err := u.events.Save(ctx, repository.NoTX, ev); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}

	metrics.IncExtractionOutcome("created")
	logging.With(ctx, u.log).Info().
		Time("start_at", ev.StartAt).
		Int("reminder_min", ev.ReminderMinutes).
		Msg("event created")
	return ev, nil
}

func (u *eventUC) ListUpcoming(ctx context.Context, userID string, limit int) ([]*model.CalendarEvent, error) {
	defer logging.TraceDuration(u.log, "EventUC.ListUpcoming")()
	if limit <= 0 || limit > u.listCap {
		limit = u.listCap
	}
	return u.events.FindUpcomingByUser(ctx, repository.NoTX, userID, time.Now(), limit)
}

func (u *eventUC) Get(ctx context.Context, userID, eventID string) (*model.CalendarEvent, error) {
	defer logging.TraceDuration(u.log, "EventUC.Get")()

	ev, err := u.events.FindByID(ctx, repository.NoTX, eventID)
	if err != nil {
		return nil, err
	}
	if ev.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if ev.SourceText != "" && u.enc != nil {
		if pt, err := u.enc.Decrypt(ev.SourceText); err == nil {
			ev.SourceText = pt
		}
		// Rows written before encryption was enabled stay readable as-is.
	}
	return ev, nil
}

func (u *eventUC) Discard(ctx context.Context, userID, eventID string) error {
	defer logging.TraceDuration(u.log, "EventUC.Discard")()

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ev, err := u.events.FindByID(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if ev.UserID != userID {
			return domain.ErrNotFound
		}
		if err := ev.Cancel(); err != nil {
			return err
		}
		return u.events.UpdateStatus(ctx, tx, ev.ID, model.EventStatusCanceled)
	})
}

func (u *eventUC) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	defer logging.TraceDuration(u.log, "EventUC.PurgeExpired")()

	n, err := u.events.DeleteExpired(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddEventsPurged(n)
		u.log.Info().Int64("events", n).Msg("purged expired events")
	}
	return n, nil
}

// buildExtractionPrompt asks the model for a strict JSON draft. The wording
// keeps the model out of date arithmetic: relative expressions pass through
// verbatim and are resolved locally against the user's zone.
func buildExtractionPrompt(text string, now time.Time, zone string) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant that extracts event details from user messages.\n")
	b.WriteString("Analyze the following user message and extract information to create a calendar event.\n")
	fmt.Fprintf(&b, "All times should be interpreted as local time in the %q time zone.\n", zone)
	fmt.Fprintf(&b, "For reference, the user's current local date and time is %s.\n\n", now.Format("Monday, 02 January 2006 15:04"))
	b.WriteString("Provide the output strictly as a JSON object with the following keys:\n")
	b.WriteString("- \"title\": string (The main subject or name of the event. Be concise.)\n")
	b.WriteString("- \"start_time_str\": string (The start date and time, e.g., \"tomorrow 3 PM\", \"July 20th 10am\", \"2024-12-25 17:00\". If a year is not specified, assume the current year or next year if the date has passed.)\n")
	b.WriteString("- \"end_time_str\": string (The end date and time. If only a duration is given (e.g., \"for 1 hour\"), calculate and provide this. If not specified and no duration, set to null.)\n")
	b.WriteString("- \"duration_str\": string (The duration of the event, e.g., \"1 hour\", \"30 minutes\". If an explicit end_time_str is found, this can be null or you can calculate it.)\n")
	b.WriteString("- \"location\": string (The physical location of the event. Set to null if not mentioned.)\n")
	b.WriteString("- \"reminder\": integer (Minutes before the event to send a reminder. Look for phrases like \"remind me 10 minutes before\", \"with a reminder 30 minutes before\", etc. If not specified, set to null.)\n")
	fmt.Fprintf(&b, "- \"timezone\": %q (Always use this time zone)\n\n", zone)
	b.WriteString("Important rules:\n")
	b.WriteString("1. Only output the JSON object. Do not include any explanatory text before or after the JSON.\n")
	b.WriteString("2. If a piece of information is not found, use null for its value in the JSON (e.g., \"location\": null).\n")
	b.WriteString("3. If only a start time is given and no explicit end time or duration, assume a 1-hour duration and calculate \"end_time_str\" accordingly. \"duration_str\" should then be \"1 hour\".\n")
	b.WriteString("4. If a start time and a duration are given (e.g., \"meeting tomorrow 2pm for 2 hours\"), calculate \"end_time_str\".\n")
	b.WriteString("5. Be precise with date and time strings. Try to include AM/PM or use 24-hour format if it's clear from the input.\n")
	fmt.Fprintf(&b, "6. Always treat times as local time in the %q time zone.\n", zone)
	b.WriteString("7. Dates written with slashes or dots are day-first: \"04/05/2026\" and \"04.05.26\" both mean the 4th of May. Keep them in that form.\n")
	b.WriteString("8. Keep relative expressions such as \"tomorrow\" or \"next Monday\" as-is in \"start_time_str\"; do not resolve them yourself.\n\n")
	fmt.Fprintf(&b, "User message: %q\n\n", text)
	b.WriteString("JSON Output:")
	return b.String()
}

// stripFences peels a markdown code fence off a model reply, tolerating an
// optional language tag after the opening backticks.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(s, "{") {
		s = s[i+1:] // drop the "json" language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/i18n"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func now() time.Time { return time.Now().Truncate(time.Millisecond) }

// =============================
// Adapters
// =============================

// ---- Mock TelegramBotAdapter ----

type MockTelegramBot struct {
	mu       sync.Mutex
	Sent     []adapter.SendMessageParams  // capture all sent message parameters
	SentDocs []adapter.SendDocumentParams // capture all sent documents
	Typing   []int64                      // chat ids that saw a typing action

	SendMessageFunc     func(ctx context.Context, params adapter.SendMessageParams) error
	SendDocumentFunc    func(ctx context.Context, params adapter.SendDocumentParams) error
	SendTypingFunc      func(ctx context.Context, chatID int64) error
	SetMenuCommandsFunc func(ctx context.Context, chatID int64, isAdmin bool) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, params)
	return nil
}

func (m *MockTelegramBot) SendDocument(ctx context.Context, params adapter.SendDocumentParams) error {
	if m.SendDocumentFunc != nil {
		return m.SendDocumentFunc(ctx, params)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentDocs = append(m.SentDocs, params)
	return nil
}

func (m *MockTelegramBot) SendTyping(ctx context.Context, chatID int64) error {
	if m.SendTypingFunc != nil {
		return m.SendTypingFunc(ctx, chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Typing = append(m.Typing, chatID)
	return nil
}

func (m *MockTelegramBot) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	if m.SetMenuCommandsFunc != nil {
		return m.SetMenuCommandsFunc(ctx, chatID, isAdmin)
	}
	return nil
}

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu sync.Mutex

	// configurable behavior
	ListModelsFunc   func(ctx context.Context) ([]string, error)
	GetModelInfoFunc func(modelName string) (adapter.ModelInfo, error)
	CountTokensFunc  func(ctx context.Context, model, text string) (int, error)
	ExtractJSONFunc  func(ctx context.Context, model, prompt string) (string, adapter.Usage, error)

	// tracing of invocations
	Calls struct {
		ListModels int
		ModelInfo  []string
		Count      []struct {
			Model string
			N     int
		}
		Extract []string // prompts, in call order
	}
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) ListModels(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	m.Calls.ListModels++
	m.mu.Unlock()
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []string{"gemini-1.5-flash-latest", "gpt-4o-mini"}, nil
}

func (m *MockAI) GetModelInfo(modelName string) (adapter.ModelInfo, error) {
	m.mu.Lock()
	m.Calls.ModelInfo = append(m.Calls.ModelInfo, modelName)
	m.mu.Unlock()
	if m.GetModelInfoFunc != nil {
		return m.GetModelInfoFunc(modelName)
	}
	return adapter.ModelInfo{Name: modelName, MaxTokens: 0}, nil
}

func (m *MockAI) CountTokens(ctx context.Context, modelName, text string) (int, error) {
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(ctx, modelName, text)
	}
	n := len(text) / 4 // dumb baseline
	m.mu.Lock()
	m.Calls.Count = append(m.Calls.Count, struct {
		Model string
		N     int
	}{modelName, n})
	m.mu.Unlock()
	return n, nil
}

func (m *MockAI) ExtractJSON(ctx context.Context, modelName, prompt string) (string, adapter.Usage, error) {
	m.mu.Lock()
	m.Calls.Extract = append(m.Calls.Extract, prompt)
	m.mu.Unlock()
	if m.ExtractJSONFunc != nil {
		return m.ExtractJSONFunc(ctx, modelName, prompt)
	}
	return `{"title":"Meeting","start_time_str":"tomorrow at 10:00","end_time_str":null,"duration_str":"1 hour","location":null,"reminder":null,"timezone":"Asia/Jerusalem"}`,
		adapter.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
	byTG map[int64]*model.User

	SaveFunc               func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc   func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	ListFunc               func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
	CountUsersFunc         func(ctx context.Context, tx repository.Tx) (int, error)
	CountInactiveUsersFunc func(ctx context.Context, tx repository.Tx, olderThan time.Time) (int, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byID[cp.ID] = &cp
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tx, offset, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.byID))
	for _, u := range r.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	if offset > len(out) {
		return []*model.User{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *MockUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, olderThan time.Time) (int, error) {
	if r.CountInactiveUsersFunc != nil {
		return r.CountInactiveUsersFunc(ctx, tx, olderThan)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.byID {
		if u.LastActiveAt.Before(olderThan) {
			n++
		}
	}
	return n, nil
}

// ---- Mock EventRepository ----

type MockEventRepo struct {
	mu   sync.Mutex
	data map[string]*model.CalendarEvent

	SaveFunc                 func(ctx context.Context, tx repository.Tx, e *model.CalendarEvent) error
	FindByIDFunc             func(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error)
	FindUpcomingByUserFunc   func(ctx context.Context, tx repository.Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error)
	FindDueRemindersFunc     func(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.CalendarEvent, error)
	MarkRemindedFunc         func(ctx context.Context, tx repository.Tx, id string, at time.Time) error
	UpdateStatusFunc         func(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error
	ClearSourceTextFunc      func(ctx context.Context, tx repository.Tx, userID string) ([]string, error)
	DeleteExpiredFunc        func(ctx context.Context, tx repository.Tx, now time.Time) (int64, error)
	CountEventsFunc          func(ctx context.Context, tx repository.Tx) (int, error)
	CountCreatedSinceFunc    func(ctx context.Context, tx repository.Tx, since time.Time) (int, error)
	CountPendingRemindersFunc func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.EventRepository = (*MockEventRepo)(nil)

func NewMockEventRepo() *MockEventRepo {
	return &MockEventRepo{data: map[string]*model.CalendarEvent{}}
}

func (r *MockEventRepo) Save(ctx context.Context, tx repository.Tx, e *model.CalendarEvent) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.data[cp.ID] = &cp
	return nil
}

func (r *MockEventRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.data[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockEventRepo) FindUpcomingByUser(ctx context.Context, tx repository.Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error) {
	if r.FindUpcomingByUserFunc != nil {
		return r.FindUpcomingByUserFunc(ctx, tx, userID, from, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CalendarEvent
	for _, e := range r.data {
		if e.UserID == userID && e.Status == model.EventStatusScheduled && !e.EndAt.Before(from) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockEventRepo) FindDueReminders(ctx context.Context, tx repository.Tx, at time.Time, limit int) ([]*model.CalendarEvent, error) {
	if r.FindDueRemindersFunc != nil {
		return r.FindDueRemindersFunc(ctx, tx, at, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CalendarEvent
	for _, e := range r.data {
		if e.Status != model.EventStatusScheduled || e.ReminderAt == nil || e.RemindedAt != nil {
			continue
		}
		if e.ReminderAt.After(at) || !e.EndAt.After(at) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderAt.Before(*out[j].ReminderAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockEventRepo) MarkReminded(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	if r.MarkRemindedFunc != nil {
		return r.MarkRemindedFunc(ctx, tx, id, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok || e.RemindedAt != nil {
		// Matches the SQL guard: a second mark finds zero rows.
		return domain.ErrNotFound
	}
	t := at
	e.RemindedAt = &t
	e.UpdatedAt = at
	return nil
}

func (r *MockEventRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error {
	if r.UpdateStatusFunc != nil {
		return r.UpdateStatusFunc(ctx, tx, id, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = now()
	return nil
}

func (r *MockEventRepo) ClearSourceText(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
	if r.ClearSourceTextFunc != nil {
		return r.ClearSourceTextFunc(ctx, tx, userID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var cleared []string
	for _, e := range r.data {
		if e.UserID == userID && e.SourceText != "" {
			e.SourceText = ""
			cleared = append(cleared, e.ID)
		}
	}
	sort.Strings(cleared)
	return cleared, nil
}

func (r *MockEventRepo) DeleteExpired(ctx context.Context, tx repository.Tx, at time.Time) (int64, error) {
	if r.DeleteExpiredFunc != nil {
		return r.DeleteExpiredFunc(ctx, tx, at)
	}
	// Retention windows live on the user rows; the in-memory default keeps
	// everything and lets tests stub the behavior they need.
	return 0, nil
}

func (r *MockEventRepo) CountEvents(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountEventsFunc != nil {
		return r.CountEventsFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

func (r *MockEventRepo) CountCreatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	if r.CountCreatedSinceFunc != nil {
		return r.CountCreatedSinceFunc(ctx, tx, since)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.data {
		if !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MockEventRepo) CountPendingReminders(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountPendingRemindersFunc != nil {
		return r.CountPendingRemindersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.data {
		if e.Status == model.EventStatusScheduled && e.ReminderAt != nil && e.RemindedAt == nil {
			n++
		}
	}
	return n, nil
}

// ---- Mock StateRepository ----

type MockStateRepo struct {
	mu   sync.Mutex
	data map[int64]*repository.ConversationState

	SetStateFunc   func(ctx context.Context, tgID int64, state *repository.ConversationState) error
	GetStateFunc   func(ctx context.Context, tgID int64) (*repository.ConversationState, error)
	ClearStateFunc func(ctx context.Context, tgID int64) error
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{data: make(map[int64]*repository.ConversationState)}
}

func (m *MockStateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	if m.SetStateFunc != nil {
		return m.SetStateFunc(ctx, tgID, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tgID] = state
	return nil
}

func (m *MockStateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	if m.GetStateFunc != nil {
		return m.GetStateFunc(ctx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.data[tgID]; ok {
		return state, nil
	}
	return nil, nil // absent state is not an error, same as the Redis repo
}

func (m *MockStateRepo) ClearState(ctx context.Context, tgID int64) error {
	if m.ClearStateFunc != nil {
		return m.ClearStateFunc(ctx, tgID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, tgID)
	return nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the function immediately with NoTX by default. Tests that need
// to observe transactional behavior can assign a custom WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Test Translator

// newTestTranslator builds a translator from an in-memory catalog so tests
// stay self-contained. Keys not listed here resolve to themselves.
func newTestTranslator() *i18n.Translator {
	testFS := fstest.MapFS{
		"locales/en.yaml": {
			Data: []byte(
				"reminder_text: 'Reminder: %s starts at %s.'\n" +
					"reminder_text_location: 'Reminder: %s starts at %s. Location: %s'\n"),
		},
		"locales/policy-en.txt": {
			Data: []byte("Test Policy"),
		},
	}
	translator, _ := i18n.NewTranslator(testFS, "en")
	return translator
}

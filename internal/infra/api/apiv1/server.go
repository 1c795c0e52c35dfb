package apiv1

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen -generate types,chi-server -package apiv1 -o gen.go ../../../../api/openapi.yaml

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/usecase"
)

const (
	defaultUserPageSize  = 50
	maxUserPageSize      = 200
	defaultEventPageSize = 20
	maxEventPageSize     = 100
)

// Compile-time check
var _ ServerInterface = (*Server)(nil)

// Server implements the generated ServerInterface on top of the use cases.
// A nil dependency turns its endpoints into 501s so a partially wired server
// degrades instead of panicking.
type Server struct {
	stats  usecase.StatsUseCase
	users  usecase.UserUseCase
	events usecase.EventUseCase
	ai     adapter.AIServiceAdapter
}

func NewServer(
	stats usecase.StatsUseCase,
	users usecase.UserUseCase,
	events usecase.EventUseCase,
	ai adapter.AIServiceAdapter,
) *Server {
	return &Server{stats: stats, users: users, events: events, ai: ai}
}

// RegisterAPIV1 mounts the v1 routes on r. The generated mux registers
// absolute paths (/api/v1/...), so r should be the root router.
func RegisterAPIV1(r chi.Router, srv *Server) {
	HandlerFromMux(srv, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Error{Error: msg})
}

// writeDomainErr maps domain sentinels onto HTTP statuses; anything
// unexpected degrades to 400 with the error text.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeErr(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeErr(w, http.StatusBadRequest, err.Error())
	}
}

// GetStats implements GET /api/v1/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeErr(w, http.StatusNotImplemented, "stats api not wired")
		return
	}
	totals, err := s.stats.Totals(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsTotals{
		Users:            totals.Users,
		ActiveUsers24h:   totals.ActiveUsers24h,
		Events:           totals.Events,
		EventsCreated7d:  totals.EventsCreated7d,
		PendingReminders: totals.PendingReminders,
	})
}

// ListUsers implements GET /api/v1/users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request, params ListUsersParams) {
	if s.users == nil {
		writeErr(w, http.StatusNotImplemented, "user api not wired")
		return
	}
	offset := 0
	if params.Offset != nil && *params.Offset > 0 {
		offset = *params.Offset
	}
	limit := defaultUserPageSize
	if params.Limit != nil && *params.Limit > 0 {
		limit = *params.Limit
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}

	users, err := s.users.List(r.Context(), offset, limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	total, err := s.users.Count(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	out := UserList{Items: make([]User, 0, len(users)), Total: total, Offset: offset, Limit: limit}
	for _, u := range users {
		out.Items = append(out.Items, toAPIUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListUserEvents implements GET /api/v1/users/{userId}/events.
func (s *Server) ListUserEvents(w http.ResponseWriter, r *http.Request, userId string, params ListUserEventsParams) {
	if s.users == nil || s.events == nil {
		writeErr(w, http.StatusNotImplemented, "event api not wired")
		return
	}
	limit := defaultEventPageSize
	if params.Limit != nil && *params.Limit > 0 {
		limit = *params.Limit
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}

	user, err := s.users.GetByID(r.Context(), userId)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	events, err := s.events.ListUpcoming(r.Context(), user.ID, limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	out := EventList{Items: make([]Event, 0, len(events))}
	for _, e := range events {
		out.Items = append(out.Items, toAPIEvent(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListModels implements GET /api/v1/models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	if s.ai == nil {
		writeErr(w, http.StatusNotImplemented, "model api not wired")
		return
	}
	names, err := s.ai.ListModels(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	out := ModelList{Items: make([]Model, 0, len(names))}
	for _, name := range names {
		info, err := s.ai.GetModelInfo(name)
		if err != nil {
			// skip names the provider no longer describes
			continue
		}
		supports := info.Supports
		if supports == nil {
			supports = []string{}
		}
		out.Items = append(out.Items, Model{
			Name:        info.Name,
			Description: info.Description,
			MaxTokens:   info.MaxTokens,
			Supports:    supports,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func toAPIUser(u *model.User) User {
	return User{
		Id:           u.ID,
		TelegramId:   u.TelegramID,
		Username:     u.Username,
		Timezone:     u.Timezone,
		RegisteredAt: u.RegisteredAt,
		LastActiveAt: u.LastActiveAt,
		IsAdmin:      u.IsAdmin,
	}
}

func toAPIEvent(e *model.CalendarEvent) Event {
	return Event{
		Id:              e.ID,
		UserId:          e.UserID,
		Title:           e.Title,
		Location:        e.Location,
		StartAt:         e.StartAt,
		EndAt:           e.EndAt,
		Timezone:        e.Timezone,
		ReminderMinutes: e.ReminderMinutes,
		Status:          string(e.Status),
	}
}

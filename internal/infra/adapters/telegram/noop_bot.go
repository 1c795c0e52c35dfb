package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-event-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for local development.
// It logs outgoing traffic instead of talking to Telegram.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	compLog := logger.With().Str("component", "NoopTelegramBot").Logger()
	return &NoopBotAdapter{log: &compLog}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	evt := b.log.Info().Int64("chat_id", params.ChatID).Str("text", params.Text)
	if params.ReplyMarkup != nil {
		evt = evt.Int("button_rows", len(params.ReplyMarkup.Buttons))
	}
	evt.Msg("send message")
	return nil
}

func (b *NoopBotAdapter) SendDocument(ctx context.Context, params adapter.SendDocumentParams) error {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	b.log.Info().
		Int64("chat_id", params.ChatID).
		Str("filename", params.Filename).
		Int("bytes", len(params.Data)).
		Msg("send document")
	return nil
}

func (b *NoopBotAdapter) SendTyping(ctx context.Context, chatID int64) error {
	b.log.Debug().Int64("chat_id", chatID).Msg("send typing action")
	return nil
}

func (b *NoopBotAdapter) SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error {
	b.log.Info().Int64("chat_id", chatID).Bool("is_admin", isAdmin).Msg("set menu commands")
	return nil
}

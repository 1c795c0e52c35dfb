package adapter

import "context"

// Button is one inline keyboard button. Exactly one of Data or URL should be
// set; Data buttons raise callback queries, URL buttons open links.
type Button struct {
	Text string
	Data string
	URL  string
}

// ReplyMarkup carries the keyboard attached to an outgoing message.
type ReplyMarkup struct {
	Buttons  [][]Button
	IsInline bool
}

// SendMessageParams bundles everything needed to deliver one message.
type SendMessageParams struct {
	ChatID                int64
	Text                  string
	ParseMode             string // "HTML", "MarkdownV2" or empty for plain text
	ReplyMarkup           *ReplyMarkup
	DisableWebPagePreview bool
}

// SendDocumentParams delivers an in-memory file, e.g. a generated .ics.
type SendDocumentParams struct {
	ChatID   int64
	Filename string
	Data     []byte
	Caption  string
}

// TelegramBotAdapter is the outbound port for talking back to Telegram.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	SendDocument(ctx context.Context, params SendDocumentParams) error

	// SendTyping shows the "typing..." chat action while extraction runs.
	SendTyping(ctx context.Context, chatID int64) error

	// SetMenuCommands installs the per-chat command menu. Admin chats get
	// the extended set.
	SetMenuCommands(ctx context.Context, chatID int64, isAdmin bool) error
}

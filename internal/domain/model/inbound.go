package model

// InboundMedia references media already uploaded to Telegram.
type InboundMedia struct {
	Kind     MediaKind
	FileID   string
	Original string // telegram message type, e.g. "document", "sticker"
}

// Inbound is a transport-neutral view of one user message.
type Inbound struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string // without the leading slash, empty for plain messages
	Text     string
	Media    *InboundMedia
}

func (in Inbound) IsCommand() bool { return in.Command != "" }

func (in Inbound) HasMedia() bool { return in.Media != nil }

package discovery

import (
	"context"
	"time"
)

// Message is a chat message that may contain post links
type Message struct {
	ID        string
	ChannelID string
	Author    string
	Content   string
	Timestamp time.Time
}

// MessageSource is the chat platform the bot reads links from
type MessageSource interface {
	// ChannelName returns a display name for the watched channel
	ChannelName(ctx context.Context) (string, error)

	// History returns up to limit past messages, newest first
	History(ctx context.Context, limit int) ([]Message, error)

	// Subscribe delivers live messages to handler until the returned function is called.
	// handler must not block.
	Subscribe(handler func(Message)) (unsubscribe func())
}

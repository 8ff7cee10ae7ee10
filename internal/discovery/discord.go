package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"forum-reactor/internal/core"
)

// maxPageSize is the most messages Discord returns per history request
const maxPageSize = 100

// closeAuthenticationFailed is the gateway close code for a rejected token
const closeAuthenticationFailed = 4004

// discordAPI is the part of *discordgo.Session the source uses
type discordAPI interface {
	Open() error
	Close() error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

// DiscordSource reads messages from one Discord channel
type DiscordSource struct {
	api       discordAPI
	channelID string
	logger    *zap.Logger

	mu   sync.Mutex
	open bool
}

var _ MessageSource = (*DiscordSource)(nil)

// NewDiscordSource creates a source for the configured channel. The gateway connection is
// made by Open.
func NewDiscordSource(cfg core.DiscordConfig, logger *zap.Logger) (*DiscordSource, error) {
	token := strings.TrimSpace(cfg.Token)
	if cfg.Bot && !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}

	session, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	return newDiscordSource(session, cfg.ChannelID, logger), nil
}

func newDiscordSource(api discordAPI, channelID string, logger *zap.Logger) *DiscordSource {
	return &DiscordSource{
		api:       api,
		channelID: channelID,
		logger:    logger,
	}
}

// Open connects to the gateway. A rejected token yields an error wrapping core.ErrFatalAuth.
func (d *DiscordSource) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}
	if err := d.api.Open(); err != nil {
		return classifyDiscordError("failed to connect to discord", err)
	}
	d.open = true
	d.logger.Info("Connected to discord", zap.String("channel_id", d.channelID))
	return nil
}

// Close disconnects from the gateway
func (d *DiscordSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return nil
	}
	d.open = false
	if err := d.api.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (d *DiscordSource) ChannelName(ctx context.Context) (string, error) {
	channel, err := d.api.Channel(d.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", classifyDiscordError("failed to fetch channel", err)
	}
	return channel.Name, nil
}

// History pages backwards through the channel, maxPageSize messages per request
func (d *DiscordSource) History(ctx context.Context, limit int) ([]Message, error) {
	var messages []Message
	beforeID := ""

	for len(messages) < limit {
		if err := ctx.Err(); err != nil {
			return messages, err
		}

		size := min(maxPageSize, limit-len(messages))
		batch, err := d.api.ChannelMessages(d.channelID, size, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return messages, classifyDiscordError("failed to fetch message history", err)
		}
		d.logger.Debug("Fetched message page", zap.Int("count", len(batch)), zap.String("before", beforeID))

		for _, m := range batch {
			messages = append(messages, fromDiscord(m))
		}
		if len(batch) < size {
			break
		}
		beforeID = batch[len(batch)-1].ID
	}

	return messages, nil
}

func (d *DiscordSource) Subscribe(handler func(Message)) func() {
	return d.api.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageCreate) {
		if e.Message == nil || e.ChannelID != d.channelID {
			return
		}
		handler(fromDiscord(e.Message))
	})
}

func fromDiscord(m *discordgo.Message) Message {
	msg := Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		msg.Author = m.Author.Username
	}
	return msg
}

// classifyDiscordError maps token rejections to core.ErrFatalAuth
func classifyDiscordError(msg string, err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == closeAuthenticationFailed {
		return fmt.Errorf("%s: %w: %w", msg, core.ErrFatalAuth, err)
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w: %w", msg, core.ErrFatalAuth, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

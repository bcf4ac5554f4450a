package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const userAgent = "DiscordBot (https://github.com/spec-kit/ticket-bridge, 1)"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Token is the bot token, sent as "Bot <token>".
	Token string
	// HTTPClient is used for all REST requests. If nil, discordgo's default is kept.
	HTTPClient *http.Client
	// MaxRestRetries bounds retries of 502 responses. Zero keeps the default.
	MaxRestRetries int
	Logger         *zap.Logger
}

// Client wraps one discordgo session. REST calls go through its per-route
// rate-limit buckets and the same session carries the gateway connection.
type Client struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewClient validates config and builds a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("discord: Token is required")
	}
	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = DefaultIntents
	session.StateEnabled = false
	session.UserAgent = userAgent
	if config.HTTPClient != nil {
		session.Client = config.HTTPClient
	}
	if config.MaxRestRetries > 0 {
		session.MaxRestRetries = config.MaxRestRetries
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{session: session, logger: logger}, nil
}

// StartThread opens a public thread without a starter message under channelID.
func (c *Client) StartThread(ctx context.Context, channelID, name string) (*discordgo.Channel, error) {
	channel, err := c.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: ArchiveAfterOneDay,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, c.failed("start thread", err)
	}
	return channel, nil
}

// AddThreadMember adds userID to the thread.
func (c *Client) AddThreadMember(ctx context.Context, threadID, userID string) error {
	if err := c.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return c.failed("add thread member", err)
	}
	return nil
}

// SendMessage posts a message to a channel or thread.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	sent, err := c.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return nil, c.failed("send message", err)
	}
	return sent, nil
}

// LockAndArchiveThread sets both the locked and archived flags.
func (c *Client) LockAndArchiveThread(ctx context.Context, threadID string) error {
	locked, archived := true, true
	_, err := c.session.ChannelEdit(threadID, &discordgo.ChannelEdit{
		Locked:   &locked,
		Archived: &archived,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return c.failed("lock and archive thread", err)
	}
	return nil
}

// GuildMember fetches a guild member with their role ids.
func (c *Client) GuildMember(ctx context.Context, guildID, userID string) (*Member, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, c.failed("get guild member", err)
	}
	return memberFrom(member), nil
}

// RespondToInteraction sends the initial response to an interaction.
func (c *Client) RespondToInteraction(ctx context.Context, interaction Interaction, response *discordgo.InteractionResponse) error {
	target := &discordgo.Interaction{ID: interaction.ID, Token: interaction.Token}
	if err := c.session.InteractionRespond(target, response, discordgo.WithContext(ctx)); err != nil {
		return c.failed("interaction response", err)
	}
	return nil
}

func (c *Client) failed(op string, err error) error {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if status := statusOf(err); status != 0 {
		fields = append(fields, zap.Int("status", status), zap.Int("code", codeOf(err)))
	}
	c.logger.Debug("discord request failed", fields...)
	return fmt.Errorf("discord: %s: %w", op, err)
}

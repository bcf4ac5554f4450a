package discord

import (
	"context"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

// Notice texts posted into ticket threads.
const (
	ClosureTitle       = "🔒 Ticket Closed"
	ClosureDescription = "This ticket has been closed by a staff member."
)

// AdapterConfig scopes the adapter to one guild.
type AdapterConfig struct {
	GuildID     string
	StaffRoleID string
}

// Adapter implements gateway.ThreadGateway on the Discord REST API.
type Adapter struct {
	client *Client
	cfg    AdapterConfig
	logger *zap.Logger
}

var _ gateway.ThreadGateway = (*Adapter)(nil)

// NewAdapter builds the thread gateway for one guild.
func NewAdapter(client *Client, cfg AdapterConfig, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, cfg: cfg, logger: logger}
}

// CreateThread opens a public thread, adds the requester and posts the
// welcome message. When the welcome cannot be posted the fresh thread is
// archived again and the failure returned, so no unannounced thread stays open.
func (a *Adapter) CreateThread(ctx context.Context, spec gateway.ThreadSpec) (string, error) {
	thread, err := a.client.StartThread(ctx, spec.ParentChannel, truncate(spec.Title, 100))
	if err != nil {
		return "", classify("create thread", err)
	}

	if spec.RequesterID != "" {
		if err := a.client.AddThreadMember(ctx, thread.ID, spec.RequesterID); err != nil {
			a.logger.Warn("could not add requester to thread",
				zap.String("thread_id", thread.ID),
				zap.String("requester_id", spec.RequesterID),
				zap.Error(err),
			)
		}
	}

	if spec.InitialMessage != "" {
		if _, err := a.client.SendMessage(ctx, thread.ID, &discordgo.MessageSend{Content: spec.InitialMessage}); err != nil {
			if archiveErr := a.LockAndArchive(context.WithoutCancel(ctx), thread.ID); archiveErr != nil {
				a.logger.Error("could not archive thread after failed welcome",
					zap.String("thread_id", thread.ID),
					zap.Error(archiveErr),
				)
			}
			return "", classify("post welcome message", err)
		}
	}
	return thread.ID, nil
}

// PostMessage renders post according to its kind.
func (a *Adapter) PostMessage(ctx context.Context, threadRef string, post gateway.Post) error {
	_, err := a.client.SendMessage(ctx, threadRef, renderPost(post))
	return classify("post message", err)
}

// LockAndArchive locks then archives the thread. An already archived or
// deleted thread counts as done.
func (a *Adapter) LockAndArchive(ctx context.Context, threadRef string) error {
	err := a.client.LockAndArchiveThread(ctx, threadRef)
	if err != nil && (IsCode(err, CodeUnknownChannel) || IsStatus(err, http.StatusNotFound)) {
		return nil
	}
	return classify("lock and archive", err)
}

// ResolveStaffRole reports whether userID holds the staff role in the guild.
// Users who are not guild members are not staff.
func (a *Adapter) ResolveStaffRole(ctx context.Context, userID string) (bool, error) {
	member, err := a.client.GuildMember(ctx, a.cfg.GuildID, userID)
	if err != nil {
		if IsCode(err, CodeUnknownMember) || IsCode(err, CodeUnknownUser) || IsStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, classify("resolve staff role", err)
	}
	return member.HasRole(a.cfg.StaffRoleID), nil
}

func renderPost(post gateway.Post) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{}
	switch post.Kind {
	case gateway.PostAssignment:
		msg.Embeds = []*discordgo.MessageEmbed{{
			Description: "This ticket has been assigned to <@" + post.TargetID + ">",
			Color:       ColorGreen,
		}}
	case gateway.PostClosure:
		msg.Embeds = []*discordgo.MessageEmbed{{
			Title:       ClosureTitle,
			Description: ClosureDescription,
			Color:       ColorRed,
		}}
	default:
		if !post.IsStaff {
			msg.Content = post.Content
			return msg
		}
		msg.Embeds = []*discordgo.MessageEmbed{{
			Description: truncate(post.Content, 4096),
			Color:       ColorBlurple,
			Author:      &discordgo.MessageEmbedAuthor{Name: post.AuthorName, IconURL: post.AvatarRef},
		}}
	}
	return msg
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
